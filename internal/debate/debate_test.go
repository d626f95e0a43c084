package debate

import "testing"

func TestParseSegmentKind(t *testing.T) {
	cases := map[string]SegmentKind{
		"opening":   SegmentOpening,
		" Rebuttal": SegmentRebuttal,
		"CLOSING":   SegmentClosing,
	}
	for in, want := range cases {
		got, ok := ParseSegmentKind(in)
		if !ok || got != want {
			t.Fatalf("ParseSegmentKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseSegmentKind("crossfire"); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
}

func TestStanceOpposite(t *testing.T) {
	if StancePro.Opposite() != StanceCon || StanceCon.Opposite() != StancePro {
		t.Fatal("unexpected opposite stance")
	}
	if _, ok := ParseStance("neutral"); ok {
		t.Fatal("expected neutral to be rejected")
	}
}

func TestEstimateSpeechDuration(t *testing.T) {
	if got := EstimateSpeechDuration(""); got != 0 {
		t.Fatalf("expected 0 for empty text, got %v", got)
	}
	// 75 words at 150 wpm is 30 seconds.
	text := ""
	for i := 0; i < 75; i++ {
		text += "word "
	}
	if got := EstimateSpeechDuration(text); got != 30 {
		t.Fatalf("expected 30s, got %v", got)
	}
}

func TestRound(t *testing.T) {
	if got := Round(66.6666, 1); got != 66.7 {
		t.Fatalf("unexpected round: %v", got)
	}
	if got := Round(3.14159, 2); got != 3.14 {
		t.Fatalf("unexpected round: %v", got)
	}
}
