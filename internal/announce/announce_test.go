package announce

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/debaide/internal/webhook"
)

type recordingAnnouncer struct {
	got []BattleResult
	err error
}

func (r *recordingAnnouncer) AnnounceBattleResult(_ context.Context, result BattleResult) error {
	r.got = append(r.got, result)
	return r.err
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingAnnouncer{err: boom}
	b := &recordingAnnouncer{}
	err := Multi{a, nil, b}.AnnounceBattleResult(context.Background(), BattleResult{BattleID: "b1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("expected both announcers called: %d %d", len(a.got), len(b.got))
	}
}

func TestFormatResultMessage(t *testing.T) {
	msg := FormatResultMessage(BattleResult{
		TopicTitle: "Privacy is more important than security",
		Winner:     Participant{Username: "alice", Stance: "pro", Score: 41},
		Loser:      Participant{Username: "bob", Stance: "con", Score: 37.5},
		Summary:    "alice rebutted better.",
	})
	want := "Battle finished: Privacy is more important than security\nWinner: alice (pro) 41 - 37.5 bob (con)\nalice rebutted better."
	if msg != want {
		t.Fatalf("unexpected message:\n%s\nwant:\n%s", msg, want)
	}
}

type fakeDiscord struct {
	channel string
	content string
	err     error
}

func (f *fakeDiscord) Connect(context.Context) error { return nil }
func (f *fakeDiscord) Close() error                  { return nil }
func (f *fakeDiscord) ChannelName(id string) string  { return "#" + id }
func (f *fakeDiscord) SendChannelMessage(channelID, content string) error {
	f.channel, f.content = channelID, content
	return f.err
}

type fakeSender struct {
	got []webhook.Event
}

func (f *fakeSender) Send(_ context.Context, e webhook.Event) error {
	f.got = append(f.got, e)
	return nil
}

func TestDiscordAnnouncer(t *testing.T) {
	d := &fakeDiscord{}
	r := BattleResult{BattleID: "b1", TopicTitle: "T", Winner: Participant{Username: "alice"}, Loser: Participant{Username: "bob"}}
	if err := NewDiscordAnnouncer(d, "results").AnnounceBattleResult(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.channel != "results" || d.content != FormatResultMessage(r) {
		t.Fatalf("unexpected message: %q %q", d.channel, d.content)
	}

	d.err = errors.New("forbidden")
	err := NewDiscordAnnouncer(d, "results").AnnounceBattleResult(context.Background(), r)
	if err == nil || !strings.Contains(err.Error(), "#results") {
		t.Fatalf("expected error naming the channel, got %v", err)
	}
}

func TestWebhookAnnouncer(t *testing.T) {
	s := &fakeSender{}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := NewWebhookAnnouncer(s).AnnounceBattleResult(context.Background(), BattleResult{BattleID: "b1", CompletedAt: at}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.got) != 1 || s.got[0].ID != "b1" || s.got[0].Type != webhook.EventBattleCompleted || !s.got[0].OccurredAt.Equal(at) {
		t.Fatalf("unexpected events: %+v", s.got)
	}
	if r, ok := s.got[0].Data.(BattleResult); !ok || r.BattleID != "b1" {
		t.Fatalf("unexpected data: %#v", s.got[0].Data)
	}
}
