package transcriber

import (
	"context"
	"errors"
	"testing"
	"time"

	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

type fakeRecognizer struct {
	errs []error
	resp *speechpb.RecognizeResponse
	reqs []*speechpb.RecognizeRequest
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.reqs = append(f.reqs, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.resp, nil
}

func testConfig() CloudSpeechConfig {
	return CloudSpeechConfig{ProjectID: "proj", Location: "us", Language: "en-US", Model: "chirp_3"}
}

func TestTranscribe_JoinsResultsAndUsesLastOffset(t *testing.T) {
	f := &fakeRecognizer{resp: &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{
			Transcript: "Remote work saves time.",
			Words:      []*speechpb.WordInfo{{Word: "time", EndOffset: durationpb.New(2 * time.Second)}},
		}}},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{
			Transcript: " It also cuts costs. ",
			Words:      []*speechpb.WordInfo{{Word: "costs", EndOffset: durationpb.New(4500 * time.Millisecond)}},
		}}},
		{},
	}}}
	tr := newCloudSpeechTranscriber(f, nil, testConfig())

	got, err := tr.Transcribe(context.Background(), []byte("audio"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Text != "Remote work saves time. It also cuts costs." {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if got.Duration != 4.5 {
		t.Fatalf("unexpected duration: %v", got.Duration)
	}
	req := f.reqs[0]
	if req.GetRecognizer() != "projects/proj/locations/us/recognizers/_" {
		t.Fatalf("unexpected recognizer: %s", req.GetRecognizer())
	}
	if req.GetConfig().GetLanguageCodes()[0] != "en-US" || req.GetConfig().GetAutoDecodingConfig() == nil {
		t.Fatalf("unexpected config: %v", req.GetConfig())
	}
}

func TestTranscribe_RetriesUnavailable(t *testing.T) {
	f := &fakeRecognizer{
		errs: []error{status.Error(codes.Unavailable, "try again")},
		resp: &speechpb.RecognizeResponse{},
	}
	tr := newCloudSpeechTranscriber(f, nil, testConfig())
	if _, err := tr.Transcribe(context.Background(), []byte("audio"), "ja-JP"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.reqs) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(f.reqs))
	}
	if f.reqs[1].GetConfig().GetLanguageCodes()[0] != "ja-JP" {
		t.Fatal("expected explicit language to be used")
	}
}

func TestTranscribe_DoesNotRetryInvalidArgument(t *testing.T) {
	f := &fakeRecognizer{errs: []error{status.Error(codes.InvalidArgument, "bad audio")}}
	tr := newCloudSpeechTranscriber(f, nil, testConfig())
	if _, err := tr.Transcribe(context.Background(), []byte("audio"), ""); err == nil {
		t.Fatal("expected error")
	}
	if len(f.reqs) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(f.reqs))
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	tr := newCloudSpeechTranscriber(&fakeRecognizer{}, nil, testConfig())
	if _, err := tr.Transcribe(context.Background(), nil, ""); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestMockTranscriber(t *testing.T) {
	got, err := MockTranscriber{}.Transcribe(context.Background(), []byte("x"), "")
	if err != nil || got.Duration != 5 || got.Text == "" {
		t.Fatalf("unexpected mock result: %+v %v", got, err)
	}
}
