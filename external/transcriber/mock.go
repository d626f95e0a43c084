package transcriber

import (
	"context"

	"github.com/foxseedlab/debaide/internal/transcriber"
)

const (
	mockTranscript = "[Mock transcription: This is a sample transcription of your debate speech.]"
	mockDuration   = 5.0
)

// MockTranscriber answers every request with a fixed transcript. It is used
// when speech recognition is disabled.
type MockTranscriber struct{}

func (MockTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (transcriber.Transcript, error) {
	if len(audio) == 0 {
		return transcriber.Transcript{}, ErrEmptyAudio
	}
	return transcriber.Transcript{Text: mockTranscript, Duration: mockDuration}, nil
}
