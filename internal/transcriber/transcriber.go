package transcriber

import "context"

type Transcript struct {
	Text string
	// Duration is the spoken length in seconds.
	Duration float64
}

type Transcriber interface {
	// Transcribe recognizes a complete audio file. An empty language selects
	// the configured default.
	Transcribe(ctx context.Context, audio []byte, language string) (Transcript, error)
}
