package storage

import (
	"context"

	"github.com/foxseedlab/debaide/internal/debate"
)

// URLPrefix is the public path under which stored audio is served.
const URLPrefix = "/storage/audio/"

type AudioStore interface {
	// Save stores audio for a session segment and returns its public URL.
	Save(ctx context.Context, sessionID string, kind debate.SegmentKind, filename string, data []byte) (string, error)
	// Root is the directory served under URLPrefix.
	Root() string
}
