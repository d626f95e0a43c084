package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/foxseedlab/debaide/internal/debate"
	"github.com/foxseedlab/debaide/internal/storage"
	"github.com/google/uuid"
)

const defaultExtension = "webm"

var (
	ErrEmptyAudio      = errors.New("storage: empty audio")
	ErrInvalidSession  = errors.New("storage: invalid session id")
	extensionSanitizer = regexp.MustCompile(`[^a-z0-9]`)
	sessionIDPattern   = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

type LocalAudioStore struct {
	root string
}

func NewLocalAudioStore(root string) (*LocalAudioStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create audio storage dir: %w", err)
	}
	return &LocalAudioStore{root: root}, nil
}

func (s *LocalAudioStore) Root() string {
	return s.root
}

func extensionOf(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	ext = extensionSanitizer.ReplaceAllString(ext, "")
	if ext == "" {
		return defaultExtension
	}
	return ext
}

func (s *LocalAudioStore) Save(ctx context.Context, sessionID string, kind debate.SegmentKind, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyAudio
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return "", ErrInvalidSession
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.%s", kind, uuid.NewString(), extensionOf(filename))
	dir := filepath.Join(s.root, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return storage.URLPrefix + path.Join(sessionID, name), nil
}
