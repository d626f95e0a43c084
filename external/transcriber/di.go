package transcriber

import (
	"context"
	"log/slog"
	"time"

	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/transcriber"
	"github.com/samber/do/v2"
)

const speechInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.STTEnabled {
			slog.Warn("STT_ENABLED is false, using mock transcriber")
			return MockTranscriber{}, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), speechInitTimeout)
		defer cancel()
		t, err := NewCloudSpeechTranscriber(ctx, CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.DefaultTranscribeLanguage,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	})
}
