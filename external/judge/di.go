package judge

import (
	"log/slog"

	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (judge.Judge, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.GeminiAPIKey == "" {
			slog.Warn("GEMINI_API_KEY is empty, AI features return fallback results")
			return judge.NewService(nil), nil
		}
		return judge.NewService(NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)), nil
	})
}
