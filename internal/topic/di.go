package topic

import (
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		j := do.MustInvoke[judge.Judge](i)
		return NewService(repo, j, cfg.DailyTopicLocation()), nil
	})
}
