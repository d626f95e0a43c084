package battle

import (
	"github.com/foxseedlab/debaide/internal/announce"
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewService(
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[judge.Judge](i),
			do.MustInvoke[Locker](i),
			do.MustInvoke[announce.Announcer](i),
			cfg.JudgeLockTTL(),
		), nil
	})
}
