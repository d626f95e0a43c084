package httpapi

import (
	"github.com/foxseedlab/debaide/internal/battle"
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/practice"
	"github.com/foxseedlab/debaide/internal/storage"
	"github.com/foxseedlab/debaide/internal/topic"
	"github.com/foxseedlab/debaide/internal/user"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		return NewHandler(
			do.MustInvoke[*user.Service](i),
			do.MustInvoke[*topic.Service](i),
			do.MustInvoke[*practice.Service](i),
			do.MustInvoke[*battle.Service](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewServer(cfg.HTTPAddr, do.MustInvoke[*Handler](i), do.MustInvoke[storage.AudioStore](i)), nil
	})
}
