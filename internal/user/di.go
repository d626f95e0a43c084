package user

import (
	"github.com/foxseedlab/debaide/internal/auth"
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*auth.TokenIssuer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.JWTExpiry()), nil
	})
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		return NewService(do.MustInvoke[repository.Repository](i), do.MustInvoke[*auth.TokenIssuer](i)), nil
	})
}
