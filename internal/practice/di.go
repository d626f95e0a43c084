package practice

import (
	"github.com/foxseedlab/debaide/internal/judge"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/internal/storage"
	"github.com/foxseedlab/debaide/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		return NewService(
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[judge.Judge](i),
			do.MustInvoke[transcriber.Transcriber](i),
			do.MustInvoke[storage.AudioStore](i),
		), nil
	})
}
