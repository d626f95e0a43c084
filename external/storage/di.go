package storage

import (
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/storage"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (storage.AudioStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		s, err := NewLocalAudioStore(cfg.AudioStorageDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
