package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/debaide/internal/config"
	discordpkg "github.com/foxseedlab/debaide/internal/discord"
	"github.com/samber/do/v2"
)

const discordConnectTimeout = 20 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (discordpkg.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		client := NewClient(c.DiscordToken)

		ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
		defer cancel()
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("discord connect failed: %w", err)
		}
		return client, nil
	})
}
