package announce

import (
	"log/slog"

	"github.com/foxseedlab/debaide/internal/config"
	"github.com/foxseedlab/debaide/internal/discord"
	"github.com/foxseedlab/debaide/internal/webhook"
	"github.com/samber/do/v2"
)

// RegisterDI provides an Announcer over every configured channel. The discord
// client and webhook sender are only resolved when configured.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (Announcer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		var out Multi
		if cfg.DiscordToken != "" {
			client, err := do.Invoke[discord.Client](i)
			if err != nil {
				return nil, err
			}
			out = append(out, NewDiscordAnnouncer(client, cfg.DiscordResultChannelID))
		}
		if cfg.BattleResultWebhookURL != "" {
			out = append(out, NewWebhookAnnouncer(do.MustInvoke[webhook.Sender](i)))
		}
		if len(out) == 0 {
			slog.Info("no battle result channel configured, results are not announced")
			return Nop{}, nil
		}
		return out, nil
	})
}
