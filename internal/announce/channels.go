package announce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/debaide/internal/discord"
	"github.com/foxseedlab/debaide/internal/webhook"
)

// DiscordAnnouncer posts a result message to one Discord channel.
type DiscordAnnouncer struct {
	client    discord.Client
	channelID string
}

func NewDiscordAnnouncer(client discord.Client, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{client: client, channelID: channelID}
}

func (a *DiscordAnnouncer) AnnounceBattleResult(_ context.Context, result BattleResult) error {
	if err := a.client.SendChannelMessage(a.channelID, FormatResultMessage(result)); err != nil {
		return fmt.Errorf("discord announce to %s: %w", a.client.ChannelName(a.channelID), err)
	}
	slog.Debug("battle result posted to discord", "battle_id", result.BattleID, "channel_id", a.channelID)
	return nil
}

// WebhookAnnouncer sends the result as a battle.completed event.
type WebhookAnnouncer struct {
	sender webhook.Sender
}

func NewWebhookAnnouncer(sender webhook.Sender) *WebhookAnnouncer {
	return &WebhookAnnouncer{sender: sender}
}

func (a *WebhookAnnouncer) AnnounceBattleResult(ctx context.Context, result BattleResult) error {
	err := a.sender.Send(ctx, webhook.Event{
		ID:         result.BattleID,
		Type:       webhook.EventBattleCompleted,
		OccurredAt: result.CompletedAt,
		Data:       result,
	})
	if err != nil {
		return fmt.Errorf("webhook announce: %w", err)
	}
	return nil
}
