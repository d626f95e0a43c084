package discord

import (
	"context"
	"errors"
)

var ErrChannelNotFound = errors.New("discord: channel not found")

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	SendChannelMessage(channelID, content string) error
	// ChannelName falls back to the channel id when the name cannot be resolved.
	ChannelName(channelID string) string
}
