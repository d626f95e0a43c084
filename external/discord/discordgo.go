package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/debaide/internal/discord"
)

type Client struct {
	session *discordgo.Session
	token   string
}

func NewClient(token string) *Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)
	return s.Open()
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// Shutdown closes the gateway connection when the injector shuts down.
func (c *Client) Shutdown() error {
	return c.Close()
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	_, err := c.session.ChannelMessageSend(channelID, content)
	if isRESTNotFound(err) {
		return fmt.Errorf("%w: %s", discordpkg.ErrChannelNotFound, channelID)
	}
	return err
}

func (c *Client) ChannelName(channelID string) string {
	if ch := c.resolveChannel(channelID); ch != nil {
		return ch.Name
	}
	return channelID
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

func (c *Client) resolveChannel(channelID string) *discordgo.Channel {
	if c.session == nil {
		return nil
	}
	if c.session.State != nil {
		channel, err := c.session.State.Channel(channelID)
		if err == nil && channel != nil && channel.Name != "" {
			return channel
		}
	}
	// State may be cold right after startup; ask the REST API directly.
	channel, err := c.session.Channel(channelID)
	if err != nil || channel == nil {
		return nil
	}
	if channel.Name == "" {
		return nil
	}
	return channel
}
