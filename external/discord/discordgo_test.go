package discord

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/debaide/internal/discord"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestSession(t *testing.T, rt roundTripFunc) *discordgo.Session {
	t.Helper()
	s, err := discordgo.New("Bot test-token")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if rt != nil {
		s.Client = &http.Client{Transport: rt}
	}
	return s
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestSendChannelMessage_PostsContent(t *testing.T) {
	var gotBody string
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, "/channels/ch-1/messages") {
			t.Fatalf("unexpected request: %s %s", req.Method, req.URL.Path)
		}
		b, _ := io.ReadAll(req.Body)
		gotBody = string(b)
		return jsonResponse(http.StatusOK, `{"id":"m1","channel_id":"ch-1","content":"hi"}`), nil
	})

	c := &Client{session: s}
	if err := c.SendChannelMessage("ch-1", "Winner: alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotBody, "Winner: alice") {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestSendChannelMessage_NotFound(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`), nil
	})

	c := &Client{session: s}
	err := c.SendChannelMessage("ch-missing", "hello")
	if !errors.Is(err, discordpkg.ErrChannelNotFound) {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestSendChannelMessage_NotConnected(t *testing.T) {
	if err := NewClient("token").SendChannelMessage("ch-1", "hello"); err == nil {
		t.Fatal("expected error without a session")
	}
}

func TestChannelName_UsesStateCacheFirst(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected REST call: %s %s", req.Method, req.URL.String())
		return nil, nil
	})
	if err := s.State.GuildAdd(&discordgo.Guild{
		ID:       "guild-1",
		Channels: []*discordgo.Channel{{ID: "ch-1", GuildID: "guild-1", Name: "battle-results"}},
	}); err != nil {
		t.Fatalf("failed to add guild to state: %v", err)
	}

	c := &Client{session: s}
	if got := c.ChannelName("ch-1"); got != "battle-results" {
		t.Fatalf("expected battle-results, got %q", got)
	}
}

func TestChannelName_FallsBackToID(t *testing.T) {
	s := newTestSession(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`), nil
	})

	c := &Client{session: s}
	if got := c.ChannelName("ch-9"); got != "ch-9" {
		t.Fatalf("expected id fallback, got %q", got)
	}
}
