// Package apiclient talks to the debaide HTTP API. It is used by command line
// tools that follow a battle from a participant's seat.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/valyala/fasthttp"
)

const (
	defaultTimeout = 10 * time.Second
	judgeTimeout   = 90 * time.Second
)

var ErrNotLoggedIn = errors.New("apiclient: not logged in")

type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration

	retryMax int

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithToken starts the client with an existing bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &fasthttp.Client{ReadTimeout: judgeTimeout, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		timeout:  defaultTimeout,
		retryMax: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Register(ctx context.Context, username, email, password string) (debatedto.AuthResponse, error) {
	var resp debatedto.AuthResponse
	q := url.Values{"username": {username}, "email": {email}, "password": {password}}
	if err := c.do(ctx, call{method: fasthttp.MethodPost, path: "/auth/register", query: q}, &resp); err != nil {
		return resp, err
	}
	c.setToken(resp.AccessToken)
	return resp, nil
}

// Login stores the returned token for every later call.
func (c *Client) Login(ctx context.Context, username, password string) (debatedto.AuthResponse, error) {
	var resp debatedto.AuthResponse
	q := url.Values{"username": {username}, "password": {password}}
	if err := c.do(ctx, call{method: fasthttp.MethodPost, path: "/auth/login", query: q}, &resp); err != nil {
		return resp, err
	}
	c.setToken(resp.AccessToken)
	return resp, nil
}

func (c *Client) CreateBattle(ctx context.Context, topicID int64, stance string) (debatedto.BattleCreated, error) {
	var resp debatedto.BattleCreated
	q := url.Values{"topic_id": {fmt.Sprint(topicID)}, "stance": {stance}}
	err := c.do(ctx, call{method: fasthttp.MethodPost, path: "/battle/create", query: q, auth: true}, &resp)
	return resp, err
}

func (c *Client) JoinBattle(ctx context.Context, battleID string) (debatedto.BattleCreated, error) {
	var resp debatedto.BattleCreated
	err := c.do(ctx, call{method: fasthttp.MethodPost, path: battlePath(battleID, "join"), auth: true}, &resp)
	return resp, err
}

func (c *Client) BattleStatus(ctx context.Context, battleID string) (debatedto.BattleStatus, error) {
	var resp debatedto.BattleStatus
	err := c.do(ctx, call{method: fasthttp.MethodGet, path: battlePath(battleID, "status"), auth: true, retry: true}, &resp)
	return resp, err
}

func (c *Client) BattleSegments(ctx context.Context, battleID string) ([]debatedto.BattleSegment, error) {
	var resp []debatedto.BattleSegment
	err := c.do(ctx, call{method: fasthttp.MethodGet, path: battlePath(battleID, "segments"), auth: true, retry: true}, &resp)
	return resp, err
}

func (c *Client) SubmitBattleSegment(ctx context.Context, battleID, kind, text string) (debatedto.BattleSegmentSubmitted, error) {
	var resp debatedto.BattleSegmentSubmitted
	q := url.Values{"kind": {kind}, "text": {text}}
	err := c.do(ctx, call{method: fasthttp.MethodPost, path: battlePath(battleID, "segment"), query: q, auth: true}, &resp)
	return resp, err
}

// JudgeBattle is safe to call from both participants; the server judges once.
func (c *Client) JudgeBattle(ctx context.Context, battleID string) (debatedto.JudgeResult, error) {
	var resp debatedto.JudgeResult
	err := c.do(ctx, call{method: fasthttp.MethodPost, path: battlePath(battleID, "judge"), auth: true, timeout: judgeTimeout}, &resp)
	return resp, err
}

func battlePath(battleID, action string) string {
	return "/battle/" + url.PathEscape(battleID) + "/" + action
}

type call struct {
	method  string
	path    string
	query   url.Values
	auth    bool
	retry   bool
	timeout time.Duration
}

func (c *Client) do(ctx context.Context, in call, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	uri := c.baseURL + in.path
	if len(in.query) > 0 {
		uri += "?" + in.query.Encode()
	}
	req.Header.SetMethod(in.method)
	req.SetRequestURI(uri)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if in.auth {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}

	timeout := c.timeout
	if in.timeout > 0 {
		timeout = in.timeout
	}
	attempts := 1
	if in.retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, deadline(ctx, timeout))
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", in.method, in.path, err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := decodeError(status, resp.Body())
			if !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			if out != nil {
				if err := json.Unmarshal(resp.Body(), out); err != nil {
					return fmt.Errorf("decode %s response: %w", in.path, err)
				}
			}
			return nil
		}
		if attempt < attempts {
			if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
				return lastErr
			}
		}
	}
	return lastErr
}

func decodeError(status int, body []byte) *debatedto.APIError {
	var er debatedto.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Detail == "" {
		er.Detail = truncate(strings.TrimSpace(string(body)), 256)
	}
	return &debatedto.APIError{StatusCode: status, Detail: er.Detail}
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	clientDL := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
