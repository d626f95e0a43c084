package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/foxseedlab/debaide/internal/webhook"
)

const (
	requestTimeout = 10 * time.Second

	HeaderEvent     = "X-Debaide-Event"
	HeaderDelivery  = "X-Debaide-Delivery"
	HeaderSignature = "X-Debaide-Signature"
)

// HTTPSender posts events as JSON. When a secret is set the body is signed
// with HMAC-SHA256 and sent as "sha256=<hex>".
type HTTPSender struct {
	url    string
	secret []byte
	client *http.Client
}

func NewHTTPSender(url, secret string) *HTTPSender {
	s := &HTTPSender{url: url, client: &http.Client{Timeout: requestTimeout}}
	if secret != "" {
		s.secret = []byte(secret)
	}
	return s
}

func (s *HTTPSender) Send(ctx context.Context, event webhook.Event) error {
	if s.url == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event.Type)
	if event.ID != "" {
		req.Header.Set(HeaderDelivery, event.ID)
	}
	if s.secret != nil {
		req.Header.Set(HeaderSignature, Sign(s.secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
