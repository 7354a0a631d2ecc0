// Package status polls the local ClawCat service and exposes its imperative
// actions.
package status

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/PrincessGray/ClawCat/internal/cat"
)

// ClientConfig configures the status client.
type ClientConfig struct {
	BaseURL      string        // e.g., "http://127.0.0.1:22622"
	Timeout      time.Duration // per-request timeout
	ToggleSettle time.Duration // delay before the post-toggle poll
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:      "http://127.0.0.1:22622",
		Timeout:      3 * time.Second,
		ToggleSettle: 300 * time.Millisecond,
	}
}

// Client talks to the local status service. Failures are an expected
// transient condition: every method degrades to a nil or false sentinel and
// logs at debug, never surfacing an error to callers.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger

	mu   sync.RWMutex
	last *cat.RemoteStatus
}

// NewClient creates a status client.
func NewClient(cfg *ClientConfig, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "status-client").Logger(),
	}
}

// Poll fetches /status and replaces the normalized record wholesale. On
// failure the previous record is retained and nil is returned.
func (c *Client) Poll(ctx context.Context) *cat.RemoteStatus {
	body := c.doJSON(ctx, http.MethodGet, "/status", nil)
	if body == nil {
		return nil
	}

	var w wireStatus
	if err := json.Unmarshal(body, &w); err != nil {
		c.logger.Debug().Err(err).Msg("Malformed status body")
		return nil
	}

	rs := normalize(&w)
	c.mu.Lock()
	c.last = rs
	c.mu.Unlock()
	return rs
}

// Last returns the most recently polled record, nil before the first
// successful poll.
func (c *Client) Last() *cat.RemoteStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// SendDecision posts a hook response. userInput may be nil.
func (c *Client) SendDecision(ctx context.Context, choice string, userInput *string) bool {
	payload := map[string]any{
		"choice":     choice,
		"user_input": userInput,
	}
	ok := c.postOK(ctx, "/hook-response", payload)
	c.logger.Info().Str("choice", choice).Bool("ok", ok).Msg("Decision sent")
	return ok
}

// ToggleMode posts the mode toggle, waits a short settle delay, and re-polls
// for the authoritative post-toggle status.
func (c *Client) ToggleMode(ctx context.Context) *cat.RemoteStatus {
	if c.doJSON(ctx, http.MethodPost, "/toggle-mode", map[string]any{}) == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(c.config.ToggleSettle):
	}
	return c.Poll(ctx)
}

// ActivateTerminal asks the service to restore and focus the host terminal.
func (c *Client) ActivateTerminal(ctx context.Context) bool {
	return c.postOK(ctx, "/activate-terminal", map[string]any{})
}

// SetTopmost toggles the host window's always-on-top flag.
func (c *Client) SetTopmost(ctx context.Context, topmost bool) bool {
	return c.postOK(ctx, "/set-topmost", map[string]any{"topmost": topmost})
}

// ExecuteCommand runs a configured terminal command for a mode.
func (c *Client) ExecuteCommand(ctx context.Context, mode, command string) bool {
	return c.postOK(ctx, "/execute-command", map[string]any{
		"mode":    mode,
		"command": command,
	})
}

// MoveWindow repositions the host window.
func (c *Client) MoveWindow(ctx context.Context, x, y int) bool {
	return c.postOK(ctx, "/move-window", map[string]any{"x": x, "y": y})
}

// postOK posts a JSON payload and reports the service's success flag.
func (c *Client) postOK(ctx context.Context, path string, payload any) bool {
	body := c.doJSON(ctx, http.MethodPost, path, payload)
	if body == nil {
		return false
	}
	var out struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return false
	}
	return out.Success
}

// doJSON is the shared request helper. Non-2xx and transport failures return
// the nil sentinel; nothing is ever thrown past this boundary.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any) []byte {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.logger.Debug().Err(err).Str("path", path).Msg("Marshal failed")
			return nil
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("Request build failed")
		return nil
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("Request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("Non-2xx response")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("Body read failed")
		return nil
	}
	return body
}
