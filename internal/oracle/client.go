package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/roach88/craftgraph/internal/craft"
)

// Client combines two elements.
type Client interface {
	Combine(ctx context.Context, p craft.Pair) (craft.Combination, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, p craft.Pair) (craft.Combination, error)

func (f ClientFunc) Combine(ctx context.Context, p craft.Pair) (craft.Combination, error) {
	return f(ctx, p)
}

// Defaults for the HTTP client.
const (
	DefaultURL        = "https://neal.fun/api/infinite-craft/pair"
	DefaultReferer    = "https://neal.fun/infinite-craft/"
	DefaultUserAgent  = "Mozilla/5.0 (X11; Linux x86_64; rv:122.0) Gecko/20100101 Firefox/122.0"
	DefaultTimeout    = 30 * time.Second
	DefaultBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second

	maxBodySize = 1 << 20
)

// challengeMarker appears in the body of the service's bot challenge page.
var challengeMarker = []byte("_cf_chl_opt")

// Config holds the HTTP client settings.
type Config struct {
	URL        string
	Referer    string
	UserAgent  string
	Timeout    time.Duration // per request
	Backoff    time.Duration // first retry delay, doubled per attempt
	MaxBackoff time.Duration
}

// DefaultConfig returns the settings for the public service.
func DefaultConfig() Config {
	return Config{
		URL:        DefaultURL,
		Referer:    DefaultReferer,
		UserAgent:  DefaultUserAgent,
		Timeout:    DefaultTimeout,
		Backoff:    DefaultBackoff,
		MaxBackoff: DefaultMaxBackoff,
	}
}

// HTTPClient queries the service over HTTP. Transport failures, timeouts,
// 429 and 5xx answers are retried with exponential backoff until the context
// ends.
type HTTPClient struct {
	cfg    Config
	client *http.Client
}

// NewHTTPClient creates a client. Zero fields of cfg take their defaults.
func NewHTTPClient(cfg Config) *HTTPClient {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Referer == "" {
		cfg.Referer = def.Referer
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.MaxBackoff < cfg.Backoff {
		cfg.MaxBackoff = cfg.Backoff
	}
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Combine asks the service for the result of p.
func (c *HTTPClient) Combine(ctx context.Context, p craft.Pair) (craft.Combination, error) {
	delay := c.cfg.Backoff
	for attempt := 1; ; attempt++ {
		comb, err := c.do(ctx, p)
		var retry *retryableError
		if !errors.As(err, &retry) {
			return comb, err
		}

		slog.Warn("oracle request failed, retrying",
			"pair", p.String(),
			"attempt", attempt,
			"delay", delay,
			"error", retry.err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return craft.Combination{}, &TransientError{Pair: p, Attempts: attempt, Err: retry.err}
		case <-timer.C:
		}
		delay = min(delay*2, c.cfg.MaxBackoff)
	}
}

// retryableError marks failures Combine retries.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (c *HTTPClient) do(ctx context.Context, p craft.Pair) (craft.Combination, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return craft.Combination{}, fmt.Errorf("oracle: parse url: %w", err)
	}
	q := u.Query()
	q.Set("first", p.A)
	q.Set("second", p.B)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return craft.Combination{}, fmt.Errorf("oracle: build request: %w", err)
	}
	req.Header.Set("Referer", c.cfg.Referer)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return craft.Combination{}, fmt.Errorf("oracle: %w", ctx.Err())
		}
		return craft.Combination{}, &retryableError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return craft.Combination{}, &retryableError{err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusForbidden && bytes.Contains(body, challengeMarker):
		return craft.Combination{}, ErrAbuseDetected
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return craft.Combination{}, &retryableError{err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return craft.Combination{}, &StatusError{Pair: p, Code: resp.StatusCode, Body: string(body)}
	}

	return decode(p, body)
}

func decode(p craft.Pair, body []byte) (craft.Combination, error) {
	var comb craft.Combination
	if err := json.Unmarshal(body, &comb); err != nil {
		return craft.Combination{}, &DecodeError{Pair: p, Body: body, Err: err}
	}
	if comb.Result == "" {
		return craft.Combination{}, &DecodeError{Pair: p, Body: body, Err: errors.New("missing result")}
	}
	return comb, nil
}
