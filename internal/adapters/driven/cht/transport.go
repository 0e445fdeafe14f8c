package cht

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries of a throttled request.
	MaxRetries = 3
)

// RequestObserver is told about every completed request. Status is zero
// when no response was received.
type RequestObserver func(method string, status int, elapsed time.Duration)

// Config holds configuration shared by the client and the authenticator.
type Config struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client

	// Timeout is the request timeout of the default HTTP client (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond is the proactive throttle rate (default: 10).
	// A negative value disables throttling.
	RequestsPerSecond float64

	// Burst is the number of requests allowed back to back (default: 5).
	Burst int

	// MaxRetries bounds retries of throttled requests (default: 3).
	MaxRetries int

	// OnRequest, when set, observes every request.
	OnRequest RequestObserver
}

// transport sends JSON requests and classifies failures.
type transport struct {
	http       *http.Client
	limiter    *RateLimiter
	maxRetries int
	onRequest  RequestObserver
}

func newTransport(cfg Config) *transport {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = MaxRetries
	}

	return &transport{
		http:       cfg.HTTPClient,
		limiter:    NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		maxRetries: cfg.MaxRetries,
		onRequest:  cfg.OnRequest,
	}
}

// request describes one call to the instance.
type request struct {
	method string
	url    string
	token  string
	body   any
}

// response is a successful answer.
type response struct {
	header http.Header
	body   []byte
}

func (t *transport) send(ctx context.Context, r request) (*response, error) {
	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, r.method, r.url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if r.token != "" {
			req.Header.Set("Cookie", r.token)
		}

		logger.Debug("%s %s", r.method, r.url)
		start := time.Now()
		resp, err := t.http.Do(req)
		if err != nil {
			t.observe(r.method, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s %s: %w", r.method, r.url, ctx.Err())
			}
			return nil, fmt.Errorf("%w: send request: %w", domain.ErrTransport, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.observe(r.method, resp.StatusCode, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
		}

		if t.limiter.Throttled(resp) && attempt < t.maxRetries {
			logger.Warn("throttled by %s, retrying", r.url)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, classify(resp.StatusCode, body, r.url)
		}
		return &response{header: resp.Header, body: body}, nil
	}
}

// do sends r and decodes a JSON answer into out, when out is non-nil.
func (t *transport) do(ctx context.Context, r request, out any) error {
	resp, err := t.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", r.url, err)
	}
	return nil
}

func (t *transport) observe(method string, status int, elapsed time.Duration) {
	if t.onRequest != nil {
		t.onRequest(method, status, elapsed)
	}
}
