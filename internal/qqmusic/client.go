package qqmusic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"qqharvest.com/m/internal/config"
)

// Client talks to the upstream music service. Every call waits on a shared
// rate limiter first; the minimum inter-request gap is a politeness policy
// against upstream blocking, not a performance knob.
type Client struct {
	cfg      *config.Config
	meta     *http.Client // short-timeout client for metadata endpoints
	download *http.Client // long-timeout client for binary downloads
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewClient creates a client. The transport carries no proxy: inherited
// proxy settings are a known source of spurious connection failures against
// this upstream.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	transport := &http.Transport{
		Proxy:               nil,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		cfg: cfg,
		meta: &http.Client{
			Transport: transport,
			Timeout:   cfg.MetadataTimeout,
		},
		download: &http.Client{
			Transport: transport,
			Timeout:   cfg.DownloadTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(cfg.RequestInterval), 1),
		logger:  logger,
	}
}

// setHeaders applies the fixed identifying header set to a request.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Referer", c.cfg.Referer)
	req.Header.Set("Content-Type", "application/json")
}

// postEnvelope POSTs a JSON envelope to the main API endpoint and decodes
// the response into out. out must embed a top-level "code" field; per-request
// codes are checked by the caller since their JSON key varies per operation.
func (c *Client) postEnvelope(ctx context.Context, op string, payload any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.meta.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindTransient, Op: op,
			Err: fmt.Errorf("server returned status code %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}
	return nil
}

// get performs a rate-limited GET with the fixed header set and decodes the
// JSON response into out.
func (c *Client) get(ctx context.Context, op, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.meta.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindTransient, Op: op,
			Err: fmt.Errorf("server returned status code %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}
	return nil
}

// upstreamError builds the typed error for a non-zero business code.
func upstreamError(op string, code int) error {
	return &Error{Kind: KindUpstream, Op: op, Code: code}
}

// sleep pauses for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
