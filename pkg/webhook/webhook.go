// Package webhook posts logsift reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"

	"github.com/ccollicutt/logsift/pkg/config"
	"github.com/ccollicutt/logsift/pkg/output"
)

// DefaultTimeout is the default per-attempt HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultInitialInterval is the first retry delay.
const DefaultInitialInterval = 500 * time.Millisecond

// maxElapsedTime caps the total time spent retrying one delivery.
const maxElapsedTime = 2 * time.Minute

// maxResponseBody limits how much of a response body is kept.
const maxResponseBody = 1024 * 1024

// Client sends reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Per-attempt timeout (uses DefaultTimeout if zero)

	// MaxRetries is the number of retries after the first attempt.
	// Zero or negative sends once.
	MaxRetries int

	// InitialInterval is the first backoff delay (DefaultInitialInterval if zero).
	InitialInterval time.Duration
}

// Response contains the result of a webhook delivery.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Attempts   int
	Error      error
}

// Success returns true if the webhook was delivered (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a report to a webhook endpoint. Transport errors and 5xx
// responses are retried with exponential backoff; 4xx responses are not.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}

	payload, err := json.Marshal(report)
	if err != nil {
		resp.Error = fmt.Errorf("failed to marshal report: %w", err)
		resp.Duration = time.Since(start)
		return resp
	}

	operation := func() error {
		resp.Attempts++
		status, body, err := c.post(ctx, payload, opts)
		resp.StatusCode = status
		resp.Body = body
		if err != nil {
			log.Debug().Err(err).Str("url", opts.URL).Int("attempt", resp.Attempts).Msg("webhook attempt failed")
			return err
		}
		switch {
		case status >= 500:
			return fmt.Errorf("webhook returned status %d", status)
		case status >= 400:
			return backoff.Permanent(fmt.Errorf("webhook returned status %d", status))
		}
		return nil
	}

	resp.Error = backoff.Retry(operation, newBackOff(ctx, opts))
	resp.Duration = time.Since(start)
	return resp
}

func newBackOff(ctx context.Context, opts SendOptions) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultInitialInterval
	if opts.InitialInterval > 0 {
		b.InitialInterval = opts.InitialInterval
	}
	b.MaxInterval = 10 * b.InitialInterval
	b.MaxElapsedTime = maxElapsedTime

	// WithMaxRetries treats zero as unlimited.
	if opts.MaxRetries <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(opts.MaxRetries)), ctx)
}

// post performs one delivery attempt.
func (c *Client) post(ctx context.Context, payload []byte, opts SendOptions) (int, string, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "logsift-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return httpResp.StatusCode, "", fmt.Errorf("failed to read response: %w", err)
	}
	return httpResp.StatusCode, string(body), nil
}

// Probe sends a single HEAD request to a webhook endpoint and returns the
// status code. It never retries and sends no report.
func (c *Client) Probe(ctx context.Context, url, token string, timeout time.Duration) (int, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "logsift-webhook")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// ShouldFire reports whether a webhook with the given trigger fires for a
// report. An unset trigger behaves like on_errors.
func ShouldFire(trigger config.WebhookTrigger, report *output.Report) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return report.HasErrors()
	}
}

// Result is the outcome of one configured webhook in SendAll.
type Result struct {
	Name     string
	Skipped  bool
	Response *Response
}

// SendAll delivers the report to every webhook whose trigger fires. Failures
// are logged and returned but never abort the remaining deliveries.
func (c *Client) SendAll(ctx context.Context, report *output.Report, hooks []config.WebhookConfig) []Result {
	results := make([]Result, 0, len(hooks))
	for _, wh := range hooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if !ShouldFire(wh.Trigger, report) {
			results = append(results, Result{Name: name, Skipped: true})
			continue
		}

		resp := c.Send(ctx, report, SendOptions{
			URL:        wh.URL,
			Token:      wh.Token,
			Timeout:    wh.Timeout,
			MaxRetries: wh.MaxRetries,
		})
		if resp.Success() {
			log.Info().Str("webhook", name).Int("status", resp.StatusCode).Dur("duration", resp.Duration).Msg("webhook sent")
		} else {
			log.Warn().Str("webhook", name).Int("attempts", resp.Attempts).Err(resp.Error).Msg("webhook failed")
		}
		results = append(results, Result{Name: name, Response: resp})
	}
	return results
}
