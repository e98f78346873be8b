// Package client is the remote event store client. It posts compiled
// requests to a user's configured HTTP endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

const (
	defaultTimeout = 10 * time.Second
	defaultBackoff = 500 * time.Millisecond

	// maxErrorBody caps how much of a failed response ends up in an error.
	maxErrorBody = 512
)

// Client sends requests to {Base}/events/{command}.
type Client struct {
	Base    string
	APIKey  string
	Timeout time.Duration // per attempt
	Retries int
	Backoff time.Duration // between attempts
	HTTP    *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithBackoff sets the delay between attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.Backoff = d }
}

// New creates a client from a user's configuration.
func New(cfg ir.UserConfig, opts ...Option) *Client {
	c := &Client{
		Base:    strings.TrimRight(cfg.Base, "/"),
		APIKey:  cfg.API,
		Timeout: defaultTimeout,
		Retries: int(cfg.Retries),
		Backoff: defaultBackoff,
		HTTP:    http.DefaultClient,
	}
	if cfg.Timeout > 0 {
		c.Timeout = time.Duration(cfg.Timeout) * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("event store returned %d", e.Code)
	}
	return fmt.Sprintf("event store returned %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying can help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500
}

// Execute posts req and decodes the result. Transport failures and 5xx
// responses are retried up to Retries times.
func (c *Client) Execute(ctx context.Context, user string, req *ir.Request) (ir.Result, error) {
	if req == nil {
		return ir.Result{}, errors.New("client: nil request")
	}
	if c.Base == "" {
		return ir.Result{}, errors.New("client: no base URL configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ir.Result{}, fmt.Errorf("client: encode request: %w", err)
	}
	url := c.Base + "/events/" + string(req.Command)

	var res ir.Result
	op := func() error {
		var err error
		res, err = c.post(ctx, url, user, body)
		if err != nil && !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.Backoff), uint64(c.Retries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return ir.Result{}, fmt.Errorf("client: %s %s: %w", req.Command, url, err)
	}
	return res, nil
}

// post makes one attempt with its own timeout.
func (c *Client) post(ctx context.Context, url, user string, body []byte) (ir.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ir.Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "loomcal/"+ir.Version)
	httpReq.Header.Set("X-Request-Version", ir.RequestVersion)
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if user != "" {
		httpReq.Header.Set("X-User-Id", user)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return ir.Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return ir.Result{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ir.Result{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ir.Result{OK: true}, nil
	}

	var res ir.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return ir.Result{}, &decodeError{err: err}
	}
	return res, nil
}

// decodeError marks a malformed success body; it is not retried.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode result: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Temporary()
	}
	var decode *decodeError
	return !errors.As(err, &decode)
}
