package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// maxErrorBody caps how much of a rejection body is kept for the error.
const maxErrorBody = 512

const defaultTimeout = 10 * time.Second

// Client posts notification payloads over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the production endpoint.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithTimeout bounds a single dispatch attempt end to end.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient returns a Client for the default endpoint with the default
// timeout.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL dispatches are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Dispatch posts p as JSON. Any status below 400 is acceptance; 400 and
// above, and transport failures, return a *DispatchError.
func (c *Client) Dispatch(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return &DispatchError{Err: fmt.Errorf("encoding payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &DispatchError{Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DispatchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DispatchError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Debug().Int("status", resp.StatusCode).Msg("notification accepted")
	return nil
}
