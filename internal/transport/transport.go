// Package transport is the HTTP client used to fetch playlists and segments.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 30 * time.Second

// FetchError reports that a URL could not be fetched at the transport level.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not connect to %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError reports a response with a non-success status code.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("could not get %s: HTTP %s", e.URL, e.Status)
}

// Client fetches resources with a fixed set of request headers.
type Client struct {
	httpClient *http.Client
}

// New creates a client that sends headers with every request.
// A zero timeout selects DefaultTimeout.
func New(headers map[string]string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &HeaderTransport{
				Headers: headers,
				Base:    http.DefaultTransport,
			},
		},
	}
}

// Get fetches url and returns the response body. A transport failure yields
// a *FetchError and a non-2xx response a *StatusError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation is not a connection failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, nil
}
