// Package web provides the HTTP client shared by the search API and all
// download strategies.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Draphar/redditrip/internal/logger"
)

const (
	userAgent      = "redditrip/1.0"
	requestTimeout = 5 * time.Minute
)

// ErrNotFound marks an upstream 404-equivalent response.
var ErrNotFound = errors.New("file not found")

// StatusError is returned for unexpected response codes.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response code %d", e.Code)
}

// DecodeError is a response body that could not be decoded as JSON.
// Callers distinguish it from transport errors: a broken body from a
// mediating API means the upstream misbehaved, not the network.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Client wraps an http.Client with the headers and helpers every request
// needs. It is safe for concurrent use.
type Client struct {
	http *http.Client
}

// NewClient creates a client with connection pooling sized for the
// download queue.
func NewClient() *Client {
	return &Client{
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
			// Redirects are surfaced to the caller: imgur signals removed
			// images with a 302 instead of a 404.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// NewClientWithTransport creates a client over rt, for tests.
func NewClientWithTransport(rt http.RoundTripper) *Client {
	return &Client{http: &http.Client{Transport: rt}}
}

// Get issues a GET request. The caller owns the response body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	logger.Tracef("Received %s from %q", resp.Status, url)
	return resp, nil
}

// GetJSON issues a GET request and decodes the JSON response body into v.
// A non-2xx response is a *StatusError; 404 is ErrNotFound.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}

	logger.Tracef("Received %s from %q", resp.Status, url)

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &DecodeError{URL: url, Err: err}
	}
	return nil
}

// Download streams the body of url into the file at output, creating or
// truncating it. 404 is ErrNotFound, any other non-2xx response is a
// *StatusError.
func (c *Client) Download(ctx context.Context, url, output string) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}

	return ToDisk(resp.Body, output)
}

// ToDisk writes a response body to the file at output.
func ToDisk(body io.Reader, output string) error {
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %q: %w", output, err)
	}

	if _, err := io.Copy(file, body); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %q: %w", output, err)
	}
	return file.Close()
}
