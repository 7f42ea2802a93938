package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Credentials is the tenant-scoped bearer token attached to every
// request. It is passed explicitly at construction rather than held in
// shared mutable state, so concurrent harnesses can run with distinct
// identities.
type Credentials struct {
	Token string
}

// Client issues authenticated HTTP calls against the capture API.
type Client struct {
	baseURL string
	creds   Credentials
	httpc   *http.Client
}

// New creates an API client for baseURL with the given credentials.
func New(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Do issues one request and returns the status code and response body.
// A non-nil error means the request never produced an HTTP response
// (transport failure); HTTP-level failures come back as status codes.
func (c *Client) Do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// NewTempID returns a fresh client temp id for an offline-creatable
// payload.
func NewTempID() string {
	return uuid.NewString()
}
