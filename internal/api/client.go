// Package api implements the outbound HTTP client for the PollMaster backend.
//
// Every call funnels through one surface that attaches the bearer credential,
// tags the request for log correlation and classifies failures into the
// apierr taxonomy. A 401 from any call, foreground or background, triggers
// the global forced logout before the error reaches the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pollmaster/console/internal/apierr"
)

// Credentials supplies the bearer token and absorbs authentication
// rejections. Implemented by the session manager.
type Credentials interface {
	Token() string
	Invalidate(reason string)
}

// Client is the API gateway client.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, creds Credentials) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, params url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes one call and decodes a 2xx response into out (which may be nil).
// Non-2xx responses come back classified; a 401 clears the session first.
func (c *Client) do(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	req, err := c.newRequest(ctx, method, path, body, params)
	if err != nil {
		return err
	}
	requestID := req.Header.Get("X-Request-ID")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("Request transport failure", "request_id", requestID, "method", method, "path", path, "error", err)
		return &apierr.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("Request completed",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := readErrorMessage(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.creds.Invalidate("authentication rejected by backend")
		}
		return apierr.FromResponse(resp.StatusCode, message)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apierr.TransportError{Op: method + " " + path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// readErrorMessage pulls a human-readable message out of an error body. The
// backend uses both {"message": ...} and {"error": ...} shapes.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
