// Package httpjson holds the request plumbing shared by the HTTP-based
// language model adapters.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// Client sends JSON requests to a provider API.
type Client struct {
	// Provider names the API in error messages.
	Provider string

	// HTTP is the underlying client.
	HTTP *http.Client

	// Headers are set on every request.
	Headers map[string]string
}

// Post sends body as JSON to url and decodes the response into out.
func (c *Client) Post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.Provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get issues a GET request and discards a successful body unless out is set.
func (c *Client) Get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.Provider, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", c.Provider, ctxErr)
		}
		return fmt.Errorf("%s: send request: %w: %w", c.Provider, domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w: %w", c.Provider, domain.ErrLLMUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return StatusError(c.Provider, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Provider, err)
	}
	return nil
}

// StatusError classifies a non-200 response. 429 maps to
// domain.ErrRateLimited, everything else to domain.ErrLLMUnavailable.
func StatusError(provider string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}

	sentinel := domain.ErrLLMUnavailable
	if status == http.StatusTooManyRequests {
		sentinel = domain.ErrRateLimited
	}
	return fmt.Errorf("%s: API returned status %d: %s: %w", provider, status, msg, sentinel)
}

// IsRetryable reports whether a request may succeed when repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrLLMUnavailable)
}
