// Package upstream holds the error taxonomy and the JSON GET helper shared
// by every third-party API client.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotFound means the lookup succeeded but yielded nothing.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable covers transport failures and non-2xx responses.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrMalformed means a 2xx body was missing an expected field.
	ErrMalformed = errors.New("malformed upstream response")
)

const DefaultTimeout = 5 * time.Second

// NewHTTPClient returns a client bounded by timeout, falling back to
// DefaultTimeout when timeout is not positive.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// GetJSON performs a GET against endpoint and decodes the body into out.
// The name prefixes every error so logs show which provider failed.
func GetJSON(ctx context.Context, client *http.Client, name, endpoint string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s request: %w", name, err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w: %v", name, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s bad status: %w: %s", name, ErrUnavailable, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w: %v", name, ErrMalformed, err)
	}
	return nil
}

// NormalizeCity replaces hyphens with spaces and trims the result, so
// "New-York" and "New York" query upstreams identically.
func NormalizeCity(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "-", " "))
}
