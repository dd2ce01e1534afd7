// Package httputil provides the shared HTTP plumbing for the remote media
// and skribble APIs: timeout-bounded clients, optional basic auth, and
// status handling.
//
// Every call here is a single attempt. A failed fetch aborts the run that
// issued it; retry and backoff policy is deliberately out of scope.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every remote call made by the engine.
const DefaultTimeout = 30 * time.Second

var (
	// ErrStatus is returned for any non-success response status.
	ErrStatus = errors.New("unexpected response status")

	// ErrEmptyBody is returned when a successful response carries no body.
	ErrEmptyBody = errors.New("empty response body")
)

// BasicAuth carries credentials applied to API requests when configured.
type BasicAuth struct {
	User     string
	Password string
}

func (a *BasicAuth) apply(req *http.Request) {
	if a != nil && a.User != "" {
		req.SetBasicAuth(a.User, a.Password)
	}
}

// NewClient creates an HTTP client with the given timeout, or
// DefaultTimeout when zero.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// GetBytes performs a single GET and returns the response body along with
// the Content-Type header. It requires a 200 status and a non-empty body.
func GetBytes(ctx context.Context, client *http.Client, url string, auth *BasicAuth) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	auth.apply(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %d from %s", ErrStatus, resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrEmptyBody, url)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// GetJSON performs a single GET and decodes the JSON response into v.
func GetJSON(ctx context.Context, client *http.Client, url string, auth *BasicAuth, v any) error {
	body, _, err := GetBytes(ctx, client, url, auth)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// PostJSON performs a single POST with a JSON body and returns the response
// status code. The response body is drained and discarded.
func PostJSON(ctx context.Context, client *http.Client, url string, auth *BasicAuth, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	auth.apply(req)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
