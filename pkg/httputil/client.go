package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError reports a non-2xx response. The body is included truncated
// so provider error messages survive into logs.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// maxErrBody bounds how much of an error response body is kept.
const maxErrBody = 512

// GetJSON performs an authenticated GET against url and decodes the JSON
// response body into v. When token is non-empty it is sent as a bearer
// token.
//
// Server-side failures (5xx) and rate limiting (429) come back wrapped in
// [RetryableError] so the call can be composed with [Retry]; client errors
// (4xx) and decode failures return as-is.
func GetJSON(ctx context.Context, client *http.Client, url, token string, v any) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		// Connection refused, DNS failure, timeout: all worth retrying.
		return &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return &RetryableError{Err: statusErr}
		}
		return statusErr
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
