// Package httputil provides HTTP utilities for the topology API client.
//
// # Overview
//
// Two pieces of infrastructure live here:
//
//   - [Retry]: Automatic retry with exponential backoff
//   - [GetJSON]: Authenticated JSON GET with transient-failure classification
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped in [RetryableError] are retried; everything else
// (4xx responses, decode failures) returns immediately. The delay doubles
// after each failed attempt.
//
// # Fetching
//
// [GetJSON] performs one authenticated GET and decodes the body:
//
//	var edges []wireEdge
//	err := httputil.GetJSON(ctx, client, url, token, &edges)
//
// It classifies 5xx and 429 responses as retryable, so composing it with
// [Retry] gives the standard fetch path:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return httputil.GetJSON(ctx, client, url, token, &edges)
//	})
package httputil
