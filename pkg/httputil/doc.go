// Package httputil provides the HTTP client plumbing shared by service
// clients: automatic retry with exponential backoff for transient
// failures, and a JSON request helper that classifies response codes.
//
// Server errors (5xx) and transport failures are wrapped as retryable so
// [Retry] attempts them again; client errors (4xx) abort immediately.
package httputil
