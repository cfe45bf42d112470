package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRetryOnlyRetriesWrappedErrors(t *testing.T) {
	ctx := context.Background()

	hard := errors.New("not found")
	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error { calls++; return hard })
	if !errors.Is(err, hard) || calls != 1 {
		t.Errorf("err=%v calls=%d, want immediate abort", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("timeout")}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err=%v calls=%d, want recovery on third attempt", err, calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	flaky := &RetryableError{Err: errors.New("flaky")}
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error { calls++; return flaky })
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, flaky.Err) {
		t.Errorf("err = %v", err)
	}
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"name":"rack-a"}`))
		case "/missing":
			http.Error(w, "no such asset", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	if err := DoJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/ok", nil, &out); err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Name != "rack-a" {
		t.Errorf("name = %q", out.Name)
	}

	err := DoJSON(context.Background(), srv.Client(), http.MethodGet, srv.URL+"/missing", nil, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("err = %v, want StatusError 404", err)
	}
	if isRetryable(err) {
		t.Error("4xx marked retryable")
	}
}
