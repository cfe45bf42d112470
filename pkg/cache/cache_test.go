package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get missing = found=%v err=%v", found, err)
	}

	if err := c.Set(ctx, "k", []byte("artifact"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get = found=%v err=%v", found, err)
	}
	if string(data) != "artifact" {
		t.Errorf("data = %q", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("entry survived delete")
	}
	// Deleting again is fine.
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("repeat Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("expired entry returned")
	}
}

func TestFileCacheClear(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c.Set(ctx, "a", []byte("1"), 0)
	c.Set(ctx, "b", []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, found, _ := c.Get(ctx, "a"); found {
		t.Error("entry survived clear")
	}
	// The cache stays usable after a clear.
	if err := c.Set(ctx, "c", []byte("3"), 0); err != nil {
		t.Errorf("Set after clear: %v", err)
	}
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Error("null cache stored a value")
	}
}

func TestArtifactKeyDiscriminates(t *testing.T) {
	svg := ArtifactKeyOpts{Format: "svg", Padding: 40}
	base := ArtifactKey("h1", svg)
	for _, other := range []string{
		ArtifactKey("h2", svg),
		ArtifactKey("h1", ArtifactKeyOpts{Format: "png", Padding: 40}),
		ArtifactKey("h1", ArtifactKeyOpts{Format: "svg", Padding: 40, ShowGrid: true}),
		ArtifactKey("h1", ArtifactKeyOpts{Format: "svg", Padding: 20}),
		CheckKey("h1"),
	} {
		if other == base {
			t.Errorf("key collision: %s", other)
		}
	}
	if again := ArtifactKey("h1", svg); again != base {
		t.Errorf("key not deterministic: %s vs %s", base, again)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("non-retryable aborts", func(t *testing.T) {
		hard := errors.New("bad input")
		calls := 0
		err := RetryWithBackoff(ctx, func() error { calls++; return hard })
		if !errors.Is(err, hard) || calls != 1 {
			t.Errorf("err=%v calls=%d", err, calls)
		}
	})

	t.Run("retryable is detected through wrapping", func(t *testing.T) {
		if Retryable(nil) != nil {
			t.Error("Retryable(nil) should stay nil")
		}
		if !IsRetryable(Retryable(errors.New("flaky"))) {
			t.Error("wrapped error not detected")
		}
		if IsRetryable(errors.New("plain")) {
			t.Error("plain error misdetected")
		}
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cctx, func() error { return Retryable(errors.New("flaky")) })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}
