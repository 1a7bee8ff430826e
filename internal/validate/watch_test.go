package validate

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_RevalidatesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packages.ccl")
	if err := os.WriteFile(path, []byte("jq =\n  = brew\n  = nix\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var statuses []string
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, New(validSources), logger, func(_ string, r *Report) {
			mu.Lock()
			statuses = append(statuses, r.Status())
			mu.Unlock()
		})
	}()

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) == 1 && statuses[0] == "PASSED"
	}, "initial validation not reported")

	_ = os.WriteFile(path, []byte("jq =\n  = dockerhub\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) >= 2 && statuses[len(statuses)-1] == "FAILED"
	}, "change not revalidated")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not stop")
	}
}
