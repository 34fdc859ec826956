//go:build linux || darwin

package svcwrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatchSupervisor(t *testing.T) (*Supervisor, string) {
	t.Helper()

	artifact := filepath.Join(t.TempDir(), "service.jar")
	s, err := New(
		WithDownloadPath(artifact),
		WithManaged(false),
		WithPollInterval(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, artifact
}

func TestWatchLifecycle(t *testing.T) {
	t.Run("NormalOperation", func(t *testing.T) {
		s, _ := newWatchSupervisor(t)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		events, cleanup, err := s.Watch(ctx)
		if err != nil {
			t.Fatalf("Watch failed: %v", err)
		}

		select {
		case event := <-events:
			if event.Err != nil {
				t.Errorf("Unexpected error in event: %v", event.Err)
			}
			if event.Kind != EventHealth || !event.Healthy {
				t.Errorf("first event = %+v, want healthy health event", event)
			}
		case <-time.After(500 * time.Millisecond):
			t.Error("Timeout waiting for initial event")
		}

		done := make(chan error, 1)
		go func() {
			done <- cleanup()
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Cleanup failed: %v", err)
			}
		case <-time.After(500 * time.Millisecond):
			t.Error("Cleanup took too long")
		}
	})

	t.Run("ContextCancellation", func(t *testing.T) {
		s, _ := newWatchSupervisor(t)

		ctx, cancel := context.WithCancel(context.Background())

		events, cleanup, err := s.Watch(ctx)
		if err != nil {
			t.Fatalf("Watch failed: %v", err)
		}
		defer func() { _ = cleanup() }()

		cancel()

		timeout := time.After(500 * time.Millisecond)
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return
				}
			case <-timeout:
				t.Error("Events channel didn't close after context cancellation")
				return
			}
		}
	})

	t.Run("IdempotentCleanup", func(t *testing.T) {
		s, _ := newWatchSupervisor(t)

		_, cleanup, err := s.Watch(context.Background())
		if err != nil {
			t.Fatalf("Watch failed: %v", err)
		}

		if err := cleanup(); err != nil {
			t.Errorf("First cleanup failed: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			done <- cleanup()
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Second cleanup failed: %v", err)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Second cleanup took too long")
		}
	})
}

func TestWatchArtifactChanges(t *testing.T) {
	s, artifact := newWatchSupervisor(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, cleanup, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer func() { _ = cleanup() }()

	<-events // initial health

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(filepath.Dir(artifact), "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(artifact, []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatal("events closed before artifact event")
			}
			if event.Kind != EventArtifact {
				continue
			}
			if event.Path != artifact {
				t.Errorf("event path = %s, want %s", event.Path, artifact)
			}
			return
		case <-ctx.Done():
			t.Fatal("no artifact event")
		}
	}
}
