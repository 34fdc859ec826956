//go:build linux || darwin

package svcwrap

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/stopper"
)

// DefaultWatchDebounce coalesces bursts of artifact file events
const DefaultWatchDebounce = 25 * time.Millisecond

// EventKind distinguishes watch events
type EventKind int

const (
	// EventHealth reports the service's health; the first event is always one
	EventHealth EventKind = iota
	// EventArtifact reports that the artifact file was written, replaced or removed
	EventArtifact
)

// String returns the string representation of an EventKind
func (k EventKind) String() string {
	switch k {
	case EventHealth:
		return "health"
	case EventArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}

// WatchEvent represents a change observed while watching an instance
type WatchEvent struct {
	Kind    EventKind
	State   State
	Healthy bool
	Path    string
	Err     error
}

// WatchCleanupFunc stops a watch and releases its resources
type WatchCleanupFunc func() error

// watchState tracks the last reported health and the artifact debouncer
type watchState struct {
	mu        sync.Mutex
	healthy   bool
	debouncer *time.Timer
}

// Watch reports health transitions, polled every PollInterval, and changes to
// the artifact file in its download directory. The first event carries the
// current health. The channel is closed after cleanup or when ctx ends.
func (s *Supervisor) Watch(ctx context.Context) (<-chan WatchEvent, WatchCleanupFunc, error) {
	artifactPath, err := s.fetcher.DownloadPath(ctx)
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(artifactPath)
	name := filepath.Base(artifactPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, &OpError{Op: OpStatus, Path: dir, Err: err}
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, &OpError{Op: OpStatus, Path: dir, Err: err}
	}

	ch := make(chan WatchEvent, 10)

	// sendMu guards ch against a late debounced send racing the close
	var sendMu sync.Mutex
	closed := false

	sctx := stopper.WithContext(ctx)
	sctx.Defer(func() {
		_ = watcher.Close()
		sendMu.Lock()
		closed = true
		close(ch)
		sendMu.Unlock()
	})

	cleanup := func() error {
		sctx.Stop(100 * time.Millisecond)
		return sctx.Wait()
	}

	send := func(ev WatchEvent) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if closed || sctx.IsStopping() {
			return
		}
		select {
		case ch <- ev:
		case <-sctx.Stopping():
		}
	}

	state := &watchState{healthy: s.Status(ctx)}
	send(WatchEvent{Kind: EventHealth, State: s.State(), Healthy: state.healthy})

	sctx.Go(func(sctx *stopper.Context) error {
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil
			case <-ticker.C:
				healthy := s.Status(ctx)

				state.mu.Lock()
				changed := healthy != state.healthy
				state.healthy = healthy
				state.mu.Unlock()

				if changed {
					send(WatchEvent{Kind: EventHealth, State: s.State(), Healthy: healthy})
				}
			}
		}
		return nil
	})

	sctx.Go(func(sctx *stopper.Context) error {
		sctx.Defer(func() {
			state.mu.Lock()
			if state.debouncer != nil {
				state.debouncer.Stop()
			}
			state.mu.Unlock()
		})

		for !sctx.IsStopping() {
			select {
			case <-sctx.Stopping():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
					!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
					continue
				}

				state.mu.Lock()
				if state.debouncer != nil {
					state.debouncer.Stop()
				}
				state.debouncer = time.AfterFunc(DefaultWatchDebounce, func() {
					send(WatchEvent{Kind: EventArtifact, State: s.State(), Path: artifactPath})
				})
				state.mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				if err != nil {
					send(WatchEvent{Kind: EventArtifact, State: s.State(), Path: artifactPath, Err: err})
				}
			}
		}
		return nil
	})

	return ch, cleanup, nil
}
