//go:build !linux && !darwin

package svcwrap

import (
	"context"
	"errors"
	"time"
)

// DefaultWatchDebounce coalesces bursts of artifact file events
const DefaultWatchDebounce = 25 * time.Millisecond

// EventKind distinguishes watch events
type EventKind int

const (
	// EventHealth reports the service's health
	EventHealth EventKind = iota
	// EventArtifact reports that the artifact file changed
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

// Watch is not supported on this platform
func (s *Supervisor) Watch(ctx context.Context) (<-chan WatchEvent, WatchCleanupFunc, error) {
	return nil, nil, errors.New("watch not supported on this platform")
}
