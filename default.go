package svcwrap

import (
	"context"
	"sync"
)

var (
	defaultMu         sync.RWMutex
	defaultSupervisor *Supervisor
)

// SetDefault installs the process-wide Supervisor used by Wrap. It may be
// called once; later calls return ErrDefaultSet and leave the first in place.
func SetDefault(s *Supervisor) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSupervisor != nil {
		return ErrDefaultSet
	}
	defaultSupervisor = s
	return nil
}

// Default returns the Supervisor installed by SetDefault
func Default() (*Supervisor, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()

	if defaultSupervisor == nil {
		return nil, ErrNoDefault
	}
	return defaultSupervisor, nil
}

// Wrap runs fn inside the default Supervisor's Wrap
func Wrap(ctx context.Context, fn func(*Supervisor) error) error {
	s, err := Default()
	if err != nil {
		return err
	}
	return s.Wrap(ctx, fn)
}

// resetDefault clears the default Supervisor; tests only
func resetDefault() {
	defaultMu.Lock()
	defaultSupervisor = nil
	defaultMu.Unlock()
}
