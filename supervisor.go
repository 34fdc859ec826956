package svcwrap

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
)

// Supervisor owns the start/stop/status lifecycle of one service instance.
// A managed Supervisor downloads the artifact, spawns it and polls it until it
// answers; an unmanaged one assumes the service is operated elsewhere and
// reports it as always available.
type Supervisor struct {
	cfg     InstanceConfig
	fetcher *Fetcher
	health  *healthChecker
	log     zerolog.Logger

	// opMu serializes Start, Stop and Clean
	opMu sync.Mutex

	// mu protects state and proc
	mu    sync.Mutex
	state State
	proc  *runningProcess
}

// New creates a Supervisor from options
func New(opts ...Option) (*Supervisor, error) {
	return NewWithConfig(NewConfig(opts...))
}

// NewWithConfig creates a Supervisor for a prepared configuration
func NewWithConfig(cfg InstanceConfig) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger.With().Str("port", cfg.Port).Logger()
	cfg.Logger = log

	return &Supervisor{
		cfg:     cfg,
		fetcher: NewFetcher(cfg),
		health:  newHealthChecker(cfg.BaseURL(), cfg.HealthTimeout),
		log:     log,
		state:   StateStopped,
	}, nil
}

// Config returns the instance configuration
func (s *Supervisor) Config() InstanceConfig {
	return s.cfg
}

// Fetcher returns the artifact fetcher used by Start and Clean
func (s *Supervisor) Fetcher() *Fetcher {
	return s.fetcher
}

// Port returns the configured service port
func (s *Supervisor) Port() string {
	return s.cfg.Port
}

// URL returns the loopback URL the service is expected to listen on. It is a
// convention derived from the port, not proof that the service bound there.
func (s *Supervisor) URL() string {
	return s.cfg.BaseURL()
}

// Managed reports whether the Supervisor owns the service process
func (s *Supervisor) Managed() bool {
	return s.cfg.Managed
}

// State returns the current lifecycle state
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PID returns the tracked process id, or 0 when no process is owned
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.pid
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Start ensures the artifact is present and, for a managed instance, spawns it
// and blocks until its health endpoint answers or StartTimeout elapses.
// Starting a running instance is a no-op.
func (s *Supervisor) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	state, proc := s.state, s.proc
	s.mu.Unlock()

	if state.transitional() {
		return &OpError{Op: OpStart, Path: s.URL(), Err: fmt.Errorf("%w: %s", ErrInvalidState, state)}
	}
	if state == StateRunning {
		if !s.cfg.Managed || (proc != nil && proc.alive()) {
			s.log.Debug().Msg("already running")
			return nil
		}
		// The process died behind our back; forget it and start over.
		s.log.Warn().Int("pid", s.PID()).Msg("tracked process exited, restarting")
		s.mu.Lock()
		s.proc = nil
		s.state = StateStopped
		s.mu.Unlock()
	}

	art, err := s.fetcher.EnsureArtifact(ctx)
	if err != nil {
		return err
	}

	if !s.cfg.Managed {
		s.setState(StateRunning)
		s.log.Info().Str("url", s.URL()).Msg("using externally managed service")
		return nil
	}

	proc, err = spawn(s.cfg, art.Path, s.log)
	if err != nil {
		s.log.Error().Err(err).Str("runtime", s.cfg.Runtime).Msg("failed to spawn service")
		return err
	}

	s.mu.Lock()
	s.proc = proc
	s.state = StateStarting
	s.mu.Unlock()

	s.log.Info().Int("pid", proc.pid).Str("artifact", art.Path).Msg("service spawned, waiting for readiness")

	err = Poll(ctx, s.cfg.PollInterval, s.cfg.StartTimeout, func(ctx context.Context) (bool, error) {
		if !proc.alive() {
			return false, &OpError{Op: OpSpawn, Path: s.cfg.Runtime, Err: fmt.Errorf("process %d exited before becoming ready: %v", proc.pid, proc.err)}
		}
		return s.health.check(ctx), nil
	})
	if err != nil {
		s.abandon(proc)
		var opErr *OpError
		if !errors.As(err, &opErr) {
			err = &OpError{Op: OpStart, Path: s.URL(), Err: err}
		}
		s.log.Error().Err(err).Int("pid", proc.pid).Msg("service did not become ready")
		return err
	}

	s.setState(StateRunning)
	s.log.Info().Int("pid", proc.pid).Str("url", s.URL()).Msg("service ready")
	return nil
}

// abandon kills a process that failed to start and marks the instance failed
func (s *Supervisor) abandon(proc *runningProcess) {
	if err := proc.kill(); err != nil {
		s.log.Warn().Err(err).Int("pid", proc.pid).Msg("failed to kill unready service")
	}
	proc.wait(context.Background(), s.cfg.StopTimeout)

	s.mu.Lock()
	s.proc = nil
	s.state = StateFailed
	s.mu.Unlock()
}

// Stop kills the tracked process and blocks until the service stops answering
// or StopTimeout elapses. The tracked process is forgotten in every case.
// Stopping an instance that was never started is a no-op.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	proc := s.proc
	if !s.cfg.Managed || proc == nil {
		s.state = StateStopped
		s.proc = nil
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.proc = nil
		s.state = StateStopped
		s.mu.Unlock()
	}()

	merr := &MultiError{}
	pid := strconv.Itoa(proc.pid)

	s.log.Info().Int("pid", proc.pid).Msg("stopping service")

	if err := proc.kill(); err != nil {
		s.log.Warn().Err(err).Int("pid", proc.pid).Msg("failed to signal service")
		merr.Add(&OpError{Op: OpKill, Path: pid, Err: err})
	}

	err := Poll(ctx, s.cfg.PollInterval, s.cfg.StopTimeout, func(ctx context.Context) (bool, error) {
		return !s.health.check(ctx), nil
	})
	if err != nil {
		s.log.Warn().Err(err).Int("pid", proc.pid).Msg("service still answering")
		merr.Add(&OpError{Op: OpStop, Path: s.URL(), Err: err})
	}

	if !proc.wait(ctx, s.cfg.StopTimeout) {
		s.log.Warn().Int("pid", proc.pid).Msg("service process has not exited")
	} else {
		s.log.Info().Int("pid", proc.pid).Msg("service stopped")
	}

	return merr.Err()
}

// Status reports whether the service answers its health endpoint. An
// unmanaged instance always reports true. Failures are never returned; they
// simply read as false.
func (s *Supervisor) Status(ctx context.Context) bool {
	if !s.cfg.Managed {
		return true
	}
	return s.health.check(ctx)
}

// Started is an alias for Status
func (s *Supervisor) Started(ctx context.Context) bool {
	return s.Status(ctx)
}

// Wrap starts the service, runs fn and stops the service on every exit path,
// including a failed start and a panic in fn. The Stop error, if any, is
// joined to fn's error.
func (s *Supervisor) Wrap(ctx context.Context, fn func(*Supervisor) error) (err error) {
	defer func() {
		if stopErr := s.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}()

	if err := s.Start(ctx); err != nil {
		return err
	}
	return fn(s)
}

// Wait blocks until the service's health equals healthy or ctx ends. It only
// probes the health endpoint, so the artifact need not be resolvable.
func (s *Supervisor) Wait(ctx context.Context, healthy bool) error {
	return Poll(ctx, s.cfg.PollInterval, 0, func(ctx context.Context) (bool, error) {
		return s.Status(ctx) == healthy, nil
	})
}

// Clean stops the service and removes the downloaded artifact and checksum sidecar
func (s *Supervisor) Clean(ctx context.Context) error {
	merr := &MultiError{}
	merr.Add(s.Stop(ctx))
	merr.Add(s.fetcher.Purge(ctx))
	return merr.Err()
}
