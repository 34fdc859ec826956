package svcwrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitDoesNotNeedArtifact(t *testing.T) {
	port := freePort(t)

	// Neither the directory nor any URL exists; Wait must still poll health.
	s, err := New(
		WithPort(port),
		WithDownloadPath(filepath.Join(t.TempDir(), "not-yet", "service.jar")),
		WithPollInterval(20*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type listening struct {
		stop func()
		err  error
	}
	up := make(chan listening, 1)
	go func() {
		time.Sleep(200 * time.Millisecond)
		stop, err := listenVersion(port)
		up <- listening{stop, err}
	}()

	start := time.Now()
	require.NoError(t, s.Wait(ctx, true))
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	l := <-up
	require.NoError(t, l.err)
	l.stop()
	require.NoError(t, s.Wait(ctx, false))
}

func TestWaitHonoursContext(t *testing.T) {
	s, err := New(
		WithPort(freePort(t)),
		WithDownloadPath(filepath.Join(t.TempDir(), "service.jar")),
		WithPollInterval(10*time.Millisecond),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, s.Wait(ctx, true), context.DeadlineExceeded)
}
