package svcwrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSupervisor(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)

	_, err := Default()
	require.ErrorIs(t, err, ErrNoDefault)

	err = Wrap(context.Background(), func(*Supervisor) error { return nil })
	require.ErrorIs(t, err, ErrNoDefault, "Wrap without a default must not run the callback")

	first, err := New(WithURL("http://127.0.0.1:1/a.jar"), WithManaged(false))
	require.NoError(t, err)
	second, err := New(WithURL("http://127.0.0.1:1/b.jar"), WithManaged(false))
	require.NoError(t, err)

	require.NoError(t, SetDefault(first))
	require.ErrorIs(t, SetDefault(second), ErrDefaultSet)

	got, err := Default()
	require.NoError(t, err)
	assert.Same(t, first, got, "first SetDefault wins")
}

func TestDefaultWrapPropagatesStartError(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)

	// Nothing listens on port 1, so resolving the artifact fails before the callback.
	s, err := New(
		WithMirrorURL("http://127.0.0.1:1/closer"),
		WithTempDir(t.TempDir()),
		WithManaged(false),
	)
	require.NoError(t, err)
	require.NoError(t, SetDefault(s))

	called := false
	err = Wrap(context.Background(), func(*Supervisor) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolution), "got %v", err)
	assert.False(t, called)
}
