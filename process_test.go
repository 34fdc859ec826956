package svcwrap

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestProcessArgs(t *testing.T) {
	cfg := NewConfig(
		WithPort("9999"),
		WithProcessArgs(map[string]string{"h": "0.0.0.0", "-spawnChild": "true", "p": "1234"}),
	)

	got := processArgs(cfg, "/tmp/service.jar")
	want := []string{"-jar", "/tmp/service.jar", "-h", "0.0.0.0", "-p", "9999", "-spawnChild", "true"}
	assert.Equal(t, want, got, "port flag must override configured args and flags must be sorted")
}

func TestProcessArgsCustomPortFlag(t *testing.T) {
	cfg := NewConfig(WithPort("7000"), WithPortFlag("port"))
	got := processArgs(cfg, "a.jar")
	assert.Equal(t, []string{"-jar", "a.jar", "-port", "7000"}, got)
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root", "JAVA_OPTS=-Xmx256m"}

	got := mergeEnv(base, map[string]string{"JAVA_OPTS": "-Xmx1g", "EXTRA": "1"})
	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "EXTRA=1", "JAVA_OPTS=-Xmx1g"}, got)

	assert.Equal(t, base, mergeEnv(base, nil))
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	w := newLineWriter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	w.pid.Store(77)

	_, _ = w.Write([]byte("first line\nsecond "))
	_, _ = w.Write([]byte("line\r\npartial"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], `"output":"first line"`)
		assert.Contains(t, lines[0], `"pid":77`)
		assert.Contains(t, lines[1], `"output":"second line"`)
	}

	w.Flush()
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.True(t, slices.ContainsFunc(lines, func(l string) bool {
		return strings.Contains(l, `"output":"partial"`)
	}))
}
