package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminalProgressPerDownload(t *testing.T) {
	var buf bytes.Buffer
	p := newTerminalProgress(&buf)

	// Sidecar with a known size.
	p.OnTotalKnown(40)
	p.OnProgress(40)

	// Artifact with a known size.
	p.OnTotalKnown(2000)
	p.OnProgress(1000)
	p.OnProgress(2000)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.HasSuffix(lines[0], "(100%)") {
		t.Errorf("sidecar line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "2.0 kB / 2.0 kB (100%)") {
		t.Errorf("artifact line = %q", lines[1])
	}
}

func TestTerminalProgressUnknownSize(t *testing.T) {
	var buf bytes.Buffer
	p := newTerminalProgress(&buf)

	p.OnTotalKnown(40)
	p.OnProgress(40)

	// No Content-Length: the sidecar's total must not leak into this line.
	p.OnProgress(10)
	p.Done()
	p.Done()

	out := buf.String()
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("want two terminated lines, got %q", out)
	}
	last := strings.Split(strings.TrimSuffix(out, "\n"), "\n")[1]
	if strings.Contains(last, "%") || !strings.HasSuffix(last, "downloading 10 B") {
		t.Errorf("unknown-size line = %q", last)
	}
}

func TestTerminalProgressLargerUnknownAfterSidecar(t *testing.T) {
	var buf bytes.Buffer
	p := newTerminalProgress(&buf)

	p.OnTotalKnown(40)
	p.OnProgress(40)
	p.OnProgress(4096)
	p.Done()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if strings.Contains(lines[1], "%") || !strings.HasSuffix(lines[1], "downloading 4.1 kB") {
		t.Errorf("artifact line = %q", lines[1])
	}
}
