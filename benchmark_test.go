package svcwrap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// BenchmarkHashFile measures hashing a 4 MiB artifact
func BenchmarkHashFile(b *testing.B) {
	path := filepath.Join(b.TempDir(), "service.jar")
	if err := os.WriteFile(path, bytes.Repeat([]byte("svcwrap!"), 512*1024), 0o644); err != nil {
		b.Fatal(err)
	}

	b.SetBytes(4 << 20)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := HashFile(path); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkProcessArgs measures building the runtime command line
func BenchmarkProcessArgs(b *testing.B) {
	cfg := NewConfig(WithProcessArgs(map[string]string{
		"h":          "0.0.0.0",
		"spawnChild": "true",
		"config":     "/etc/service.xml",
		"log":        "info",
	}))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = processArgs(cfg, "/tmp/service.jar")
	}
}

// BenchmarkLineWriter measures splitting service output into log lines
func BenchmarkLineWriter(b *testing.B) {
	w := newLineWriter(zerolog.Nop())
	chunk := []byte("INFO  Started ServerConnector@1a2b3c{HTTP/1.1}{0.0.0.0:9998}\nINFO  partial ")

	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = w.Write(chunk)
	}
}
