package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// terminalProgress prints one self-overwriting line per download. The sidecar
// and the artifact go through the same reporter, so a new download is
// recognised by OnTotalKnown, by the previous one completing, or by the byte
// count going backwards.
type terminalProgress struct {
	out io.Writer

	mu      sync.Mutex
	total   int64
	count   int64
	last    time.Time
	pending bool // a line was printed but not yet terminated
}

func newTerminalProgress(out io.Writer) *terminalProgress {
	return &terminalProgress{out: out}
}

func (p *terminalProgress) OnTotalKnown(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	p.total = total
}

func (p *terminalProgress) OnProgress(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n < p.count {
		p.reset()
	}
	p.count = n

	finished := p.total > 0 && n >= p.total
	if !finished && !p.last.IsZero() && time.Since(p.last) < 100*time.Millisecond {
		return
	}
	p.last = time.Now()

	if p.total > 0 {
		pct := float64(n) / float64(p.total) * 100
		_, _ = fmt.Fprintf(p.out, "\rdownloading %s / %s (%.0f%%)", humanize.Bytes(uint64(n)), humanize.Bytes(uint64(p.total)), pct)
	} else {
		_, _ = fmt.Fprintf(p.out, "\rdownloading %s", humanize.Bytes(uint64(n)))
	}
	p.pending = true

	if finished {
		p.reset()
	}
}

// Done terminates a line left open by a download of unknown size
func (p *terminalProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endLine()
}

func (p *terminalProgress) reset() {
	p.endLine()
	p.total = 0
	p.count = 0
	p.last = time.Time{}
}

func (p *terminalProgress) endLine() {
	if p.pending {
		_, _ = fmt.Fprintln(p.out)
		p.pending = false
	}
}
