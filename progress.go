package svcwrap

import "io"

// ProgressReporter is notified while a file is downloaded. OnTotalKnown is
// called at most once, and only when the server declares a content length.
// OnProgress receives the cumulative byte count.
type ProgressReporter interface {
	OnTotalKnown(total int64)
	OnProgress(bytesSoFar int64)
}

// NopProgress discards progress notifications
type NopProgress struct{}

// OnTotalKnown does nothing
func (NopProgress) OnTotalKnown(int64) {}

// OnProgress does nothing
func (NopProgress) OnProgress(int64) {}

// progressReader reports cumulative reads to a ProgressReporter
type progressReader struct {
	r     io.Reader
	p     ProgressReporter
	count int64
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		pr.count += int64(n)
		pr.p.OnProgress(pr.count)
	}
	return n, err
}
