package svcwrap

import (
	"context"
	"io"
	"net/http"
	"time"
)

// healthChecker probes `<base>version` on the service
type healthChecker struct {
	client *http.Client
	url    string
}

func newHealthChecker(baseURL string, timeout time.Duration) *healthChecker {
	return &healthChecker{
		client: &http.Client{
			Timeout: timeout,
			// Every probe dials the port afresh.
			Transport: &http.Transport{DisableKeepAlives: true},
		},
		url: baseURL + HealthPath,
	}
}

// check returns true on any 2xx response and false on everything else
func (h *healthChecker) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return false
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
