package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
)

// ReadinessChecker checks if a dependency is ready.
type ReadinessChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HTTPReadinessChecker checks that an HTTP origin answers. Any status below
// 500 counts as up: the origin root need not be a real resource.
type HTTPReadinessChecker struct {
	name   string
	url    string
	client *http.Client
}

func NewHTTPReadinessChecker(name, url string) *HTTPReadinessChecker {
	return &HTTPReadinessChecker{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *HTTPReadinessChecker) Name() string { return c.name }

func (c *HTTPReadinessChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &CheckError{Status: resp.StatusCode}
	}
	return nil
}

type CheckError struct {
	Status int
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("unhealthy status %d", e.Status)
}

// PingChecker adapts anything with a Ping method, such as the cache.
type PingChecker struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) error { return c.ping(ctx) }

// ReadinessHandler handles /readyz and /healthz endpoints.
type ReadinessHandler struct {
	checkers []ReadinessChecker
	timeout  time.Duration
}

func NewReadinessHandler(checkers ...ReadinessChecker) *ReadinessHandler {
	return &ReadinessHandler{checkers: checkers, timeout: 5 * time.Second}
}

// Healthz is a simple liveness check (process is alive).
func (h *ReadinessHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status string        `json:"status"`
	Checks []checkResult `json:"checks"`
}

// Readyz checks all dependencies concurrently and returns detailed status.
func (h *ReadinessHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make([]checkResult, len(h.checkers))
	var wg sync.WaitGroup

	for i, checker := range h.checkers {
		wg.Add(1)
		go func(idx int, c ReadinessChecker) {
			defer wg.Done()
			if err := c.Check(ctx); err != nil {
				results[idx] = checkResult{Name: c.Name(), Status: "unhealthy", Error: err.Error()}
				return
			}
			results[idx] = checkResult{Name: c.Name(), Status: "healthy"}
		}(i, checker)
	}

	wg.Wait()

	resp := readinessResponse{Status: "ready", Checks: results}
	status := http.StatusOK
	for _, res := range results {
		if res.Status != "healthy" {
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			break
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
