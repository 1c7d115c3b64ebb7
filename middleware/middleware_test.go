package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates_when_missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, seen, 36)
		assert.Equal(t, seen, rec.Header().Get(HeaderXRequestID))
	})

	t.Run("reuses_incoming", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(HeaderXRequestID))
	})

	t.Run("replaces_oversized_or_unprintable", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 200), "has space", "tab\tid"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderXRequestID, bad)
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.NotEqual(t, bad, seen)
			assert.Len(t, seen, 36)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "img-src 'self' https: data:")
	assert.Contains(t, csp, "script-src 'none'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(l))
	r.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("gone"))
	})

	req := httptest.NewRequest(http.MethodGet, "/events/evt_1", nil)
	req.Header.Set(HeaderXRequestID, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "http_request", line["message"])
	assert.Equal(t, "/events/evt_1", line["path"])
	assert.Equal(t, "/events/{id}", line["route"])
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, float64(4), line["bytes"])
	assert.Equal(t, "req-1", line["request_id"])
}

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/metrics-test/{id}", okHandler)
	r.Get("/metrics-body/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 300)))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/a", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-test/b", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics-body/c", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	out := scrape(t)
	assert.Contains(t, out, `http_requests_total{method="GET",route="/metrics-test/{id}",status="200"} 2`)
	assert.Contains(t, out, `http_requests_total{method="GET",route="/metrics-body/{id}",status="200"} 1`)
	assert.Contains(t, out, `route="unmatched",status="404"`)
	assert.Contains(t, out, `http_response_size_bytes_count{route="/metrics-test/{id}"} 2`)
	assert.Contains(t, out, `http_response_size_bytes_sum{route="/metrics-body/{id}"} 300`)
	assert.NotContains(t, out, "/metrics-test/a")
	assert.NotContains(t, out, "wp-admin")
}

func TestSpanRoute(t *testing.T) {
	assert.Equal(t, "/events/{id}", spanRoute("/events/evt_1"))
	assert.Equal(t, "/events/", spanRoute("/events/"))
	assert.Equal(t, "/privacy", spanRoute("/privacy"))
}

func TestTracingTransport_ForwardsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	c := &http.Client{Transport: &TracingTransport{}}
	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/events/evt_1", nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRedisRateLimiter(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRedisRateLimiter(rdb)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	h := l.Middleware(RateLimitConfig{Limit: 2, Window: time.Minute})(okHandler)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	now = now.Add(time.Millisecond)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	now = now.Add(time.Millisecond)
	rec := hit(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	mr, rdb := newTestRedis(t)
	h := NewRedisRateLimiter(rdb).Middleware(RateLimitConfig{Limit: 1, Window: time.Minute})(okHandler)
	mr.Close()

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)

	open := NewRedisRateLimiter(nil).Middleware(RateLimitConfig{Limit: 1, Window: time.Minute})(okHandler)
	assert.Equal(t, http.StatusOK, hit(open, "10.0.0.1").Code)
}

func TestRateLimit_InProcess(t *testing.T) {
	h := RateLimit(nil, 1, time.Minute)(okHandler)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.9").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.9").Code)
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	assert.Equal(t, "ip:203.0.113.7", KeyByIP(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "ip:203.0.113.7", KeyByIP(req))
}
