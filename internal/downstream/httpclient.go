package downstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/messnightlife/mess-web/internal/logger"
	"github.com/messnightlife/mess-web/middleware"
)

// ClientConfig holds configuration for the HTTP client wrapper
type ClientConfig struct {
	// Timeout bounds a single upstream call. Zero leaves it to the transport.
	Timeout time.Duration
	// Transport is used for outgoing requests; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultClientConfig returns sensible defaults
func DefaultClientConfig() ClientConfig {
	return ClientConfig{}
}

// Client is a centralized HTTP client wrapper that:
// 1. Injects X-Request-ID from context
// 2. Applies the optional per-request timeout
// 3. Maps transport failures to package errors
// 4. Logs requests with correlation ID
type Client struct {
	baseClient *http.Client
	config     ClientConfig
}

// NewClient creates a new HTTP client wrapper
func NewClient(config ClientConfig) *Client {
	return &Client{
		baseClient: &http.Client{
			Transport: config.Transport,
		},
		config: config,
	}
}

// Do executes an HTTP request. The caller must close resp.Body, which also
// releases the per-request timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}

	cancel := context.CancelFunc(func() {})
	if c.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
	}
	req = req.WithContext(ctx)

	log := logger.Log.With().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", middleware.GetRequestID(ctx)).
		Logger()

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		cancel()
		log.Warn().
			Err(err).
			Dur("duration", duration).
			Msg("downstream_request_failed")
		return nil, mapError(err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("downstream_request_completed")

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// Get is a convenience method for GET requests
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req)
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// mapError converts low-level errors to package errors, keeping the cause.
func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return errors.Join(ErrCanceled, err)
	}
	// Connection refused, DNS errors, etc.
	return errors.Join(ErrUnavailable, err)
}
