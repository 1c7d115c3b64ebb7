package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mess-web"

// Tracing middleware instruments HTTP requests with OpenTelemetry spans
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + spanRoute(r.URL.Path)
			}),
		)
	}
}

// spanRoute collapses event ids so span names stay low cardinality. Routing
// has not run yet when the span is named, so chi's pattern is unavailable.
func spanRoute(path string) string {
	if strings.HasPrefix(path, "/events/") && len(path) > len("/events/") {
		return "/events/{id}"
	}
	return path
}

// TracingTransport wraps an HTTP transport to propagate trace context
type TracingTransport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper and injects trace context
func (t *TracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "HTTP "+req.Method+" "+req.URL.Host,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
		attribute.String("http.host", req.URL.Host),
	)

	// Inject trace context into outgoing request headers
	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.base().RoundTrip(req)
	if err != nil {
		span.RecordError(err)
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return resp, nil
}

func (t *TracingTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
