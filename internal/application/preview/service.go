package preview

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/messnightlife/mess-web/internal/domain"
	"github.com/messnightlife/mess-web/internal/downstream"
	"github.com/messnightlife/mess-web/internal/logger"
	"github.com/messnightlife/mess-web/internal/tracing"
)

const DefaultRevalidate = 60 * time.Second

// Service resolves shared event links. Any failure to obtain a payload
// collapses to nil so callers only ever see found or not found.
type Service struct {
	source EventSource
	cache  Cache
	ttl    time.Duration
}

func New(source EventSource, cache Cache, revalidate time.Duration) *Service {
	if revalidate <= 0 {
		revalidate = DefaultRevalidate
	}
	return &Service{
		source: source,
		cache:  cache,
		ttl:    revalidate,
	}
}

// Fetch returns the raw payload for id, or nil. Successful payloads are reused
// for the revalidation window, keyed by upstream request path.
func (s *Service) Fetch(ctx context.Context, id string) *domain.RawEvent {
	ctx, span := tracing.StartSpan(ctx, "preview.fetch")
	defer span.End()

	log := logger.Ctx(ctx)
	key := downstream.Path(id)
	span.SetAttributes(attribute.String("event.id", id))

	// 1. Try Cache
	if s.cache != nil {
		var cached domain.RawEvent
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			eventCacheTotal.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		case found:
			eventCacheTotal.WithLabelValues("hit").Inc()
			log.Debug().Str("key", key).Msg("cache hit")
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached
		default:
			eventCacheTotal.WithLabelValues("miss").Inc()
			log.Debug().Str("key", key).Msg("cache miss")
		}
	}

	// 2. Upstream
	raw, err := s.source.GetEvent(ctx, id)
	outcome := classify(err)
	eventFetchTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.String("fetch.outcome", outcome))
	if err != nil {
		ev := log.Warn()
		switch outcome {
		case "not_found":
			ev = log.Info()
		case "canceled":
			ev = log.Debug()
		}
		ev.Err(err).Str("event_id", id).Str("outcome", outcome).Msg("event fetch failed")
		return nil
	}
	if raw == nil {
		return nil
	}

	// 3. Set Cache (Best Effort)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return raw
}

// Resolve fetches and normalizes. It returns false for every not found
// outcome, including payloads too incomplete to show.
func (s *Service) Resolve(ctx context.Context, id string) (*domain.Event, bool) {
	raw := s.Fetch(ctx, id)
	if raw == nil {
		return nil, false
	}
	ev, ok := domain.Normalize(raw)
	if !ok {
		logger.Ctx(ctx).Info().Str("event_id", id).Msg("event payload incomplete")
		return nil, false
	}
	return ev, true
}

func classify(err error) string {
	var se *downstream.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, downstream.ErrNotFound):
		return "not_found"
	case errors.As(err, &se):
		return "upstream_status"
	case errors.Is(err, downstream.ErrMalformed):
		return "malformed"
	case errors.Is(err, downstream.ErrTimeout):
		return "timeout"
	case errors.Is(err, downstream.ErrCanceled):
		return "canceled"
	case errors.Is(err, downstream.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
