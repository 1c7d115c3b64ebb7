package preview

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_fetch_total",
			Help: "Upstream event fetches by outcome",
		},
		[]string{"outcome"},
	)

	eventCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_cache_total",
			Help: "Event cache lookups by result",
		},
		[]string{"result"},
	)
)
