package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RateLimitDenials counts 429s per bucket key.
	RateLimitDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena_api",
		Name:      "rate_limit_denials_total",
		Help:      "Requests denied by the sliding-window rate limiter.",
	}, []string{"bucket"})

	// CacheRequests counts result-cache lookups per cache name and outcome.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena_api",
		Name:      "result_cache_requests_total",
		Help:      "Result cache lookups by outcome (hit or miss).",
	}, []string{"cache", "outcome"})

	// ProxyCalls counts coordinator-proxy dispatches per message kind and outcome.
	ProxyCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena_api",
		Name:      "proxy_calls_total",
		Help:      "Coordinator proxy calls by message kind and outcome.",
	}, []string{"kind", "outcome"})

	// SpectateSessions tracks live spectator sessions currently streaming.
	SpectateSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arena_api",
		Name:      "spectate_sessions",
		Help:      "Live demo streams currently being relayed.",
	})

	// ArtifactCascadeHits counts which cascade layer satisfied a metadata request.
	ArtifactCascadeHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena_api",
		Name:      "artifact_cascade_hits_total",
		Help:      "Metadata resolutions by the cascade layer that served them.",
	}, []string{"layer"})
)
