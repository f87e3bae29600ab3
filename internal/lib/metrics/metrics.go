// Package metrics содержит prometheus-метрики кеша и уровней доступа.
// Метрики регистрируются в default registry и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups считает обращения к кешу по результату: hit, miss, stale.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamefolio",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by cache name and result.",
	}, []string{"cache", "result"})

	// Mutations считает оптимистичные мутации по исходу: applied, rolled_back, discarded.
	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamefolio",
		Subsystem: "cache",
		Name:      "mutations_total",
		Help:      "Optimistic mutations by cache, kind and outcome.",
	}, []string{"cache", "kind", "outcome"})

	// RemoteRequests длительность запросов к удаленному API.
	RemoteRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gamefolio",
		Subsystem: "remote",
		Name:      "request_duration_seconds",
		Help:      "Remote API request duration by endpoint and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "status"})

	// TierResolutions считает вычисленные уровни доступа.
	TierResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamefolio",
		Subsystem: "access",
		Name:      "tier_resolutions_total",
		Help:      "Access tier resolutions by tier.",
	}, []string{"tier"})
)
