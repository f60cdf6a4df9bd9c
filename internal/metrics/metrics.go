// Package metrics exposes Prometheus instrumentation for the streaming
// client: fetch outcomes, cache effectiveness and engine occupancy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchTotal counts finished fetches by kind (planetoid, bulk, node)
	// and outcome (ok, error).
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rocktree",
		Name:      "fetch_total",
		Help:      "Finished fetches by kind and outcome.",
	},
		[]string{"kind", "outcome"},
	)

	// FetchBytes counts raw bytes fetched over HTTP by kind.
	FetchBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rocktree",
		Name:      "fetch_bytes_total",
		Help:      "Raw bytes fetched over HTTP by kind.",
	},
		[]string{"kind"},
	)

	// CacheRequests counts cache lookups by result (hit, miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rocktree",
		Name:      "cache_requests_total",
		Help:      "Cache lookups by result.",
	},
		[]string{"result"},
	)

	// LoadedNodes is the number of nodes currently loaded for rendering.
	LoadedNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rocktree",
		Name:      "loaded_nodes",
		Help:      "Nodes currently loaded for rendering.",
	})

	// LoadingNodes is the number of node fetches currently in flight.
	LoadingNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rocktree",
		Name:      "loading_nodes",
		Help:      "Node fetches currently in flight.",
	})

	// CachedBulks is the number of bulk metadata entries held in memory.
	CachedBulks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rocktree",
		Name:      "cached_bulks",
		Help:      "Bulk metadata entries held in memory.",
	})

	// FailedBulks is the number of bulk paths marked sticky-failed.
	FailedBulks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rocktree",
		Name:      "failed_bulks",
		Help:      "Bulk paths marked failed and not retried.",
	})

	// PhysicsColliders is the number of live physics colliders.
	PhysicsColliders = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "rocktree",
		Name:      "physics_colliders",
		Help:      "Live terrain physics colliders.",
	})
)
