package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wordquiz"

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_created_total",
		Help:      "Rooms created.",
	})

	StoreConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_conflicts_total",
		Help:      "Store mutations retried because a concurrent writer committed first.",
	})

	SyncPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_polls_total",
		Help:      "Room reads performed by sync loops, by outcome.",
	}, []string{"outcome"})

	FlashesFired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wrong_flashes_fired_total",
		Help:      "Wrong-answer signals acted on by observers.",
	})

	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Quiz operations, by name and result code.",
	}, []string{"operation", "code"})

	RedisCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "redis_command_duration_seconds",
		Help:      "Latency of Redis commands and pipelines.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"cmd"})
)
