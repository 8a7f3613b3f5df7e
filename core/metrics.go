package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain metrics, exposed on /metrics.
var (
	MembersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "koinonia",
		Name:      "members_registered_total",
		Help:      "Number of members registered.",
	})

	FinanceEntriesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "koinonia",
		Name:      "finance_entries_recorded_total",
		Help:      "Number of finance entries recorded, by kind.",
	}, []string{"kind"})

	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "koinonia",
		Name:      "posts_published_total",
		Help:      "Number of blog posts published.",
	})
)
