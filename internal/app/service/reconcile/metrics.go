package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "reconcile",
		Name:      "matches_total",
		Help:      "Orders matched to a bank mutation, partitioned by reconciliation path.",
	}, []string{"path"})

	webhookMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "reconcile",
		Name:      "webhook_mutations_total",
		Help:      "Webhook mutations processed, partitioned by outcome.",
	}, []string{"result"})

	webhookRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: "reconcile",
		Name:      "webhook_batches_rejected_total",
		Help:      "Webhook batches rejected due to signature mismatch.",
	})
)
