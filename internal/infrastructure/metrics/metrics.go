package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Quote metrics
	QuotesComputed     *prometheus.CounterVec
	SettlementDuration prometheus.Histogram

	// Transaction metrics
	TransactionsCreated   prometheus.Counter
	TransactionsUpdated   prometheus.Counter
	TransactionsFinalized prometheus.Counter
	FaceAmount            prometheus.Histogram
	OverAllocations       prometheus.Counter

	// Group metrics
	GroupsCreated prometheus.Counter
	GroupChanges  *prometheus.CounterVec

	// Rate schedule metrics
	WaitingDaysLookups *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates the metrics and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Quote metrics
		QuotesComputed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remitdesk_quotes_total",
				Help: "Total settlement quotes computed by status",
			},
			[]string{"status"},
		),
		SettlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "remitdesk_settlement_duration_seconds",
			Help:    "Duration of quote computations including term resolution",
			Buckets: prometheus.DefBuckets,
		}),

		// Transaction metrics
		TransactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "remitdesk_transactions_created_total",
			Help: "Total number of transactions created",
		}),
		TransactionsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "remitdesk_transactions_updated_total",
			Help: "Total number of transaction updates",
		}),
		TransactionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "remitdesk_transactions_finalized_total",
			Help: "Total number of transactions finalized",
		}),
		FaceAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "remitdesk_transaction_face_amount",
			Help:    "Transaction face amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		OverAllocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "remitdesk_destination_over_allocations_total",
			Help: "Total saves whose destination items exceed the net amount",
		}),

		// Group metrics
		GroupsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "remitdesk_groups_created_total",
			Help: "Total number of transaction groups created",
		}),
		GroupChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remitdesk_group_changes_total",
				Help: "Total group membership updates by result",
			},
			[]string{"result"},
		),

		// Rate schedule metrics
		WaitingDaysLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remitdesk_waiting_days_lookups_total",
				Help: "Total waiting-days surcharge lookups by outcome",
			},
			[]string{"outcome"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remitdesk_outbox_events_published_total",
				Help: "Total outbox events handed to the publisher by event type",
			},
			[]string{"event_type"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remitdesk_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),
	}
}
