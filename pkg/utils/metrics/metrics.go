package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cottus_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cottus_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 60},
		},
		[]string{"method", "route"},
	)

	// Business metrics
	CompaniesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cottus_companies_created_total",
			Help: "Total companies created",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cottus_login_attempts_total",
			Help: "Tenant login attempts",
		},
		[]string{"result"}, // "success" or "failure"
	)

	TicketsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cottus_tickets_registered_total",
			Help: "Total tickets registered from assistant replies",
		},
	)

	TicketsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cottus_tickets_completed_total",
			Help: "Total pending to completed transitions",
		},
	)

	PayloadOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cottus_payload_outcomes_total",
			Help: "Outcome of scanning assistant replies for a ticket payload",
		},
		[]string{"outcome"}, // "absent", "malformed", "parsed"
	)

	DraftsQuarantined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cottus_drafts_quarantined_total",
			Help: "Ticket drafts dropped for missing or mistyped fields",
		},
	)

	// Completion service metrics
	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cottus_completion_latency_seconds",
			Help:    "Completion service call latency",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
		[]string{"result"}, // "success" or "failure"
	)

	// Backlog gauges, refreshed by the ticket stats worker
	TicketsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cottus_tickets",
			Help: "Number of stored tickets",
		},
		[]string{"status"}, // "pending" or "completed"
	)

	OldestPendingTicketAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cottus_oldest_pending_ticket_age_seconds",
			Help: "Age of the oldest pending ticket, 0 when none is pending",
		},
	)

	CompaniesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cottus_companies",
			Help: "Number of registered companies",
		},
	)
)
