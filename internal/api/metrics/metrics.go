// Package metrics defines the custom Prometheus metrics of the money tracker
// API. Metric names, labels and help strings live here and nowhere else.
//
// Every metric is registered with the default registry on package init via
// promauto, so /metrics exposes them as soon as the package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moneytracker"

// ── Expense metrics ───────────────────────────────────────────────────────────

// ExpenseMutationsTotal counts expense mutations handled by the API.
// Labels:
//   - op: "create", "update" or "delete"
//   - result: "ok", "replayed" or the error kind ("validation", "not_found", "conflict", "error")
var ExpenseMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expense_mutations_total",
		Help:      "Total number of expense mutations, by operation and result.",
	},
	[]string{"op", "result"},
)

// InsufficientFundsTotal counts mutations rejected because the balance would
// have gone negative.
var InsufficientFundsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insufficient_funds_total",
		Help:      "Total number of expense mutations rejected for insufficient funds.",
	},
)

// ── Mutation queue metrics ────────────────────────────────────────────────────

// MutationQueueDepth tracks the number of mutations waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MutationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mutation_queue_depth",
		Help:      "Current number of mutations pending in each serializer worker channel.",
	},
	[]string{"worker_id"},
)

// MutationDuration measures how long a serialized mutation runs once dequeued.
// Label:
//   - result: "ok" or "error"
var MutationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mutation_duration_seconds",
		Help:      "Duration of a serialized mutation from dequeue to commit or rollback.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "invalid_credentials", "already_logged_in" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// UsersRegisteredTotal counts accounts created.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of registered users.",
	},
)
