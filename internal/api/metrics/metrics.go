// Package metrics defines and registers all custom Prometheus metrics for the
// workshop API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed at GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "workshop"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - kind: principal kind the attempt resolved to ("USER", "CLIENT"), or "unknown"
//   - result: "success", "bad_credentials", "disabled", "throttled", "invalid_request" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by principal kind and result.",
	},
	[]string{"kind", "result"},
)

// TokenChecksTotal counts bearer tokens seen by the request authenticator.
// Label:
//   - result: "valid", "expired", "invalid" or "unresolved" (good token, account gone)
var TokenChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_checks_total",
		Help:      "Total number of presented tokens, by verification result.",
	},
	[]string{"result"},
)

// ── Field encryption metrics ──────────────────────────────────────────────────

// FieldDecryptTotal counts field decryptions.
// Label:
//   - outcome: "ok", "passthrough" (legacy plaintext) or "failed" (authentication failure)
var FieldDecryptTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "field_decrypt_total",
		Help:      "Total number of encrypted field reads, by outcome.",
	},
	[]string{"outcome"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts credential notice deliveries.
// Label:
//   - result: "sent" or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of credential notices handled, by result.",
	},
	[]string{"result"},
)

// NotifyQueueDepth tracks the number of notices waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotifyQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notify_queue_depth",
		Help:      "Current number of notices pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDuration measures how long a single delivery takes.
var NotificationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of credential notice delivery.",
		Buckets:   prometheus.DefBuckets,
	},
)
