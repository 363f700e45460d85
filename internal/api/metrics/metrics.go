// Package metrics defines and registers all custom Prometheus metrics for
// the identity service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "locked_out"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// LockoutsTotal counts lockouts installed by the login throttle.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of client keys locked out after repeated login failures.",
	},
)

// SessionsCreatedTotal counts sessions issued at login.
// Label:
//   - remember_me: "true" for 14-day sessions, "false" for session-scoped
var SessionsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions issued, by expiry policy.",
	},
	[]string{"remember_me"},
)

// RegistrationsTotal counts account registrations by outcome.
// Label:
//   - result: "success", "validation_failed", "conflict"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"result"},
)

// ── Role catalog metrics ──────────────────────────────────────────────────────

// RoleMutationsTotal counts administrative role catalog changes.
// Label:
//   - operation: "create", "update", "delete", "set_default"
var RoleMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_mutations_total",
		Help:      "Total number of role catalog mutations, by operation.",
	},
	[]string{"operation"},
)
