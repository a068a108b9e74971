// Package metrics defines and registers the custom Prometheus metrics of the
// users service. It is the single source of truth for metric names, labels
// and help strings.
//
// All metrics are registered with the default registry on package import
// and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "users"

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts served requests.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/api/users/:id")
//   - code: response status code
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status code.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests from routing to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthFailuresTotal counts rejected authentications.
// Label:
//   - reason: "missing_credentials", "invalid_token", "token_expired", "unknown_subject" or "error"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of rejected authentications, by reason.",
	},
	[]string{"reason"},
)

// AuthorizationDenialsTotal counts policy denials.
// Label:
//   - action: the policy action that was denied (e.g. "delete_user")
var AuthorizationDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Total number of requests denied by the authorization policy.",
	},
	[]string{"action"},
)

// RoleChangesStrippedTotal counts role changes silently dropped from
// non-admin updates.
var RoleChangesStrippedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_changes_stripped_total",
		Help:      "Total number of role changes dropped from updates made by non-admin identities.",
	},
)

// IdentityCacheTotal counts identity cache lookups and dropped fills.
// Label:
//   - result: "hit", "miss", "error" or "stale" (fill raced an invalidation)
var IdentityCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_cache_lookups_total",
		Help:      "Total number of identity cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── User metrics ──────────────────────────────────────────────────────────────

// UserMutationsTotal counts successful writes.
// Label:
//   - operation: "create", "update", "delete" or "last_login"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of successful user writes, by operation.",
	},
	[]string{"operation"},
)
