// Package metrics holds Prometheus instruments that are used across the
// framework.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveContexts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plugin_active_contexts",
			Help: "Number of plugin runtime contexts currently cached.",
		})

	ContextLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plugin_context_load_total",
			Help: "Cumulative number of plugin runtime contexts built by the host cache.",
		})

	ContextLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plugin_context_load_errors_total",
			Help: "Cumulative number of failed plugin runtime context loads.",
		})

	ContextEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plugin_context_evict_total",
			Help: "Cumulative number of plugin runtime contexts evicted from the cache.",
		})

	DecryptFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plugin_decrypt_failures_total",
			Help: "Cumulative number of protected plugin settings that failed to decrypt.",
		})

	// ConfigOpsTotal is labelled by op (set, get, remove) and result
	// (ok, invalid, error).
	ConfigOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugin_config_ops_total",
			Help: "Plugin config store operations by op and result.",
		}, []string{"op", "result"})

	// PermissionChecksTotal is labelled by scope (plugin, site) and result
	// (granted, denied, error).
	PermissionChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugin_permission_checks_total",
			Help: "Plugin permission checks by scope and result.",
		}, []string{"scope", "result"})

	ResourcesMovedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugin_resources_moved_total",
			Help: "Resources relocated between sites by result (moved, skipped, failed).",
		}, []string{"result"})

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_api_request_duration_seconds",
			Help:    "Admin API latency by method and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"})

	PluginErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plugin_errors_total",
			Help: "Errors recorded on behalf of plugins.",
		}, []string{"plugin_id"})
)

func init() {
	prometheus.MustRegister(
		ActiveContexts,
		ContextLoadTotal,
		ContextLoadErrorsTotal,
		ContextEvictTotal,
		DecryptFailuresTotal,
		ConfigOpsTotal,
		PermissionChecksTotal,
		ResourcesMovedTotal,
		PluginErrorsTotal,
		APIRequestDuration,
	)
}
