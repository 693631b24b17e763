// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for command execution metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// CommandExecutions is the counter for command executions.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandExecutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "slatebridge_command_executions_total",
		Help: "Total number of toolkit command executions",
	},
	[]string{"command", "status"},
)

// CommandDuration is the histogram for command execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var CommandDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "slatebridge_command_duration_seconds",
		Help:    "Toolkit command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// PanelOperations counts panel lifecycle operations.
// Use RegisterMetrics to register this with a Prometheus registry.
var PanelOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "slatebridge_panel_operations_total",
		Help: "Total number of panel show/focus/close operations",
	},
	[]string{"operation"},
)

// LogEvents counts log events relayed to the host console.
// Use RegisterMetrics to register this with a Prometheus registry.
var LogEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "slatebridge_log_events_total",
		Help: "Total number of log events relayed to the host console",
	},
	[]string{"level"},
)

// RegisterMetrics registers bridge metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CommandExecutions)
	reg.MustRegister(CommandDuration)
	reg.MustRegister(PanelOperations)
	reg.MustRegister(LogEvents)
}

func recordCommandExecution(command, status string) {
	CommandExecutions.WithLabelValues(command, status).Inc()
}

func recordCommandDuration(command string, d time.Duration) {
	CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func recordPanelOperation(op string) {
	PanelOperations.WithLabelValues(op).Inc()
}

func recordLogEvent(level string) {
	LogEvents.WithLabelValues(level).Inc()
}
