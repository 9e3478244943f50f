package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Command metrics
	CommandsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_commands_total",
			Help: "Total number of bot commands handled",
		},
		[]string{"command", "status"}, // status: success|error
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_command_duration_seconds",
			Help:    "Command handling duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"command"},
	)

	// Flow metrics
	FlowSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_flow_steps_total",
			Help: "Total number of conversation flow steps processed",
		},
		[]string{"flow", "status"}, // status: advanced|rejected|error
	)

	FlowsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_flows_completed_total",
			Help: "Total number of conversation flows finished",
		},
		[]string{"flow", "outcome"}, // outcome: done|cancelled
	)

	// AI metrics
	AICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_ai_calls_total",
			Help: "Total number of AI provider calls",
		},
		[]string{"provider", "purpose", "status"}, // status: success|error|rate_limited
	)

	AILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_ai_latency_seconds",
			Help:    "AI provider call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "purpose"},
	)

	AITokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_ai_tokens_total",
			Help: "Total tokens consumed by AI calls",
		},
		[]string{"provider", "type"}, // type: prompt|completion
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mentor_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mentor_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Broadcast metrics
	BroadcastDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_broadcast_deliveries_total",
			Help: "Total broadcast message deliveries",
		},
		[]string{"status"}, // status: delivered|failed
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentor_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(CommandsHandled)
	prometheus.MustRegister(CommandDuration)

	prometheus.MustRegister(FlowSteps)
	prometheus.MustRegister(FlowsCompleted)

	prometheus.MustRegister(AICalls)
	prometheus.MustRegister(AILatency)
	prometheus.MustRegister(AITokens)

	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(BroadcastDeliveries)
	prometheus.MustRegister(DBQueries)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records a handled bot command
func RecordCommand(command string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	CommandsHandled.WithLabelValues(command, status).Inc()
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordFlowStep records one processed conversation step
func RecordFlowStep(flow string, status string) {
	FlowSteps.WithLabelValues(flow, status).Inc()
}

// RecordFlowCompleted records a finished flow
func RecordFlowCompleted(flow string, outcome string) {
	FlowsCompleted.WithLabelValues(flow, outcome).Inc()
}

// RecordAICall records an AI provider invocation
func RecordAICall(provider, purpose string, latency time.Duration, promptTokens, completionTokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	AICalls.WithLabelValues(provider, purpose, status).Inc()
	AILatency.WithLabelValues(provider, purpose).Observe(latency.Seconds())

	if promptTokens > 0 {
		AITokens.WithLabelValues(provider, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		AITokens.WithLabelValues(provider, "completion").Add(float64(completionTokens))
	}
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordBroadcastDelivery records one broadcast recipient outcome
func RecordBroadcastDelivery(delivered bool) {
	status := "delivered"
	if !delivered {
		status = "failed"
	}
	BroadcastDeliveries.WithLabelValues(status).Inc()
}

// RecordDBQuery records a database query outcome
func RecordDBQuery(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueries.WithLabelValues(operation, status).Inc()
}
