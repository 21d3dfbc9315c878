package queue

import "github.com/prometheus/client_golang/prometheus"

// TasksProcessedTotal counts handled tasks grouped by terminal status
// (ok, retry, dead).
var TasksProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "queue_tasks_processed_total",
		Help: "Total tasks processed grouped by status",
	},
	[]string{"kind", "status"},
)

func init() {
	prometheus.MustRegister(TasksProcessedTotal)
}
