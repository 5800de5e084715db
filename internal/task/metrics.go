package task

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the runner's operational counters.
type Metrics struct {
	Submitted prometheus.Counter
	Completed prometheus.Counter
	Failed    prometheus.Counter
	Cancelled prometheus.Counter
	TimedOut  prometheus.Counter
}

// NewMetrics registers the runner metrics with the given registerer. The
// queueDepth function is sampled on scrape.
func NewMetrics(reg prometheus.Registerer, queueDepth func() float64) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "reelforge_queue_depth",
		Help: "Number of task descriptors buffered in the in-process queue.",
	}, queueDepth)

	return &Metrics{
		Submitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelforge_tasks_submitted_total",
			Help: "Tasks accepted for processing.",
		}),
		Completed: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelforge_tasks_completed_total",
			Help: "Tasks that finished their pipeline successfully.",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelforge_tasks_failed_total",
			Help: "Tasks that ended in a failed status.",
		}),
		Cancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelforge_tasks_cancelled_total",
			Help: "Tasks cancelled by an operator.",
		}),
		TimedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelforge_tasks_timed_out_total",
			Help: "Running tasks force-failed by the monitor timeout ceiling.",
		}),
	}
}
