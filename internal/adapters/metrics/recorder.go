// Package metrics records pipeline measurements with Prometheus.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Metrics = (*Recorder)(nil)

const namespace = "press"

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Recorder implements ports.Metrics using Prometheus collectors.
type Recorder struct {
	reg          *prom.Registry
	taskDuration *prom.HistogramVec
	taskResults  *prom.CounterVec
	reloads      *prom.CounterVec
	changes      *prom.CounterVec
}

// NewRecorder constructs the collectors and registers them with reg.
// A nil registry gets a private one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of task executions",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_results_total",
			Help:      "Task executions by outcome",
		}, []string{"task", "result"}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Reload signals sent to browsers by kind",
		}, []string{"kind"}),
		changes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "source_changes_total",
			Help:      "Source change events by category",
		}, []string{"category"}),
	}
	reg.MustRegister(r.taskDuration, r.taskResults, r.reloads, r.changes)
	return r
}

// ObserveTask records one execution of a task.
func (r *Recorder) ObserveTask(name string, d time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailed
	}
	r.taskDuration.WithLabelValues(name).Observe(d.Seconds())
	r.taskResults.WithLabelValues(name, result).Inc()
}

// ObserveReload records a reload signal.
func (r *Recorder) ObserveReload(kind ports.ReloadKind) {
	r.reloads.WithLabelValues(string(kind)).Inc()
}

// ObserveChange records a source change event.
func (r *Recorder) ObserveChange(category string) {
	r.changes.WithLabelValues(category).Inc()
}

// Handler exposes the registry in the Prometheus text and OpenMetrics formats.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
