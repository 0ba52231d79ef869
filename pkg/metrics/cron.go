package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records outcomes for scheduled janitor jobs.
type CronJobMetrics struct {
	duration  *prometheus.HistogramVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

// NewCronJobMetrics registers the janitor metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of scheduled job runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	successes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_success_total",
		Help: "Completed scheduled job runs by job name.",
	}, []string{"job"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_failure_total",
		Help: "Failed scheduled job runs by job name.",
	}, []string{"job"})
	reg.MustRegister(duration, successes, failures)
	return &CronJobMetrics{
		duration:  duration,
		successes: successes,
		failures:  failures,
	}
}

// ObserveDuration records how long one job run took.
func (m *CronJobMetrics) ObserveDuration(job string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// IncSuccess counts one completed run.
func (m *CronJobMetrics) IncSuccess(job string) {
	if m == nil || m.successes == nil {
		return
	}
	m.successes.WithLabelValues(job).Inc()
}

// IncFailure counts one failed run.
func (m *CronJobMetrics) IncFailure(job string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(job).Inc()
}
