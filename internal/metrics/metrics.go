package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/regworks/companies-register/internal/domain"
)

// Metrics exposes workflow and bulk-operation counters. It satisfies the
// workflow engine's MetricsRecorder contract.
type Metrics struct {
	submissions *prometheus.CounterVec
	approvals   *prometheus.CounterVec
	rejections  prometheus.Counter
	bulkSize    prometheus.Histogram
	bulkSeconds prometheus.Histogram
}

// New registers the register's metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "register_change_submissions_total",
			Help: "Change request submissions by initial workflow status.",
		}, []string{"status"}),
		approvals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "register_change_approvals_total",
			Help: "Approved change workflows, split by auto vs explicit approval.",
		}, []string{"mode"}),
		rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "register_change_rejections_total",
			Help: "Rejected change workflows.",
		}),
		bulkSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "register_bulk_batch_size",
			Help:    "Number of change requests per bulk operation.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		bulkSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "register_bulk_duration_seconds",
			Help:    "Wall time of bulk operations.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordSubmission counts one submission by its initial status.
func (m *Metrics) RecordSubmission(status domain.WorkflowStatus) {
	m.submissions.WithLabelValues(string(status)).Inc()
}

// RecordApproval counts one approval.
func (m *Metrics) RecordApproval(auto bool) {
	mode := "explicit"
	if auto {
		mode = "auto"
	}
	m.approvals.WithLabelValues(mode).Inc()
}

// RecordRejection counts one rejection.
func (m *Metrics) RecordRejection() {
	m.rejections.Inc()
}

// RecordBulk observes one completed bulk operation.
func (m *Metrics) RecordBulk(size int, elapsed time.Duration) {
	m.bulkSize.Observe(float64(size))
	m.bulkSeconds.Observe(elapsed.Seconds())
}
