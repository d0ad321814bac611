package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/suchimauz/clinic-admin/internal/core/domain"
)

// DeletionMetrics exposes counters/histograms for deletion flows.
type DeletionMetrics struct {
	deletionsTotal        *prometheus.CounterVec
	dependentDeletesTotal *prometheus.CounterVec
	deletionDuration      *prometheus.HistogramVec
}

func NewDeletionMetrics(reg prometheus.Registerer) *DeletionMetrics {
	m := &DeletionMetrics{
		deletionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_admin",
			Subsystem: "deletion",
			Name:      "total",
			Help:      "Total deletions by resource and outcome",
		}, []string{"resource", "outcome"}),
		dependentDeletesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic_admin",
			Subsystem: "deletion",
			Name:      "dependent_total",
			Help:      "Total dependent record deletes issued by doctor cascades",
		}, []string{"resource", "outcome"}),
		deletionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic_admin",
			Subsystem: "deletion",
			Name:      "duration_seconds",
			Help:      "Duration of deletions including cascades",
			Buckets:   prometheus.DefBuckets,
		}, []string{"resource"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.deletionsTotal, m.dependentDeletesTotal, m.deletionDuration)
	return m
}

func (m *DeletionMetrics) ObserveDeletion(resource domain.ResourceType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.deletionsTotal.WithLabelValues(string(resource), outcome).Inc()
	if duration > 0 {
		m.deletionDuration.WithLabelValues(string(resource)).Observe(duration.Seconds())
	}
}

func (m *DeletionMetrics) ObserveDependentDelete(resource domain.ResourceType, outcome string) {
	if m == nil {
		return
	}
	m.dependentDeletesTotal.WithLabelValues(string(resource), outcome).Inc()
}
