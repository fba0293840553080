package ingest

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ingestMetrics struct {
	events     *prometheus.CounterVec
	durations  prometheus.Observer
	queueDepth prometheus.Gauge
	rejected   prometheus.Counter
}

var (
	ingestMetricsOnce sync.Once
	ingestMetricsInst *ingestMetrics
)

func globalIngestMetrics() *ingestMetrics {
	ingestMetricsOnce.Do(func() {
		ingestMetricsInst = &ingestMetrics{
			events: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "ingest",
				Name:      "events_total",
				Help:      "Processed terminal events, labeled by outcome and rejection reason",
			}, []string{"outcome", "reason"}),
			durations: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: "skud",
				Subsystem: "ingest",
				Name:      "process_duration_seconds",
				Help:      "Time to normalize and reconcile one event",
				Buckets:   prometheus.DefBuckets,
			}),
			queueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "skud",
				Subsystem: "ingest",
				Name:      "queue_depth",
				Help:      "Raw events waiting for a worker",
			}),
			rejected: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "ingest",
				Name:      "queue_rejected_total",
				Help:      "Raw events refused because the queue was full",
			}),
		}
	})
	return ingestMetricsInst
}

func (m *ingestMetrics) record(res Result, took time.Duration) {
	if m == nil {
		return
	}
	outcome := string(res.Outcome)
	switch {
	case res.Status == StatusError:
		outcome = "error"
	case res.Reason != "":
		outcome = "rejected"
	case res.Status == StatusRemoteUnlock:
		outcome = "remote-unlock"
	}
	m.events.WithLabelValues(outcome, res.Reason).Inc()
	m.durations.Observe(took.Seconds())
}

func (m *ingestMetrics) recordThrottled() {
	if m == nil {
		return
	}
	m.events.WithLabelValues("rejected", "rate-limited").Inc()
}
