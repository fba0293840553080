package notify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type notifyMetrics struct {
	sent    *prometheus.CounterVec
	dropped prometheus.Counter
	queued  prometheus.Gauge
}

var (
	notifyMetricsOnce sync.Once
	notifyMetricsInst *notifyMetrics
)

func globalNotifyMetrics() *notifyMetrics {
	notifyMetricsOnce.Do(func() {
		notifyMetricsInst = &notifyMetrics{
			sent: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "notify",
				Name:      "deliveries_total",
				Help:      "Notification deliveries, labeled by destination and result",
			}, []string{"destination", "result"}),
			dropped: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "notify",
				Name:      "dropped_total",
				Help:      "Notifications dropped because the queue was full",
			}),
			queued: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "skud",
				Subsystem: "notify",
				Name:      "queue_depth",
				Help:      "Notifications waiting for dispatch",
			}),
		}
	})
	return notifyMetricsInst
}

func (m *notifyMetrics) recordDelivery(destination string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.sent.WithLabelValues(destination, result).Inc()
}
