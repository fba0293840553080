package isup

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type listenerMetrics struct {
	accepted prometheus.Counter
	active   prometheus.Gauge
	frames   *prometheus.CounterVec
	payloads *prometheus.CounterVec

	forwardQueued prometheus.Gauge
	forwarded     *prometheus.CounterVec
}

var (
	listenerMetricsOnce sync.Once
	listenerMetricsInst *listenerMetrics
)

func globalListenerMetrics() *listenerMetrics {
	listenerMetricsOnce.Do(func() {
		listenerMetricsInst = &listenerMetrics{
			accepted: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "isup",
				Name:      "connections_total",
				Help:      "Terminal connections accepted",
			}),
			active: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "skud",
				Subsystem: "isup",
				Name:      "active_connections",
				Help:      "Terminal connections currently open",
			}),
			frames: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "isup",
				Name:      "frames_total",
				Help:      "Chunks read from terminals, labeled by frame kind",
			}, []string{"kind"}),
			payloads: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "isup",
				Name:      "payloads_total",
				Help:      "Event documents handed to the sink, labeled by result",
			}, []string{"result"}),
			forwardQueued: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "skud",
				Subsystem: "isup",
				Name:      "forward_queue_depth",
				Help:      "Event documents waiting to be forwarded",
			}),
			forwarded: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "skud",
				Subsystem: "isup",
				Name:      "forwarded_total",
				Help:      "Event documents forwarded to the server, labeled by result",
			}, []string{"result"}),
		}
	})
	return listenerMetricsInst
}

func (m *listenerMetrics) recordPayload(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.payloads.WithLabelValues(result).Inc()
}

func (m *listenerMetrics) recordForward(err error) {
	if m == nil {
		return
	}
	result := "success"
	switch {
	case errors.Is(err, ErrForwardQueueFull):
		result = "dropped"
	case err != nil:
		result = "failure"
	}
	m.forwarded.WithLabelValues(result).Inc()
}
