package network

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "transformsync"

var (
	offsetGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "offset_ms",
			Help:      "Current observer render delay in milliseconds.",
		},
		[]string{"object"},
	)
	bufferDepthGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_depth",
			Help:      "Snapshots held by the observer after the last trim.",
		},
		[]string{"object"},
	)
	underrunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "underruns_total",
			Help:      "Render ticks whose render time overran the newest bracket.",
		},
		[]string{"object"},
	)
	idleHoldCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idle_holds_total",
			Help:      "Render ticks that held an idle snapshot instead of interpolating.",
		},
		[]string{"object"},
	)
	sentCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_sent_total",
			Help:      "Snapshots broadcast by the authority.",
		},
		[]string{"object", "idle"},
	)
	suppressedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_suppressed_total",
			Help:      "Production ticks skipped because an idle snapshot was already sent.",
		},
		[]string{"object"},
	)
	receivedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_received_total",
			Help:      "Snapshots accepted into an observer inbox.",
		},
		[]string{"object"},
	)
	droppedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_dropped_total",
			Help:      "Snapshots discarded because the observer inbox was full or closed.",
		},
		[]string{"object"},
	)
)

var registerMetrics sync.Once

// RegisterMetrics adds the package collectors to reg. Later calls are no-ops.
func RegisterMetrics(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(
			offsetGauge,
			bufferDepthGauge,
			underrunCounter,
			idleHoldCounter,
			sentCounter,
			suppressedCounter,
			receivedCounter,
			droppedCounter,
		)
	})
}

func recordRender(object string, pose Pose, bufferLen, offsetMs int) {
	bufferDepthGauge.WithLabelValues(object).Set(float64(bufferLen))
	offsetGauge.WithLabelValues(object).Set(float64(offsetMs))
	if pose.Idle {
		idleHoldCounter.WithLabelValues(object).Inc()
	} else if pose.Factor > 1 {
		underrunCounter.WithLabelValues(object).Inc()
	}
}

func recordSent(object string, idle bool) {
	label := "false"
	if idle {
		label = "true"
	}
	sentCounter.WithLabelValues(object, label).Inc()
}

func recordSuppressed(object string) {
	suppressedCounter.WithLabelValues(object).Inc()
}

func recordReceived(object string) {
	receivedCounter.WithLabelValues(object).Inc()
}

func recordDropped(object string) {
	droppedCounter.WithLabelValues(object).Inc()
}

func forgetObject(object string) {
	labels := prometheus.Labels{"object": object}
	offsetGauge.DeletePartialMatch(labels)
	bufferDepthGauge.DeletePartialMatch(labels)
	underrunCounter.DeletePartialMatch(labels)
	idleHoldCounter.DeletePartialMatch(labels)
	sentCounter.DeletePartialMatch(labels)
	suppressedCounter.DeletePartialMatch(labels)
	receivedCounter.DeletePartialMatch(labels)
	droppedCounter.DeletePartialMatch(labels)
}
