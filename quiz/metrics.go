// SPDX-License-Identifier: ice License 1.0

package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type (
	// | Metrics is a Subscriber that exposes what the learner does as Prometheus metrics.
	Metrics struct {
		events         *prometheus.CounterVec
		answers        *prometheus.CounterVec
		progressMarker prometheus.Gauge
		score          prometheus.Gauge
		retries        prometheus.Histogram
	}
)

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "defender_quiz_events_total",
			Help: "Total number of snapshots produced by the quiz engine, partitioned by event.",
		}, []string{"event"}),
		answers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "defender_quiz_answers_total",
			Help: "Total number of accepted selections, partitioned by outcome.",
		}, []string{"outcome"}),
		progressMarker: factory.NewGauge(prometheus.GaugeOpts{
			Name: "defender_quiz_progress_marker",
			Help: "Number of scenarios completed in the current run.",
		}),
		score: factory.NewGauge(prometheus.GaugeOpts{
			Name: "defender_quiz_score",
			Help: "Number of correct judgments in the current run.",
		}),
		retries: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "defender_quiz_retries_before_advance",
			Help:    "Incorrect attempts made on a scenario before it was answered correctly.",
			Buckets: prometheus.LinearBuckets(0, 1, 5), //nolint:gomnd // .
		}),
	}
}

func (m *Metrics) Observe(n *Notification) {
	m.events.WithLabelValues(string(n.Event)).Inc()
	m.progressMarker.Set(float64(n.State.ProgressMarker))
	m.score.Set(float64(n.State.Score))
	if n.Event != SelectedEvent || n.State.Feedback == nil {
		return
	}
	if n.State.Feedback.Correct {
		m.answers.WithLabelValues("correct").Inc()
		m.retries.Observe(float64(n.State.RetryCount))
	} else {
		m.answers.WithLabelValues("incorrect").Inc()
	}
}
