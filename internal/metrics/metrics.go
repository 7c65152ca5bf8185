// Package metrics exposes Prometheus collectors for rule and verdict outcomes.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "pubcheck"

// Collector owns a private registry holding every pubcheck metric.
//
// Metrics:
//   - pubcheck_rule_results_total: rule outcomes by rule and status
//   - pubcheck_rule_duration_seconds: rule evaluation latency
//   - pubcheck_verdicts_total: verdicts by outcome (passed, failed, errored)
//   - pubcheck_evaluation_duration_seconds: whole-submission evaluation latency
type Collector struct {
	registry *prometheus.Registry

	ruleResults        *prometheus.CounterVec
	ruleDuration       *prometheus.HistogramVec
	verdicts           *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
}

// NewCollector registers all metrics on registry. A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		ruleResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "rule_results_total",
				Help:      "Total number of rule results by rule and status",
			},
			[]string{"rule", "status"},
		),
		ruleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "rule_duration_seconds",
				Help:      "Duration of a single rule evaluation in seconds",
				// Rules that hit the registry or the extractor dominate (100µs to ~100s).
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"rule"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "verdicts_total",
				Help:      "Total number of compliance verdicts by outcome",
			},
			[]string{"outcome"},
		),
		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of a full submission evaluation in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}

	registry.MustRegister(c.ruleResults, c.ruleDuration, c.verdicts, c.evaluationDuration)
	return c
}

// RecordRule records one rule result.
func (c *Collector) RecordRule(rule, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.ruleResults.WithLabelValues(rule, status).Inc()
	c.ruleDuration.WithLabelValues(rule).Observe(d.Seconds())
}

// RecordVerdict records one finished evaluation. An errored evaluation counts as
// "errored" regardless of passed.
func (c *Collector) RecordVerdict(passed, errored bool, d time.Duration) {
	if c == nil {
		return
	}
	c.verdicts.WithLabelValues(Outcome(passed, errored)).Inc()
	c.evaluationDuration.Observe(d.Seconds())
}

func Outcome(passed, errored bool) string {
	switch {
	case errored:
		return "errored"
	case passed:
		return "passed"
	default:
		return "failed"
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current metric values in the text exposition format,
// suitable for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %q: %w", path, err)
	}
	return nil
}
