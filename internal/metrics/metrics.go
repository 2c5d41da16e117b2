// Package metrics exports prefs operation counts and latencies to
// Prometheus.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/aesprefs/internal/prefs"
)

const (
	operationsName = "aesprefs_operations_total"
	durationName   = "aesprefs_operation_duration_seconds"
)

// Observer is a prefs.Observer recording every operation.
type Observer struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ prefs.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: operationsName,
				Help: "Total count of encrypted preference operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    durationName,
				Help:    "Latency of encrypted preference operations",
				Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{o.operations, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return o, nil
}

// Observe implements prefs.Observer.
func (o *Observer) Observe(op string, elapsed time.Duration, outcome prefs.Outcome) {
	o.operations.WithLabelValues(op, outcome.String()).Inc()
	o.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// OpCount is the number of operations with one op and outcome.
type OpCount struct {
	Op      string
	Outcome string
	Count   float64
}

// Summarize reads the operation counters back out of g, sorted by op then
// outcome.
func Summarize(g prometheus.Gatherer) ([]OpCount, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var counts []OpCount
	for _, mf := range families {
		if mf.GetName() != operationsName {
			continue
		}
		for _, m := range mf.GetMetric() {
			c := OpCount{Count: m.GetCounter().GetValue()}
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "op":
					c.Op = l.GetValue()
				case "outcome":
					c.Outcome = l.GetValue()
				}
			}
			counts = append(counts, c)
		}
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Op != counts[j].Op {
			return counts[i].Op < counts[j].Op
		}
		return counts[i].Outcome < counts[j].Outcome
	})
	return counts, nil
}
