package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus implements Collector backed by Prometheus.
type Prometheus struct {
	attempts  *prometheus.CounterVec
	moved     prometheus.Counter
	slots     prometheus.Histogram
	estimates prometheus.Counter
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates and registers the splitter metrics on reg
// (prometheus.DefaultRegisterer when nil) under namespace ("furnacesplit" when empty).
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "furnacesplit"
	}

	p := &Prometheus{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "split",
			Name:      "attempts_total",
			Help:      "Deposit attempts by outcome (handled, noop, partial, not_handled, blocked).",
		}, []string{"result"}),
		moved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "split",
			Name:      "units_moved_total",
			Help:      "Net units drawn from source stacks by executed plans.",
		}),
		slots: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "split",
			Name:      "plan_slots",
			Help:      "Slot count of computed plans.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 16, 24},
		}),
		estimates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "estimate",
			Name:      "recomputes_total",
			Help:      "Estimate recomputes drained from the queue.",
		}),
	}
	reg.MustRegister(p.attempts, p.moved, p.slots, p.estimates)
	return p
}

func (p *Prometheus) RecordSplit(result string, slots int, moved int) {
	p.attempts.WithLabelValues(result).Inc()
	if result == ResultNotHandled {
		return
	}
	p.slots.Observe(float64(slots))
	// Counters cannot go down; a plan that grows the source is not counted.
	if moved > 0 {
		p.moved.Add(float64(moved))
	}
}

func (p *Prometheus) RecordEstimate() {
	p.estimates.Inc()
}
