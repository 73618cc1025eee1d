package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Recorder on top of Prometheus vectors.
type Collector struct {
	posted   *prometheus.CounterVec
	amount   *prometheus.CounterVec
	rejected *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	return &Collector{
		posted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "posted_total",
			Help:      "Ledger writes committed, by kind.",
		}, []string{"kind"}),
		amount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "posted_amount_total",
			Help:      "Sum of committed amounts in minor units, by kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejected_total",
			Help:      "Ledger writes rejected, by kind and reason.",
		}, []string{"kind", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "write_duration_seconds",
			Help:      "Time spent in a ledger write, including locking.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// Register adds all collectors to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{c.posted, c.amount, c.rejected, c.duration} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}

	return nil
}

func (c *Collector) Posted(kind string, amount int64) {
	c.posted.WithLabelValues(kind).Inc()
	c.amount.WithLabelValues(kind).Add(float64(amount))
}

func (c *Collector) Rejected(kind, reason string) {
	c.rejected.WithLabelValues(kind, reason).Inc()
}

func (c *Collector) ObserveDuration(kind string, d time.Duration) {
	c.duration.WithLabelValues(kind).Observe(d.Seconds())
}
