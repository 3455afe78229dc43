package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CounterSource reads persisted counters by name.
type CounterSource interface {
	ReadMany(ctx context.Context, names []string) (map[string]int64, error)
}

// Collector mirrors persisted operation counters as a gauge vector, so the
// totals survive restarts and agree across replicas sharing a store.
type Collector struct {
	src     CounterSource
	names   []string
	timeout time.Duration

	desc      *prometheus.Desc
	errorDesc *prometheus.Desc
}

// NewCollector creates a collector for the named counters.
func NewCollector(src CounterSource, names []string) *Collector {
	return &Collector{
		src:     src,
		names:   append([]string(nil), names...),
		timeout: 2 * time.Second,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "counter"),
			"Persisted operation counter value",
			[]string{"name"}, nil,
		),
		errorDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "counter_read_errors"),
			"1 when the last counter read failed",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
	ch <- c.errorDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	values, err := c.src.ReadMany(ctx, c.names)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.errorDesc, prometheus.GaugeValue, 1)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.errorDesc, prometheus.GaugeValue, 0)
	for _, name := range c.names {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(values[name]), name)
	}
}
