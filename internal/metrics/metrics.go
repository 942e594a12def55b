package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for operation counters
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultRecovered = "recovered" // read failed and fell back to an empty value
)

// Collector holds the store's prometheus collectors
type Collector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	records           *prometheus.GaugeVec
}

// NewCollector creates the collectors and registers them on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localstore_operations_total",
				Help: "Total number of collection operations",
			},
			[]string{"collection", "op", "result"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "localstore_operation_duration_seconds",
				Help:    "Duration of collection operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "localstore_records",
				Help: "Number of records persisted per collection at the last write",
			},
			[]string{"collection"},
		),
	}

	reg.MustRegister(c.operationsTotal, c.operationDuration, c.records)
	return c
}

// Observe records one finished operation. Safe to call on a nil Collector.
func (c *Collector) Observe(collection, op, result string, started time.Time) {
	if c == nil {
		return
	}
	c.operationsTotal.WithLabelValues(collection, op, result).Inc()
	c.operationDuration.WithLabelValues(collection, op).Observe(time.Since(started).Seconds())
}

// SetRecords updates the record gauge for a collection. Safe to call on a nil Collector.
func (c *Collector) SetRecords(collection string, n int) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(collection).Set(float64(n))
}
