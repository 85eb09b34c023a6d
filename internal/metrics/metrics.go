package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds atomic counters for observability.
type Metrics struct {
	WritesTotal         atomic.Int64
	WriteFailuresTotal  atomic.Int64
	ReadsTotal          atomic.Int64
	CorruptReadsTotal   atomic.Int64
	UnavailableTotal    atomic.Int64
	ViewsRecordedTotal  atomic.Int64
	DraftsSavedTotal    atomic.Int64
	DraftsClearedTotal  atomic.Int64
	DraftsRestoredTotal atomic.Int64
	SubmissionsTotal    atomic.Int64
}

// Snapshot returns all metrics as a string-keyed map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"kv_writes_total":         m.WritesTotal.Load(),
		"kv_write_failures_total": m.WriteFailuresTotal.Load(),
		"kv_reads_total":          m.ReadsTotal.Load(),
		"kv_corrupt_reads_total":  m.CorruptReadsTotal.Load(),
		"kv_unavailable_total":    m.UnavailableTotal.Load(),
		"views_recorded_total":    m.ViewsRecordedTotal.Load(),
		"drafts_saved_total":      m.DraftsSavedTotal.Load(),
		"drafts_cleared_total":    m.DraftsClearedTotal.Load(),
		"drafts_restored_total":   m.DraftsRestoredTotal.Load(),
		"submissions_total":       m.SubmissionsTotal.Load(),
	}
}

// Collector exposes the counters to a Prometheus registry.
type Collector struct {
	m     *Metrics
	descs map[string]*prometheus.Desc
}

// NewCollector wraps m. Metric names are the Snapshot keys prefixed with "nvt_".
func NewCollector(m *Metrics) *Collector {
	descs := make(map[string]*prometheus.Desc)
	for name := range m.Snapshot() {
		descs[name] = prometheus.NewDesc("nvt_"+name, "Site state counter "+name+".", nil, nil)
	}
	return &Collector{m: m, descs: descs}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, v := range c.m.Snapshot() {
		d, ok := c.descs[name]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
}
