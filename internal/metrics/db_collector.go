package metrics

import "github.com/prometheus/client_golang/prometheus"

// DBPoolStatFunc reports connection pool counts. It keeps this package free
// of any database driver import.
type DBPoolStatFunc func() (total, idle, acquired int32)

type dbPoolCollector struct {
	stat  DBPoolStatFunc
	descs [3]*prometheus.Desc
}

// NewDBPoolCollector exposes pool counts as gauges read at scrape time.
func NewDBPoolCollector(stat DBPoolStatFunc) prometheus.Collector {
	gauge := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("mentorsync_db_pool_"+name, help, nil, nil)
	}
	return &dbPoolCollector{
		stat: stat,
		descs: [3]*prometheus.Desc{
			gauge("total_conns", "Connections currently open in the pool."),
			gauge("idle_conns", "Open connections not in use."),
			gauge("acquired_conns", "Connections checked out by queries."),
		},
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	total, idle, acquired := c.stat()
	for i, v := range [3]int32{total, idle, acquired} {
		ch <- prometheus.MustNewConstMetric(c.descs[i], prometheus.GaugeValue, float64(v))
	}
}
