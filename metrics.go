package riakhttp

import "github.com/prometheus/client_golang/prometheus"

// StatsCollector exposes client and pool statistics as Prometheus
// metrics. Register it on any registry:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(riakhttp.NewStatsCollector(client))
type StatsCollector struct {
	client *Client

	operations *prometheus.Desc
	fetchHits  *prometheus.Desc
	errors     *prometheus.Desc

	poolConns    *prometheus.Desc
	poolAcquires *prometheus.Desc
	breakerState *prometheus.Desc
}

// NewStatsCollector creates a collector reading from the given client.
func NewStatsCollector(client *Client) *StatsCollector {
	return &StatsCollector{
		client: client,
		operations: prometheus.NewDesc(
			"riakhttp_operations_total",
			"Completed client operations by type.",
			[]string{"operation"}, nil,
		),
		fetchHits: prometheus.NewDesc(
			"riakhttp_fetch_hits_total",
			"Fetch operations that found the object.",
			nil, nil,
		),
		errors: prometheus.NewDesc(
			"riakhttp_errors_total",
			"Errors across all client operations.",
			nil, nil,
		),
		poolConns: prometheus.NewDesc(
			"riakhttp_pool_connections",
			"Connections per node pool by state.",
			[]string{"node", "state"}, nil,
		),
		poolAcquires: prometheus.NewDesc(
			"riakhttp_pool_acquires_total",
			"Connection acquisitions per node pool.",
			[]string{"node"}, nil,
		),
		breakerState: prometheus.NewDesc(
			"riakhttp_circuit_breaker_state",
			"Circuit breaker state per node (0 closed, 1 half-open, 2 open).",
			[]string{"node"}, nil,
		),
	}
}

func (sc *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sc.operations
	ch <- sc.fetchHits
	ch <- sc.errors
	ch <- sc.poolConns
	ch <- sc.poolAcquires
	ch <- sc.breakerState
}

func (sc *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := sc.client.Stats()

	operation := func(name string, value uint64) {
		ch <- prometheus.MustNewConstMetric(sc.operations, prometheus.CounterValue, float64(value), name)
	}
	operation("fetch", stats.Fetches)
	operation("store", stats.Stores)
	operation("delete", stats.Deletes)
	operation("list", stats.Lists)
	operation("props", stats.PropsOps)
	operation("datatype", stats.DataTypeOps)
	operation("ping", stats.Pings)

	ch <- prometheus.MustNewConstMetric(sc.fetchHits, prometheus.CounterValue, float64(stats.FetchHits))
	ch <- prometheus.MustNewConstMetric(sc.errors, prometheus.CounterValue, float64(stats.Errors))

	for _, nps := range sc.client.AllNodeStats() {
		ch <- prometheus.MustNewConstMetric(sc.poolConns, prometheus.GaugeValue,
			float64(nps.PoolStats.IdleConns), nps.Addr, "idle")
		ch <- prometheus.MustNewConstMetric(sc.poolConns, prometheus.GaugeValue,
			float64(nps.PoolStats.ActiveConns), nps.Addr, "active")
		ch <- prometheus.MustNewConstMetric(sc.poolAcquires, prometheus.CounterValue,
			float64(nps.PoolStats.AcquireCount), nps.Addr)
		ch <- prometheus.MustNewConstMetric(sc.breakerState, prometheus.GaugeValue,
			float64(nps.CircuitBreakerState), nps.Addr)
	}
}
