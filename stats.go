package riakhttp

import "sync/atomic"

// ClientStats contains counters for client operations. All fields are
// safe for concurrent access.
//
// For Prometheus integration use NewStatsCollector, which exposes these
// as counters with an operation label.
type ClientStats struct {
	Fetches     uint64 // Total object fetches
	FetchHits   uint64 // Fetches that found the object
	Stores      uint64 // Total object stores
	Deletes     uint64 // Total object deletes
	Lists       uint64 // Bucket and key listings
	PropsOps    uint64 // Bucket property reads/writes/resets
	DataTypeOps uint64 // CRDT fetches and updates
	Pings       uint64 // Liveness checks
	Errors      uint64 // Total errors across all operations
}

// clientStatsCollector provides internal methods for updating client
// stats. Not exported - the client updates its own stats.
type clientStatsCollector struct {
	stats *ClientStats
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{
		stats: &ClientStats{},
	}
}

func (c *clientStatsCollector) recordFetch(found bool) {
	atomic.AddUint64(&c.stats.Fetches, 1)
	if found {
		atomic.AddUint64(&c.stats.FetchHits, 1)
	}
}

func (c *clientStatsCollector) recordStore() {
	atomic.AddUint64(&c.stats.Stores, 1)
}

func (c *clientStatsCollector) recordDelete() {
	atomic.AddUint64(&c.stats.Deletes, 1)
}

func (c *clientStatsCollector) recordList() {
	atomic.AddUint64(&c.stats.Lists, 1)
}

func (c *clientStatsCollector) recordPropsOp() {
	atomic.AddUint64(&c.stats.PropsOps, 1)
}

func (c *clientStatsCollector) recordDataTypeOp() {
	atomic.AddUint64(&c.stats.DataTypeOps, 1)
}

func (c *clientStatsCollector) recordPing() {
	atomic.AddUint64(&c.stats.Pings, 1)
}

func (c *clientStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Fetches:     atomic.LoadUint64(&c.stats.Fetches),
		FetchHits:   atomic.LoadUint64(&c.stats.FetchHits),
		Stores:      atomic.LoadUint64(&c.stats.Stores),
		Deletes:     atomic.LoadUint64(&c.stats.Deletes),
		Lists:       atomic.LoadUint64(&c.stats.Lists),
		PropsOps:    atomic.LoadUint64(&c.stats.PropsOps),
		DataTypeOps: atomic.LoadUint64(&c.stats.DataTypeOps),
		Pings:       atomic.LoadUint64(&c.stats.Pings),
		Errors:      atomic.LoadUint64(&c.stats.Errors),
	}
}
