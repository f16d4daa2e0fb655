package riakhttp

import (
	"context"

	"github.com/sony/gobreaker/v2"

	"github.com/rkv/riakhttp/rest"
)

// NodePool wraps one node's connection pool together with its circuit
// breaker.
type NodePool struct {
	node           rest.Node
	pool           Pool
	circuitBreaker *gobreaker.CircuitBreaker[*rest.Response]
}

func newNodePool(node rest.Node, config *poolConfig) (*NodePool, error) {
	constructor := func(ctx context.Context) (*rest.Connection, error) {
		return rest.NewConnection(config.newHTTPClient()), nil
	}
	if config.constructor != nil {
		constructor = config.constructor
	}

	pool, err := config.poolFactory(constructor, config.maxSize)
	if err != nil {
		return nil, err
	}

	np := &NodePool{node: node, pool: pool}
	if config.newCircuitBreaker != nil {
		np.circuitBreaker = config.newCircuitBreaker(node.Addr())
	}
	return np, nil
}

// Node returns the node this pool serves.
func (np *NodePool) Node() rest.Node {
	return np.node
}

// NodePoolStats contains stats for a single node pool.
type NodePoolStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

func (np *NodePool) Stats() NodePoolStats {
	stats := NodePoolStats{
		Addr:      np.node.Addr(),
		PoolStats: np.pool.Stats(),
	}
	if np.circuitBreaker != nil {
		stats.CircuitBreakerState = np.circuitBreaker.State()
		stats.CircuitBreakerCounts = np.circuitBreaker.Counts()
	}
	return stats
}

// Execute runs a single command against this node with proper
// connection management: acquire, execute, release on success, destroy
// on transport failure. When a circuit breaker is configured the whole
// cycle runs through it.
func (np *NodePool) Execute(ctx context.Context, cmd *rest.Command) (*rest.Response, error) {
	if np.circuitBreaker == nil {
		return np.executeDirect(ctx, cmd)
	}

	return np.circuitBreaker.Execute(func() (*rest.Response, error) {
		return np.executeDirect(ctx, cmd)
	})
}

func (np *NodePool) executeDirect(ctx context.Context, cmd *rest.Command) (*rest.Response, error) {
	resource, err := np.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	conn := resource.Value()

	resp, err := conn.Execute(ctx, cmd, np.node)
	if err != nil {
		// Transport failures leave the handle in an unknown state.
		resource.Destroy()
		return nil, err
	}

	resource.Release()
	return resp, nil
}

func (np *NodePool) close() {
	np.pool.Close()
}
