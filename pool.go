package riakhttp

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/puddle/v2"

	"github.com/rkv/riakhttp/rest"
)

// Resource is one pooled connection lease. Release returns the
// connection for reuse, Destroy closes it and removes it from the pool.
type Resource interface {
	Value() *rest.Connection
	Release()
	ReleaseUnused()
	Destroy()
	CreationTime() time.Time
	IdleDuration() time.Duration
}

// Pool manages a set of reusable connections to one node.
type Pool interface {
	Acquire(ctx context.Context) (Resource, error)
	AcquireAllIdle() []Resource
	Stats() PoolStats
	Close()
}

// PoolStats is a snapshot of one pool's state and lifetime counters.
type PoolStats struct {
	TotalConns     int32
	IdleConns      int32
	ActiveConns    int32
	MaxConns       int32
	AcquireCount   uint64
	EmptyAcquires  uint64
	CreatedConns   uint64
	DestroyedConns uint64
}

// NewPuddlePool creates a puddle-backed connection pool. This is the
// default pool implementation.
func NewPuddlePool(constructor func(ctx context.Context) (*rest.Connection, error), maxSize int32) (Pool, error) {
	p := &puddlePool{}

	poolConfig := &puddle.Config[*rest.Connection]{
		Constructor: func(ctx context.Context) (*rest.Connection, error) {
			conn, err := constructor(ctx)
			if err == nil {
				p.createdConns.Add(1)
			}
			return conn, err
		},
		Destructor: func(c *rest.Connection) {
			p.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: maxSize,
	}

	pool, err := puddle.NewPool(poolConfig)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// puddlePool wraps puddle.Pool to implement the Pool interface.
type puddlePool struct {
	pool           *puddle.Pool[*rest.Connection]
	createdConns   atomic.Uint64
	destroyedConns atomic.Uint64
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	return p.pool.Acquire(ctx)
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	puddleResources := p.pool.AcquireAllIdle()
	resources := make([]Resource, len(puddleResources))
	for i, res := range puddleResources {
		resources[i] = res
	}
	return resources
}

func (p *puddlePool) Stats() PoolStats {
	stat := p.pool.Stat()
	return PoolStats{
		TotalConns:     stat.TotalResources(),
		IdleConns:      stat.IdleResources(),
		ActiveConns:    stat.AcquiredResources(),
		MaxConns:       stat.MaxResources(),
		AcquireCount:   uint64(stat.AcquireCount()),
		EmptyAcquires:  uint64(stat.EmptyAcquireCount()),
		CreatedConns:   p.createdConns.Load(),
		DestroyedConns: p.destroyedConns.Load(),
	}
}

func (p *puddlePool) Close() {
	p.pool.Close()
}
