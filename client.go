package riakhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/rkv/riakhttp/rest"
)

// Object is one stored value together with its transport metadata.
type Object struct {
	BucketType  string
	Bucket      string
	Key         string
	Value       []byte
	ContentType string

	// VClock is the causal context returned on fetch. Informational;
	// stores are last-write-wins at this layer.
	VClock string

	// Found indicates whether the key existed.
	Found bool
}

// Config holds configuration for the client's per-node connection
// pools.
type Config struct {
	// MaxSize is the maximum number of connections per node pool.
	// Defaults to 4.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be
	// reused. Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can sit idle
	// before being closed. Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are checked
	// against the node's ping endpoint. Zero disables health checks.
	HealthCheckInterval time.Duration

	// NewHTTPClient builds the HTTP client behind each pooled
	// connection. If nil, every connection gets its own client with a
	// fresh transport so pooled connections do not share sockets.
	NewHTTPClient func() *http.Client

	// Pool is the connection pool factory. If nil, NewPuddlePool is
	// used.
	Pool func(constructor func(ctx context.Context) (*rest.Connection, error), maxSize int32) (Pool, error)

	// SelectNode picks which node handles a routing key. If nil,
	// DefaultSelectNode is used.
	SelectNode SelectNodeFunc

	// NewCircuitBreaker creates a circuit breaker for a node, called
	// once per node address. If nil, no circuit breaker is used.
	NewCircuitBreaker func(nodeAddr string) *gobreaker.CircuitBreaker[*rest.Response]

	// for testing purposes only
	constructor func(ctx context.Context) (*rest.Connection, error)
}

// poolConfig is the normalized pool configuration extracted from Config.
type poolConfig struct {
	maxSize             int32
	maxConnLifetime     time.Duration
	maxConnIdleTime     time.Duration
	healthCheckInterval time.Duration
	newHTTPClient       func() *http.Client
	poolFactory         func(constructor func(ctx context.Context) (*rest.Connection, error), maxSize int32) (Pool, error)
	newCircuitBreaker   func(nodeAddr string) *gobreaker.CircuitBreaker[*rest.Response]
	constructor         func(ctx context.Context) (*rest.Connection, error)
}

// Client executes store operations against a cluster of nodes, with one
// connection pool per node.
type Client struct {
	nodes      Nodes
	selectNode SelectNodeFunc

	mu    sync.RWMutex
	pools map[string]*NodePool

	poolConfig poolConfig

	stopHealthCheck chan struct{}

	stats *clientStatsCollector
}

// NewClient creates a client for the given cluster nodes.
// For a single node: NewClient(StaticNodes(node), config).
func NewClient(nodes Nodes, config Config) (*Client, error) {
	if nodes == nil || len(nodes.List()) == 0 {
		return nil, ErrNoNodes
	}

	selectNode := config.SelectNode
	if selectNode == nil {
		selectNode = DefaultSelectNode
	}

	maxSize := config.MaxSize
	if maxSize <= 0 {
		maxSize = 4
	}

	newHTTPClient := config.NewHTTPClient
	if newHTTPClient == nil {
		newHTTPClient = func() *http.Client {
			return &http.Client{Transport: &http.Transport{}}
		}
	}

	poolFactory := config.Pool
	if poolFactory == nil {
		poolFactory = NewPuddlePool
	}

	client := &Client{
		nodes:      nodes,
		selectNode: selectNode,
		pools:      make(map[string]*NodePool),
		poolConfig: poolConfig{
			maxSize:             maxSize,
			maxConnLifetime:     config.MaxConnLifetime,
			maxConnIdleTime:     config.MaxConnIdleTime,
			healthCheckInterval: config.HealthCheckInterval,
			newHTTPClient:       newHTTPClient,
			poolFactory:         poolFactory,
			newCircuitBreaker:   config.NewCircuitBreaker,
			constructor:         config.constructor,
		},
		stopHealthCheck: make(chan struct{}),
		stats:           newClientStatsCollector(),
	}

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	}

	return client, nil
}

// Close stops the health check loop and closes all node pools.
func (c *Client) Close() {
	if c.poolConfig.healthCheckInterval > 0 {
		close(c.stopHealthCheck)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, np := range c.pools {
		np.close()
	}
}

// nodeForKey picks the node responsible for a routing key.
func (c *Client) nodeForKey(key string) (rest.Node, error) {
	nodes := c.nodes.List()
	if len(nodes) == 0 {
		return rest.Node{}, ErrNoNodes
	}
	idx := c.selectNode(key, len(nodes))
	if idx < 0 || idx >= len(nodes) {
		return rest.Node{}, fmt.Errorf("riakhttp: node selector returned index %d for %d nodes", idx, len(nodes))
	}
	return nodes[idx], nil
}

// getOrCreatePool returns the pool for a node, creating it lazily.
func (c *Client) getOrCreatePool(node rest.Node) (*NodePool, error) {
	addr := node.Addr()

	c.mu.RLock()
	np, exists := c.pools[addr]
	c.mu.RUnlock()
	if exists {
		return np, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if np, exists := c.pools[addr]; exists {
		return np, nil
	}

	np, err := newNodePool(node, &c.poolConfig)
	if err != nil {
		return nil, err
	}
	c.pools[addr] = np
	return np, nil
}

// execute routes a command by key and runs it on the owning node.
func (c *Client) execute(ctx context.Context, routingKey string, cmd *rest.Command) (*rest.Response, error) {
	node, err := c.nodeForKey(routingKey)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	np, err := c.getOrCreatePool(node)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	resp, err := np.Execute(ctx, cmd)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}
	return resp, nil
}

// objectKey builds the routing key for object-level commands, so that
// all operations on one object route to the same node.
func objectKey(bucketType, bucket, key string) string {
	return bucketType + "/" + bucket + "/" + key
}

// Ping checks every node in the cluster and returns the last failure,
// if any.
func (c *Client) Ping(ctx context.Context) error {
	var lastErr error
	for _, node := range c.nodes.List() {
		np, err := c.getOrCreatePool(node)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := np.Execute(ctx, rest.NewPingCommand())
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			lastErr = fmt.Errorf("riakhttp: ping %s returned status %d", node.Addr(), resp.StatusCode())
		}
	}
	c.stats.recordPing()
	if lastErr != nil {
		c.stats.recordError()
	}
	return lastErr
}

// FetchObject reads one object. A missing key is not an error: the
// returned object has Found set to false.
func (c *Client) FetchObject(ctx context.Context, bucketType, bucket, key string) (Object, error) {
	cmd := rest.NewFetchObjectCommand(bucketType, bucket, key)
	resp, err := c.execute(ctx, objectKey(bucketType, bucket, key), cmd)
	if err != nil {
		return Object{}, err
	}

	obj := Object{BucketType: bucketType, Bucket: bucket, Key: key}

	switch resp.StatusCode() {
	case http.StatusOK:
		obj.Value = resp.Body()
		obj.ContentType, _ = resp.Header("Content-Type")
		obj.VClock, _ = resp.Header("X-Riak-Vclock")
		obj.Found = true
		c.stats.recordFetch(true)
		return obj, nil
	case http.StatusNotFound:
		c.stats.recordFetch(false)
		return obj, nil
	default:
		c.stats.recordError()
		return Object{}, fmt.Errorf("riakhttp: fetch failed with status %d", resp.StatusCode())
	}
}

// StoreObject writes one object.
func (c *Client) StoreObject(ctx context.Context, obj Object) error {
	cmd := rest.NewStoreObjectCommand(obj.BucketType, obj.Bucket, obj.Key, obj.Value, obj.ContentType)
	resp, err := c.execute(ctx, objectKey(obj.BucketType, obj.Bucket, obj.Key), cmd)
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		c.stats.recordStore()
		return nil
	default:
		c.stats.recordError()
		return fmt.Errorf("riakhttp: store failed with status %d", resp.StatusCode())
	}
}

// DeleteObject removes one object. Deleting a missing key succeeds.
func (c *Client) DeleteObject(ctx context.Context, bucketType, bucket, key string) error {
	cmd := rest.NewDeleteObjectCommand(bucketType, bucket, key)
	resp, err := c.execute(ctx, objectKey(bucketType, bucket, key), cmd)
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusNoContent, http.StatusNotFound:
		c.stats.recordDelete()
		return nil
	default:
		c.stats.recordError()
		return fmt.Errorf("riakhttp: delete failed with status %d", resp.StatusCode())
	}
}

// ListBuckets lists all buckets of a bucket type. Expensive on large
// clusters; intended for development and tooling.
func (c *Client) ListBuckets(ctx context.Context, bucketType string) ([]string, error) {
	resp, err := c.execute(ctx, bucketType, rest.NewListBucketsCommand(bucketType))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		c.stats.recordError()
		return nil, fmt.Errorf("riakhttp: list buckets failed with status %d", resp.StatusCode())
	}

	var payload struct {
		Buckets []string `json:"buckets"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.stats.recordError()
		return nil, fmt.Errorf("riakhttp: decode bucket list: %w", err)
	}
	c.stats.recordList()
	return payload.Buckets, nil
}

// ListKeys lists all keys in a bucket. Expensive on large buckets;
// intended for development and tooling.
func (c *Client) ListKeys(ctx context.Context, bucketType, bucket string) ([]string, error) {
	resp, err := c.execute(ctx, bucketType+"/"+bucket, rest.NewListKeysCommand(bucketType, bucket))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		c.stats.recordError()
		return nil, fmt.Errorf("riakhttp: list keys failed with status %d", resp.StatusCode())
	}

	var payload struct {
		Keys []string `json:"keys"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.stats.recordError()
		return nil, fmt.Errorf("riakhttp: decode key list: %w", err)
	}
	c.stats.recordList()
	return payload.Keys, nil
}

// FetchBucketProps reads the properties of a bucket.
func (c *Client) FetchBucketProps(ctx context.Context, bucketType, bucket string) (map[string]any, error) {
	resp, err := c.execute(ctx, bucketType+"/"+bucket, rest.NewFetchBucketPropsCommand(bucketType, bucket))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		c.stats.recordError()
		return nil, fmt.Errorf("riakhttp: fetch props failed with status %d", resp.StatusCode())
	}

	var payload struct {
		Props map[string]any `json:"props"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.stats.recordError()
		return nil, fmt.Errorf("riakhttp: decode props: %w", err)
	}
	c.stats.recordPropsOp()
	return payload.Props, nil
}

// StoreBucketProps writes bucket properties.
func (c *Client) StoreBucketProps(ctx context.Context, bucketType, bucket string, props map[string]any) error {
	body, err := json.Marshal(map[string]any{"props": props})
	if err != nil {
		return fmt.Errorf("riakhttp: encode props: %w", err)
	}

	cmd := rest.NewStoreBucketPropsCommand(bucketType, bucket, body)
	resp, err := c.execute(ctx, bucketType+"/"+bucket, cmd)
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		c.stats.recordPropsOp()
		return nil
	default:
		c.stats.recordError()
		return fmt.Errorf("riakhttp: store props failed with status %d", resp.StatusCode())
	}
}

// ResetBucketProps restores a bucket's default properties.
func (c *Client) ResetBucketProps(ctx context.Context, bucketType, bucket string) error {
	cmd := rest.NewResetBucketPropsCommand(bucketType, bucket)
	resp, err := c.execute(ctx, bucketType+"/"+bucket, cmd)
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		c.stats.recordPropsOp()
		return nil
	default:
		c.stats.recordError()
		return fmt.Errorf("riakhttp: reset props failed with status %d", resp.StatusCode())
	}
}

// DataTypeValue is the raw result of a CRDT fetch.
type DataTypeValue struct {
	Kind string
	Body []byte
}

// FetchDataType reads a CRDT instance of the given kind ("counter",
// "set" or "map"). The body is returned undecoded: counters are a
// plain number, sets and maps are JSON documents.
func (c *Client) FetchDataType(ctx context.Context, bucketType, bucket, kind, key string) (DataTypeValue, error) {
	cmd := rest.NewFetchDataTypeCommand(bucketType, bucket, kind, key)
	resp, err := c.execute(ctx, objectKey(bucketType, bucket, key), cmd)
	if err != nil {
		return DataTypeValue{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		c.stats.recordError()
		return DataTypeValue{}, fmt.Errorf("riakhttp: fetch %s failed with status %d", kind, resp.StatusCode())
	}
	c.stats.recordDataTypeOp()
	return DataTypeValue{Kind: kind, Body: resp.Body()}, nil
}

// UpdateDataType applies an operation document to a CRDT instance.
func (c *Client) UpdateDataType(ctx context.Context, bucketType, bucket, kind, key string, op []byte) error {
	cmd := rest.NewStoreDataTypeCommand(bucketType, bucket, kind, key, op)
	resp, err := c.execute(ctx, objectKey(bucketType, bucket, key), cmd)
	if err != nil {
		return err
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusNoContent:
		c.stats.recordDataTypeOp()
		return nil
	default:
		c.stats.recordError()
		return fmt.Errorf("riakhttp: update %s failed with status %d", kind, resp.StatusCode())
	}
}

// IncrementCounter adds delta to a counter, creating it at delta when
// absent.
func (c *Client) IncrementCounter(ctx context.Context, bucketType, bucket, key string, delta int64) error {
	return c.UpdateDataType(ctx, bucketType, bucket, "counter", key, []byte(strconv.FormatInt(delta, 10)))
}

// FetchCounter reads a counter value. A missing counter reads as zero.
func (c *Client) FetchCounter(ctx context.Context, bucketType, bucket, key string) (int64, error) {
	cmd := rest.NewFetchDataTypeCommand(bucketType, bucket, "counter", key)
	resp, err := c.execute(ctx, objectKey(bucketType, bucket, key), cmd)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		value, err := strconv.ParseInt(string(resp.Body()), 10, 64)
		if err != nil {
			c.stats.recordError()
			return 0, fmt.Errorf("riakhttp: parse counter value: %w", err)
		}
		c.stats.recordDataTypeOp()
		return value, nil
	case http.StatusNotFound:
		c.stats.recordDataTypeOp()
		return 0, nil
	default:
		c.stats.recordError()
		return 0, fmt.Errorf("riakhttp: fetch counter failed with status %d", resp.StatusCode())
	}
}

// Stats returns a snapshot of client operation statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// AllNodeStats returns stats for every node pool created so far.
func (c *Client) AllNodeStats() []NodePoolStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]NodePoolStats, 0, len(c.pools))
	for _, np := range c.pools {
		stats = append(stats, np.Stats())
	}
	return stats
}

// healthCheckLoop periodically checks idle connections for health and
// lifecycle limits.
func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(c.poolConfig.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkAllPools()
		}
	}
}

func (c *Client) checkAllPools() {
	c.mu.RLock()
	pools := make([]*NodePool, 0, len(c.pools))
	for _, np := range c.pools {
		pools = append(pools, np)
	}
	c.mu.RUnlock()

	for _, np := range pools {
		c.checkPoolConnections(np)
	}
}

// checkPoolConnections inspects all idle connections in one pool and
// destroys those that are stale, expired, or failing the ping check.
func (c *Client) checkPoolConnections(np *NodePool) {
	now := time.Now()

	for _, res := range np.pool.AcquireAllIdle() {
		if c.poolConfig.maxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.poolConfig.maxConnLifetime {
			res.Destroy()
			continue
		}

		if c.poolConfig.maxConnIdleTime > 0 && res.IdleDuration() > c.poolConfig.maxConnIdleTime {
			res.Destroy()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := res.Value().Ping(ctx, np.node)
		cancel()
		if err != nil {
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}
