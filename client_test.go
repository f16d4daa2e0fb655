package riakhttp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkv/riakhttp/rest"
)

func testNode(t *testing.T, serverURL string) rest.Node {
	t.Helper()

	u, err := url.Parse(serverURL)
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return rest.Node{Host: host, Port: port}
}

func newTestClient(t *testing.T, node rest.Node, config Config) *Client {
	t.Helper()

	client, err := NewClient(StaticNodes(node), config)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestClientFetchObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/types/users/buckets/profiles/keys/alice":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Riak-Vclock", "a85hYGBgzGDKBVIc")
			_, _ = w.Write([]byte(`{"name":"alice"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})
	ctx := context.Background()

	obj, err := client.FetchObject(ctx, "users", "profiles", "alice")
	require.NoError(t, err)
	assert.True(t, obj.Found)
	assert.Equal(t, []byte(`{"name":"alice"}`), obj.Value)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.Equal(t, "a85hYGBgzGDKBVIc", obj.VClock)

	missing, err := client.FetchObject(ctx, "users", "profiles", "nobody")
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Value)

	stats := client.Stats()
	assert.Equal(t, uint64(2), stats.Fetches)
	assert.Equal(t, uint64(1), stats.FetchHits)
}

func TestClientStoreObject(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/buckets/cache/keys/k1", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})

	err := client.StoreObject(context.Background(), Object{
		Bucket:      "cache",
		Key:         "k1",
		Value:       []byte("hello"),
		ContentType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), gotBody)
	assert.Equal(t, "text/plain", gotContentType)
	assert.Equal(t, uint64(1), client.Stats().Stores)
}

func TestClientDeleteObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/buckets/cache/keys/present":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})
	ctx := context.Background()

	require.NoError(t, client.DeleteObject(ctx, "", "cache", "present"))

	// Deleting a key that does not exist is not an error.
	require.NoError(t, client.DeleteObject(ctx, "", "cache", "absent"))
	assert.Equal(t, uint64(2), client.Stats().Deletes)
}

func TestClientListBucketsAndKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/buckets":
			assert.Equal(t, "true", r.URL.Query().Get("buckets"))
			_, _ = w.Write([]byte(`{"buckets":["cache","sessions"]}`))
		case "/buckets/cache/keys":
			assert.Equal(t, "true", r.URL.Query().Get("keys"))
			_, _ = w.Write([]byte(`{"keys":["k1","k2","k3"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})
	ctx := context.Background()

	buckets, err := client.ListBuckets(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache", "sessions"}, buckets)

	keys, err := client.ListKeys(ctx, "", "cache")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2", "k3"}, keys)

	assert.Equal(t, uint64(2), client.Stats().Lists)
}

func TestClientBucketProps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/buckets/cache/props", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"props":{"n_val":3,"allow_mult":false}}`))
		case http.MethodPut:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})
	ctx := context.Background()

	props, err := client.FetchBucketProps(ctx, "", "cache")
	require.NoError(t, err)
	assert.Equal(t, float64(3), props["n_val"])
	assert.Equal(t, false, props["allow_mult"])

	require.NoError(t, client.StoreBucketProps(ctx, "", "cache", map[string]any{"n_val": 5}))
	require.NoError(t, client.ResetBucketProps(ctx, "", "cache"))

	assert.Equal(t, uint64(3), client.Stats().PropsOps)
}

func TestClientCounter(t *testing.T) {
	var lastIncrement string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/types/stats/buckets/pages/counters/visits":
			if r.Method == http.MethodPost {
				buf, _ := io.ReadAll(r.Body)
				lastIncrement = string(buf)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_, _ = w.Write([]byte("42"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})
	ctx := context.Background()

	require.NoError(t, client.IncrementCounter(ctx, "stats", "pages", "visits", 7))
	assert.Equal(t, "7", lastIncrement)

	value, err := client.FetchCounter(ctx, "stats", "pages", "visits")
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)

	// A counter that was never incremented reads as zero.
	value, err = client.FetchCounter(ctx, "stats", "pages", "unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(0), value)
}

func TestClientFetchDataType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/types/crdt/buckets/tags/sets/colors", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"set","value":["red","blue"]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})

	value, err := client.FetchDataType(context.Background(), "crdt", "tags", "set", "colors")
	require.NoError(t, err)
	assert.Equal(t, "set", value.Kind)
	assert.JSONEq(t, `{"type":"set","value":["red","blue"]}`, string(value.Body))
}

func TestClientPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	client := newTestClient(t, testNode(t, srv.URL), Config{})
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, uint64(1), client.Stats().Pings)
}

func TestClientRouting(t *testing.T) {
	hits := make([]int, 2)
	makeServer := func(i int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits[i]++
			w.WriteHeader(http.StatusNotFound)
		}))
	}
	srv0 := makeServer(0)
	defer srv0.Close()
	srv1 := makeServer(1)
	defer srv1.Close()

	nodes := StaticNodes(testNode(t, srv0.URL), testNode(t, srv1.URL))

	client, err := NewClient(nodes, Config{SelectNode: staticSelector(1)})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.FetchObject(context.Background(), "", "b", "k")
	require.NoError(t, err)

	assert.Equal(t, 0, hits[0])
	assert.Equal(t, 1, hits[1])
}

func TestClientTransportFailure(t *testing.T) {
	// Port 1 is never listening.
	client := newTestClient(t, rest.Node{Host: "127.0.0.1", Port: 1}, Config{})

	_, err := client.FetchObject(context.Background(), "", "b", "k")
	require.Error(t, err)
	assert.Equal(t, uint64(1), client.Stats().Errors)
}

func TestClientCircuitBreaker(t *testing.T) {
	client := newTestClient(t, rest.Node{Host: "127.0.0.1", Port: 1}, Config{
		NewCircuitBreaker: NewCircuitBreakerConfig(1, time.Minute, time.Minute),
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.FetchObject(ctx, "", "b", "k")
		require.Error(t, err)
	}

	// Three straight failures trip the breaker; the next call is
	// rejected without touching the network.
	_, err := client.FetchObject(ctx, "", "b", "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))

	nodeStats := client.AllNodeStats()
	require.Len(t, nodeStats, 1)
	assert.Equal(t, gobreaker.StateOpen, nodeStats[0].CircuitBreakerState)
}

func TestNewClientRequiresNodes(t *testing.T) {
	_, err := NewClient(nil, Config{})
	assert.ErrorIs(t, err, ErrNoNodes)
}

func TestClientConnectionReuse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var created int
	config := Config{
		constructor: func(ctx context.Context) (*rest.Connection, error) {
			created++
			return rest.NewConnection(nil), nil
		},
	}
	client := newTestClient(t, testNode(t, srv.URL), config)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.FetchObject(ctx, "", "b", "k")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, created)

	nodeStats := client.AllNodeStats()
	require.Len(t, nodeStats, 1)
	assert.Equal(t, uint64(5), nodeStats[0].PoolStats.AcquireCount)
	assert.Equal(t, uint64(1), nodeStats[0].PoolStats.CreatedConns)
}
