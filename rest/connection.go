package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

var (
	// ErrConnectionClosed is returned when a request is executed on a
	// closed connection.
	ErrConnectionClosed = errors.New("rest: connection closed")

	// ErrAborted is returned when a sink callback consumes fewer bytes
	// than it was given, which signals the transfer must stop.
	ErrAborted = errors.New("rest: transfer aborted by sink")
)

// bodyChunkSize is the read size used when streaming the response body
// into the sink.
const bodyChunkSize = 4096

// Connection is the reusable transport handle. It owns one HTTP client
// whose keep-alive connections are shared across requests until Close.
type Connection struct {
	client *http.Client

	mu       sync.Mutex
	header   http.Header
	lastUsed time.Time
	closed   bool
}

// NewConnection creates a connection over the given HTTP client. A nil
// client gets a default one.
func NewConnection(client *http.Client) *Connection {
	if client == nil {
		client = &http.Client{}
	}
	return &Connection{
		client:   client,
		header:   make(http.Header),
		lastUsed: time.Now(),
	}
}

// SetHeader configures a header sent with every request on this
// connection. Reset discards these.
func (c *Connection) SetHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header.Set(name, value)
}

// Reset clears all options configured on the connection while keeping
// the underlying handle open and reusable.
func (c *Connection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header = make(http.Header)
}

// IsClosed reports whether the connection has been closed.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// LastUsed returns when the connection last completed a request.
func (c *Connection) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Close releases the handle. Idle keep-alive connections are torn down
// and the connection refuses further requests.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.client.CloseIdleConnections()
	return nil
}

// Do executes one request descriptor and streams the result into the
// sink: first the status line and each header line, then the body in
// chunks. It returns the HTTP status code.
//
// Transport failures (refused connection, timeout, TLS) surface as
// errors with a zero status code.
func (c *Connection) Do(ctx context.Context, req *Request, sink Sink) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, ErrConnectionClosed
	}
	extra := c.header
	c.mu.Unlock()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return 0, fmt.Errorf("rest: build request: %w", err)
	}
	for name, values := range extra {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer httpResp.Body.Close()

	if err := feedHeaders(sink, httpResp); err != nil {
		return httpResp.StatusCode, err
	}

	if !req.NoBody && req.Method != http.MethodHead {
		if err := feedBody(sink, httpResp.Body); err != nil {
			return httpResp.StatusCode, err
		}
	}

	c.mu.Lock()
	c.lastUsed = time.Now()
	c.mu.Unlock()

	return httpResp.StatusCode, nil
}

// Execute translates a command for a node, runs it, and returns the
// captured response with its status code set. It is the one-shot form
// of BuildRequest + Do for callers that do not need the intermediate
// descriptor.
func (c *Connection) Execute(ctx context.Context, cmd *Command, node Node) (*Response, error) {
	req := BuildRequest(cmd, node)
	resp := NewResponse()
	status, err := c.Do(ctx, req, resp)
	if err != nil {
		return nil, err
	}
	resp.setStatus(status)
	return resp, nil
}

// Ping issues the liveness check against one node and reports whether
// it answered 200.
func (c *Connection) Ping(ctx context.Context, node Node) error {
	req := BuildRequest(NewPingCommand(), node)
	status, err := c.Do(ctx, req, NewResponse())
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("rest: ping returned status %d", status)
	}
	return nil
}

// feedHeaders replays the response status line and headers through the
// sink as raw lines. Header names are sorted so the replay order is
// stable.
func feedHeaders(sink Sink, resp *http.Response) error {
	statusLine := resp.Proto + " " + resp.Status + "\r\n"
	if err := consumeLine(sink, statusLine); err != nil {
		return err
	}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, v := range resp.Header[name] {
			if err := consumeLine(sink, name+": "+v+"\r\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func consumeLine(sink Sink, line string) error {
	if sink.ConsumeHeaderLine([]byte(line)) != len(line) {
		return ErrAborted
	}
	return nil
}

// feedBody streams the body through the sink in fixed-size chunks.
func feedBody(sink Sink, body io.Reader) error {
	buf := make([]byte, bodyChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if sink.ConsumeBodyChunk(buf[:n]) != n {
				return ErrAborted
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
