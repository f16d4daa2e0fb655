package rest

import (
	"context"
	"errors"
)

var errNotPrepared = errors.New("rest: send called before prepare")

// Adapter runs one prepare/send cycle: it translates a command for a
// node, executes it on the manager's shared connection, and captures
// the raw response. Create one adapter per command execution; the
// connection behind the manager outlives it.
type Adapter struct {
	manager *Manager

	cmd  *Command
	node Node
	path string
	req  *Request

	// reqHeaderLines is the snapshot of the outgoing header
	// representation, kept for diagnostics.
	reqHeaderLines []string

	resp *Response
}

// NewAdapter creates an adapter drawing connections from the manager.
func NewAdapter(manager *Manager) *Adapter {
	return &Adapter{manager: manager}
}

// Prepare resolves the command's path, builds the request descriptor
// for the target node, allocates the response accumulator and snapshots
// the outgoing headers. It performs no I/O.
func (a *Adapter) Prepare(cmd *Command, node Node) error {
	if cmd == nil {
		return errors.New("rest: prepare with nil command")
	}

	a.cmd = cmd
	a.node = node
	a.path = ResolvePath(cmd)
	a.req = BuildRequest(cmd, node)
	a.resp = NewResponse()
	a.reqHeaderLines = a.req.HeaderLines()
	return nil
}

// Send executes the prepared request on the shared connection, streams
// the response through the capture callbacks, and stores and returns
// the status code. On transport failure the status is 0 and the error
// describes the failure.
func (a *Adapter) Send(ctx context.Context) (int, error) {
	if a.req == nil {
		return 0, errNotPrepared
	}

	conn := a.manager.Get()
	status, err := conn.Do(ctx, a.req, a.resp)
	a.resp.setStatus(status)
	if err != nil {
		return status, err
	}
	return status, nil
}

// Path returns the path resolved during Prepare.
func (a *Adapter) Path() string {
	return a.path
}

// Request returns the descriptor built during Prepare, nil before it.
func (a *Adapter) Request() *Request {
	return a.req
}

// RequestHeaderLines returns the outgoing header snapshot taken during
// Prepare.
func (a *Adapter) RequestHeaderLines() []string {
	return a.reqHeaderLines
}

// Response returns the response accumulator, nil before Prepare.
func (a *Adapter) Response() *Response {
	return a.resp
}

// StatusCode returns the status stored by the last Send, 0 before it.
func (a *Adapter) StatusCode() int {
	if a.resp == nil {
		return 0
	}
	return a.resp.StatusCode()
}
