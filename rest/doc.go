// Package rest provides the low-level HTTP transport mapping for Riak's
// REST API.
//
// This package serves as a foundation for building higher-level clients
// with different properties (pooling, node selection, circuit breaking).
// It focuses on the command-to-request translation and raw response
// capture, without imposing architectural decisions on clients.
//
// # Core Types
//
// Command and Request are pure data containers without embedded I/O:
//
//   - Command: identifies an operation against the store (bucket, key,
//     data type, HTTP method, parameters)
//   - Request: the immutable HTTP request descriptor built from a
//     Command and a Node
//   - Response: accumulates raw status, header lines and body chunks as
//     the transport streams them in
//
// # Building and Executing
//
// BuildRequest translates a command for a target node:
//
//	cmd := rest.NewFetchObjectCommand("", "users", "bob")
//	req := rest.BuildRequest(cmd, node)
//
// Connection executes descriptors over a reusable handle and feeds the
// response through capture callbacks:
//
//	resp := rest.NewResponse()
//	status, err := conn.Do(ctx, req, resp)
//
// Adapter ties both together for the common prepare/send cycle:
//
//	a := rest.NewAdapter(manager)
//	if err := a.Prepare(cmd, node); err != nil {
//	    return err
//	}
//	status, err := a.Send(ctx)
package rest
