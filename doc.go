// Package riakhttp is a client for Riak's HTTP API.
//
// The package is split in two layers. The rest subpackage holds the
// low-level transport adapter: command model, path resolution, request
// building and raw response capture over a reusable connection handle.
// This package adds the orchestration a production client needs:
// per-node connection pools, key-based node selection, circuit breaking
// and operation statistics.
//
// Basic usage:
//
//	client, err := riakhttp.NewClient(
//	    riakhttp.StaticNodes(rest.Node{Host: "localhost", Port: 8098}),
//	    riakhttp.Config{MaxSize: 4},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	obj, err := client.FetchObject(ctx, "", "users", "bob")
package riakhttp
