package riakhttp

import (
	"github.com/zeebo/xxh3"

	"github.com/rkv/riakhttp/internal"
)

// SelectNodeFunc picks which node handles a given routing key. It
// receives the key and the current node count and returns an index into
// the node list.
type SelectNodeFunc func(key string, nodeCount int) int

// DefaultSelectNode uses Jump Hash over an xxh3 digest of the key.
// Jump Hash keeps the key distribution stable when nodes are added or
// removed at the end of the list.
func DefaultSelectNode(key string, nodeCount int) int {
	return internal.JumpHash(xxh3.HashString(key), nodeCount)
}

// staticSelector is used in tests to always pick a specific node.
func staticSelector(index int) SelectNodeFunc {
	return func(key string, nodeCount int) int {
		return index % nodeCount
	}
}
