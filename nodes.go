package riakhttp

import (
	"errors"

	"github.com/rkv/riakhttp/rest"
)

var ErrNoNodes = errors.New("riakhttp: no nodes available")

// Nodes provides the current list of cluster nodes. Implementations may
// be static or backed by discovery; the client calls List on every
// operation so membership changes take effect immediately.
type Nodes interface {
	List() []rest.Node
}

type staticNodes struct {
	nodes []rest.Node
}

// StaticNodes returns a fixed node list.
func StaticNodes(nodes ...rest.Node) Nodes {
	if len(nodes) == 0 {
		panic("StaticNodes requires at least one node")
	}
	return &staticNodes{nodes: nodes}
}

func (s *staticNodes) List() []rest.Node {
	return s.nodes
}
