package rest

import (
	"net"
	"strconv"
)

// Node identifies one store server reachable over HTTP.
type Node struct {
	Host string
	Port int

	// TLS selects https over http for requests to this node.
	TLS bool
}

// Addr returns the node as a host:port string.
func (n Node) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// Scheme returns the URL scheme implied by the TLS flag.
func (n Node) Scheme() string {
	if n.TLS {
		return "https"
	}
	return "http"
}
