package rest

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Request is the immutable HTTP request descriptor produced by
// BuildRequest. Connection executes it without further translation.
type Request struct {
	// Method is the effective HTTP method after defaulting.
	Method string

	// URL is the fully composed request URL, query separator included.
	URL string

	// Query is the RFC 3986 encoded query string. Empty when the
	// parameters were moved into the body.
	Query string

	// Body is the request payload, either the command's raw body or the
	// form-encoded parameters for POST/PUT.
	Body []byte

	// Header carries the outgoing headers.
	Header http.Header

	// NoBody suppresses body retrieval on the response (HEAD).
	NoBody bool
}

// HeaderLines returns the outgoing headers as raw wire-style lines,
// sorted for stable output. Intended for diagnostics.
func (r *Request) HeaderLines() []string {
	lines := make([]string, 0, len(r.Header))
	for name, values := range r.Header {
		for _, v := range values {
			lines = append(lines, name+": "+v)
		}
	}
	sort.Strings(lines)
	return lines
}

// BuildRequest translates a command targeting a node into a request
// descriptor. It runs the three preparation steps in fixed order:
// method, parameters, URL. The function is pure; nothing is written to
// the network.
func BuildRequest(c *Command, node Node) *Request {
	req := &Request{Header: make(http.Header)}
	applyMethod(req, c)
	applyParams(req, c)
	applyURL(req, c, node)
	return req
}

// applyMethod maps the command method onto the descriptor. Unknown or
// absent methods fall back to GET, which also undoes any method a reused
// handle may still carry.
func applyMethod(req *Request, c *Command) {
	switch c.Method {
	case http.MethodPost:
		req.Method = http.MethodPost
	case http.MethodPut:
		req.Method = http.MethodPut
	case http.MethodDelete:
		req.Method = http.MethodDelete
	case http.MethodHead:
		req.Method = http.MethodHead
		req.NoBody = true
	default:
		req.Method = http.MethodGet
	}
}

// applyParams places the command parameters. POST and PUT carry them as
// form data in the body; every other method gets a query string. A raw
// command body always wins the body slot, pushing parameters back to
// the query string.
func applyParams(req *Request, c *Command) {
	if c.Body != nil {
		req.Body = c.Body
		if c.ContentType != "" {
			req.Header.Set("Content-Type", c.ContentType)
		}
		if len(c.Params) > 0 {
			req.Query = encodeParams(c.Params)
		}
		return
	}

	if len(c.Params) == 0 {
		return
	}

	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		req.Body = []byte(encodeParams(c.Params))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return
	}

	req.Query = encodeParams(c.Params)
}

// applyURL composes the final URL. The query separator is always
// appended, even when the query string is empty; the store accepts the
// bare trailing separator.
func applyURL(req *Request, c *Command, node Node) {
	var b strings.Builder
	b.WriteString(node.Scheme())
	b.WriteString("://")
	b.WriteString(node.Addr())
	b.WriteString(ResolvePath(c))
	b.WriteByte('?')
	b.WriteString(req.Query)
	req.URL = b.String()
}

// encodeParams serializes parameters with RFC 3986 percent-encoding,
// spaces as %20 rather than +. Keys are emitted in sorted order so the
// encoding is deterministic.
func encodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(params[k]))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
