package rest

import "strings"

// Sink receives the raw response stream. The transport invokes
// ConsumeHeaderLine once per header line (status line included) and
// ConsumeBodyChunk for each body chunk. Both must return the length of
// their input; any other value aborts the transfer.
type Sink interface {
	ConsumeHeaderLine(line []byte) int
	ConsumeBodyChunk(chunk []byte) int
}

// Response accumulates the raw result of one request: status code,
// header mapping and body bytes. It implements Sink so a Connection can
// stream directly into it.
//
// A Response is not safe for concurrent use; the transport writes into
// it from a single goroutine during Do.
type Response struct {
	status  int
	headers map[string]string
	body    []byte
}

// NewResponse returns an empty response accumulator.
func NewResponse() *Response {
	return &Response{headers: make(map[string]string)}
}

// ConsumeHeaderLine parses one raw header line into the header mapping
// and returns the input length. Lines are expected as name: value pairs;
// the status line, which has no colon, is stored whole under its own
// text with an empty value. Blank separator lines are ignored.
func (r *Response) ConsumeHeaderLine(line []byte) int {
	s := strings.TrimRight(string(line), "\r\n")
	if s == "" {
		return len(line)
	}

	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		name := strings.TrimSpace(s[:idx])
		value := strings.TrimSpace(s[idx+1:])
		r.headers[name] = value
	} else {
		r.headers[s] = ""
	}
	return len(line)
}

// ConsumeBodyChunk appends one chunk to the body accumulator and
// returns the chunk length.
func (r *Response) ConsumeBodyChunk(chunk []byte) int {
	r.body = append(r.body, chunk...)
	return len(chunk)
}

// setStatus records the status code after a completed send.
func (r *Response) setStatus(code int) {
	r.status = code
}

// StatusCode returns the HTTP status of the completed request, or 0
// when no request has completed.
func (r *Response) StatusCode() int {
	return r.status
}

// Header returns the value of one response header, and whether it was
// present.
func (r *Response) Header(name string) (string, bool) {
	v, ok := r.headers[name]
	return v, ok
}

// Headers returns the accumulated header mapping. The map is the
// response's own; callers must not mutate it.
func (r *Response) Headers() map[string]string {
	return r.headers
}

// Body returns the accumulated raw body.
func (r *Response) Body() []byte {
	return r.body
}
