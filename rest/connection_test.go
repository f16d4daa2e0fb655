package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
)

// testNode converts an httptest server URL into a Node.
func testNode(t *testing.T, server *httptest.Server) Node {
	t.Helper()
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return Node{Host: u.Hostname(), Port: port, TLS: u.Scheme == "https"}
}

func TestConnectionDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/buckets/test/keys/k1" {
			t.Errorf("server got path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"v":1}`))
	}))
	defer server.Close()

	conn := NewConnection(nil)
	defer conn.Close()

	req := BuildRequest(NewFetchObjectCommand("", "test", "k1"), testNode(t, server))
	resp := NewResponse()

	status, err := conn.Do(context.Background(), req, resp)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("Do() status = %d, want 200", status)
	}
	if string(resp.Body()) != `{"v":1}` {
		t.Errorf("Body() = %q", resp.Body())
	}
	if v, ok := resp.Header("Content-Type"); !ok || v != "application/json" {
		t.Errorf("Header(Content-Type) = %q, %v", v, ok)
	}
	if _, ok := resp.Header("HTTP/1.1 200 OK"); !ok {
		t.Errorf("status line missing from headers: %v", resp.Headers())
	}
}

func TestConnectionDoHeadSkipsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body"))
	}))
	defer server.Close()

	conn := NewConnection(nil)
	defer conn.Close()

	cmd := &Command{Kind: KindFetchObject, Method: http.MethodHead, Bucket: "b", Key: "k"}
	resp := NewResponse()

	if _, err := conn.Do(context.Background(), BuildRequest(cmd, testNode(t, server)), resp); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if len(resp.Body()) != 0 {
		t.Errorf("HEAD response body = %q, want empty", resp.Body())
	}
}

func TestConnectionDoSendsParamsAndBody(t *testing.T) {
	var gotQuery, gotBody, gotCT string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	conn := NewConnection(nil)
	defer conn.Close()

	cmd := NewStoreObjectCommand("", "b", "k", []byte("value"), "text/plain")
	cmd.SetParam("returnbody", "true")

	status, err := conn.Do(context.Background(), BuildRequest(cmd, testNode(t, server)), NewResponse())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusNoContent {
		t.Errorf("status = %d", status)
	}
	if gotQuery != "returnbody=true" {
		t.Errorf("server saw query %q", gotQuery)
	}
	if gotBody != "value" {
		t.Errorf("server saw body %q", gotBody)
	}
	if gotCT != "text/plain" {
		t.Errorf("server saw content type %q", gotCT)
	}
}

func TestConnectionDoTransportFailure(t *testing.T) {
	conn := NewConnection(nil)
	defer conn.Close()

	// Port from the reserved range, nothing listens there.
	req := BuildRequest(NewPingCommand(), Node{Host: "127.0.0.1", Port: 1})

	status, err := conn.Do(context.Background(), req, NewResponse())
	if err == nil {
		t.Fatal("Do() expected error for refused connection")
	}
	if status != 0 {
		t.Errorf("status = %d, want 0 on transport failure", status)
	}
}

func TestConnectionDoClosed(t *testing.T) {
	conn := NewConnection(nil)
	conn.Close()

	req := BuildRequest(NewPingCommand(), Node{Host: "localhost", Port: 8098})
	if _, err := conn.Do(context.Background(), req, NewResponse()); err != ErrConnectionClosed {
		t.Errorf("Do() error = %v, want ErrConnectionClosed", err)
	}
}

// abortSink consumes nothing, signalling the transfer must stop.
type abortSink struct{}

func (abortSink) ConsumeHeaderLine(line []byte) int { return 0 }
func (abortSink) ConsumeBodyChunk(chunk []byte) int { return 0 }

func TestConnectionDoAbortingSink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	conn := NewConnection(nil)
	defer conn.Close()

	req := BuildRequest(NewPingCommand(), testNode(t, server))
	if _, err := conn.Do(context.Background(), req, abortSink{}); err != ErrAborted {
		t.Errorf("Do() error = %v, want ErrAborted", err)
	}
}

func TestConnectionReset(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("X-Client")
	}))
	defer server.Close()

	conn := NewConnection(nil)
	defer conn.Close()
	node := testNode(t, server)

	conn.SetHeader("X-Client", "riakhttp")
	conn.Do(context.Background(), BuildRequest(NewPingCommand(), node), NewResponse())
	if gotAgent != "riakhttp" {
		t.Fatalf("configured header not sent, got %q", gotAgent)
	}

	conn.Reset()
	conn.Do(context.Background(), BuildRequest(NewPingCommand(), node), NewResponse())
	if gotAgent != "" {
		t.Errorf("header survived Reset: %q", gotAgent)
	}
	if conn.IsClosed() {
		t.Error("Reset must keep the connection open")
	}
}
