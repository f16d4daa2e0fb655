package rest

import (
	"net/http"
	"testing"
)

func TestBuildRequestURL(t *testing.T) {
	node := Node{Host: "riak.example.com", Port: 8098, TLS: true}
	cmd := NewFetchObjectCommand("", "test", "k1")

	req := BuildRequest(cmd, node)

	want := "https://riak.example.com:8098/buckets/test/keys/k1?"
	if req.URL != want {
		t.Errorf("URL = %q, want %q", req.URL, want)
	}
	if req.Query != "" {
		t.Errorf("Query = %q, want empty", req.Query)
	}
}

func TestBuildRequestPlainScheme(t *testing.T) {
	node := Node{Host: "localhost", Port: 8098}
	req := BuildRequest(NewPingCommand(), node)

	want := "http://localhost:8098/ping?"
	if req.URL != want {
		t.Errorf("URL = %q, want %q", req.URL, want)
	}
}

func TestBuildRequestGetParams(t *testing.T) {
	cmd := &Command{
		Kind:   KindFetchObject,
		Method: http.MethodGet,
		Bucket: "test",
		Key:    "k1",
		Params: map[string]string{"returnbody": "true"},
	}

	req := BuildRequest(cmd, Node{Host: "localhost", Port: 8098})

	if req.Query != "returnbody=true" {
		t.Errorf("Query = %q, want %q", req.Query, "returnbody=true")
	}
	if req.Body != nil {
		t.Errorf("Body = %q, want none", req.Body)
	}
}

func TestBuildRequestPostParamsAsBody(t *testing.T) {
	cmd := &Command{
		Kind:   KindStoreObject,
		Method: http.MethodPost,
		Bucket: "test",
		Key:    "k1",
		Params: map[string]string{"returnbody": "true"},
	}

	req := BuildRequest(cmd, Node{Host: "localhost", Port: 8098})

	if string(req.Body) != "returnbody=true" {
		t.Errorf("Body = %q, want %q", req.Body, "returnbody=true")
	}
	if req.Query != "" {
		t.Errorf("Query = %q, want empty", req.Query)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestBuildRequestRawBodyKeepsParamsInQuery(t *testing.T) {
	cmd := NewStoreObjectCommand("", "test", "k1", []byte("payload"), "text/plain")
	cmd.SetParam("returnbody", "true")
	cmd.SetParam("w", "2")

	req := BuildRequest(cmd, Node{Host: "localhost", Port: 8098})

	if string(req.Body) != "payload" {
		t.Errorf("Body = %q, want raw payload", req.Body)
	}
	if req.Query != "returnbody=true&w=2" {
		t.Errorf("Query = %q", req.Query)
	}
	if ct := req.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestBuildRequestMethodDefaultsToGet(t *testing.T) {
	for _, method := range []string{"", "PATCH", "get"} {
		cmd := &Command{Kind: KindListBuckets, Method: method}
		req := BuildRequest(cmd, Node{Host: "localhost", Port: 8098})
		if req.Method != http.MethodGet {
			t.Errorf("Method(%q) = %q, want GET", method, req.Method)
		}
	}
}

func TestBuildRequestHead(t *testing.T) {
	cmd := &Command{Kind: KindFetchObject, Method: http.MethodHead, Bucket: "b", Key: "k"}
	req := BuildRequest(cmd, Node{Host: "localhost", Port: 8098})

	if req.Method != http.MethodHead {
		t.Errorf("Method = %q, want HEAD", req.Method)
	}
	if !req.NoBody {
		t.Error("HEAD request should suppress body retrieval")
	}
}

func TestEncodeParamsRFC3986(t *testing.T) {
	got := encodeParams(map[string]string{"q": "a b", "tag": "x/y"})
	want := "q=a%20b&tag=x%2Fy"
	if got != want {
		t.Errorf("encodeParams() = %q, want %q", got, want)
	}
}

func TestRequestHeaderLines(t *testing.T) {
	cmd := NewStoreObjectCommand("", "b", "k", []byte("v"), "text/plain")
	req := BuildRequest(cmd, Node{Host: "localhost", Port: 8098})

	lines := req.HeaderLines()
	if len(lines) != 1 || lines[0] != "Content-Type: text/plain" {
		t.Errorf("HeaderLines() = %v", lines)
	}
}
