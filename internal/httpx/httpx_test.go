package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClientStampsConfiguredUserAgent(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
	}))
	defer srv.Close()

	c := NewClient(time.Second, []string{"  ", "reelfetch-test/1.0"})
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if ua, _ := got.Load().(string); ua != "reelfetch-test/1.0" {
		t.Fatalf("user agent = %q", ua)
	}
}

func TestClientKeepsCallerUserAgent(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
	}))
	defer srv.Close()

	c := NewClient(time.Second, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()

	if ua, _ := got.Load().(string); ua != "custom" {
		t.Fatalf("user agent = %q", ua)
	}
}

func TestClientDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	resp, err := NewClient(time.Second, nil).Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(0, nil)
	if c.Timeout != defaultTimeout {
		t.Fatalf("timeout = %s", c.Timeout)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("expected *Transport, got %T", c.Transport)
	}
	if len(tr.ua.uas) != len(defaultUserAgents) {
		t.Fatalf("expected built-in agents, got %v", tr.ua.uas)
	}
	if tr.UserAgent() == "" {
		t.Fatal("expected a user agent")
	}
}
