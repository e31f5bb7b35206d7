package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 60 * time.Second

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// Transport stamps a browser User-Agent on requests that lack one. It never
// retries; the downloaders that use it are single-attempt.
type Transport struct {
	Base http.RoundTripper
	ua   *uaPool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get("User-Agent") != "" || t.ua == nil {
		return base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua.random())
	return base.RoundTrip(r)
}

// UserAgent returns one entry of the pool, for callers that shell out.
func (t *Transport) UserAgent() string {
	if t == nil || t.ua == nil {
		return defaultUserAgents[0]
	}
	return t.ua.random()
}

// NewClient builds the client used for Instagram and TikTok fetches. A zero
// timeout selects the default; an empty agent list selects the built-in pool.
func NewClient(timeout time.Duration, userAgents []string) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	return &http.Client{
		Transport: &Transport{Base: base, ua: newUAPool(userAgents)},
		Timeout:   timeout,
	}
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

func newUAPool(agents []string) *uaPool {
	uas := make([]string, 0, len(agents))
	for _, ua := range agents {
		if ua = strings.TrimSpace(ua); ua != "" {
			uas = append(uas, ua)
		}
	}
	if len(uas) == 0 {
		uas = append(uas, defaultUserAgents...)
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
