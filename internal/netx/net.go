// Package netx provides the connectivity probe used to decide between the
// online (sync) and offline (cache-only) code paths.
package netx

import (
	"context"
	"net/http"
	"time"
)

// Prober reports whether the backend is currently reachable. Implementations
// must be cheap enough to call before every opportunistic remote push.
type Prober interface {
	Online(ctx context.Context) bool
}

// ProberFunc adapts a plain function to the Prober interface.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Online(ctx context.Context) bool { return f(ctx) }

// HTTPProber probes reachability with a HEAD request against the backend base
// URL. Any HTTP response counts as online; only transport failures count as
// offline.
type HTTPProber struct {
	url    string
	client *http.Client
}

func NewHTTPProber(baseURL string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url:    baseURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProber) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return true
}
