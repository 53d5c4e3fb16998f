package geo

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/peerconnect/peerconnect/pkg/api"
	"github.com/peerconnect/peerconnect/pkg/config"
	"github.com/peerconnect/peerconnect/pkg/logger"
)

// Resolver turns a client IP address into coordinates.
// A failed resolution degrades matching quality but never blocks
// signaling, so callers treat errors as "this client has no location".
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*api.Location, error)
}

// HTTPResolver queries a freegeoip-compatible JSON endpoint.
type HTTPResolver struct {
	client     *http.Client
	endpoint   string
	fallbackIP string
	log        *logger.Logger
}

func NewHTTPResolver(conf config.Geo, log *logger.Logger) *HTTPResolver {
	timeout := time.Duration(conf.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HTTPResolver{
		client:     &http.Client{Timeout: timeout},
		endpoint:   conf.Endpoint,
		fallbackIP: conf.FallbackIP,
		log:        log,
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, ip string) (*api.Location, error) {
	ip = r.substituteLocal(ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/"+ip, nil)
	if err != nil {
		return nil, err
	}
	res, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup of %v failed with status %v", ip, res.StatusCode)
	}
	var loc api.Location
	if err := json.NewDecoder(res.Body).Decode(&loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// substituteLocal swaps loopback and unresolvable addresses for the
// configured fallback IP, so local development still gets coordinates.
func (r *HTTPResolver) substituteLocal(ip string) string {
	if r.fallbackIP == "" {
		return ip
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsUnspecified() || parsed.IsPrivate() {
		return r.fallbackIP
	}
	return ip
}

// ClientIP extracts the peer address of an HTTP request, preferring the
// forwarding header set by proxies.
func ClientIP(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
