// Package proxy implements the gateway's data plane: the per-request
// state machine from spec §4.5 that classifies a connection, matches it
// against the route cache, optionally enforces bearer authentication,
// rewrites the path, and forwards to the matched upstream.
package proxy

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/authority"
	"github.com/arcauth/gateway/internal/obslog"
	"github.com/arcauth/gateway/internal/ratelimit"
	"github.com/arcauth/gateway/internal/routecache"
)

// Server is the http.Handler the gateway listener hands every inbound
// connection to.
type Server struct {
	routes    *routecache.Cache
	authority *authority.Authority
	global    *ratelimit.Limiter
	trusted   *ratelimit.TrustedProxies
	transport http.RoundTripper

	requestCount atomic.Int64
	routeCounts  routeCounter
}

func New(routes *routecache.Cache, auth *authority.Authority, global *ratelimit.Limiter, trusted *ratelimit.TrustedProxies) *Server {
	return &Server{
		routes:      routes,
		authority:   auth,
		global:      global,
		trusted:     trusted,
		transport:   http.DefaultTransport,
		routeCounts: newRouteCounter(),
	}
}

// RequestCount reports the total number of requests that matched a route
// (counted before the auth check, so rejected ones are included), the atomic counter spec §5 names under "shared resources"
// and §12.1 surfaces via the admin stats endpoint.
func (s *Server) RequestCount() int64 { return s.requestCount.Load() }

// RouteCounts reports a snapshot of per-matched-upstream request counts
// for the admin stats endpoint (§12.1).
func (s *Server) RouteCounts() map[string]int64 { return s.routeCounts.snapshot() }

var reservedInboundHeaders = []string{"X-User-Id", "X-Request-Id"}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := newRequestState()
	state.origin = r.Header.Get("Origin")

	if r.Method == http.MethodOptions {
		writeCORSPreflight(w)
		return
	}

	for _, h := range reservedInboundHeaders {
		if r.Header.Get(h) != "" {
			obslog.Security(r.Context(), "rejected request carrying reserved header",
				logx.Field("request_id", state.requestID), logx.Field("header", h))
			writeError(w, apierr.InvalidRequest("reserved header detected"))
			return
		}
	}

	if key, ok := s.trusted.ClientKey(r); ok {
		if !s.global.Check(key) {
			obslog.RateLimited(r.Context(), "global rate limit exceeded", logx.Field("request_id", state.requestID))
			writeError(w, apierr.RateLimited())
			return
		}
	} else {
		writeError(w, apierr.InvalidRequest("could not determine client address"))
		return
	}

	state.connectionType = detectConnectionType(r)

	match, ok := s.routes.Match(r.URL.Path)
	if !ok {
		writeError(w, apierr.NotFound("no route matched"))
		return
	}
	state.matchedUpstream = match.UpstreamAddress
	state.stripPrefix = match.StripPrefix
	s.requestCount.Add(1)
	s.routeCounts.increment(match.UpstreamAddress)

	if match.RequireAuth {
		token := extractBearerToken(r)
		if token == "" {
			obslog.Security(r.Context(), "missing bearer token", logx.Field("request_id", state.requestID))
			writeError(w, apierr.MissingToken())
			return
		}
		claims, err := s.authority.ValidateAccessToken(token)
		if err != nil {
			obslog.Security(r.Context(), "bearer token rejected", logx.Field("request_id", state.requestID))
			writeError(w, err)
			return
		}
		state.userID = claims.Subject
		state.shouldRefresh = s.authority.ShouldRefresh(claims)
	}

	s.forward(w, r, state)
}

func extractBearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimPrefix(h, prefix)
}

// forward builds a one-shot httputil.ReverseProxy per request targeting
// the matched upstream. Upgrade responses (websocket) are relayed
// transparently by ReverseProxy's built-in hijack path; auth has already
// been checked once above, matching spec §4.5.3.
func (s *Server) forward(w http.ResponseWriter, r *http.Request, state *requestState) {
	target := upstreamURL(state.matchedUpstream)

	rp := &httputil.ReverseProxy{
		Transport: s.transport,
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host

			if state.stripPrefix != "" {
				req.URL.Path = stripPathPrefix(req.URL.Path, state.stripPrefix)
			}

			req.Header.Del("Authorization")
			req.Header.Set("X-Request-Id", state.requestID)
			if state.authenticated() {
				req.Header.Set("X-User-Id", state.userID)
			} else {
				req.Header.Del("X-User-Id")
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			if state.shouldRefresh {
				resp.Header.Set("X-Token-Refresh", "true")
			}
			applyCORSHeaders(resp.Header)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			obslog.Infra(r.Context(), "upstream forwarding failed", err, logx.Field("request_id", state.requestID))
			writeError(w, apierr.Internal())
		},
	}
	rp.ServeHTTP(w, r)
}

// stripPathPrefix trims prefix from path, always leaving a leading slash,
// per spec §4.5 step 7.
func stripPathPrefix(path, prefix string) string {
	stripped := strings.TrimPrefix(path, prefix)
	if stripped == "" || !strings.HasPrefix(stripped, "/") {
		stripped = "/" + strings.TrimPrefix(stripped, "/")
	}
	return stripped
}

// upstreamURL parses a host:port upstream address, defaulting to port 80
// when absent, per spec §4.5 step 6.
func upstreamURL(addr string) *url.URL {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, "80"
	}
	if port == "" {
		port = "80"
	}
	return &url.URL{Scheme: "http", Host: net.JoinHostPort(host, port)}
}

