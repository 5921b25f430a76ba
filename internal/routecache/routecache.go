// Package routecache implements the config cache / route matcher from the
// routing spec: an immutable auth upstream and static route table loaded at
// boot, plus a mutable dynamic route table refreshed on every successful
// control-API write. Matching is a pure function of cache state and path.
package routecache

import (
	"strings"
	"sync"
)

// Route describes where a matched path should go and how.
type Route struct {
	ID              string
	PathPrefix      string
	UpstreamAddress string
	RequireAuth     bool
	StripPrefix     string // empty means "do not strip"
	Enabled         bool
}

// Match is the result of a successful lookup.
type Match struct {
	UpstreamAddress string
	RequireAuth     bool
	StripPrefix     string
}

const adminUIPrefix = "/arc-admin"

// Cache holds the layered route table described in spec §4.1. AuthUpstream
// and DefaultUpstream are set once at construction; StaticRoutes is loaded
// at boot and never mutated afterward; DynamicRoutes is swapped atomically
// under mu by control-API writers.
type Cache struct {
	authUpstream    string
	defaultUpstream string
	staticRoutes    []Route

	mu            sync.RWMutex
	dynamicRoutes []Route
}

func New(authUpstream, defaultUpstream string, staticRoutes []Route) *Cache {
	return &Cache{
		authUpstream:    authUpstream,
		defaultUpstream: defaultUpstream,
		staticRoutes:    staticRoutes,
	}
}

// SetDynamicRoutes assembles a new table and swaps it in atomically.
// Writers are serialized behind mu.Lock; readers only ever see a complete
// table, never a partial one.
func (c *Cache) SetDynamicRoutes(routes []Route) {
	next := make([]Route, len(routes))
	copy(next, routes)
	c.mu.Lock()
	c.dynamicRoutes = next
	c.mu.Unlock()
}

// Match runs the deterministic, first-match-wins scan from spec §4.1.
func (c *Cache) Match(path string) (Match, bool) {
	if strings.HasPrefix(path, "/.well-known/") {
		return Match{}, false
	}

	if path == adminUIPrefix || strings.HasPrefix(path, adminUIPrefix+"/") {
		return Match{
			UpstreamAddress: c.authUpstream,
			RequireAuth:     false,
			StripPrefix:     adminUIPrefix,
		}, true
	}

	if strings.HasPrefix(path, "/auth/") {
		return Match{UpstreamAddress: c.authUpstream, RequireAuth: false}, true
	}

	if strings.HasPrefix(path, "/api/admin") || strings.HasPrefix(path, "/api/config") {
		return Match{UpstreamAddress: c.authUpstream, RequireAuth: true}, true
	}

	for _, r := range c.staticRoutes {
		if !r.Enabled {
			continue
		}
		if strings.HasPrefix(path, r.PathPrefix) {
			return Match{
				UpstreamAddress: r.UpstreamAddress,
				RequireAuth:     r.RequireAuth,
				StripPrefix:     r.StripPrefix,
			}, true
		}
	}

	c.mu.RLock()
	dynamic := c.dynamicRoutes
	c.mu.RUnlock()
	for _, r := range dynamic {
		if !r.Enabled {
			continue
		}
		if strings.HasPrefix(path, r.PathPrefix) {
			return Match{
				UpstreamAddress: r.UpstreamAddress,
				RequireAuth:     r.RequireAuth,
				StripPrefix:     r.StripPrefix,
			}, true
		}
	}

	if c.defaultUpstream != "" {
		return Match{UpstreamAddress: c.defaultUpstream, RequireAuth: true}, true
	}

	return Match{}, false
}
