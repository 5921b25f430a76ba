package routecache

import "testing"

func TestMatchWellKnownRejected(t *testing.T) {
	c := New("127.0.0.1:3001", "", nil)
	if _, ok := c.Match("/.well-known/acme-challenge/x"); ok {
		t.Fatal("expected no match for /.well-known/*")
	}
}

func TestMatchAdminUIStripsPrefix(t *testing.T) {
	c := New("127.0.0.1:3001", "", nil)
	m, ok := c.Match("/arc-admin/dashboard")
	if !ok {
		t.Fatal("expected match")
	}
	if m.RequireAuth {
		t.Fatal("admin UI shell must not require auth at the proxy layer")
	}
	if m.StripPrefix != "/arc-admin" {
		t.Fatalf("expected strip prefix /arc-admin, got %q", m.StripPrefix)
	}
}

func TestMatchAuthPrefix(t *testing.T) {
	c := New("127.0.0.1:3001", "", nil)
	m, ok := c.Match("/auth/login/init")
	if !ok || m.RequireAuth || m.UpstreamAddress != "127.0.0.1:3001" {
		t.Fatalf("unexpected match: %+v ok=%v", m, ok)
	}
}

func TestMatchAPIAdminRequiresAuth(t *testing.T) {
	c := New("127.0.0.1:3001", "", nil)
	m, ok := c.Match("/api/admin/routes")
	if !ok || !m.RequireAuth {
		t.Fatalf("expected auth-required match, got %+v ok=%v", m, ok)
	}
}

// TestPrefixPriority covers invariant 2: when two overlapping static
// prefixes are both registered, whichever sits earlier in the scan order
// wins, regardless of which is textually longer.
func TestPrefixPriority(t *testing.T) {
	routes := []Route{
		{PathPrefix: "/svc/", UpstreamAddress: "10.0.0.1:9000", Enabled: true},
		{PathPrefix: "/svc/v1/", UpstreamAddress: "10.0.0.2:9000", Enabled: true},
	}
	c := New("127.0.0.1:3001", "", routes)
	m, ok := c.Match("/svc/v1/widgets")
	if !ok {
		t.Fatal("expected match")
	}
	if m.UpstreamAddress != "10.0.0.1:9000" {
		t.Fatalf("expected first-registered prefix to win, got %s", m.UpstreamAddress)
	}
}

func TestMatchStripPrefixScenarioS3(t *testing.T) {
	routes := []Route{
		{PathPrefix: "/svc/", UpstreamAddress: "127.0.0.1:9000", StripPrefix: "/svc", Enabled: true},
	}
	c := New("127.0.0.1:3001", "", routes)
	m, ok := c.Match("/svc/v1/x")
	if !ok || m.UpstreamAddress != "127.0.0.1:9000" || m.StripPrefix != "/svc" {
		t.Fatalf("unexpected match: %+v ok=%v", m, ok)
	}
}

func TestMatchDisabledRouteSkipped(t *testing.T) {
	routes := []Route{
		{PathPrefix: "/svc/", UpstreamAddress: "10.0.0.1:9000", Enabled: false},
	}
	c := New("127.0.0.1:3001", "10.0.0.9:9000", routes)
	m, ok := c.Match("/svc/x")
	if !ok || m.UpstreamAddress != "10.0.0.9:9000" {
		t.Fatalf("expected fallthrough to default upstream, got %+v ok=%v", m, ok)
	}
}

func TestMatchNoDefaultUpstreamReturnsNoMatch(t *testing.T) {
	c := New("127.0.0.1:3001", "", nil)
	if _, ok := c.Match("/nowhere"); ok {
		t.Fatal("expected no match when nothing configured")
	}
}

func TestMatchDynamicRoutesSwap(t *testing.T) {
	c := New("127.0.0.1:3001", "", nil)
	if _, ok := c.Match("/dyn/"); ok {
		t.Fatal("expected no match before dynamic routes are set")
	}
	c.SetDynamicRoutes([]Route{
		{PathPrefix: "/dyn/", UpstreamAddress: "10.1.1.1:9000", Enabled: true},
	})
	m, ok := c.Match("/dyn/thing")
	if !ok || m.UpstreamAddress != "10.1.1.1:9000" {
		t.Fatalf("unexpected match after swap: %+v ok=%v", m, ok)
	}
}

// TestMatchDeterminism covers invariant 1: repeated calls against
// unchanged state return identical results.
func TestMatchDeterminism(t *testing.T) {
	routes := []Route{{PathPrefix: "/svc/", UpstreamAddress: "10.0.0.1:9000", Enabled: true}}
	c := New("127.0.0.1:3001", "", routes)
	first, okFirst := c.Match("/svc/x")
	second, okSecond := c.Match("/svc/x")
	if okFirst != okSecond || first != second {
		t.Fatalf("match is not deterministic: %+v/%v vs %+v/%v", first, okFirst, second, okSecond)
	}
}
