package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

var trustedProxyCIDRsDefault = []string{
	"127.0.0.1/32",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// TrustedProxies holds the parsed CIDR set used to decide whether to honor
// forwarded-for headers from a given peer.
type TrustedProxies struct {
	nets []*net.IPNet
}

// NewTrustedProxies parses the configured CIDR list, falling back to the
// spec-default set (§4.4) when none is given.
func NewTrustedProxies(cidrs []string) (*TrustedProxies, error) {
	if len(cidrs) == 0 {
		cidrs = trustedProxyCIDRsDefault
	}
	tp := &TrustedProxies{}
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, err
		}
		tp.nets = append(tp.nets, n)
	}
	return tp, nil
}

// IsTrusted implements invariant 8: true exactly for peers inside one of
// the configured CIDRs.
func (t *TrustedProxies) IsTrusted(ip net.IP) bool {
	for _, n := range t.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientKey extracts the rate-limiter key for an inbound request per
// §4.4: honor X-Real-IP or the first X-Forwarded-For hop only when the
// directly connecting peer is trusted; otherwise use the socket peer.
// Returns ok=false when no peer address can be determined at all.
func (t *TrustedProxies) ClientKey(r *http.Request) (string, bool) {
	peerHost, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peerHost = r.RemoteAddr
	}
	peerIP := net.ParseIP(peerHost)
	if peerIP == nil {
		return "", false
	}

	if !t.IsTrusted(peerIP) {
		return peerIP.String(), true
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP), true
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first, true
		}
	}

	return peerIP.String(), true
}
