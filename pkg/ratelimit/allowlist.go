package ratelimit

import (
	"fmt"
	"net"
	"strings"
)

// Allowlist exempts trusted addresses from rate limiting. Entries are exact
// IPs or CIDR ranges.
type Allowlist struct {
	exact map[string]struct{}
	cidrs []*net.IPNet
}

// NewAllowlist parses allowlist entries. An unparseable entry is an error so
// a typo in configuration fails at startup instead of silently not matching.
func NewAllowlist(entries []string) (*Allowlist, error) {
	a := &Allowlist{exact: make(map[string]struct{})}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid allowlist CIDR %q: %w", entry, err)
			}
			a.cidrs = append(a.cidrs, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid allowlist IP %q", entry)
		}
		a.exact[ip.String()] = struct{}{}
	}
	return a, nil
}

// Contains reports whether the address is allowlisted. Unparseable addresses
// are never allowlisted.
func (a *Allowlist) Contains(addr string) bool {
	if a == nil {
		return false
	}
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return false
	}
	if _, ok := a.exact[ip.String()]; ok {
		return true
	}
	for _, network := range a.cidrs {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// Size returns the number of configured entries.
func (a *Allowlist) Size() int {
	if a == nil {
		return 0
	}
	return len(a.exact) + len(a.cidrs)
}
