package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// forwardedHeaders are consulted in order when the proxy is trusted.
var forwardedHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP resolves the caller's address. Proxy headers are only honored
// when trustProxy is set; X-Forwarded-For contributes its left-most entry.
// The zero Addr is returned when nothing parses.
func ClientIP(r *http.Request, trustProxy bool) netip.Addr {
	if trustProxy {
		for _, h := range forwardedHeaders {
			v := strings.TrimSpace(r.Header.Get(h))
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = strings.TrimSpace(v[:i])
			}
			if addr, ok := parseAddr(v); ok {
				return addr
			}
		}
	}
	addr, _ := parseAddr(r.RemoteAddr)
	return addr
}

// parseAddr accepts "ip", "ip:port" and "[v6]:port".
func parseAddr(s string) (netip.Addr, bool) {
	if s == "" {
		return netip.Addr{}, false
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// PrefixSet matches addresses against a list of IPs and CIDRs. Invalid
// entries are skipped and reported by New.
type PrefixSet struct {
	prefixes []netip.Prefix
}

// NewPrefixSet parses list. Single IPs become /32 or /128 prefixes.
func NewPrefixSet(list []string) (*PrefixSet, []string) {
	s := &PrefixSet{}
	var invalid []string
	for _, raw := range list {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if p, err := netip.ParsePrefix(v); err == nil {
			s.prefixes = append(s.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(v); err == nil {
			a = a.Unmap()
			s.prefixes = append(s.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, v)
	}
	return s, invalid
}

func (s *PrefixSet) IsEmpty() bool { return len(s.prefixes) == 0 }

func (s *PrefixSet) Len() int { return len(s.prefixes) }

func (s *PrefixSet) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	for _, p := range s.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
