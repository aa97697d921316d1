// Package privacy masks client addresses before they reach logs.
package privacy

import (
	"net/netip"
	"strings"
)

const (
	ipv4KeepBits = 24
	ipv6KeepBits = 48
)

// AnonymizeIP keeps the network part of an address: a /24 for IPv4 and a /48
// for IPv6. IPv4-mapped IPv6 addresses are treated as IPv4 and a port, if
// present, is dropped. Empty input yields "unknown", anything unparseable
// yields "invalid".
func AnonymizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "unknown" {
		return "unknown"
	}
	addr, ok := parseAddr(raw)
	if !ok {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := ipv6KeepBits
	if addr.Is4() {
		bits = ipv4KeepBits
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

func parseAddr(raw string) (netip.Addr, bool) {
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr, true
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr(), true
	}
	return netip.Addr{}, false
}
