package dnsbench

import (
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strings"
)

// Resolver describes one DNS server under test. Capability for encrypted
// transports is declared statically, a resolver supports DoT when
// DoTHostname is set and DoH when DoHURL is set. The registry never probes
// resolvers at runtime.
type Resolver struct {
	ID          string
	Name        string
	IPv4        string
	IPv6        string
	DoTHostname string
	DoHURL      string
	Description string
	Custom      bool
}

// SupportsDoT reports whether the resolver declares a DoT endpoint.
func (r Resolver) SupportsDoT() bool {
	return r.DoTHostname != ""
}

// SupportsDoH reports whether the resolver declares a DoH endpoint.
func (r Resolver) SupportsDoH() bool {
	return r.DoHURL != ""
}

// Supports reports whether the resolver can be queried over the given
// transport. Every resolver speaks plain UDP and TCP.
func (r Resolver) Supports(t Transport) bool {
	switch t {
	case UDPTransport, TCPTransport:
		return true
	case DoTTransport:
		return r.SupportsDoT()
	case DoHTransport:
		return r.SupportsDoH()
	}
	return false
}

// addr joins the resolver IP with the given port, IPv6 aware. IPv4 is
// preferred when both addresses are declared.
func (r Resolver) addr(port string) string {
	ip := r.IPv4
	if ip == "" {
		ip = r.IPv6
	}
	return net.JoinHostPort(ip, port)
}

// builtinResolvers is the static catalog of well-known public resolvers.
// The catalog is never mutated after process start.
var builtinResolvers = map[string]Resolver{
	"cloudflare": {
		ID: "cloudflare", Name: "Cloudflare",
		IPv4: "1.1.1.1", IPv6: "2606:4700:4700::1111",
		DoTHostname: "cloudflare-dns.com", DoHURL: "https://cloudflare-dns.com/dns-query",
		Description: "Cloudflare's privacy-focused DNS resolver",
	},
	"cloudflare-secondary": {
		ID: "cloudflare-secondary", Name: "Cloudflare Secondary",
		IPv4: "1.0.0.1", IPv6: "2606:4700:4700::1001",
		DoTHostname: "cloudflare-dns.com", DoHURL: "https://cloudflare-dns.com/dns-query",
		Description: "Cloudflare's secondary DNS resolver",
	},
	"google": {
		ID: "google", Name: "Google",
		IPv4: "8.8.8.8", IPv6: "2001:4860:4860::8888",
		DoTHostname: "dns.google", DoHURL: "https://dns.google/dns-query",
		Description: "Google Public DNS",
	},
	"google-secondary": {
		ID: "google-secondary", Name: "Google Secondary",
		IPv4: "8.8.4.4", IPv6: "2001:4860:4860::8844",
		DoTHostname: "dns.google", DoHURL: "https://dns.google/dns-query",
		Description: "Google Public DNS secondary",
	},
	"quad9": {
		ID: "quad9", Name: "Quad9",
		IPv4: "9.9.9.9", IPv6: "2620:fe::fe",
		DoTHostname: "dns.quad9.net", DoHURL: "https://dns.quad9.net/dns-query",
		Description: "Quad9 with malware blocking",
	},
	"quad9-unsecured": {
		ID: "quad9-unsecured", Name: "Quad9 Unsecured",
		IPv4: "9.9.9.10", IPv6: "2620:fe::10",
		DoTHostname: "dns10.quad9.net", DoHURL: "https://dns10.quad9.net/dns-query",
		Description: "Quad9 without malware blocking",
	},
	"nextdns": {
		ID: "nextdns", Name: "NextDNS",
		IPv4: "45.90.28.0", IPv6: "2a07:a8c0::",
		DoTHostname: "dns.nextdns.io", DoHURL: "https://dns.nextdns.io/dns-query",
		Description: "NextDNS (requires configuration ID for full features)",
	},
	"nextdns-secondary": {
		ID: "nextdns-secondary", Name: "NextDNS Secondary",
		IPv4: "45.90.30.0", IPv6: "2a07:a8c1::",
		DoTHostname: "dns.nextdns.io", DoHURL: "https://dns.nextdns.io/dns-query",
		Description: "NextDNS secondary resolver",
	},
	"controld": {
		ID: "controld", Name: "Control D",
		IPv4: "76.76.2.0", IPv6: "2606:1a40::",
		DoTHostname: "p0.freedns.controld.com", DoHURL: "https://freedns.controld.com/p0",
		Description: "Control D free unfiltered DNS",
	},
	"controld-malware": {
		ID: "controld-malware", Name: "Control D Malware",
		IPv4: "76.76.2.1", IPv6: "2606:1a40::1",
		DoTHostname: "p1.freedns.controld.com", DoHURL: "https://freedns.controld.com/p1",
		Description: "Control D with malware blocking",
	},
	"opendns": {
		ID: "opendns", Name: "OpenDNS",
		IPv4: "208.67.222.222", IPv6: "2620:119:35::35",
		// OpenDNS does not offer DoT.
		DoHURL:      "https://doh.opendns.com/dns-query",
		Description: "Cisco OpenDNS",
	},
	"adguard": {
		ID: "adguard", Name: "AdGuard",
		IPv4: "94.140.14.14", IPv6: "2a10:50c0::ad1:ff",
		DoTHostname: "dns.adguard-dns.com", DoHURL: "https://dns.adguard-dns.com/dns-query",
		Description: "AdGuard DNS with ad blocking",
	},
	"cleanbrowsing": {
		ID: "cleanbrowsing", Name: "CleanBrowsing Security",
		IPv4: "185.228.168.9", IPv6: "2a0d:2a00:1::2",
		DoTHostname: "security-filter-dns.cleanbrowsing.org", DoHURL: "https://doh.cleanbrowsing.org/doh/security-filter/",
		Description: "CleanBrowsing security filter",
	},
}

// GetResolver looks up a built-in resolver by its id, case-insensitively.
func GetResolver(id string) (Resolver, error) {
	r, ok := builtinResolvers[strings.ToLower(id)]
	if !ok {
		return Resolver{}, &ConfigError{Field: "resolvers", Reason: fmt.Sprintf("unknown resolver %q, see ListResolvers for available ids", id)}
	}
	return r, nil
}

// CustomResolver builds a resolver from a raw IPv4 or IPv6 address. Custom
// resolvers are limited to plain UDP and TCP unless the caller declares
// encrypted endpoints explicitly on the returned value.
func CustomResolver(ip string) (Resolver, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Resolver{}, &ConfigError{Field: "resolvers", Reason: fmt.Sprintf("%q is neither a known resolver id nor a valid IP address", ip)}
	}
	r := Resolver{
		ID:          ip,
		Name:        "Custom " + ip,
		Description: "Custom resolver at " + ip,
		Custom:      true,
	}
	if addr.Is4() {
		r.IPv4 = addr.String()
	} else {
		r.IPv6 = addr.String()
	}
	return r, nil
}

// ListResolvers returns the ids of all built-in resolvers in stable order.
func ListResolvers() []string {
	ids := make([]string, 0, len(builtinResolvers))
	for id := range builtinResolvers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
