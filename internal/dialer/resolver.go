package dialer

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/miekg/dns"
)

// Resolver answers host lookups through one specific DNS server rather than
// the platform resolver.
type Resolver struct {
	server string
	client *dns.Client
}

// NewResolver returns a Resolver querying server (host or host:port; port 53
// is assumed when missing).
func NewResolver(server string) (*Resolver, error) {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		return nil, fmt.Errorf("invalid server %q: %w", server, err)
	}

	return &Resolver{server: server, client: &dns.Client{}}, nil
}

// LookupAddr resolves host to a single address, preferring A over AAAA
// records. A name that resolves to nothing yields a *net.DNSError with
// IsNotFound set, so callers can classify it like a platform lookup miss.
func (r *Resolver) LookupAddr(ctx context.Context, host string) (netip.Addr, error) {
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addr, ok, err := r.query(ctx, host, qtype)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("resolve %s: %w", host, err)
		}
		if ok {
			return addr, nil
		}
	}

	return netip.Addr{}, &net.DNSError{
		Err:        "no such host",
		Name:       host,
		Server:     r.server,
		IsNotFound: true,
	}
}

func (r *Resolver) query(ctx context.Context, host string, qtype uint16) (netip.Addr, bool, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)

	in, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil {
		return netip.Addr{}, false, err
	}

	for _, rr := range in.Answer {
		switch a := rr.(type) {
		case *dns.A:
			if addr, ok := netip.AddrFromSlice(a.A.To4()); ok {
				return addr, true, nil
			}
		case *dns.AAAA:
			if addr, ok := netip.AddrFromSlice(a.AAAA); ok {
				return addr, true, nil
			}
		}
	}

	return netip.Addr{}, false, nil
}
