package dialer

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

type directDialer struct {
	cfg      Config
	resolver *Resolver
}

// NewDirectDialer returns a Dialer that connects straight to the destination.
func NewDirectDialer(cfg Config) (Dialer, error) {
	d := &directDialer{cfg: cfg}

	if cfg.DNSServer != "" {
		r, err := NewResolver(cfg.DNSServer)
		if err != nil {
			return nil, fmt.Errorf("dns server: %w", err)
		}
		d.resolver = r
	}

	return d, nil
}

func (d *directDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if d.resolver != nil {
		resolved, err := d.resolve(ctx, address)
		if err != nil {
			return nil, err
		}
		address = resolved
	}

	dd := net.Dialer{Timeout: d.cfg.DialTimeout}

	conn, err := dd.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAliveConfig(d.cfg.KeepAlive)
	}

	return conn, nil
}

// resolve replaces a domain host in address with an IP looked up through the
// configured DNS server. IP literals pass through untouched.
func (d *directDialer) resolve(ctx context.Context, address string) (string, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("split %q: %w", address, err)
	}

	if _, err := netip.ParseAddr(host); err == nil {
		return address, nil
	}

	ip, err := d.resolver.LookupAddr(ctx, host)
	if err != nil {
		return "", err
	}

	return net.JoinHostPort(ip.String(), port), nil
}
