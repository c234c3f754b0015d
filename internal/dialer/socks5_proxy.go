package dialer

import (
	"context"
	"fmt"
	"net"

	"github.com/txthinking/socks5"
)

type socks5ProxyDialer struct {
	cfg        Config
	addr       string
	user, pass string
}

// NewSOCKS5ProxyDialer returns a Dialer that chains through the SOCKS5 proxy
// at addr.
func NewSOCKS5ProxyDialer(cfg Config, addr, user, pass string) Dialer {
	return &socks5ProxyDialer{cfg: cfg, addr: addr, user: user, pass: pass}
}

func (d *socks5ProxyDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	_ = ctx
	if network != "tcp" {
		return nil, fmt.Errorf("socks5 upstream dial %s %s: unsupported network", network, address)
	}

	tcpTimeout := 0
	if d.cfg.DialTimeout > 0 {
		tcpTimeout = int(d.cfg.DialTimeout.Seconds())
		if tcpTimeout <= 0 {
			tcpTimeout = 1
		}
	}

	client, err := socks5.NewClient(d.addr, d.user, d.pass, tcpTimeout, 0)
	if err != nil {
		return nil, fmt.Errorf("socks5 upstream init: %w", err)
	}

	c, err := client.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("socks5 upstream dial %s %s: %w", network, address, err)
	}

	if tc, ok := c.(*net.TCPConn); ok {
		_ = tc.SetKeepAliveConfig(d.cfg.KeepAlive)
	}

	return c, nil
}
