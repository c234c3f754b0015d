package dialer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startDNSServer runs a miekg/dns server on a loopback UDP port answering
// only A queries for known.example.
func startDNSServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	srv := &dns.Server{
		PacketConn: pc,
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)

			q := r.Question[0]
			if q.Name == "known.example." && q.Qtype == dns.TypeA {
				rr, err := dns.NewRR(fmt.Sprintf("%s 60 IN A 192.0.2.10", q.Name))
				if err == nil {
					m.Answer = append(m.Answer, rr)
				}
			}
			_ = w.WriteMsg(m)
		}),
	}

	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestResolverLookup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := NewResolver(startDNSServer(t))
	if err != nil {
		t.Fatal(err)
	}

	addr, err := r.LookupAddr(ctx, "known.example")
	if err != nil {
		t.Fatal(err)
	}
	if got := addr.String(); got != "192.0.2.10" {
		t.Errorf("got %s", got)
	}
}

func TestResolverNotFound(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := NewResolver(startDNSServer(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = r.LookupAddr(ctx, "unknown.example")
	var dnsErr *net.DNSError
	if !errors.As(err, &dnsErr) || !dnsErr.IsNotFound {
		t.Errorf("expected not-found DNSError, got %v", err)
	}
}

func TestResolverDefaultPort(t *testing.T) {
	r, err := NewResolver("192.0.2.1")
	if err != nil {
		t.Fatal(err)
	}
	if r.server != "192.0.2.1:53" {
		t.Errorf("got %q", r.server)
	}
}
