package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"proxyman/internal/socks5"
)

// Server accepts SOCKS5 client connections and relays each one to its
// requested destination.
type Server struct {
	cfg Config
	log zerolog.Logger
	wg  sync.WaitGroup
}

func NewServer(cfg Config) *Server {
	return &Server{
		cfg: cfg,
		log: log.With().Str("component", "socks5").Logger(),
	}
}

// Serve accepts connections from ln until ctx is canceled. Shutdown is
// two-phase: cancellation closes the listener and every in-flight
// connection, and Serve returns only after all connection goroutines have
// finished. A canceled Serve returns nil; any other accept failure is
// returned as-is.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn drives one connection end to end: handshake, upstream dial,
// reply, relay. Failures stay contained here; nothing propagates to the
// accept loop or to other connections.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Shutdown must also unblock reads and writes mid-handshake or
	// mid-relay, not just stop the accept loop.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	peer := conn.RemoteAddr().String()
	s.log.Debug().Str("peer", peer).Msg("accepted connection")
	defer s.log.Debug().Str("peer", peer).Msg("disconnected")

	if s.cfg.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.NegotiationTimeout))
	}

	req, acc, err := socks5.Accept(conn)
	if err != nil {
		s.log.Error().Str("peer", peer).Err(err).Msg("handshake failed")
		return
	}

	logger := s.log.With().Str("peer", peer).Stringer("request", req).Logger()

	if req.Cmd != socks5.CmdConnect {
		acc.ReplyFailure(socks5.StatusCommandNotSupported)
		logger.Error().Msg("command not supported")
		return
	}

	logger.Info().Msg("proxying")

	upstream, err := s.cfg.Dialer.DialContext(ctx, "tcp", req.Target())
	if err != nil {
		status := socks5.StatusFromError(err)
		acc.ReplyFailure(status)
		logger.Error().Err(err).Stringer("status", status).Msg("upstream connect failed")
		return
	}
	defer upstream.Close()

	bound, port := boundAddr(upstream.LocalAddr())
	client, err := acc.ReplySuccess(bound, port)
	if err != nil {
		logger.Error().Err(err).Msg("success reply failed")
		return
	}

	if s.cfg.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Time{})
	}

	upload, download, err := Relay(ctx, client, upstream)
	switch {
	case err == nil:
		logger.Debug().Int64("upload", upload).Int64("download", download).Msg("relay finished")
	case errors.Is(err, context.Canceled):
		logger.Debug().Msg("relay canceled")
	default:
		logger.Error().Err(err).Msg("relay failed")
	}
}

// boundAddr converts the upstream connection's local address for echoing in
// the success reply.
func boundAddr(addr net.Addr) (socks5.Address, uint16) {
	ta, ok := addr.(*net.TCPAddr)
	if !ok {
		return socks5.UnspecifiedAddress(false), 0
	}

	ip, ok := netip.AddrFromSlice(ta.IP)
	if !ok {
		return socks5.UnspecifiedAddress(false), uint16(ta.Port)
	}

	return socks5.IPAddress(ip.Unmap()), uint16(ta.Port)
}
