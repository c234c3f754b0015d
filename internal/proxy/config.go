package proxy

import (
	"net"
	"time"

	"proxyman/internal/dialer"
)

type Config struct {
	// NegotiationTimeout bounds the handshake phase of each connection.
	// Zero disables the deadline.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer
}
