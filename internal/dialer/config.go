package dialer

import (
	"net"
	"time"
)

type Config struct {
	DialTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	// DNSServer, when set, resolves domain destinations through this DNS
	// server (host or host:port) instead of the platform resolver. Only the
	// direct dialer consults it; an upstream proxy resolves for itself.
	DNSServer string
}
