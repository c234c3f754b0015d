package socks5

import (
	"errors"
	"net"
)

// FailStatus is a SOCKS5 reply code for a request that could not be
// satisfied (RFC 1928 section 6, REP values 1-8).
type FailStatus byte

const (
	StatusGeneralFailure          FailStatus = 0x01
	StatusNotAllowed              FailStatus = 0x02
	StatusNetworkUnreachable      FailStatus = 0x03
	StatusHostUnreachable         FailStatus = 0x04
	StatusConnectionRefused       FailStatus = 0x05
	StatusTTLExpired              FailStatus = 0x06
	StatusCommandNotSupported     FailStatus = 0x07
	StatusAddressTypeNotSupported FailStatus = 0x08
)

func (s FailStatus) String() string {
	switch s {
	case StatusGeneralFailure:
		return "general SOCKS server failure"
	case StatusNotAllowed:
		return "connection not allowed by ruleset"
	case StatusNetworkUnreachable:
		return "network unreachable"
	case StatusHostUnreachable:
		return "host unreachable"
	case StatusConnectionRefused:
		return "connection refused"
	case StatusTTLExpired:
		return "TTL expired"
	case StatusCommandNotSupported:
		return "command not supported"
	case StatusAddressTypeNotSupported:
		return "address type not supported"
	default:
		return "unknown status"
	}
}

// StatusFromError classifies an upstream dial error into the reply code
// reported to the client.
func StatusFromError(err error) FailStatus {
	if s, ok := statusFromErrno(err); ok {
		return s
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return StatusHostUnreachable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTTLExpired
	}

	return StatusGeneralFailure
}
