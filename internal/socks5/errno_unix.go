//go:build unix

package socks5

import (
	"errors"

	"golang.org/x/sys/unix"
)

// statusFromErrno maps connect(2) errno values onto reply codes.
func statusFromErrno(err error) (FailStatus, bool) {
	switch {
	case errors.Is(err, unix.ECONNREFUSED):
		return StatusConnectionRefused, true
	case errors.Is(err, unix.EHOSTUNREACH), errors.Is(err, unix.EHOSTDOWN):
		return StatusHostUnreachable, true
	case errors.Is(err, unix.ENETUNREACH), errors.Is(err, unix.ENETDOWN):
		return StatusNetworkUnreachable, true
	case errors.Is(err, unix.ETIMEDOUT):
		return StatusTTLExpired, true
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return StatusNotAllowed, true
	default:
		return 0, false
	}
}
