//go:build !unix

package socks5

func statusFromErrno(_ error) (FailStatus, bool) {
	return 0, false
}
