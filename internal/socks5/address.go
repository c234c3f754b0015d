package socks5

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"unicode/utf8"
)

// Address types from RFC 1928 section 5.
const (
	atypIPv4   byte = 0x01
	atypDomain byte = 0x03
	atypIPv6   byte = 0x04
)

var (
	ErrAddressType   = errors.New("unsupported address type")
	errDomainTooLong = errors.New("domain name longer than 255 bytes")
)

// Address is a SOCKS5 destination address: either an IP literal or a domain
// name. The zero value is neither and must not be serialized.
type Address struct {
	ip     netip.Addr
	domain string
}

// IPAddress returns the address for an IP literal. The 4-byte/16-byte wire
// encoding follows the family of ip.
func IPAddress(ip netip.Addr) Address {
	return Address{ip: ip}
}

// DomainAddress returns the address for a domain name. The name's UTF-8
// encoding must fit in the one-byte length field.
func DomainAddress(name string) (Address, error) {
	if len(name) > 255 {
		return Address{}, errDomainTooLong
	}
	return Address{domain: name}, nil
}

// UnspecifiedAddress returns 0.0.0.0, or :: when v6 is set. Failure replies
// use it when no bound address exists yet.
func UnspecifiedAddress(v6 bool) Address {
	if v6 {
		return Address{ip: netip.IPv6Unspecified()}
	}
	return Address{ip: netip.IPv4Unspecified()}
}

// IsDomain reports whether the address is a domain name.
func (a Address) IsDomain() bool {
	return !a.ip.IsValid()
}

// IsIPv6 reports whether the address is an IPv6 literal.
func (a Address) IsIPv6() bool {
	return a.ip.IsValid() && a.ip.Is6()
}

// Host returns the address in a form accepted by net.JoinHostPort.
func (a Address) Host() string {
	if a.IsDomain() {
		return a.domain
	}
	return a.ip.String()
}

func (a Address) String() string {
	return a.Host()
}

// Append serializes the address in wire form (ATYP + ADDR) onto buf.
func (a Address) Append(buf []byte) ([]byte, error) {
	switch {
	case a.IsDomain():
		if len(a.domain) > 255 {
			return nil, errDomainTooLong
		}
		buf = append(buf, atypDomain, byte(len(a.domain)))
		return append(buf, a.domain...), nil
	case a.ip.Is4():
		b := a.ip.As4()
		return append(append(buf, atypIPv4), b[:]...), nil
	default:
		b := a.ip.As16()
		return append(append(buf, atypIPv6), b[:]...), nil
	}
}

// ParseAddress reads one wire-form address (ATYP + ADDR) from r.
func ParseAddress(r *bufio.Reader) (Address, error) {
	atyp, err := r.ReadByte()
	if err != nil {
		return Address{}, fmt.Errorf("reading address type: %w", err)
	}

	switch atyp {
	case atypIPv4:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Address{}, fmt.Errorf("reading IPv4 address: %w", err)
		}
		return Address{ip: netip.AddrFrom4(b)}, nil

	case atypIPv6:
		var b [16]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return Address{}, fmt.Errorf("reading IPv6 address: %w", err)
		}
		return Address{ip: netip.AddrFrom16(b)}, nil

	case atypDomain:
		n, err := r.ReadByte()
		if err != nil {
			return Address{}, fmt.Errorf("reading domain length: %w", err)
		}
		b := make([]byte, int(n))
		if _, err := io.ReadFull(r, b); err != nil {
			return Address{}, fmt.Errorf("reading domain: %w", err)
		}
		if !utf8.Valid(b) {
			return Address{}, fmt.Errorf("domain %q: invalid UTF-8", b)
		}
		return Address{domain: string(b)}, nil

	default:
		return Address{}, fmt.Errorf("%w: 0x%02x", ErrAddressType, atyp)
	}
}
