package socks5

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
)

const (
	version      byte = 0x05
	methodNoAuth byte = 0x00
)

var (
	ErrVersion = errors.New("invalid socks version")
	ErrAuth    = errors.New("no acceptable auth method")
	ErrCommand = errors.New("unsupported command")
)

// Command is a SOCKS5 request command code.
type Command byte

const (
	CmdConnect      Command = 0x01
	CmdBind         Command = 0x02
	CmdUDPAssociate Command = 0x03
)

func (c Command) String() string {
	switch c {
	case CmdConnect:
		return "connect"
	case CmdBind:
		return "bind"
	case CmdUDPAssociate:
		return "udp-associate"
	default:
		return "command(" + strconv.Itoa(int(c)) + ")"
	}
}

// Request is a parsed SOCKS5 request. Only CmdConnect is expected to be
// satisfiable; the other commands parse so they can be rejected in-band.
type Request struct {
	Cmd  Command
	Addr Address
	Port uint16
}

// Target returns the destination as a dialable host:port string.
func (r Request) Target() string {
	return net.JoinHostPort(r.Addr.Host(), strconv.Itoa(int(r.Port)))
}

func (r Request) String() string {
	return r.Cmd.String() + " " + r.Target()
}

// Acceptor holds the handshake session for one connection. It must issue
// exactly one reply (success or failure); ReplySuccess hands the stream back
// to the caller for relaying, ReplyFailure leaves the connection to be torn
// down.
type Acceptor struct {
	br   *bufio.Reader
	rw   io.ReadWriter
	isV6 bool
}

// Accept runs the version/auth negotiation and request parse against rw.
// On a protocol violation the connection is abandoned without a reply; the
// peer either spoke a different protocol or offered no acceptable method.
func Accept(rw io.ReadWriter) (Request, *Acceptor, error) {
	br := bufio.NewReader(rw)

	ver, err := br.ReadByte()
	if err != nil {
		return Request{}, nil, fmt.Errorf("reading socks version: %w", err)
	}
	if ver != version {
		return Request{}, nil, fmt.Errorf("%w: 0x%02x", ErrVersion, ver)
	}

	nMethods, err := br.ReadByte()
	if err != nil {
		return Request{}, nil, fmt.Errorf("reading auth method count: %w", err)
	}
	methods := make([]byte, int(nMethods))
	if _, err := io.ReadFull(br, methods); err != nil {
		return Request{}, nil, fmt.Errorf("reading auth methods: %w", err)
	}
	if bytes.IndexByte(methods, methodNoAuth) < 0 {
		return Request{}, nil, ErrAuth
	}

	if _, err := rw.Write([]byte{version, methodNoAuth}); err != nil {
		return Request{}, nil, fmt.Errorf("writing auth reply: %w", err)
	}

	ver, err = br.ReadByte()
	if err != nil {
		return Request{}, nil, fmt.Errorf("reading request version: %w", err)
	}
	if ver != version {
		return Request{}, nil, fmt.Errorf("%w: 0x%02x", ErrVersion, ver)
	}

	cmd, err := br.ReadByte()
	if err != nil {
		return Request{}, nil, fmt.Errorf("reading command: %w", err)
	}
	switch Command(cmd) {
	case CmdConnect, CmdBind, CmdUDPAssociate:
	default:
		return Request{}, nil, fmt.Errorf("%w: 0x%02x", ErrCommand, cmd)
	}

	if _, err := br.Discard(1); err != nil { // reserved
		return Request{}, nil, fmt.Errorf("reading reserved byte: %w", err)
	}

	addr, err := ParseAddress(br)
	if err != nil {
		return Request{}, nil, fmt.Errorf("parsing address: %w", err)
	}

	var portBytes [2]byte
	if _, err := io.ReadFull(br, portBytes[:]); err != nil {
		return Request{}, nil, fmt.Errorf("reading port: %w", err)
	}

	req := Request{
		Cmd:  Command(cmd),
		Addr: addr,
		Port: binary.BigEndian.Uint16(portBytes[:]),
	}

	return req, &Acceptor{br: br, rw: rw, isV6: addr.IsIPv6()}, nil
}

// ReplySuccess reports the request as satisfied, echoing the locally bound
// address and port of the upstream connection. A write failure here aborts
// the connection: the peer never learned the request succeeded, so relaying
// would desynchronize it.
func (a *Acceptor) ReplySuccess(bound Address, port uint16) (*Stream, error) {
	if err := a.reply(0x00, bound, port); err != nil {
		return nil, fmt.Errorf("writing success reply: %w", err)
	}
	return &Stream{br: a.br, rw: a.rw}, nil
}

// ReplyFailure reports the request as failed with status. The write is
// best-effort: the connection is being torn down either way, so an error
// informing an already-failing peer is swallowed.
func (a *Acceptor) ReplyFailure(status FailStatus) {
	_ = a.reply(byte(status), UnspecifiedAddress(a.isV6), 0)
}

// reply writes the whole VER/REP/RSV/ATYP/ADDR/PORT reply as one buffer so
// that no partial reply is ever left sitting unflushed.
func (a *Acceptor) reply(status byte, bound Address, port uint16) error {
	buf := make([]byte, 0, 22)
	buf = append(buf, version, status, 0x00)
	buf, err := bound.Append(buf)
	if err != nil {
		return err
	}
	buf = binary.BigEndian.AppendUint16(buf, port)

	_, err = a.rw.Write(buf)
	return err
}

// Stream is the relayable view of the client connection after a successful
// reply: reads drain the acceptor's buffered reader first, writes go straight
// to the underlying connection.
type Stream struct {
	br *bufio.Reader
	rw io.ReadWriter
}

func (s *Stream) Read(p []byte) (int, error)  { return s.br.Read(p) }
func (s *Stream) Write(p []byte) (int, error) { return s.rw.Write(p) }

// Close closes the underlying connection when it is closable.
func (s *Stream) Close() error {
	if c, ok := s.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
