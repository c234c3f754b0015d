package socks5

import (
	"bytes"
	"errors"
	"io"
	"net/netip"
	"testing"
)

// memStream drives the acceptor from canned client bytes, capturing replies.
type memStream struct {
	io.Reader
	out bytes.Buffer
}

func newMemStream(in ...[]byte) *memStream {
	return &memStream{Reader: bytes.NewReader(bytes.Join(in, nil))}
}

func (m *memStream) Write(p []byte) (int, error) { return m.out.Write(p) }

var connectLoopback = []byte{0x05, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50}

func TestAcceptAuthNegotiation(t *testing.T) {
	tests := []struct {
		name     string
		greeting []byte
		ok       bool
	}{
		{"no_auth_only", []byte{0x05, 0x01, 0x00}, true},
		{"no_auth_missing", []byte{0x05, 0x02, 0x01, 0x02}, false},
		{"no_auth_among_others", []byte{0x05, 0x03, 0x01, 0x00, 0x02}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStream(tt.greeting, connectLoopback)
			req, _, err := Accept(s)

			if !tt.ok {
				if !errors.Is(err, ErrAuth) {
					t.Fatalf("expected ErrAuth, got %v", err)
				}
				if s.out.Len() != 0 {
					t.Errorf("expected no reply, got % x", s.out.Bytes())
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(s.out.Bytes(), []byte{0x05, 0x00}) {
				t.Errorf("auth reply: got % x", s.out.Bytes())
			}
			if req.Cmd != CmdConnect || req.Target() != "127.0.0.1:80" {
				t.Errorf("unexpected request: %v", req)
			}
		})
	}
}

func TestAcceptRequestParsing(t *testing.T) {
	greeting := []byte{0x05, 0x01, 0x00}

	tests := []struct {
		name    string
		request []byte
		cmd     Command
		target  string
	}{
		{
			"connect_ipv4",
			connectLoopback,
			CmdConnect, "127.0.0.1:80",
		},
		{
			"connect_domain",
			append([]byte{0x05, 0x01, 0x00, 0x03, 11}, append([]byte("example.com"), 0x01, 0xbb)...),
			CmdConnect, "example.com:443",
		},
		{
			"connect_ipv6",
			[]byte{0x05, 0x01, 0x00, 0x04, 0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x42, 0x1f, 0x90},
			CmdConnect, "[2001:db8::42]:8080",
		},
		{
			"bind",
			[]byte{0x05, 0x02, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50},
			CmdBind, "127.0.0.1:80",
		},
		{
			"udp_associate",
			[]byte{0x05, 0x03, 0x00, 0x01, 0, 0, 0, 0, 0x00, 0x00},
			CmdUDPAssociate, "0.0.0.0:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, acc, err := Accept(newMemStream(greeting, tt.request))
			if err != nil {
				t.Fatal(err)
			}
			if req.Cmd != tt.cmd {
				t.Errorf("cmd: got %v want %v", req.Cmd, tt.cmd)
			}
			if got := req.Target(); got != tt.target {
				t.Errorf("target: got %q want %q", got, tt.target)
			}
			if acc == nil {
				t.Fatal("nil acceptor")
			}
		})
	}
}

func TestAcceptProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"bad_version", []byte{0x04, 0x01, 0x00}, ErrVersion},
		{"bad_request_version", []byte{0x05, 0x01, 0x00, 0x04, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50}, ErrVersion},
		{"bad_command", []byte{0x05, 0x01, 0x00, 0x05, 0x09, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50}, ErrCommand},
		{"bad_address_type", []byte{0x05, 0x01, 0x00, 0x05, 0x01, 0x00, 0x02, 127, 0, 0, 1, 0x00, 0x50}, ErrAddressType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Accept(newMemStream(tt.in))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReplySuccess(t *testing.T) {
	payload := []byte("pipelined")
	s := newMemStream([]byte{0x05, 0x01, 0x00}, connectLoopback, payload)

	_, acc, err := Accept(s)
	if err != nil {
		t.Fatal(err)
	}
	s.out.Reset()

	stream, err := acc.ReplySuccess(IPAddress(netip.MustParseAddr("192.168.1.2")), 8080)
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{0x05, 0x00, 0x00, 0x01, 192, 168, 1, 2, 0x1f, 0x90}
	if !bytes.Equal(s.out.Bytes(), want) {
		t.Errorf("reply: got % x want % x", s.out.Bytes(), want)
	}

	// Bytes the client pipelined after the request must survive the handoff.
	buf := make([]byte, len(payload))
	if _, err := io.ReadFull(stream, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, payload) {
		t.Errorf("stream read: got %q", buf)
	}
}

func TestReplyFailureShape(t *testing.T) {
	t.Run("ipv4_session", func(t *testing.T) {
		s := newMemStream([]byte{0x05, 0x01, 0x00}, connectLoopback)
		_, acc, err := Accept(s)
		if err != nil {
			t.Fatal(err)
		}
		s.out.Reset()

		acc.ReplyFailure(StatusConnectionRefused)

		want := []byte{0x05, 0x05, 0x00, 0x01, 0, 0, 0, 0, 0, 0}
		if !bytes.Equal(s.out.Bytes(), want) {
			t.Errorf("got % x want % x", s.out.Bytes(), want)
		}
	})

	t.Run("ipv6_session", func(t *testing.T) {
		request := append([]byte{0x05, 0x01, 0x00, 0x04}, make([]byte, 16)...)
		request[4+15] = 1 // ::1
		request = append(request, 0x00, 0x50)

		s := newMemStream([]byte{0x05, 0x01, 0x00}, request)
		_, acc, err := Accept(s)
		if err != nil {
			t.Fatal(err)
		}
		s.out.Reset()

		acc.ReplyFailure(StatusCommandNotSupported)

		want := append([]byte{0x05, 0x07, 0x00, 0x04}, make([]byte, 18)...)
		if !bytes.Equal(s.out.Bytes(), want) {
			t.Errorf("got % x want % x", s.out.Bytes(), want)
		}
	})
}
