package socks5

// Package socks5 implements the server side of the SOCKS5 negotiation
// protocol (RFC 1928): the address codec, the per-connection handshake
// acceptor, and the reply status codes.
//
// The acceptor is stream-generic: it operates on any io.ReadWriter, so the
// whole state machine can be driven from in-memory buffers in tests. It owns
// the connection only for the duration of the handshake; after a successful
// reply the caller gets the stream back for relaying.
//
// Only the "no authentication" method is supported. BIND and UDP ASSOCIATE
// requests parse but are expected to be rejected by the caller with
// StatusCommandNotSupported.
