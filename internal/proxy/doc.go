package proxy

// Package proxy runs the listener side of the relay.
//
// Server owns the accept loop and per-connection lifecycle: SOCKS5 handshake,
// upstream dial through a dialer.Dialer, reply, then Relay pumps bytes both
// ways until either leg finishes. Canceling the context passed to Serve stops
// accepting, tears down every in-flight connection, and Serve returns only
// once all of them have finished.
