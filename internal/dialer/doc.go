package dialer

// Package dialer establishes the outbound leg of a proxied connection.
//
// Dialers implement a small interface (DialContext) and are selected by
// upstream URL scheme: direct:// dials the destination itself, socks5://
// chains through an upstream SOCKS5 proxy. Domain destinations normally
// resolve inside the connect attempt via the platform resolver; an optional
// Resolver routes them through a specific DNS server instead.
