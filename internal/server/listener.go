package server

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/desertthunder/dtx/internal/shared"
)

// Address is the concrete host and port a listener was bound to.
type Address struct {
	Host string
	Port int
}

// String returns the address in host:port form, bracketing IPv6 hosts.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// URL returns the root URL of the server reachable at this address.
func (a Address) URL() string {
	return "http://" + a.String() + "/"
}

// Listen binds a TCP listener on port 0 of the given loopback host so the OS picks a free port.
//
// Non-loopback hosts are rejected with [shared.ErrInvalidConfig]. Bind failures are wrapped with
// [shared.ErrCannotStart]. The caller owns the returned listener until it is handed to a [HandshakeServer].
func Listen(ctx context.Context, host string) (net.Listener, Address, error) {
	if !shared.IsLoopbackHost(host) {
		return nil, Address{}, fmt.Errorf("%w: %q is not a loopback host", shared.ErrInvalidConfig, host)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(strings.Trim(host, "[]"), "0"))
	if err != nil {
		return nil, Address{}, fmt.Errorf("%w: %v", shared.ErrCannotStart, err)
	}

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		ln.Close()
		return nil, Address{}, fmt.Errorf("%w: unexpected listener address %v", shared.ErrCannotStart, ln.Addr())
	}

	return ln, Address{Host: tcpAddr.IP.String(), Port: tcpAddr.Port}, nil
}
