// Package server provides the loopback HTTP surface for the browser-mediated scan handshake.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handshake Surface
//
// Two routes make up the handshake:
//
//	GET  /        → the scanner page (see [PageHandler])
//	POST /result  → the result callback (see [ResultHandler])
//
// [Listen] binds an OS-assigned port on a loopback host and returns the concrete [Address].
// [HandshakeServer] serves a router on that already-bound listener and stops abruptly:
// [HandshakeServer.Stop] closes the listener and every open connection without draining.
//
// # Result Delivery
//
// [ResultHandler] publishes the first well-formed submission into a [oneshot.Channel].
// Later submissions are acknowledged with 200 but have no effect; malformed ones get 400
// and never reach the channel.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
