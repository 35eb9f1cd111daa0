package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dtx/internal/shared"
)

// HandshakeServer serves a router on an already-bound loopback listener for the lifetime of one scan.
//
// It owns the listener: [HandshakeServer.Stop] releases the socket and drops open connections immediately.
type HandshakeServer struct {
	srv      *http.Server
	listener net.Listener
	addr     Address
	logger   *log.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	err       error
}

// NewHandshakeServer creates a server for handler on the bound listener ln.
//
// The route table must be complete before [HandshakeServer.Start] is called.
func NewHandshakeServer(ln net.Listener, addr Address, handler http.Handler, logger *log.Logger) *HandshakeServer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &HandshakeServer{
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}),
		},
		listener: ln,
		addr:     addr,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Address returns the address the server is bound to.
func (s *HandshakeServer) Address() Address {
	return s.addr
}

// URL returns the root URL the browser should open.
func (s *HandshakeServer) URL() string {
	return s.addr.URL()
}

// Start runs the accept loop in a background goroutine.
//
// The listener is already bound, so connections made after Start returns are queued by the OS and served
// with the full route table. Calling Start more than once has no effect.
func (s *HandshakeServer) Start() {
	s.startOnce.Do(func() {
		s.logger.Debug("handshake server listening", "addr", s.addr.String())
		go func() {
			defer close(s.done)
			if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.err = fmt.Errorf("%w: %v", shared.ErrCannotStart, err)
				s.logger.Error("handshake server stopped unexpectedly", "error", err)
			}
		}()
	})
}

// Stop closes the listener and all active connections without waiting for in-flight requests.
//
// Only the first call has any effect; it is safe to call Stop on a server that was never started.
func (s *HandshakeServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.srv.Close()
		// Serve may not have registered the listener yet; close it here so the port is free on return.
		s.listener.Close()
		s.startOnce.Do(func() { close(s.done) })
		<-s.done
		s.logger.Debug("handshake server stopped", "addr", s.addr.String())
	})
	return err
}

// Done returns a channel that is closed once the accept loop has exited.
func (s *HandshakeServer) Done() <-chan struct{} {
	return s.done
}

// Err reports why the accept loop exited. It is nil after a normal [HandshakeServer.Stop].
//
// Err must only be called after [HandshakeServer.Done] is closed.
func (s *HandshakeServer) Err() error {
	return s.err
}
