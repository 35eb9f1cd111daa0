// Package handshake runs the browser-mediated scan handshake end to end.
//
// An [Orchestrator] binds a loopback port, serves the scanner page, points the browser at it, and blocks
// until the page posts exactly one result. The server is always stopped before [Orchestrator.Run] returns,
// whether the scan succeeded, timed out, or the caller's context was cancelled.
package handshake

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dtx/internal/oneshot"
	"github.com/desertthunder/dtx/internal/server"
	"github.com/desertthunder/dtx/internal/shared"
	"golang.org/x/time/rate"
)

// Launcher opens url in a browser.
type Launcher func(url string) error

// ListenFunc binds the loopback listener the server runs on.
type ListenFunc func(ctx context.Context, host string) (net.Listener, server.Address, error)

// Options configures an [Orchestrator].
type Options struct {
	Host        string        // loopback host to bind; defaults to 127.0.0.1
	Timeout     time.Duration // zero waits until ctx is cancelled
	OpenBrowser bool          // call Launch with the scanner URL
	RateLimit   float64       // page fetches per second; zero disables limiting. Results are never limited.
	Burst       int

	Launch  Launcher         // defaults to [shared.OpenBrowser]
	Notify  func(url string) // called with the scanner URL before the browser is launched
	Waiting func(url string) // called after the browser step, just before Run blocks for a result
	Listen  ListenFunc       // defaults to [server.Listen]
	Logger  *log.Logger
}

// Orchestrator coordinates one scan handshake.
type Orchestrator struct {
	opts   Options
	logger *log.Logger
}

// New creates an [Orchestrator], filling unset options with defaults.
func New(opts Options) *Orchestrator {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.Launch == nil {
		opts.Launch = shared.OpenBrowser
	}
	if opts.Listen == nil {
		opts.Listen = server.Listen
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	return &Orchestrator{
		opts:   opts,
		logger: shared.WithLogger(opts.Logger, "component", "handshake"),
	}
}

// Run serves the scanner page and returns the first payload posted to it.
//
// Errors wrap [shared.ErrCannotStart] when the server could not be brought up, [shared.ErrTimeout] when
// the configured timeout elapsed, and [shared.ErrCancelled] when ctx was cancelled first.
func (o *Orchestrator) Run(ctx context.Context) (string, error) {
	ln, addr, err := o.opts.Listen(ctx, o.opts.Host)
	if err != nil {
		if !errors.Is(err, shared.ErrCannotStart) && !errors.Is(err, shared.ErrInvalidConfig) {
			err = fmt.Errorf("%w: %v", shared.ErrCannotStart, err)
		}
		return "", err
	}

	results := oneshot.New[string]()
	srv := server.NewHandshakeServer(ln, addr, o.router(results), o.logger)
	srv.Start()
	defer srv.Stop()

	url := addr.URL()
	o.logger.Info("scanner running", "url", url)
	if o.opts.Notify != nil {
		o.opts.Notify(url)
	}

	if o.opts.OpenBrowser {
		if err := o.opts.Launch(url); err != nil {
			o.logger.Debug("browser launch failed", "url", url, "error", err)
		}
	}

	if o.opts.Waiting != nil {
		o.opts.Waiting(url)
	}

	waitCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, o.opts.Timeout)
		defer cancel()
	}

	waitCtx, cancelWait := context.WithCancelCause(waitCtx)
	defer cancelWait(nil)
	go func() {
		select {
		case <-srv.Done():
			cancelWait(srv.Err())
		case <-waitCtx.Done():
		}
	}()

	payload, err := results.Wait(waitCtx)
	if err == nil {
		o.logger.Debug("scan received", "bytes", len(payload))
		return payload, nil
	}

	if !results.Abandon() {
		// A submission landed while the wait was being torn down.
		return results.Wait(context.Background())
	}

	if cause := context.Cause(waitCtx); errors.Is(cause, shared.ErrCannotStart) {
		return "", cause
	}
	if errors.Is(err, oneshot.ErrTimedOut) {
		if o.opts.Timeout > 0 {
			return "", fmt.Errorf("%w: no scan received within %s", shared.ErrTimeout, o.opts.Timeout)
		}
		return "", fmt.Errorf("%w: no scan received before the deadline", shared.ErrTimeout)
	}
	return "", fmt.Errorf("%w: %v", shared.ErrCancelled, err)
}

func (o *Orchestrator) router(results *oneshot.Channel[string]) *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(o.logger))

	var page http.Handler = server.NewPageHandler()
	if o.opts.RateLimit > 0 {
		page = server.RateLimit(rate.NewLimiter(rate.Limit(o.opts.RateLimit), o.opts.Burst))(page)
	}

	router.Handle(http.MethodGet, "/{$}", page)
	router.Handler(server.NewResultHandler(results, o.logger))
	return router
}
