package handshake

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dtx/internal/server"
	"github.com/desertthunder/dtx/internal/shared"
	tu "github.com/desertthunder/dtx/internal/testing"
)

// postAsync submits body without reporting through t, since the server may close the
// connection as soon as the payload is delivered.
func postAsync(scannerURL, body string) {
	go func() {
		resp, err := http.Post(scannerURL+"result", "application/json", strings.NewReader(body))
		if err == nil {
			resp.Body.Close()
		}
	}()
}

func hostPort(t *testing.T, scannerURL string) string {
	t.Helper()
	u, err := url.Parse(scannerURL)
	if err != nil {
		t.Fatalf("invalid scanner url %q: %v", scannerURL, err)
	}
	return u.Host
}

func assertPortFree(t *testing.T, scannerURL string) {
	t.Helper()
	ln, err := net.Listen("tcp", hostPort(t, scannerURL))
	if err != nil {
		t.Fatalf("expected %s to be released, got %v", scannerURL, err)
	}
	ln.Close()
}

func testOptions() Options {
	return Options{
		Host:        "127.0.0.1",
		OpenBrowser: true,
		Logger:      shared.NewLogger(io.Discard),
	}
}

func TestOrchestrator(t *testing.T) {
	t.Run("returns the submitted payload", func(t *testing.T) {
		var seen string
		opts := testOptions()
		opts.Launch = func(u string) error {
			seen = u
			if code := tu.PostJSON(t, u, `{"data":"abc123"}`); code != http.StatusOK {
				t.Errorf("expected 200, got %d", code)
			}
			return nil
		}

		got, err := New(opts).Run(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "abc123" {
			t.Errorf("expected abc123, got %s", got)
		}
		assertPortFree(t, seen)
	})

	t.Run("malformed submission does not end the handshake", func(t *testing.T) {
		opts := testOptions()
		opts.Launch = func(u string) error {
			if code := tu.PostJSON(t, u, `{}`); code != http.StatusBadRequest {
				t.Errorf("expected 400 for empty object, got %d", code)
			}
			if code := tu.PostJSON(t, u, `{"data":"xyz"}`); code != http.StatusOK {
				t.Errorf("expected 200, got %d", code)
			}
			return nil
		}

		got, err := New(opts).Run(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "xyz" {
			t.Errorf("expected xyz, got %s", got)
		}
	})

	t.Run("first valid submission wins", func(t *testing.T) {
		opts := testOptions()
		opts.Launch = func(u string) error {
			steps := []struct {
				body string
				code int
			}{
				{`not json`, http.StatusBadRequest},
				{`{"data":"one"}`, http.StatusOK},
				{`{"data":"two"}`, http.StatusOK},
				{`{"data":7}`, http.StatusBadRequest},
				{`{"data":"three"}`, http.StatusOK},
			}
			for i, step := range steps {
				if code := tu.PostJSON(t, u, step.body); code != step.code {
					t.Errorf("submission %d: expected %d, got %d", i, step.code, code)
				}
			}
			return nil
		}

		got, err := New(opts).Run(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "one" {
			t.Errorf("expected one, got %s", got)
		}
	})

	t.Run("page is served before and after a submission", func(t *testing.T) {
		opts := testOptions()
		opts.Launch = func(u string) error {
			for i := range 2 {
				resp, err := http.Get(u)
				if err != nil {
					t.Errorf("GET / failed: %v", err)
					return nil
				}
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				if string(body) != string(server.ScannerPage()) {
					t.Errorf("fetch %d: expected scanner page verbatim", i)
				}
				if i == 0 {
					tu.PostJSON(t, u, `{}`)
				}
			}
			tu.PostJSON(t, u, `{"data":"done"}`)
			return nil
		}

		if _, err := New(opts).Run(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("bind failure never launches the browser", func(t *testing.T) {
		var launched atomic.Bool
		opts := testOptions()
		opts.Listen = func(ctx context.Context, host string) (net.Listener, server.Address, error) {
			return nil, server.Address{}, errors.New("too many open files")
		}
		opts.Launch = func(string) error {
			launched.Store(true)
			return nil
		}
		opts.Notify = func(string) {
			t.Error("expected no notification without a server")
		}

		_, err := New(opts).Run(context.Background())
		if !errors.Is(err, shared.ErrCannotStart) {
			t.Errorf("expected ErrCannotStart, got %v", err)
		}
		if launched.Load() {
			t.Error("expected browser launch to be skipped")
		}
	})

	t.Run("cancellation stops the server", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var seen string
		opts := testOptions()
		opts.Launch = func(u string) error {
			seen = u
			go func() {
				time.Sleep(20 * time.Millisecond)
				cancel()
			}()
			return nil
		}

		_, err := New(opts).Run(ctx)
		if !errors.Is(err, shared.ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
		assertPortFree(t, seen)

		if _, err := http.Get(seen); err == nil {
			t.Error("expected server to refuse connections after cancellation")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		opts := testOptions()
		opts.Timeout = 30 * time.Millisecond
		opts.Launch = func(string) error { return nil }

		_, err := New(opts).Run(context.Background())
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("browser launch failure is not fatal", func(t *testing.T) {
		opts := testOptions()
		opts.Launch = func(string) error { return shared.ErrBrowserLaunch }
		opts.Notify = func(u string) {
			postAsync(u, `{"data":"manual"}`)
		}

		got, err := New(opts).Run(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "manual" {
			t.Errorf("expected manual, got %s", got)
		}
	})

	t.Run("waiting hook runs after the browser step", func(t *testing.T) {
		var steps []string
		opts := testOptions()
		opts.Notify = func(string) { steps = append(steps, "notify") }
		opts.Launch = func(string) error {
			steps = append(steps, "launch")
			return shared.ErrBrowserLaunch
		}
		opts.Waiting = func(u string) {
			steps = append(steps, "waiting")
			postAsync(u, `{"data":"after-wait"}`)
		}

		got, err := New(opts).Run(context.Background())
		if err != nil || got != "after-wait" {
			t.Fatalf("expected after-wait, got %q (%v)", got, err)
		}
		if strings.Join(steps, ",") != "notify,launch,waiting" {
			t.Errorf("unexpected order %v", steps)
		}
	})

	t.Run("launch failure is not logged above debug", func(t *testing.T) {
		var logs strings.Builder
		opts := testOptions()
		opts.Logger = shared.NewLogger(&logs)
		opts.Logger.SetLevel(log.WarnLevel)
		opts.Launch = func(u string) error {
			postAsync(u, `{"data":"quiet"}`)
			return shared.ErrBrowserLaunch
		}

		if _, err := New(opts).Run(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logs.Len() != 0 {
			t.Errorf("expected no warnings, got %q", logs.String())
		}
	})

	t.Run("browser is not launched when disabled", func(t *testing.T) {
		opts := testOptions()
		opts.OpenBrowser = false
		opts.Launch = func(string) error {
			t.Error("expected launch to be skipped")
			return nil
		}
		opts.Notify = func(u string) {
			if !strings.HasPrefix(u, "http://127.0.0.1:") {
				t.Errorf("expected loopback url, got %s", u)
			}
			postAsync(u, `{"data":"headless"}`)
		}

		got, err := New(opts).Run(context.Background())
		if err != nil || got != "headless" {
			t.Errorf("expected headless, got %q (%v)", got, err)
		}
	})

	t.Run("rate limit applies to the page only", func(t *testing.T) {
		opts := testOptions()
		opts.RateLimit = 0.001
		opts.Burst = 2
		opts.Launch = func(u string) error {
			codes := []int{}
			for range 3 {
				resp, err := http.Get(u)
				if err != nil {
					t.Errorf("GET / failed: %v", err)
					return nil
				}
				resp.Body.Close()
				codes = append(codes, resp.StatusCode)
			}
			if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
				t.Errorf("expected page loads [200 200 429], got %v", codes)
			}

			for i := range 10 {
				if code := tu.PostJSON(t, u, `{}`); code != http.StatusBadRequest {
					t.Errorf("malformed submission %d: expected 400, got %d", i, code)
				}
			}
			if code := tu.PostJSON(t, u, `{"data":"first-valid"}`); code != http.StatusOK {
				t.Errorf("expected 200 for the result, got %d", code)
			}
			return nil
		}

		got, err := New(opts).Run(context.Background())
		if err != nil || got != "first-valid" {
			t.Errorf("expected first-valid, got %q (%v)", got, err)
		}
	})

	t.Run("default config never rejects a result", func(t *testing.T) {
		scanner := shared.DefaultConfig().Scanner
		opts := testOptions()
		opts.RateLimit = scanner.RateLimit
		opts.Burst = scanner.Burst
		opts.Launch = func(u string) error {
			for range 20 {
				tu.PostJSON(t, u, `{}`)
			}
			if code := tu.PostJSON(t, u, `{"data":"first-valid"}`); code != http.StatusOK {
				t.Errorf("expected 200, got %d", code)
			}
			return nil
		}

		got, err := New(opts).Run(context.Background())
		if err != nil || got != "first-valid" {
			t.Errorf("expected first-valid, got %q (%v)", got, err)
		}
	})

	t.Run("runs back to back", func(t *testing.T) {
		for i := range 3 {
			opts := testOptions()
			opts.Launch = func(u string) error {
				tu.PostJSON(t, u, `{"data":"again"}`)
				return nil
			}
			if got, err := New(opts).Run(context.Background()); err != nil || got != "again" {
				t.Fatalf("run %d: expected again, got %q (%v)", i, got, err)
			}
		}
	})
}

func TestNewDefaults(t *testing.T) {
	o := New(Options{})

	if o.opts.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", o.opts.Host)
	}
	if o.opts.Launch == nil || o.opts.Listen == nil || o.opts.Logger == nil {
		t.Error("expected launch, listen and logger defaults")
	}
	if o.opts.Burst != 1 {
		t.Errorf("expected burst 1, got %d", o.opts.Burst)
	}
}
