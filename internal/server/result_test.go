package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/dtx/internal/oneshot"
	"github.com/desertthunder/dtx/internal/shared"
)

func postResult(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResultHandler(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Routes", func(t *testing.T) {
		h := NewResultHandler(oneshot.New[string](), logger)
		if routes := h.Routes(); len(routes) != 1 || routes[0] != "/result" {
			t.Errorf("expected [/result], got %v", routes)
		}
	})

	t.Run("valid submission is published", func(t *testing.T) {
		ch := oneshot.New[string]()
		h := NewResultHandler(ch, logger)

		rec := postResult(t, h, `{"data":"abc123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Body.String() != "OK" {
			t.Errorf("expected OK, got %q", rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("expected text/plain, got %s", ct)
		}

		got, err := ch.Wait(context.Background())
		if err != nil || got != "abc123" {
			t.Errorf("expected abc123, got %q (%v)", got, err)
		}
	})

	t.Run("malformed submissions get 400 and leave the channel empty", func(t *testing.T) {
		tc := []struct {
			name string
			body string
		}{
			{"empty object", `{}`},
			{"empty body", ``},
			{"not json", `data=abc`},
			{"array", `["abc"]`},
			{"number field", `{"data":42}`},
			{"null field", `{"data":null}`},
			{"json null", `null`},
			{"trailing value", `{"data":"a"} {"data":"b"}`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				ch := oneshot.New[string]()
				h := NewResultHandler(ch, logger)

				rec := postResult(t, h, tt.body)

				if rec.Code != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", rec.Code)
				}
				if ch.State() != oneshot.Empty {
					t.Errorf("expected channel to stay empty, got %s", ch.State())
				}
			})
		}
	})

	t.Run("first valid submission wins", func(t *testing.T) {
		ch := oneshot.New[string]()
		h := NewResultHandler(ch, logger)

		steps := []struct {
			body string
			code int
		}{
			{`{}`, http.StatusBadRequest},
			{`{"data":"first"}`, http.StatusOK},
			{`{"nope":1}`, http.StatusBadRequest},
			{`{"data":"second"}`, http.StatusOK},
			{`{"data":"third"}`, http.StatusOK},
		}

		for i, step := range steps {
			if rec := postResult(t, h, step.body); rec.Code != step.code {
				t.Errorf("step %d: expected %d, got %d", i, step.code, rec.Code)
			}
		}

		got, _ := ch.Wait(context.Background())
		if got != "first" {
			t.Errorf("expected first, got %s", got)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		h := NewResultHandler(oneshot.New[string](), logger)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/result", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		ch := oneshot.New[string]()
		h := NewResultHandler(ch, logger)

		body := `{"data":"` + strings.Repeat("x", maxSubmissionBytes) + `"}`
		if rec := postResult(t, h, body); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if ch.State() != oneshot.Empty {
			t.Error("expected channel to stay empty")
		}
	})
}

func TestDecodeSubmission(t *testing.T) {
	t.Run("keeps payload verbatim", func(t *testing.T) {
		payload := "https://example.com/?q=1&r=ü \n"
		got, err := DecodeSubmission(strings.NewReader(`{"data":"https://example.com/?q=1&r=ü \n","extra":true}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != payload {
			t.Errorf("expected %q, got %q", payload, got)
		}
	})

	t.Run("empty string is a valid payload", func(t *testing.T) {
		got, err := DecodeSubmission(strings.NewReader(`{"data":""}`))
		if err != nil || got != "" {
			t.Errorf("expected empty payload, got %q (%v)", got, err)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		if _, err := DecodeSubmission(strings.NewReader(`{}`)); !errors.Is(err, shared.ErrMalformedSubmission) {
			t.Errorf("expected ErrMalformedSubmission, got %v", err)
		}
	})
}
