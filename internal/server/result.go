package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dtx/internal/oneshot"
	"github.com/desertthunder/dtx/internal/shared"
)

// maxSubmissionBytes bounds the size of a result body.
const maxSubmissionBytes = 1 << 20

// Submission is the JSON body posted by the scanner page.
type Submission struct {
	Data *string `json:"data"`
}

// ResultHandler accepts scan results posted by the scanner page.
// Implements the Handler interface for registration with a Router.
type ResultHandler struct {
	results *oneshot.Channel[string]
	logger  *log.Logger
}

// NewResultHandler creates a [ResultHandler] that publishes into results.
func NewResultHandler(results *oneshot.Channel[string], logger *log.Logger) *ResultHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ResultHandler{results: results, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *ResultHandler) Routes() []string {
	return []string{"/result"}
}

// ServeHTTP handles a result submission.
//
// A well-formed body is published to the result channel and acknowledged with "OK", whether or not an
// earlier submission already filled the channel. Malformed bodies get 400 and leave the channel untouched.
func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := DecodeSubmission(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	if err != nil {
		h.logger.Warn("rejected submission", "error", err)
		http.Error(w, "Malformed submission", http.StatusBadRequest)
		return
	}

	if h.results.Publish(payload) {
		h.logger.Debug("scan result received", "bytes", len(payload))
	} else {
		h.logger.Debug("duplicate submission ignored", "state", h.results.State())
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

// DecodeSubmission reads a single JSON object from r and returns its "data" field.
//
// Errors wrap [shared.ErrMalformedSubmission].
func DecodeSubmission(r io.Reader) (string, error) {
	var sub Submission
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sub); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrMalformedSubmission, err)
	}

	if dec.More() {
		return "", fmt.Errorf("%w: trailing data after JSON object", shared.ErrMalformedSubmission)
	}

	if sub.Data == nil {
		return "", fmt.Errorf("%w: missing \"data\" field", shared.ErrMalformedSubmission)
	}

	return *sub.Data, nil
}
