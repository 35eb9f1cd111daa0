package server

import (
	_ "embed"
	"net/http"
)

//go:embed scanner.html
var scannerPage []byte

// ScannerPage returns a copy of the embedded scanner document served on the root path.
func ScannerPage() []byte {
	return append([]byte(nil), scannerPage...)
}

// PageHandler serves the scanner document verbatim.
type PageHandler struct {
	body []byte
}

// NewPageHandler creates a [PageHandler] for the embedded scanner document.
func NewPageHandler() *PageHandler {
	return &PageHandler{body: scannerPage}
}

// ServeHTTP writes the scanner document with status 200.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(h.body)
}
