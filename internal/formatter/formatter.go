// package formatter renders command results (decoded tokens, verification outcomes, UUID details) as text or JSON
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/dtx/internal/ids"
	"github.com/desertthunder/dtx/internal/token"
)

// MarshalJSON encodes v, indenting with two spaces when pretty is set. Map keys come out sorted.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// DecodedToText prints the header and claims of an unverified token as labelled, indented JSON.
func DecodedToText(d *token.Decoded) ([]byte, error) {
	var buf bytes.Buffer

	header, err := MarshalJSON(d.Header, true)
	if err != nil {
		return nil, fmt.Errorf("failed to format header: %w", err)
	}
	claims, err := MarshalJSON(d.Claims, true)
	if err != nil {
		return nil, fmt.Errorf("failed to format payload: %w", err)
	}

	buf.WriteString(fmt.Sprintf("Header: %s\n", header))
	buf.WriteString(fmt.Sprintf("Payload: %s\n", claims))
	return buf.Bytes(), nil
}

// VerificationToText prints whether a token verified, followed by its payload or the failure reason.
func VerificationToText(v *token.Verification) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Valid: %t\n", v.Valid))
	if !v.Valid {
		reason := "signature is invalid"
		if v.Err != nil {
			reason = v.Err.Error()
		}
		buf.WriteString(fmt.Sprintf("Error: %s\n", reason))
		return buf.Bytes(), nil
	}

	claims, err := MarshalJSON(v.Claims, true)
	if err != nil {
		return nil, fmt.Errorf("failed to format payload: %w", err)
	}
	buf.WriteString(fmt.Sprintf("Payload: %s\n", claims))
	return buf.Bytes(), nil
}

// UUIDToText prints the version, variant and, for time-based UUIDs, the embedded timestamp.
func UUIDToText(d *ids.Details) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("UUID: %s\n", d.UUID))
	buf.WriteString(fmt.Sprintf("Version: %s\n", ids.VersionName(d.Version)))
	buf.WriteString(fmt.Sprintf("Variant: %s\n", d.Variant))
	if d.Timestamp != nil {
		buf.WriteString(fmt.Sprintf("Timestamp: %d seconds, %d nanoseconds\n", d.Timestamp.Unix(), d.Timestamp.Nanosecond()))
	}
	buf.WriteString("Valid: true\n")

	return buf.Bytes()
}

// UUIDDetails is the JSON shape of [ids.Details].
type UUIDDetails struct {
	UUID      string `json:"uuid"`
	Version   int    `json:"version"`
	Variant   string `json:"variant"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ToUUIDDetails converts d for JSON output, formatting any timestamp as RFC 3339 with nanoseconds.
func ToUUIDDetails(d *ids.Details) UUIDDetails {
	out := UUIDDetails{UUID: d.UUID.String(), Version: d.Version, Variant: d.Variant}
	if d.Timestamp != nil {
		out.Timestamp = d.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00")
	}
	return out
}

// WriteFile writes data to path, creating missing parent directories.
func WriteFile(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("empty output path")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
