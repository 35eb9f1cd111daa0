// Package ids generates and inspects UUIDs.
package ids

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/dtx/internal/shared"
	"github.com/google/uuid"
)

// Details describes a parsed UUID.
type Details struct {
	UUID      uuid.UUID
	Version   int
	Variant   string
	Timestamp *time.Time // set for time-based versions 1 and 7
}

// GenerateOpts selects the UUID version and, for version 5, its namespace and name.
type GenerateOpts struct {
	Version   int
	Namespace string
	Name      string
}

// Generate creates a UUID of the requested version (1, 4, 5 or 7).
func Generate(opts GenerateOpts) (uuid.UUID, error) {
	switch opts.Version {
	case 1:
		return uuid.NewUUID()
	case 0, 4:
		return uuid.NewRandom()
	case 5:
		if opts.Namespace == "" {
			return uuid.Nil, fmt.Errorf("%w: namespace is required for v5", shared.ErrMissingArgument)
		}
		if opts.Name == "" {
			return uuid.Nil, fmt.Errorf("%w: name is required for v5", shared.ErrMissingArgument)
		}
		ns, err := ParseNamespace(opts.Namespace)
		if err != nil {
			return uuid.Nil, err
		}
		return uuid.NewSHA1(ns, []byte(opts.Name)), nil
	case 7:
		return uuid.NewV7()
	default:
		return uuid.Nil, fmt.Errorf("%w: uuid version %d", shared.ErrUnsupported, opts.Version)
	}
}

// ParseNamespace resolves one of the well-known namespace names: dns, url, oid or x500.
func ParseNamespace(name string) (uuid.UUID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dns":
		return uuid.NameSpaceDNS, nil
	case "url":
		return uuid.NameSpaceURL, nil
	case "oid":
		return uuid.NameSpaceOID, nil
	case "x500":
		return uuid.NameSpaceX500, nil
	default:
		return uuid.Nil, fmt.Errorf("%w: namespace %q, use dns, url, oid, or x500", shared.ErrInvalidArgument, name)
	}
}

// Inspect parses s and reports its version, variant and, where encoded, its timestamp.
func Inspect(s string) (*Details, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	details := &Details{
		UUID:    id,
		Version: int(id.Version()),
		Variant: VariantName(id.Variant()),
	}

	switch details.Version {
	case 1:
		sec, nsec := id.Time().UnixTime()
		ts := time.Unix(sec, nsec).UTC()
		details.Timestamp = &ts
	case 7:
		var buf [8]byte
		copy(buf[2:], id[:6])
		ts := time.UnixMilli(int64(binary.BigEndian.Uint64(buf[:]))).UTC()
		details.Timestamp = &ts
	}

	return details, nil
}

// VersionName labels a UUID version number.
func VersionName(version int) string {
	switch version {
	case 1:
		return "1 (Timestamp and MAC)"
	case 2:
		return "2 (DCE Security)"
	case 3:
		return "3 (MD5 hash)"
	case 4:
		return "4 (Random)"
	case 5:
		return "5 (SHA-1 hash)"
	case 6:
		return "6 (Reordered timestamp)"
	case 7:
		return "7 (Unix timestamp)"
	case 8:
		return "8 (Custom)"
	default:
		return fmt.Sprintf("%d (Unknown)", version)
	}
}

// VariantName labels a UUID variant.
func VariantName(v uuid.Variant) string {
	switch v {
	case uuid.Reserved:
		return "NCS"
	case uuid.RFC4122:
		return "RFC 4122"
	case uuid.Microsoft:
		return "Microsoft"
	case uuid.Future:
		return "Future"
	default:
		return "Unknown"
	}
}
