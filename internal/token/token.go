// Package token decodes, signs and verifies HMAC JSON Web Tokens.
package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/dtx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Decoded holds the parts of a token read without signature verification.
type Decoded struct {
	Header map[string]any
	Claims jwt.MapClaims
}

// Verification is the outcome of checking a token's signature and time claims.
//
// A token that fails verification is reported through Valid and Err, not as a function error.
type Verification struct {
	Valid  bool
	Claims jwt.MapClaims
	Err    error
}

// EncodeOpts configures [Encode].
type EncodeOpts struct {
	Algorithm string
	Secret    []byte
	ExpiresIn time.Duration // adds an exp claim when positive
	Now       func() time.Time
}

// ParseAlgorithm resolves HS256, HS384 or HS512 (case-insensitive).
func ParseAlgorithm(name string) (*jwt.SigningMethodHMAC, error) {
	alg, ok := shared.CanonicalAlgorithm(name)
	if !ok {
		return nil, fmt.Errorf("%w: algorithm %q", shared.ErrUnsupported, name)
	}

	switch alg {
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return jwt.SigningMethodHS256, nil
	}
}

// Decode parses a token without verifying its signature.
func Decode(tokenString string) (*Decoded, error) {
	parser := jwt.NewParser(jwt.WithJSONNumber())
	tok, _, err := parser.ParseUnverified(strings.TrimSpace(tokenString), jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type %T", shared.ErrInvalidInput, tok.Claims)
	}

	return &Decoded{Header: tok.Header, Claims: claims}, nil
}

// Encode signs the JSON object in payload.
func Encode(payload string, opts EncodeOpts) (string, error) {
	method, err := ParseAlgorithm(opts.Algorithm)
	if err != nil {
		return "", err
	}
	if len(opts.Secret) == 0 {
		return "", fmt.Errorf("%w: secret", shared.ErrMissingArgument)
	}

	claims := jwt.MapClaims{}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return "", fmt.Errorf("%w: payload must be a JSON object: %v", shared.ErrInvalidInput, err)
	}
	if dec.More() {
		return "", fmt.Errorf("%w: trailing data after payload object", shared.ErrInvalidInput)
	}
	if claims == nil {
		return "", fmt.Errorf("%w: payload must be a JSON object", shared.ErrInvalidInput)
	}

	if opts.ExpiresIn > 0 {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		claims["exp"] = now().Add(opts.ExpiresIn).Unix()
	}

	signed, err := jwt.NewWithClaims(method, claims).SignedString(opts.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature with secret and validates exp, nbf and iat when present.
//
// The returned error is only non-nil when the algorithm or secret is unusable.
func Verify(tokenString, algorithm string, secret []byte) (*Verification, error) {
	method, err := ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret", shared.ErrMissingArgument)
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{method.Alg()}), jwt.WithJSONNumber())
	tok, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), jwt.MapClaims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return &Verification{Valid: false, Err: err}, nil
	}

	claims, _ := tok.Claims.(jwt.MapClaims)
	return &Verification{Valid: tok.Valid, Claims: claims}, nil
}
