package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/dtx/internal/formatter"
	"github.com/desertthunder/dtx/internal/shared"
	"github.com/desertthunder/dtx/internal/token"
	"github.com/urfave/cli/v3"
)

// JWTDecode prints a token's header and payload without checking its signature.
func (r *Runner) JWTDecode(ctx context.Context, cmd *cli.Command) error {
	input, err := shared.ReadInput(cmd.StringArg("input"), r.input)
	if err != nil {
		return err
	}

	decoded, err := token.Decode(input)
	if err != nil {
		return fmt.Errorf("failed to decode token: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"header": decoded.Header, "payload": decoded.Claims}, false)
	}

	text, err := formatter.DecodedToText(decoded)
	if err != nil {
		return err
	}
	return r.writeBytes(text)
}

// JWTEncode signs the JSON object given as INPUT and prints the token.
func (r *Runner) JWTEncode(ctx context.Context, cmd *cli.Command) error {
	input, err := shared.ReadInput(cmd.StringArg("input"), r.input)
	if err != nil {
		return err
	}

	algorithm, secret := r.jwtKey(cmd)
	opts := token.EncodeOpts{Algorithm: algorithm, Secret: secret}
	if exp := cmd.Int("exp"); exp != 0 {
		if exp < 0 {
			return fmt.Errorf("%w: --exp must be positive", shared.ErrInvalidFlag)
		}
		opts.ExpiresIn = time.Duration(exp) * time.Second
	}

	signed, err := token.Encode(input, opts)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return r.writePlain("%s\n", signed)
}

// JWTVerify checks a token's signature and time claims.
//
// A token that fails verification is reported in the output; only unusable keys are command errors.
func (r *Runner) JWTVerify(ctx context.Context, cmd *cli.Command) error {
	input, err := shared.ReadInput(cmd.StringArg("input"), r.input)
	if err != nil {
		return err
	}

	algorithm, secret := r.jwtKey(cmd)
	result, err := token.Verify(input, algorithm, secret)
	if err != nil {
		return fmt.Errorf("failed to verify token: %w", err)
	}
	r.logger.Debug("token verified", "valid", result.Valid, "algorithm", algorithm)

	if cmd.Bool("json") {
		out := map[string]any{"valid": result.Valid}
		if result.Valid {
			out["payload"] = result.Claims
		} else if result.Err != nil {
			out["error"] = result.Err.Error()
		}
		return r.writeJSON(out, false)
	}

	text, err := formatter.VerificationToText(result)
	if err != nil {
		return err
	}
	return r.writeBytes(text)
}

// jwtKey resolves the algorithm and secret from flags, falling back to the [jwt] config section.
func (r *Runner) jwtKey(cmd *cli.Command) (string, []byte) {
	algorithm := r.config.JWT.Algorithm
	if cmd.IsSet("algorithm") {
		algorithm = cmd.String("algorithm")
	}

	secret := r.config.JWT.Secret
	if cmd.IsSet("secret") {
		secret = cmd.String("secret")
	}
	return algorithm, []byte(secret)
}
