package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/dtx/internal/formatter"
	"github.com/desertthunder/dtx/internal/handshake"
	"github.com/desertthunder/dtx/internal/qr"
	"github.com/desertthunder/dtx/internal/shared"
	"github.com/desertthunder/dtx/internal/ui"
	"github.com/urfave/cli/v3"
)

// QRScan serves the scanner page, opens it in a browser and prints the first scanned payload.
func (r *Runner) QRScan(ctx context.Context, cmd *cli.Command) error {
	scanner := r.config.Scanner
	opts := handshake.Options{
		Host:        scanner.Host,
		Timeout:     scanner.Timeout,
		OpenBrowser: scanner.OpenBrowser,
		RateLimit:   scanner.RateLimit,
		Burst:       scanner.Burst,
		Logger:      r.logger,
	}

	if cmd.IsSet("timeout") {
		opts.Timeout = cmd.Duration("timeout")
		if opts.Timeout < 0 {
			return fmt.Errorf("%w: --timeout must not be negative", shared.ErrInvalidFlag)
		}
	}
	if cmd.Bool("no-browser") {
		opts.OpenBrowser = false
	}
	if cmd.IsSet("host") {
		opts.Host = cmd.String("host")
	}

	const waitLabel = "Waiting for a scan. Press Ctrl+C to cancel."
	opts.Notify = func(url string) {
		r.say(r.palette.Title("QR Scanner running at: %s", url))
		if !r.spinner {
			r.say(r.palette.Help(waitLabel))
		}
	}

	var waiting *ui.Spinner
	if r.spinner {
		opts.Waiting = func(string) {
			waiting = ui.StartSpinner(ctx, r.status, waitLabel)
		}
	}
	opts.Launch = func(url string) error {
		if err := r.browser(url); err != nil {
			r.say(r.palette.Warn("Failed to open browser: %v. Please open %s manually.", err, url))
			return err
		}
		return nil
	}

	payload, err := handshake.New(opts).Run(ctx)
	if waiting != nil {
		waiting.Stop()
	}
	if err != nil {
		if errors.Is(err, shared.ErrTimeout) {
			r.say(r.palette.Err("No QR code scanned within %s", opts.Timeout))
		}
		return err
	}

	return r.writePlain("%s\n", payload)
}

// QREncode renders INPUT as a PNG, or as text with --ascii.
//
// A single trailing newline is dropped from piped input so `echo text | dtx qr encode` encodes "text".
func (r *Runner) QREncode(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("input")
	content, err := shared.ReadInput(arg, r.input)
	if err != nil {
		return err
	}
	if arg == "" {
		content = strings.TrimSuffix(strings.TrimSuffix(content, "\n"), "\r")
	}

	levelName := r.config.QR.Level
	if cmd.IsSet("level") {
		levelName = cmd.String("level")
	}
	level, err := qr.ParseLevel(levelName)
	if err != nil {
		return err
	}

	if cmd.Bool("ascii") {
		text, err := qr.RenderText(content, level)
		if err != nil {
			return err
		}
		return r.writePlain("%s", text)
	}

	size := r.config.QR.Size
	if cmd.IsSet("size") {
		size = cmd.Int("size")
	}
	if size <= 0 {
		return fmt.Errorf("%w: --size must be positive", shared.ErrInvalidFlag)
	}

	png, err := qr.EncodePNG(content, level, size)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, png); err != nil {
			return err
		}
		r.say(r.palette.OK("QR code written to %s", path))
		return nil
	}

	return r.writeBytes(png)
}
