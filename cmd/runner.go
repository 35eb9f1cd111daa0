package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dtx/internal/handshake"
	"github.com/desertthunder/dtx/internal/shared"
	"github.com/desertthunder/dtx/internal/ui"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Results are written to output; progress and status lines go to status so that output stays pipeable.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	status  io.Writer
	input   io.Reader
	browser handshake.Launcher
	palette *ui.Palette
	spinner bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Logger  *log.Logger
	Output  io.Writer
	Status  io.Writer
	Input   io.Reader
	Browser handshake.Launcher
	Spinner bool // animate waits on Status even when it is not a terminal
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		status:  opts.Status,
		input:   opts.Input,
		browser: opts.Browser,
		palette: ui.Default(),
		spinner: opts.Spinner || ui.IsTerminal(opts.Status),
	}
}

// app builds the root command. Its Before hook loads the config file named by --config.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "dtx",
		Usage:   "Developer toolbox: QR scan and encode, JWT and UUID helpers",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "dtx.toml",
				Sources: cli.EnvVars("DTX_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.ResolveConfig(path)
	if err != nil {
		return ctx, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	r.config = config

	level, err := shared.ParseLogLevel(config.Log.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	r.logger.Debug("config resolved", "path", path, "level", level)

	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		qrCommand, jwtCommand, uuidCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return append(commands, legacyCommands(r)...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// say writes a status line to the status writer.
func (r *Runner) say(line string) {
	fmt.Fprintln(r.status, line)
}
