package main

import (
	"context"

	"github.com/desertthunder/dtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the default configuration file to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("print") {
		return r.writeBytes(shared.ExampleConfig())
	}

	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.say(r.palette.OK("Config written to %s", path))
	return nil
}
