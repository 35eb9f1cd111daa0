package main

import (
	"context"

	"github.com/desertthunder/dtx/internal/formatter"
	"github.com/desertthunder/dtx/internal/ids"
	"github.com/desertthunder/dtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// UUIDGen prints a new UUID of the requested version.
func (r *Runner) UUIDGen(ctx context.Context, cmd *cli.Command) error {
	id, err := ids.Generate(ids.GenerateOpts{
		Version:   cmd.Int("version"),
		Namespace: cmd.String("namespace"),
		Name:      cmd.String("name"),
	})
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", id)
}

// UUIDParse prints the details encoded in a UUID.
func (r *Runner) UUIDParse(ctx context.Context, cmd *cli.Command) error {
	input, err := shared.ReadInput(cmd.StringArg("input"), r.input)
	if err != nil {
		return err
	}

	details, err := ids.Inspect(input)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.ToUUIDDetails(details), false)
	}
	return r.writeBytes(formatter.UUIDToText(details))
}
