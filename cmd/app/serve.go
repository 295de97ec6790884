package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server with REST API, SSE events, and file watcher",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}
