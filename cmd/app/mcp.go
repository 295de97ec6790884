package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal/mcpserver"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdin/stdout for LLM integration",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			return mcpserver.New(env.svc, env.reg).ServeStdio()
		},
	}
}
