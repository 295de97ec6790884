package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

func projectCommand() *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Manage the project registry",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Register a new project",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("project name is required")
					}
					env, err := openEnv(cmd)
					if err != nil {
						return err
					}
					defer env.Close()

					p, err := env.reg.AddProject(name, time.Now)
					if err != nil {
						return err
					}
					return render(cmd, p, func() {
						fmt.Printf("registered project %s (%s)\n", p.ID, p.Name)
					})
				},
			},
			{
				Name:  "ls",
				Usage: "List registered projects",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					env, err := openEnv(cmd)
					if err != nil {
						return err
					}
					defer env.Close()

					projects := env.reg.Projects()
					return render(cmd, projects, func() {
						tw := newTable()
						fmt.Fprintln(tw, "ID\tNAME\tCREATED")
						for _, p := range projects {
							fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format(time.RFC3339))
						}
						tw.Flush()
					})
				},
			},
		},
	}
}
