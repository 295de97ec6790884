package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal/docservice"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create today's request log document for a project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project slug or name", Required: true},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Document title (defaults to '<slug> request log')"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			doc, err := env.svc.CreateDocument(ctx, cmd.String("project"), cmd.String("title"))
			if err != nil {
				return err
			}
			return render(cmd, doc, func() {
				fmt.Printf("created %s (%s)\n", doc.DocID, doc.Path)
			})
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Capture an item into a project's document for today, creating the document if needed",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project slug or name", Required: true},
			&cli.StringFlag{Name: "type", Usage: "Item type (e.g. bug, enhancement)"},
			&cli.StringFlag{Name: "domain", Usage: "Affected domain"},
			&cli.StringFlag{Name: "context", Usage: "Usage context"},
			&cli.StringFlag{Name: "priority", Usage: "Priority level"},
			&cli.StringFlag{Name: "status", Usage: "Workflow status"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Free-form notes"},
			&cli.StringSliceFlag{Name: "tag", Usage: "Item tag (repeatable)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			title := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if title == "" {
				return fmt.Errorf("item title is required")
			}
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			doc, err := env.svc.CaptureItem(ctx, cmd.String("project"), models.ItemDraft{
				Title:    title,
				Type:     cmd.String("type"),
				Domain:   cmd.String("domain"),
				Context:  cmd.String("context"),
				Priority: cmd.String("priority"),
				Status:   cmd.String("status"),
				Notes:    cmd.String("notes"),
				Tags:     cmd.StringSlice("tag"),
			})
			if err != nil {
				return err
			}
			last := doc.Items[len(doc.Items)-1]
			return render(cmd, doc, func() {
				fmt.Printf("appended %s to %s\n", last.ID, doc.DocID)
			})
		},
	}
}

func lsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ls",
		Usage: "List request log documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Filter by project"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by document tag"},
			&cli.StringFlag{Name: "type", Usage: "Filter by item type"},
			&cli.StringFlag{Name: "sort", Usage: "Sort field: updated_at, created_at, title, or path"},
			&cli.IntFlag{Name: "limit", Usage: "Page size", Value: 50},
			&cli.IntFlag{Name: "offset", Usage: "Page offset"},
			&cli.StringFlag{Name: "group-by", Usage: "Group table output: project"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			docs, total, err := env.svc.ListDocuments(ctx, index.ListQuery{
				Project: cmd.String("project"),
				Tag:     cmd.String("tag"),
				Type:    cmd.String("type"),
				Sort:    cmd.String("sort"),
				Limit:   int(cmd.Int("limit")),
				Offset:  int(cmd.Int("offset")),
			})
			if err != nil {
				return err
			}

			payload := map[string]any{"docs": docs, "total": total}
			return render(cmd, payload, func() {
				if cmd.String("group-by") == "project" {
					printDocsGrouped(docs)
				} else {
					printDocsTable(docs)
				}
				fmt.Printf("%d of %d documents\n", len(docs), total)
			})
		},
	}
}

func printDocsTable(docs []index.DocRow) {
	tw := newTable()
	fmt.Fprintln(tw, "DOC ID\tPROJECT\tITEMS\tUPDATED\tTITLE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			d.DocID, d.ProjectID, d.ItemCount, d.UpdatedAt.Format("2006-01-02 15:04"), d.Title)
	}
	tw.Flush()
}

func printDocsGrouped(docs []index.DocRow) {
	groups := make(map[string][]index.DocRow)
	var order []string
	for _, d := range docs {
		if _, ok := groups[d.ProjectID]; !ok {
			order = append(order, d.ProjectID)
		}
		groups[d.ProjectID] = append(groups[d.ProjectID], d)
	}
	for _, project := range order {
		fmt.Printf("%s:\n", project)
		for _, d := range groups[project] {
			fmt.Printf("  %s  %2d items  %s\n", d.DocID, d.ItemCount, d.UpdatedAt.Format("2006-01-02 15:04"))
		}
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a document and its items",
		ArgsUsage: "<doc-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			docID := cmd.Args().First()
			if docID == "" {
				return fmt.Errorf("document ID is required")
			}
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer env.Close()

			doc, err := env.svc.GetDocument(ctx, docID)
			if err != nil {
				return err
			}
			return render(cmd, doc, func() { printDoc(doc) })
		},
	}
}

func printDoc(doc *docservice.DocDetail) {
	fmt.Printf("%s\n", doc.DocID)
	fmt.Printf("  title:    %s\n", doc.Title)
	fmt.Printf("  project:  %s\n", doc.ProjectID)
	fmt.Printf("  items:    %d\n", doc.ItemCount)
	if len(doc.Tags) > 0 {
		fmt.Printf("  tags:     %s\n", strings.Join(doc.Tags, ", "))
	}
	fmt.Printf("  created:  %s\n", doc.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  updated:  %s\n", doc.UpdatedAt.Format(time.RFC3339))
	for _, it := range doc.Items {
		fmt.Printf("\n  %s [%s/%s] %s\n", it.ID, it.Type, it.Priority, it.Title)
		fmt.Printf("    status: %s  domain: %s  context: %s\n", it.Status, it.Domain, it.Context)
		if len(it.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(it.Tags, ", "))
		}
		if it.Notes != "" {
			for _, line := range strings.Split(it.Notes, "\n") {
				fmt.Printf("    | %s\n", line)
			}
		}
	}
}
