package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/nyaacache/internal/database"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached queries",
		Long: `List prints every cached query with its ID and when it was first and last
searched, most recently used first. Use it to choose a prune window.`,
		Args: cobra.NoArgs,
		RunE: runListCmd,
	}
}

// runListCmd executes the list command.
func runListCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	logConfig(newLogger(cmd, cfg.Verbose), cfg)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	queries, err := db.ListQueries(cmd.Context())
	if err != nil {
		return err
	}

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	if len(queries) == 0 {
		md.PlainText("No cached queries.")
		return md.Build()
	}

	now := time.Now()
	rows := make([][]string, 0, len(queries))
	for _, q := range queries {
		rows = append(rows, []string{
			strconv.FormatInt(q.ID, 10),
			q.Text,
			humanize.RelTime(q.LastUsed, now, "ago", "from now"),
			q.Created.Format(time.DateTime),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Query", "Last used", "Created"},
		Rows:   rows,
	})
	return md.Build()
}
