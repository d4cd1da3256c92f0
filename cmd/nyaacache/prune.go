package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/nyaacache/internal/database"
)

// errInvalidWindow is returned for a prune window that is not a
// non-negative number of seconds or a Go duration.
var errInvalidWindow = errors.New("invalid prune window: expected seconds (e.g. 86400) or a duration (e.g. 72h)")

// NewPruneCmd creates the prune command.
func NewPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune SECONDS",
		Short: "Delete queries not used within the given window",
		Long: `Prune deletes every query whose last search is at least SECONDS old,
then deletes every torrent no remaining query refers to.

SECONDS may also be written as a duration such as 72h or 30m.

Examples:
  # Forget queries not searched for a week
  nyaacache prune 604800

  # The same, as a duration
  nyaacache prune 168h`,
		Args: cobra.ExactArgs(1),
		RunE: runPruneCmd,
	}
}

// runPruneCmd executes the prune command.
func runPruneCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	window, err := parseWindow(args[0])
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg.Verbose)
	logConfig(logger, cfg)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	now := time.Now()
	logger.Debug("pruning", "window", window, "cutoff", now.Add(-window).Format(time.RFC3339))

	result, err := db.Prune(cmd.Context(), window, now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.NothingToPrune {
		fmt.Fprintln(out, "Nothing to prune")
		return nil
	}

	for _, q := range result.Queries {
		fmt.Fprintf(out, "Deleted query %q (last used %s)\n", q.Text, humanize.RelTime(q.LastUsed, now, "ago", "from now"))
	}
	fmt.Fprintf(out, "Deleted %s queries and %s torrents\n",
		humanize.Comma(int64(len(result.Queries))),
		humanize.Comma(result.TorrentsDeleted),
	)

	return nil
}

// parseWindow accepts whole seconds or a time.Duration string.
func parseWindow(s string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs < 0 || secs > math.MaxInt64/int64(time.Second) {
			return 0, errInvalidWindow
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errInvalidWindow
	}
	return d, nil
}
