package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/nyaacache/internal/config"
	"github.com/nao1215/nyaacache/internal/log"
)

// Process exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitNoDBPath = 2
)

// Global flag names.
const (
	configFlagName  = "config"
	dbDirFlagName   = "db-dir"
	verboseFlagName = "verbose"
	logJSONFlagName = "log-json"
)

// NewRootCmd creates the root command for nyaacache.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nyaacache",
		Short: "Incremental torrent listing crawler with a local SQLite cache",
		Long: `nyaacache searches a torrent listing site (nyaa.si by default), stores every
result per query in a local SQLite database, and prints the accumulated
results as JSON lines, TSV, length-prefixed binary frames or Markdown.

Searching the same query again only fetches pages until the newest torrent
already in the cache is reached.

The database directory is taken from --db-dir, then the DB_PATH
environment variable, then dbPath in the configuration file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP(verboseFlagName, "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool(logJSONFlagName, false, "Write logs as JSON")
	cmd.PersistentFlags().String(dbDirFlagName, "", "Database directory (overrides DB_PATH and dbPath)")
	cmd.PersistentFlags().String(configFlagName, "",
		"Configuration file path (default: .nyaacache in current dir, XDG config dir, or home)")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewPruneCmd())
	cmd.AddCommand(NewListCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
// SIGINT and SIGTERM cancel the command's context.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "nyaacache: %v\n", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrDBPathNotSet):
		return exitNoDBPath
	default:
		return exitError
	}
}

// loadConfig builds the configuration shared by every command: defaults,
// then the config file, then DB_PATH, then the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	explicitPath, err := cmd.Flags().GetString(configFlagName)
	if err != nil {
		return nil, err
	}

	if path := config.FindConfigFile(explicitPath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(file)
		cfg.ConfigFilePath = path
	} else if explicitPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
	}

	cfg.ApplyEnv()

	dbDir, err := cmd.Flags().GetString(dbDirFlagName)
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose, err = cmd.Flags().GetBool(verboseFlagName)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// logConfig records where the configuration came from.
func logConfig(logger *slog.Logger, cfg *config.Config) {
	source := cfg.ConfigFilePath
	if source == "" {
		source = "none"
	}
	logger.Debug("configuration loaded", "config_file", source, "db_dir", cfg.DBDir)
}

// newLogger creates the command logger on the command's stderr.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if asJSON, err := cmd.Flags().GetBool(logJSONFlagName); err == nil && asJSON {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}
