package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"evokit/internal/storage"
	"evokit/pkg/evokit"
)

type globalFlags struct {
	store    string
	dbPath   string
	logLevel string
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "evokitctl",
		Short:         "Run and inspect evolutionary optimisation experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&flags.store, "store", storage.DefaultKind(), "store backend: memory|sqlite")
	root.PersistentFlags().StringVar(&flags.dbPath, "db-path", "evokit.db", "sqlite database path")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug|info|warn|error")

	root.AddCommand(
		newRunCommand(flags),
		newRunsCommand(flags),
		newSummariesCommand(flags),
		newPopulationCommand(flags),
		newExportCommand(flags),
		newOperatorsCommand(),
	)
	return root
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

func (f *globalFlags) logger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := parseLevel(f.logLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

func (f *globalFlags) client(cmd *cobra.Command, opts evokit.Options) (*evokit.Client, error) {
	logger, err := f.logger(cmd)
	if err != nil {
		return nil, err
	}
	opts.StoreKind = f.store
	opts.DBPath = f.dbPath
	opts.Logger = logger
	return evokit.New(opts)
}
