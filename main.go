package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stevemurr/school-console/config"
	"github.com/stevemurr/school-console/store"
)

// app carries what every subcommand needs once the root pre-run is done.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	backend  string
	dataDir  string
	seedFile string
}

func main() {
	if err := newRootCommand(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "school-console",
		Short:        "School administration console backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.backend, "backend", "", "storage backend: json, sqlite, bolt or memory (overrides STORE_BACKEND)")
	flags.StringVar(&a.dataDir, "data-dir", "", "backend data directory (overrides DATA_DIR)")
	flags.StringVar(&a.seedFile, "seed-file", "", "YAML or JSON seed file (overrides SEED_FILE)")

	cmd.AddCommand(
		newServeCommand(a),
		newSeedCommand(a),
		newKeysCommand(a),
		newDumpCommand(a),
		newDropCommand(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.ParseEnv()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = a.backend
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("seed-file") {
		cfg.SeedFile = a.seedFile
	}
	a.cfg = cfg

	if a.logger, err = newLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openStore opens the configured backend, wrapped in a quota when one is set.
// The returned func releases it.
func (a *app) openStore() (store.Store, func(), error) {
	s, err := store.New(a.cfg.Backend, a.cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("create store (backend=%s): %w", a.cfg.Backend, err)
	}
	if a.cfg.QuotaBytes > 0 {
		s = store.NewQuotaStore(s, a.cfg.QuotaBytes)
	}
	closeFn := func() {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				a.logger.Warn("Failed to close store", zap.Error(err))
			}
		}
	}
	return s, closeFn, nil
}
