package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/uglyfeed/uglyfeed/internal/logging"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/config"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store/memstore"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store/sqlite"
)

// loadEnvFile exports the variables of an env file without replacing
// variables already set. A missing default file is ignored.
func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	return err
}

// loadConfig merges file, environment and flags, in rising priority.
// A missing file is only an error when it was named explicitly.
func loadConfig(cmd *cobra.Command, lookup config.LookupFunc) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("similarity_threshold") {
		v, err := flags.GetFloat64("similarity_threshold")
		if err != nil {
			return err
		}
		cfg.SimilarityThreshold = v
	}
	if changed("eps") {
		v, err := flags.GetFloat64("eps")
		if err != nil {
			return err
		}
		cfg.SimilarityOptions.Eps = &v
	}
	if changed("min_samples") {
		v, err := flags.GetInt("min_samples")
		if err != nil {
			return err
		}
		cfg.SimilarityOptions.MinSamples = &v
	}
	if changed("min_group_size") {
		v, err := flags.GetInt("min_group_size")
		if err != nil {
			return err
		}
		cfg.MinGroupSize = v
	}
	if changed("output_dir") {
		v, err := flags.GetString("output_dir")
		if err != nil {
			return err
		}
		cfg.Folders.OutputFolder = v
	}
	if changed("input_feeds_path") {
		v, err := flags.GetString("input_feeds_path")
		if err != nil {
			return err
		}
		cfg.Fetch.FeedsFile = v
	}
	if changed("log-level") {
		v, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.Logging.Level = v
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
}

// openLedger opens the SQLite ledger, or an in-memory one when no path
// is configured.
func openLedger(cmd *cobra.Command, cfg *config.Config) (store.Store, error) {
	if cfg.Storage.LedgerPath == "" {
		return memstore.New(), nil
	}
	st, err := sqlite.OpenSQLite(cmd.Context(), cfg.Storage.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", cfg.Storage.LedgerPath, err)
	}
	return st, nil
}
