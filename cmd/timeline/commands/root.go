//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

// Package commands implements sub-commands of the timeline CLI.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/fogfish/timeline"
	"github.com/fogfish/timeline/depot/badger"
	"github.com/fogfish/timeline/depot/fs"
	"github.com/fogfish/timeline/depot/memory"
	"github.com/fogfish/timeline/encoding/json"
	"github.com/fogfish/timeline/internal/config"
	"github.com/spf13/cobra"
)

// Options shared by all commands
type Options struct {
	configPath string
}

// NewRootCommand creates the timeline command with all sub-commands
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Timeline of status segments built from point observations",
		Long: `Timeline maintains, per key, a compact set of maximal intervals tagged
with a status.

Commands:
  insert    Record status of timeline at timestamp
  segments  List stored segments of timeline
  bench     Measure insert rate of shuffled observations`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: .timeline.yaml in CWD or $HOME)")

	rootCmd.AddCommand(NewInsertCommand(opts))
	rootCmd.AddCommand(NewSegmentsCommand(opts))
	rootCmd.AddCommand(NewBenchCommand(opts))

	return rootCmd
}

// Backend is the configured timeline with its lifecycle
type Backend struct {
	Timeline *timeline.Timeline
	Logger   *slog.Logger
	close    func() error
}

// Close flushes and releases the backend
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func (opts *Options) open(cmd *cobra.Command) (*Backend, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	return OpenBackend(cfg, cfg.Logger(cmd.ErrOrStderr()))
}

// OpenBackend builds timeline on top of the configured depot
func OpenBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return openMemory(cfg.Memory, logger)
	case config.BackendBadger:
		return openBadger(cfg.Badger, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

func openMemory(cfg config.MemoryConfig, logger *slog.Logger) (*Backend, error) {
	if cfg.Dir == "" {
		kv, err := memory.New(nil, nil)
		if err != nil {
			return nil, err
		}

		return &Backend{
			Timeline: timeline.New(kv.Locked(), timeline.WithLogger(logger)),
			Logger:   logger,
		}, nil
	}

	file, err := fs.NewFile(cfg.Dir, 0o755)
	if err != nil {
		return nil, err
	}

	kv, err := memory.New(file, file)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Timeline: timeline.New(kv.Locked(), timeline.WithLogger(logger)),
		Logger:   logger,
		close:    kv.Sync,
	}, nil
}

func openBadger(cfg config.BadgerConfig, logger *slog.Logger) (*Backend, error) {
	bcfg := badger.DefaultConfig()
	bcfg.Path = cfg.Path
	bcfg.InMemory = cfg.InMemory
	bcfg.SyncWrites = cfg.SyncWrites
	bcfg.ConflictRetries = cfg.ConflictRetries
	bcfg.GCInterval = cfg.GCInterval
	bcfg.GCDiscardRatio = cfg.GCDiscardRatio
	bcfg.Logger = logger
	if cfg.Codec == config.CodecJSON {
		bcfg.Codec = json.Codec{}
	}

	depot, err := badger.Open(bcfg)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Timeline: timeline.New(depot, timeline.WithLogger(logger)),
		Logger:   logger,
		close:    depot.Close,
	}, nil
}
