// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lahmamsi/librarymanagement/internal/config"
	"github.com/lahmamsi/librarymanagement/internal/logging"
)

// serviceName labels log records.
const serviceName = "libraryms"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the libraryms CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libraryms",
		Short: "libraryms - library management service",
		Long: `libraryms manages library staff accounts. It authenticates librarians
by email and password, issues bearer tokens, and stores accounts in PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewLibrarianCmd())
	cmd.AddCommand(NewHashPasswordCmd())
	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(cmd.Root().Version)
		},
	}
}

// loadConfig merges the config file, environment, and the flags named in
// flagKeys, then validates the result.
func loadConfig(cmd *cobra.Command, flagKeys map[string]string) (*config.Config, error) {
	cfg, err := config.NewLoader().Load(configFile, cmd.Flags(), flagKeys)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds a logger that writes to w using the configured format.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logging.Setup(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Output:  w,
	})
}
