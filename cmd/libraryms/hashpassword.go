// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/lahmamsi/librarymanagement/internal/auth"
)

var hashFlagKeys = map[string]string{
	"hasher": "auth.hasher",
	"cost":   "auth.bcrypt_cost",
}

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from standard input",
		Long: `Hash the first line of standard input with the configured algorithm
and print the encoded hash, for seeding accounts by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, hashFlagKeys)
			if err != nil {
				return err
			}
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			hasher, err := auth.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}

	cmd.Flags().String("hasher", "", "hash algorithm (bcrypt or argon2id)")
	cmd.Flags().Int("cost", 0, "bcrypt cost")
	return cmd
}
