// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/config"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/internal/librarian/postgres"
	"github.com/lahmamsi/librarymanagement/internal/store"
)

// NewLibrarianCmd creates the librarian subcommand.
func NewLibrarianCmd() *cobra.Command {
	return newLibrarianCmd(nil)
}

func newLibrarianCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "librarian",
		Short: "Manage librarian accounts",
	}
	cmd.AddCommand(newLibrarianCreateCmd(deps))
	cmd.AddCommand(newLibrarianListCmd(deps))
	return cmd
}

func newLibrarianCreateCmd(deps *Deps) *cobra.Command {
	var in librarian.RegisterInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a librarian account",
		Long: `Create a librarian account. The password is read from the first line
of standard input so it never appears in the process list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			in.Password = password

			return withLibrarians(cmd, deps, func(ctx context.Context, svc *librarian.Service) error {
				l, err := svc.Register(ctx, in)
				if err != nil {
					return err
				}
				cmd.Printf("Created librarian %d <%s>\n", l.ID, l.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.PhoneNumber, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("first-name") //nolint:errcheck // flag defined above
	_ = cmd.MarkFlagRequired("last-name")  //nolint:errcheck // flag defined above
	_ = cmd.MarkFlagRequired("email")      //nolint:errcheck // flag defined above

	return cmd
}

func newLibrarianListCmd(deps *Deps) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List librarian accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLibrarians(cmd, deps, func(ctx context.Context, svc *librarian.Service) error {
				all, err := svc.List(ctx, limit, offset)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE")
				for _, d := range librarian.ToDTOs(all) {
					fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\n", d.ID, d.FirstName, d.LastName, d.Email, d.PhoneNumber)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

// withLibrarians opens the database and hands fn a librarian service.
func withLibrarians(cmd *cobra.Command, deps *Deps, fn func(context.Context, *librarian.Service) error) error {
	deps = deps.withDefaults()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	pool, err := deps.PoolFactory(ctx, poolConfig(cfg), logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, err := librarianService(cfg, pool, logger)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func poolConfig(cfg *config.Config) store.PoolConfig {
	return store.PoolConfig{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}
}

func librarianService(cfg *config.Config, pool Pool, logger *slog.Logger) (*librarian.Service, error) {
	hasher, err := auth.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	return librarian.NewService(postgres.NewLibrarianRepository(pool), hasher, logger)
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("INPUT_FAILED").Wrapf(err, "read password")
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", oops.Code("INPUT_FAILED").Errorf("password must be supplied on standard input")
	}
	return password, nil
}
