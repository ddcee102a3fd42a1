// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/lahmamsi/librarymanagement/internal/auth"
	"github.com/lahmamsi/librarymanagement/internal/config"
	"github.com/lahmamsi/librarymanagement/internal/librarian"
	"github.com/lahmamsi/librarymanagement/internal/librarian/postgres"
	"github.com/lahmamsi/librarymanagement/internal/store"
	"github.com/lahmamsi/librarymanagement/internal/web"
)

// throttlePruneInterval controls how often expired lockout entries are dropped.
const throttlePruneInterval = time.Minute

// serveFlagKeys maps serve flags to config keys.
var serveFlagKeys = map[string]string{
	"addr":         "server.addr",
	"metrics-addr": "metrics.addr",
	"auto-migrate": "database.auto_migrate",
	"log-format":   "log.format",
	"log-level":    "log.level",
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmd(nil)
}

func newServeCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API that authenticates librarians and manages their
accounts, together with the metrics and health listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, serveFlagKeys)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd, deps)
		},
	}

	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations before serving")
	cmd.Flags().String("log-format", "", "log format (json or text)")
	cmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")

	return cmd
}

// runServe wires the service together and blocks until a shutdown signal,
// a server failure, or ctx cancellation.
func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *Deps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("starting libraryms",
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"hasher", cfg.Auth.Hasher,
		"open_registration", cfg.Server.OpenRegistration,
	)

	if cfg.Database.AutoMigrate {
		if err := autoMigrate(cfg.Database.URL, deps, logger); err != nil {
			return err
		}
	}

	pool, err := deps.PoolFactory(ctx, store.PoolConfig{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, logger)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()

	hasher, err := auth.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	slots, err := auth.NewHashSlots(cfg.Auth.MaxConcurrentHashes)
	if err != nil {
		return err
	}

	repo := postgres.NewLibrarianRepository(pool)
	librarians, err := librarian.NewService(repo, hasher, logger, librarian.WithHashSlots(slots))
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.JWTIssuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	obsServer := deps.ObservabilityServerFactory(cfg.Metrics.Addr, func(ctx context.Context) error {
		return store.Ping(ctx, pool)
	}, logger)

	authOpts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithTokenManager(tokens),
		auth.WithPasswordUpgrader(librarians),
		auth.WithAttemptRecorder(obsServer.Metrics()),
		auth.WithHashSlots(slots),
	}
	var throttle *auth.Throttle
	if lockout := cfg.Lockout(); lockout != nil {
		throttle = auth.NewThrottle(*lockout)
		authOpts = append(authOpts, auth.WithThrottle(throttle))
	}

	authn, err := auth.NewService(librarian.NewCredentialLookup(repo), hasher, authOpts...)
	if err != nil {
		return err
	}

	handler, err := web.NewHandler(web.Options{
		Auth:             authn.Manager(),
		Librarians:       librarians,
		Metrics:          obsServer.Metrics(),
		Logger:           logger,
		CORSOrigins:      cfg.Server.CORSOrigins,
		OpenRegistration: cfg.Server.OpenRegistration,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
	}

	listener, err := deps.ListenerFactory("tcp", cfg.Server.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("LISTEN_FAILED").With("addr", cfg.Server.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	if throttle != nil {
		go pruneThrottle(ctx, throttle, throttlePruneInterval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Printf("libraryms listening on %s\n", listener.Addr())
	logger.Info("api server ready", "addr", listener.Addr().String())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		runErr = oops.Code("SERVE_FAILED").Wrap(err)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping observability server", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

// autoMigrate applies pending migrations before the pool opens.
func autoMigrate(databaseURL string, deps *Deps, logger *slog.Logger) error {
	migrator, err := deps.MigratorFactory(databaseURL, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Info("database schema up to date", "version", version)
	return nil
}

func stopObservability(s ObservabilityServer, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// pruneThrottle drops expired lockout entries until ctx is done.
func pruneThrottle(ctx context.Context, t *auth.Throttle, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Prune()
		case <-ctx.Done():
			return
		}
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when an error arrives, the channel closes, or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
