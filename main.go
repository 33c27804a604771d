// This is the main entry point of the gatehouse service.
// It loads configuration, opens the credential stores, wires services and handlers into the
// HTTP router, and runs the server with graceful shutdown. Schema migrations and demo data
// are separate subcommands.
//
// @title Gatehouse API
// @version 1.0
// @description Account signup, throttled login, logout and secure account deletion.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/background"
	"github.com/user/gatehouse-go/config"
	"github.com/user/gatehouse-go/db"
	"github.com/user/gatehouse-go/logging"
	"github.com/user/gatehouse-go/password"
	"github.com/user/gatehouse-go/seed"
)

func main() {
	app := &cli.App{
		Name:  "gatehouse",
		Usage: "account signup, login and deletion service",
		Before: func(c *cli.Context) error {
			// A missing .env is normal outside development.
			_ = godotenv.Load(c.String("env-file"))
			return nil
		},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "file to load environment variables from"},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP server",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving"},
				},
				Action: serveCommand,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back database migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply all pending migrations", Action: migrateCommand(db.Up)},
					{Name: "down", Usage: "roll back all migrations", Action: migrateCommand(db.Down)},
				},
			},
			{
				Name:   "seed",
				Usage:  "wipe the stores and load the demo accounts",
				Action: seedCommand,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command.
func setup() (*config.AppConfig, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logging.New(cfg.Log), nil
}

func serveCommand(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if c.Bool("migrate") {
		if err := runMigrations(cfg, db.Up, logger); err != nil {
			return err
		}
	}

	ctx := c.Context
	stores, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	router, err := newRouter(cfg, stores.Stores, password.NewBcrypt(password.DefaultCost), logger)
	if err != nil {
		return err
	}

	sweeperStop := make(chan struct{})
	sweeper := background.NewSweeper(stores.Sessions, stores.Attempts, cfg.Server.SweepInterval, logger)
	sweeper.Start(sweeperStop)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("auth_mode", string(cfg.Auth.Mode)),
			zap.String("store", string(cfg.Store.Driver)), zap.Bool("redis", cfg.Store.RedisURL != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("server shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		close(sweeperStop)
		sweeper.Wait()
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(sweeperStop)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	sweeper.Wait()
	logger.Info("server stopped gracefully")
	return nil
}

func migrateCommand(dir db.Direction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		return runMigrations(cfg, dir, logger)
	}
}

func runMigrations(cfg *config.AppConfig, dir db.Direction, logger *zap.Logger) error {
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrations need STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
	}
	return db.Migrate(cfg.Store.Pool.DSN(), cfg.Store.MigrationsPath, dir, logger)
}

func seedCommand(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	stores, closeStores, err := openStores(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	n, err := seed.Run(c.Context, stores.Users, stores.Wipers, password.NewBcrypt(password.DefaultCost), seed.DefaultUsers(), logger)
	if err != nil {
		return fmt.Errorf("seed failed after %d users: %w", n, err)
	}
	return nil
}
