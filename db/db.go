// Package db provides PostgreSQL connectivity and schema migrations for the credential store.
// It creates the pgx connection pool used by store.Postgres and applies the SQL migrations
// under db/migrations with golang-migrate.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// The postgres database driver for golang-migrate, registered for `postgres://` URLs.
	// It talks to the server through database/sql and lib/pq.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	// The file source driver, registered for `file://` URLs.
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/user/gatehouse-go/apperror"
	"github.com/user/gatehouse-go/config"
)

// NewPool establishes the pgxpool connection pool described by cfg and pings it.
func NewPool(ctx context.Context, cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	// Bound pool creation so an unreachable database fails startup instead of hanging it.
	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(createCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s with pgxpool", cfg.DBName), err)
	}

	return pool, nil
}

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies (Up) or rolls back (Down) every migration found in migrationsPath.
// Having nothing to do is not an error.
func Migrate(dsn, migrationsPath string, dir Direction, logger *zap.Logger) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return apperror.NewMigrationError("failed to create migrator", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("error closing migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return apperror.NewMigrationError(fmt.Sprintf("unknown migration direction %q", dir), nil)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError(fmt.Sprintf("failed to run migrations %s", dir), err)
	}

	version, dirty, verr := m.Version()
	switch {
	case errors.Is(verr, migrate.ErrNilVersion):
		logger.Info("migrations applied", zap.String("direction", string(dir)), zap.String("version", "none"))
	case verr != nil:
		logger.Warn("could not read migration version", zap.Error(verr))
	default:
		logger.Info("migrations applied", zap.String("direction", string(dir)), zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
