package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gallerd"
	"gallerd/database/postgres"
	redisrepo "gallerd/database/redis"
	"gallerd/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the backend: "redis", "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=redis sqlite postgres"`
	// DSN is the data source name for the SQL backends
	DSN string `mapstructure:"dsn"`
	// Tables holds the table names for the SQL backends
	Tables gallerd.Tables `mapstructure:"tables"`
	// Addr, Password and DB configure the redis backend
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Connect establishes a connection to the configured metadata backend and
// returns a MetadataRepo. SQL backends are migrated and schema-validated on
// the way up. The returned cleanup function closes the connection.
func Connect(ctx context.Context, cfg Config) (gallerd.MetadataRepo, func(), error) {
	switch cfg.Type {
	case "redis":
		return connectRedis(cfg)
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, nil, fmt.Errorf("unsupported metadata backend: %s", cfg.Type)
	}
}

func connectRedis(cfg Config) (gallerd.MetadataRepo, func(), error) {
	repo := redisrepo.New(cfg.Addr, cfg.Password, cfg.DB)

	if err := repo.Ping(); err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	cleanup := func() {
		_ = repo.Close()
	}

	return repo, cleanup, nil
}

func connectSQLite(ctx context.Context, dsn string, tables gallerd.Tables) (gallerd.MetadataRepo, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = sqlite.Migrate(ctx, db, tables); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = sqlite.ValidateSchema(ctx, db, tables); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	repo, err := sqlite.NewRepo(db, tables)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sqlite repo: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return repo, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string, tables gallerd.Tables) (gallerd.MetadataRepo, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err = postgres.Migrate(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	if err = postgres.ValidateSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("validate postgres schema: %w", err)
	}

	repo, err := postgres.NewRepo(pool, tables)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create postgres repo: %w", err)
	}

	return repo, pool.Close, nil
}
