// 文件路径: internal/bootstrap/database.go
// 模块说明: 这是 internal 模块里的 database 逻辑，按配置打开 SQLite 或 Postgres 并等待数据库就绪。
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/xpref/internal/config"
	"github.com/creamcroissant/xpref/internal/migrations"
	"github.com/creamcroissant/xpref/internal/repository"
	"github.com/creamcroissant/xpref/internal/repository/postgres"
	"github.com/creamcroissant/xpref/internal/repository/sqlite"
)

// Database 是打开后的连接及其方言。
type Database struct {
	DB      *sql.DB
	Dialect migrations.Dialect
}

// Store returns the repository implementation matching the dialect.
func (d *Database) Store() repository.Store {
	if d.Dialect == migrations.DialectPostgres {
		return postgres.NewStore(d.DB)
	}
	return sqlite.NewStore(d.DB)
}

// Close closes the underlying pool.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// OpenDatabase opens the configured driver and pings it with exponential backoff
// until cfg.ConnectRetry elapses.
func OpenDatabase(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Database, error) {
	var (
		db      *sql.DB
		dialect migrations.Dialect
		err     error
	)
	switch cfg.Driver {
	case "", "sqlite":
		dialect = migrations.DialectSQLite
		db, err = OpenSQLite(cfg.Path)
	case "postgres":
		dialect = migrations.DialectPostgres
		db, err = OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q / 不支持的数据库驱动", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := pingWithRetry(ctx, db, cfg.ConnectRetry, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return &Database{DB: db, Dialect: dialect}, nil
}

// OpenSQLite ensures the parent directory exists, then opens a SQLite connection with sane pragmas.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite 路径不能为空 / SQLite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 单写者，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return db, nil
}

// OpenPostgres opens a pgx-backed database/sql pool.
func OpenPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("Postgres DSN 不能为空 / postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, maxElapsed time.Duration, logger *slog.Logger) error {
	if maxElapsed <= 0 {
		return db.PingContext(ctx)
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = maxElapsed

	return backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			if logger != nil {
				logger.Warn("database not ready, retrying", "error", err, "retry_in", wait)
			}
		},
	)
}
