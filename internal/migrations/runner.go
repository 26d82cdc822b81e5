// 文件路径: internal/migrations/runner.go
// 模块说明: 这是 internal 模块里的 runner 逻辑，使用 goose 执行内嵌迁移。
package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Dialect 对应 database.driver 配置。
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func setup(dialect Dialect) (string, error) {
	goose.SetBaseFS(FS)
	switch dialect {
	case DialectSQLite:
		return "sqlite", goose.SetDialect("sqlite3")
	case DialectPostgres:
		return "postgres", goose.SetDialect("postgres")
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

// Up migrates the schema to the latest version.
func Up(db *sql.DB, dialect Dialect) error {
	dir, err := setup(dialect)
	if err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// Down rolls back a single migration.
func Down(db *sql.DB, dialect Dialect) error {
	dir, err := setup(dialect)
	if err != nil {
		return err
	}
	return goose.Down(db, dir)
}

// Status prints migration status.
func Status(db *sql.DB, dialect Dialect) error {
	dir, err := setup(dialect)
	if err != nil {
		return err
	}
	return goose.Status(db, dir)
}
