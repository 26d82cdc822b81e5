// 文件路径: internal/migrations/embed.go
// 模块说明: 内嵌 SQLite 与 Postgres 的迁移文件。
package migrations

import "embed"

// FS embeds the migration files of every supported dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
