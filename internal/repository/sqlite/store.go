// 文件路径: internal/repository/sqlite/store.go
// 模块说明: 这是 internal 模块里的 store 逻辑，组装 SQLite 仓储实现。
package sqlite

import (
	"database/sql"
	"time"

	"github.com/creamcroissant/xpref/internal/repository"
)

// Store wires SQLite-backed repository implementations.
type Store struct {
	db          *sql.DB
	preferences repository.PreferenceRepository
}

// NewStore constructs a SQLite-backed repository store.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		preferences: &preferenceRepo{db: db, now: time.Now},
	}
}

func (s *Store) Preferences() repository.PreferenceRepository {
	return s.preferences
}
