// Package postgres provides Postgres-backed repositories through the pgx stdlib driver.
package postgres

import (
	"database/sql"
	"time"

	"github.com/creamcroissant/xpref/internal/repository"
)

// Store wires Postgres-backed repository implementations.
type Store struct {
	db          *sql.DB
	preferences repository.PreferenceRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		preferences: &preferenceRepo{db: db, now: time.Now},
	}
}

func (s *Store) Preferences() repository.PreferenceRepository {
	return s.preferences
}
