package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creamcroissant/xpref/internal/repository"
)

type preferenceRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *preferenceRepo) FindByUserID(ctx context.Context, userID string) (*repository.UserPreference, error) {
	const query = `SELECT user_id, payload::text, created_at, updated_at FROM user_preferences WHERE user_id = $1`
	var p repository.UserPreference
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.Payload, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *preferenceRepo) Upsert(ctx context.Context, pref *repository.UserPreference) error {
	if pref == nil || strings.TrimSpace(pref.UserID) == "" {
		return fmt.Errorf("upsert preference: user id is required / 用户 ID 不能为空")
	}
	now := r.now().Unix()
	const stmt = `INSERT INTO user_preferences(user_id, payload, created_at, updated_at) VALUES($1, $2::jsonb, $3, $3)
                  ON CONFLICT(user_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, stmt, pref.UserID, pref.Payload, now); err != nil {
		return err
	}
	pref.UpdatedAt = now
	if pref.CreatedAt == 0 {
		pref.CreatedAt = now
	}
	return nil
}
