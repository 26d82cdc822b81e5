// 文件路径: internal/repository/sqlite/preference.go
// 模块说明: 这是 internal 模块里的 preference 逻辑，负责 user_preferences 表的读写。
package sqlite

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
	const query = `SELECT user_id, payload, created_at, updated_at FROM user_preferences WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)
	var p repository.UserPreference
	if err := row.Scan(&p.UserID, &p.Payload, &p.CreatedAt, &p.UpdatedAt); err != nil {
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
	// created_at 只在首次插入时写入，之后仅更新 payload 与 updated_at。
	const stmt = `INSERT INTO user_preferences(user_id, payload, created_at, updated_at) VALUES(?, ?, ?, ?)
                  ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, stmt, pref.UserID, pref.Payload, now, now); err != nil {
		return err
	}
	pref.UpdatedAt = now
	if pref.CreatedAt == 0 {
		pref.CreatedAt = now
	}
	return nil
}
