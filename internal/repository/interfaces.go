// 文件路径: internal/repository/interfaces.go
// 模块说明: 这是 internal 模块里的 interfaces 逻辑，声明仓储接口。
package repository

import "context"

// Store 暴露每个聚合根对应的仓储接口。
type Store interface {
	Preferences() PreferenceRepository
}

// PreferenceRepository 定义用户偏好的存取方法，按 user id 一对一存储。
type PreferenceRepository interface {
	// FindByUserID returns ErrNotFound when the user has no stored preference.
	FindByUserID(ctx context.Context, userID string) (*UserPreference, error)
	// Upsert creates the record or replaces its payload; atomic per user id.
	Upsert(ctx context.Context, pref *UserPreference) error
}
