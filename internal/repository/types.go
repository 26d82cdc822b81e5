// 文件路径: internal/repository/types.go
// 模块说明: 这是 internal 模块里的 types 逻辑，描述持久化记录的结构。
package repository

// UserPreference mirrors the user_preferences table. Payload is the opaque JSON
// document last written for the user; it is replaced wholesale on every upsert.
type UserPreference struct {
	UserID    string `json:"user_id"`
	Payload   string `json:"payload"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
