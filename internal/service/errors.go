// 文件路径: internal/service/errors.go
// 模块说明: 这是 internal 模块里的 errors 逻辑，定义偏好服务对外暴露的错误。
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPreference indicates the submitted preference failed schema validation.
	ErrInvalidPreference = errors.New("service: invalid preference / 偏好设置无效")
	// ErrCookieWrite marks failures writing the preference cookie back to the client.
	ErrCookieWrite = errors.New("service: write preference cookie failed / 写入偏好 Cookie 失败")
)

// PreferenceValidationError 描述哪个字段未通过校验以及原因。
// errors.Is(err, ErrInvalidPreference) holds for every value of this type.
type PreferenceValidationError struct {
	Field  string
	Reason string
}

func (e *PreferenceValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidPreference.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidPreference.Error(), e.Field, e.Reason)
}

func (e *PreferenceValidationError) Unwrap() error {
	return ErrInvalidPreference
}

func invalidPreference(field, reason string) error {
	return &PreferenceValidationError{Field: field, Reason: reason}
}
