// 文件路径: internal/api/requestctx/identity.go
// 模块说明: 这是 internal 模块里的 identity 逻辑，在 context 中传递调用方身份与请求语言。
package requestctx

import "context"

// Identity 描述当前调用方。UserID 为空表示匿名访问。
type Identity struct {
	UserID    string
	SessionID string
}

// Authenticated reports whether the caller presented a valid token.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

type identityKey struct{}

// I18nKey 用于在 context 中存储语言标识的 key 类型。
type I18nKey struct{}

// WithIdentity attaches the caller identity for downstream handlers.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller identity, anonymous if missing.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	identity, _ := ctx.Value(identityKey{}).(Identity)
	return identity
}

// WithLanguage 将语言标识附加到 context 中供下游使用。
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, I18nKey{}, lang)
}

// GetLanguage 从 context 中获取语言标识，未设置时返回空串（由 i18n.Manager 回落到默认语言）。
func GetLanguage(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	lang, _ := ctx.Value(I18nKey{}).(string)
	return lang
}
