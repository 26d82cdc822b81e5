// 文件路径: internal/api/middleware/identity.go
// 模块说明: 这是 internal 模块里的 identity 逻辑，从 Bearer 令牌中识别调用方。
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/creamcroissant/xpref/internal/api/requestctx"
	"github.com/creamcroissant/xpref/internal/auth/token"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Parse(tokenString string) (*token.Claims, error)
}

// Translator renders message keys in the request language.
type Translator interface {
	Translate(lang, key string, args ...any) string
}

// Identity attaches the caller identity to the request context. Requests without an
// Authorization header are anonymous; a header that fails verification is rejected
// with 401 rather than silently downgraded.
func Identity(verifier TokenVerifier, translator Translator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r.WithContext(requestctx.WithIdentity(r.Context(), requestctx.Identity{})))
				return
			}
			if verifier == nil {
				writeError(w, http.StatusUnauthorized, translate(r, translator, "error.unauthorized"))
				return
			}
			claims, err := verifier.Parse(extractBearer(header))
			if err != nil {
				logger.DebugContext(r.Context(), "rejecting bearer token", "error", err)
				writeError(w, http.StatusUnauthorized, translate(r, translator, "error.invalid_token"))
				return
			}
			ctx := requestctx.WithIdentity(r.Context(), requestctx.Identity{
				UserID:    claims.UserID(),
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(header string) string {
	trimmed := strings.TrimSpace(header)
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return trimmed
}

func translate(r *http.Request, translator Translator, key string, args ...any) string {
	if translator == nil {
		return key
	}
	return translator.Translate(requestctx.GetLanguage(r.Context()), key, args...)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
