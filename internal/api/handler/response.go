package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/xpref/internal/api/requestctx"
	"github.com/creamcroissant/xpref/internal/support/i18n"
)

// Helper to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

// RespondErrorI18n writes {"error": msg} with msg translated into the request language.
func RespondErrorI18n(ctx context.Context, w http.ResponseWriter, status int, key string, i18nMgr *i18n.Manager, args ...any) {
	respondJSON(w, status, map[string]any{
		"error": translate(ctx, i18nMgr, key, args...),
	})
}

// RespondNotFound is the router's NotFound handler.
func RespondNotFound(i18nMgr *i18n.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondErrorI18n(r.Context(), w, http.StatusNotFound, "error.not_found", i18nMgr)
	}
}

func translate(ctx context.Context, i18nMgr *i18n.Manager, key string, args ...any) string {
	if i18nMgr == nil {
		return key // Fallback if manager is missing (e.g. in tests)
	}
	return i18nMgr.Translate(requestctx.GetLanguage(ctx), key, args...)
}
