// 文件路径: internal/api/handler/preference.go
// 模块说明: 这是 internal 模块里的 preference 逻辑，暴露读取与部分更新偏好的接口。
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/xpref/internal/api/cookie"
	"github.com/creamcroissant/xpref/internal/api/requestctx"
	"github.com/creamcroissant/xpref/internal/service"
	"github.com/creamcroissant/xpref/internal/support/i18n"
)

// PreferenceHandler serves /api/v1/preference.
type PreferenceHandler struct {
	preferences service.PreferenceService
	cookies     cookie.Options
	i18n        *i18n.Manager
	logger      *slog.Logger
}

func NewPreferenceHandler(svc service.PreferenceService, cookies cookie.Options, i18nMgr *i18n.Manager, logger *slog.Logger) *PreferenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceHandler{preferences: svc, cookies: cookies, i18n: i18nMgr, logger: logger}
}

func (h *PreferenceHandler) scope(w http.ResponseWriter, r *http.Request) service.PreferenceScope {
	return service.PreferenceScope{
		UserID:         requestctx.IdentityFromContext(r.Context()).UserID,
		AcceptLanguage: r.Header.Get("Accept-Language"),
		Cookies:        cookie.NewJar(w, r, h.cookies),
	}
}

// Get returns the resolved preference.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	pref, err := h.preferences.Get(r.Context(), h.scope(w, r))
	if err != nil {
		h.fail(w, r, "preference.get", err)
		return
	}
	w.Header().Set("Content-Language", pref.Locale)
	respondJSON(w, http.StatusOK, pref)
}

// Update merges a partial preference onto the resolved one.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondErrorI18n(ctx, w, http.StatusRequestEntityTooLarge, "error.payload_too_large", h.i18n)
			return
		}
		RespondErrorI18n(ctx, w, http.StatusBadRequest, "error.bad_request", h.i18n)
		return
	}

	pref, err := h.preferences.Update(ctx, h.scope(w, r), body)
	if err != nil {
		h.fail(w, r, "preference.update", err)
		return
	}
	w.Header().Set("Content-Language", pref.Locale)
	respondJSON(w, http.StatusOK, pref)
}

func (h *PreferenceHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	ctx := r.Context()
	var invalid *service.PreferenceValidationError
	if errors.As(err, &invalid) {
		resp := map[string]any{
			"error": translate(ctx, h.i18n, "error.invalid_preference", invalid.Reason),
		}
		if invalid.Field != "" {
			resp["field"] = invalid.Field
		}
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}
	h.logger.ErrorContext(ctx, "preference request failed", "action", action, "error", err)
	RespondErrorI18n(ctx, w, http.StatusInternalServerError, "error.internal_server_error", h.i18n)
}
