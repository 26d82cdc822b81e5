package handler

import (
	"encoding/json"
	"net/http"

	"github.com/creamcroissant/xpref/internal/api/requestctx"
	"github.com/creamcroissant/xpref/internal/support/i18n"
)

// LocaleHandler lists the supported locales with labels in the request language.
type LocaleHandler struct {
	i18n *i18n.Manager
}

func NewLocaleHandler(i18nMgr *i18n.Manager) *LocaleHandler {
	return &LocaleHandler{i18n: i18nMgr}
}

// LocaleInfo is one entry of the locale listing.
type LocaleInfo struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// LocaleList is the /api/v1/locales response body.
type LocaleList struct {
	Default string       `json:"default"`
	Locales []LocaleInfo `json:"locales"`
}

// BuildLocaleList renders the supported locales for lang.
func BuildLocaleList(i18nMgr *i18n.Manager, lang string) LocaleList {
	set := i18nMgr.Locales()
	list := LocaleList{Default: set.Default()}
	for _, code := range set.Supported() {
		list.Locales = append(list.Locales, LocaleInfo{Code: code, Label: i18nMgr.LocaleLabel(lang, code)})
	}
	return list
}

func (h *LocaleHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := requestctx.GetLanguage(r.Context())
	body, err := json.Marshal(BuildLocaleList(h.i18n, lang))
	if err != nil {
		RespondErrorI18n(r.Context(), w, http.StatusInternalServerError, "error.internal_server_error", h.i18n)
		return
	}
	if lang != "" {
		w.Header().Set("Content-Language", lang)
	}
	w.Header().Set("Vary", "Accept-Language, Cookie")
	if notModified(w, r, contentETag(body)) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}
