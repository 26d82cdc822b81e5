package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/xpref/internal/api/cookie"
	"github.com/creamcroissant/xpref/internal/api/requestctx"
	"github.com/creamcroissant/xpref/internal/service"
	"github.com/creamcroissant/xpref/internal/support/logging"
)

type stubPreferences struct {
	scope service.PreferenceScope
	body  string
	pref  service.Preference
	err   error
}

func (s *stubPreferences) Get(_ context.Context, scope service.PreferenceScope) (service.Preference, error) {
	s.scope = scope
	return s.pref, s.err
}

func (s *stubPreferences) Update(_ context.Context, scope service.PreferenceScope, body []byte) (service.Preference, error) {
	s.scope = scope
	s.body = string(body)
	return s.pref, s.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPreferenceHandler_Get(t *testing.T) {
	stub := &stubPreferences{pref: service.Preference{Locale: "fr"}}
	h := NewPreferenceHandler(stub, cookie.Options{}, nil, logging.Discard())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/preference", nil)
	req.Header.Set("Accept-Language", "fr-CA")
	req = req.WithContext(requestctx.WithIdentity(req.Context(), requestctx.Identity{UserID: "u-7"}))
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fr", rec.Header().Get("Content-Language"))
	assert.Equal(t, "fr", decodeBody(t, rec)["locale"])
	assert.Equal(t, "u-7", stub.scope.UserID)
	assert.Equal(t, "fr-CA", stub.scope.AcceptLanguage)
	assert.NotNil(t, stub.scope.Cookies)
}

func TestPreferenceHandler_Update(t *testing.T) {
	t.Run("PassesBody", func(t *testing.T) {
		stub := &stubPreferences{pref: service.Preference{Locale: "es"}}
		h := NewPreferenceHandler(stub, cookie.Options{}, nil, logging.Discard())

		rec := httptest.NewRecorder()
		h.Update(rec, httptest.NewRequest(http.MethodPost, "/api/v1/preference", strings.NewReader(`{"locale":"es"}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"locale":"es"}`, stub.body)
		assert.Empty(t, stub.scope.UserID)
	})

	t.Run("ValidationError", func(t *testing.T) {
		stub := &stubPreferences{err: &service.PreferenceValidationError{Field: "locale", Reason: "unsupported locale"}}
		h := NewPreferenceHandler(stub, cookie.Options{}, nil, logging.Discard())

		rec := httptest.NewRecorder()
		h.Update(rec, httptest.NewRequest(http.MethodPost, "/api/v1/preference", strings.NewReader(`{"locale":"de"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "locale", decodeBody(t, rec)["field"])
	})

	t.Run("CookieWriteFailure", func(t *testing.T) {
		stub := &stubPreferences{err: errors.Join(service.ErrCookieWrite, errors.New("closed"))}
		h := NewPreferenceHandler(stub, cookie.Options{}, nil, logging.Discard())

		rec := httptest.NewRecorder()
		h.Update(rec, httptest.NewRequest(http.MethodPost, "/api/v1/preference", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "error.internal_server_error", decodeBody(t, rec)["error"])
	})
}
