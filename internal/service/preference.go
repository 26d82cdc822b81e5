// 文件路径: internal/service/preference.go
// 模块说明: 这是 internal 模块里的 preference 逻辑，按 存储 → Cookie → 默认值 的顺序解析偏好并回写。
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/xpref/internal/repository"
)

// PreferenceCookieMaxAge 是偏好 Cookie 的有效期（一年）。
const PreferenceCookieMaxAge = 365 * 24 * time.Hour

// DefaultPreferenceCookie is the cookie name used when none is configured.
const DefaultPreferenceCookie = "preference"

const (
	sourceStore   = "store"
	sourceCookie  = "cookie"
	sourceDefault = "default"
)

// PreferenceCookies is the request/response cookie transport the service reads from
// and writes to.
type PreferenceCookies interface {
	ReadJSON(name string) (json.RawMessage, bool)
	WriteJSON(name string, value any, maxAge time.Duration) error
}

// PreferenceScope carries everything the service needs to know about one call.
type PreferenceScope struct {
	// UserID is empty for anonymous callers.
	UserID         string
	AcceptLanguage string
	Cookies        PreferenceCookies
}

// Authenticated reports whether the scope carries a user identity.
func (s PreferenceScope) Authenticated() bool {
	return s.UserID != ""
}

// PreferenceService resolves and updates the caller's preference.
type PreferenceService interface {
	// Get resolves the current preference and writes it back to the response cookie.
	Get(ctx context.Context, scope PreferenceScope) (Preference, error)
	// Update validates a partial preference, merges it onto the resolved one and
	// persists the result.
	Update(ctx context.Context, scope PreferenceScope, body []byte) (Preference, error)
}

// PreferenceServiceOptions 配置偏好服务。
type PreferenceServiceOptions struct {
	CookieName string
	Logger     *slog.Logger
	// Registerer receives the resolution/update counters. Nil keeps them unregistered.
	Registerer prometheus.Registerer
	Namespace  string
}

type preferenceService struct {
	repo       repository.PreferenceRepository
	codec      *PreferenceCodec
	cookieName string
	logger     *slog.Logger
	metrics    *preferenceMetrics
}

// NewPreferenceService wires the resolver/updater around a durable repository.
func NewPreferenceService(repo repository.PreferenceRepository, codec *PreferenceCodec, opts PreferenceServiceOptions) PreferenceService {
	name := opts.CookieName
	if name == "" {
		name = DefaultPreferenceCookie
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &preferenceService{
		repo:       repo,
		codec:      codec,
		cookieName: name,
		logger:     logger,
		metrics:    newPreferenceMetrics(opts.Registerer, opts.Namespace),
	}
}

// preferenceSource 返回 nil 表示该来源没有可用值，继续尝试下一个来源。
type preferenceSource struct {
	name string
	load func(ctx context.Context) (*Preference, error)
}

func (s *preferenceService) sources(scope PreferenceScope, cookies PreferenceCookies) []preferenceSource {
	return []preferenceSource{
		{name: sourceStore, load: func(ctx context.Context) (*Preference, error) {
			if !scope.Authenticated() {
				return nil, nil
			}
			record, err := s.repo.FindByUserID(ctx, scope.UserID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("load stored preference: %w", err)
			}
			if pref, ok := s.codec.Parse([]byte(record.Payload)); ok {
				return pref, nil
			}
			s.logger.Warn("ignoring invalid stored preference", "user_id", scope.UserID)
			return nil, nil
		}},
		{name: sourceCookie, load: func(context.Context) (*Preference, error) {
			raw, ok := cookies.ReadJSON(s.cookieName)
			if !ok {
				return nil, nil
			}
			pref, _ := s.codec.Parse(raw)
			return pref, nil
		}},
		{name: sourceDefault, load: func(context.Context) (*Preference, error) {
			pref := s.codec.GenerateDefault(scope.AcceptLanguage)
			return &pref, nil
		}},
	}
}

func (s *preferenceService) Get(ctx context.Context, scope PreferenceScope) (Preference, error) {
	cookies := cookiesOrNoop(scope.Cookies)
	for _, source := range s.sources(scope, cookies) {
		pref, err := source.load(ctx)
		if err != nil {
			return Preference{}, err
		}
		if pref == nil {
			continue
		}
		s.metrics.resolved(source.name)
		s.logger.DebugContext(ctx, "preference resolved",
			"source", source.name,
			"locale", pref.Locale,
			"authenticated", scope.Authenticated(),
		)
		if err := cookies.WriteJSON(s.cookieName, pref, PreferenceCookieMaxAge); err != nil {
			return Preference{}, fmt.Errorf("%w: %w", ErrCookieWrite, err)
		}
		return *pref, nil
	}
	// The default source never comes back empty.
	return Preference{}, errors.New("service: no preference source produced a value / 无可用偏好来源")
}

func (s *preferenceService) Update(ctx context.Context, scope PreferenceScope, body []byte) (Preference, error) {
	patch, err := s.codec.ParsePatch(body)
	if err != nil {
		s.metrics.updated("invalid")
		return Preference{}, err
	}

	current, err := s.Get(ctx, scope)
	if err != nil {
		s.metrics.updated(updateFailure(err))
		return Preference{}, err
	}
	merged := patch.Apply(current)

	if scope.Authenticated() {
		payload, err := json.Marshal(merged)
		if err != nil {
			return Preference{}, fmt.Errorf("encode preference: %w", err)
		}
		if err := s.repo.Upsert(ctx, &repository.UserPreference{UserID: scope.UserID, Payload: string(payload)}); err != nil {
			s.metrics.updated("store_error")
			return Preference{}, fmt.Errorf("store preference: %w", err)
		}
	}

	if err := cookiesOrNoop(scope.Cookies).WriteJSON(s.cookieName, merged, PreferenceCookieMaxAge); err != nil {
		s.metrics.updated("cookie_error")
		return Preference{}, fmt.Errorf("%w: %w", ErrCookieWrite, err)
	}
	s.metrics.updated("ok")
	s.logger.InfoContext(ctx, "preference updated",
		"locale", merged.Locale,
		"authenticated", scope.Authenticated(),
	)
	return merged, nil
}

// updateFailure labels a failed resolve by where it failed.
func updateFailure(err error) string {
	if errors.Is(err, ErrCookieWrite) {
		return "cookie_error"
	}
	return "store_error"
}

type noopCookies struct{}

func (noopCookies) ReadJSON(string) (json.RawMessage, bool)    { return nil, false }
func (noopCookies) WriteJSON(string, any, time.Duration) error { return nil }

func cookiesOrNoop(c PreferenceCookies) PreferenceCookies {
	if c == nil {
		return noopCookies{}
	}
	return c
}
