// 文件路径: internal/bootstrap/infra.go
// 模块说明: 这是 internal 模块里的 infra 逻辑，组装缓存、令牌、多语言与偏好服务。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/xpref/internal/auth/token"
	"github.com/creamcroissant/xpref/internal/cache"
	"github.com/creamcroissant/xpref/internal/config"
	"github.com/creamcroissant/xpref/internal/repository"
	"github.com/creamcroissant/xpref/internal/repository/cached"
	"github.com/creamcroissant/xpref/internal/service"
	"github.com/creamcroissant/xpref/internal/support/i18n"
)

// Infrastructure bundles the shared components the HTTP layer and CLI depend on.
type Infrastructure struct {
	Locales     *i18n.LocaleSet
	I18n        *i18n.Manager
	Cache       cache.Store
	Token       *token.Manager
	Preferences repository.PreferenceRepository
	Codec       *service.PreferenceCodec
	Service     service.PreferenceService

	closers []func() error
}

// BuildInfrastructure wires default implementations from config. reg may be nil.
func BuildInfrastructure(ctx context.Context, cfg *config.Config, database *Database, logger *slog.Logger, reg prometheus.Registerer) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	if database == nil {
		return nil, fmt.Errorf("database is required / 数据库不能为空")
	}
	if logger == nil {
		logger = slog.Default()
	}
	infra := &Infrastructure{}

	locales, err := cfg.Locale.LocaleSet()
	if err != nil {
		return nil, fmt.Errorf("locale set: %w", err)
	}
	infra.Locales = locales

	manager, err := i18n.NewManager(locales, i18n.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("i18n: %w", err)
	}
	if cfg.Locale.CatalogDir != "" {
		if err := manager.LoadFromDir(cfg.Locale.CatalogDir); err != nil {
			return nil, fmt.Errorf("i18n catalog dir: %w", err)
		}
	}
	infra.I18n = manager

	cacheStore, closeCache, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	if closeCache != nil {
		infra.closers = append(infra.closers, closeCache)
	}
	infra.Cache = cacheStore

	signingKey, source, err := ResolveJWTSigningKey(ctx, database, cfg.Auth.SigningKey, time.Now)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	logger.Info("jwt signing key resolved", "source", source)

	tokenManager, err := token.NewManager(token.Options{
		SigningKey: []byte(signingKey),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		TTL:        cfg.Auth.TokenTTL,
		Leeway:     cfg.Auth.Leeway,
	})
	if err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("token manager: %w", err)
	}
	infra.Token = tokenManager

	infra.Preferences = cached.NewPreferenceRepository(database.Store().Preferences(), cacheStore, cfg.Cache.TTL, logger)
	infra.Codec = service.NewPreferenceCodec(locales)

	if !cfg.Metrics.Enabled {
		reg = nil
	}
	infra.Service = service.NewPreferenceService(infra.Preferences, infra.Codec, service.PreferenceServiceOptions{
		CookieName: cfg.Cookie.Name,
		Logger:     logger.With("component", "preference"),
		Registerer: reg,
		Namespace:  cfg.Metrics.Namespace,
	})
	return infra, nil
}

// Close releases connections held by the infrastructure (not the database).
func (i *Infrastructure) Close() error {
	var errs []error
	for _, closer := range i.closers {
		errs = append(errs, closer())
	}
	i.closers = nil
	return errors.Join(errs...)
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (cache.Store, func() error, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return cache.NewStore(cache.Options{
			Prefix:          cfg.Prefix,
			DefaultTTL:      cfg.TTL,
			CleanupInterval: time.Minute,
		}), nil, nil
	case "redis":
		return cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:       cfg.RedisAddr,
			DB:         cfg.RedisDB,
			DefaultTTL: cfg.TTL,
			Prefix:     cfg.Prefix,
		})
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}
