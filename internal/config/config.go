package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/creamcroissant/xpref/internal/support/i18n"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Locale    LocaleConfig    `mapstructure:"locale"`
	Cookie    CookieConfig    `mapstructure:"cookie"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	// AllowCredentials applies to origins listed explicitly in AllowedOrigins.
	AllowCredentials bool `mapstructure:"allow_credentials"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	AddSource   bool   `mapstructure:"add_source"`
	Environment string `mapstructure:"environment"`
}

// DBConfig 定义数据库配置。driver is "sqlite" (uses Path) or "postgres" (uses DSN).
type DBConfig struct {
	Driver       string        `mapstructure:"driver"`
	Path         string        `mapstructure:"path"`
	DSN          string        `mapstructure:"dsn"`
	ConnectRetry time.Duration `mapstructure:"connect_retry"`
}

// CacheConfig 定义偏好读取缓存。driver is "none", "memory" or "redis".
// memory is per process; deployments with several writers (replicas, the CLI) need redis.
type CacheConfig struct {
	Driver    string        `mapstructure:"driver"`
	TTL       time.Duration `mapstructure:"ttl"`
	Prefix    string        `mapstructure:"prefix"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
}

// AuthConfig 定义认证配置。
type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	Leeway     time.Duration `mapstructure:"leeway"`
}

// LocaleConfig 定义受支持的语言和默认语言。
type LocaleConfig struct {
	Supported  []string `mapstructure:"supported"`
	Default    string   `mapstructure:"default"`
	CatalogDir string   `mapstructure:"catalog_dir"`
}

// CookieConfig holds the base attributes shared by every preference cookie write.
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	HTTPOnly bool   `mapstructure:"http_only"`
	SameSite string `mapstructure:"same_site"`
}

// RateLimitConfig 定义按 IP 限流。
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Token     string    `mapstructure:"token"`
	Buckets   []float64 `mapstructure:"buckets"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LocaleSet builds the process-wide supported locale set.
func (c LocaleConfig) LocaleSet() (*i18n.LocaleSet, error) {
	return i18n.NewLocaleSet(c.Supported, c.Default)
}

// SameSiteMode maps the configured policy onto net/http.
func (c CookieConfig) SameSiteMode() (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	case "default":
		return http.SameSiteDefaultMode, nil
	default:
		return 0, fmt.Errorf("cookie.same_site: unknown policy %q", c.SameSite)
	}
}

// Validate 检查启动所必需的配置项。
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Locale.LocaleSet(); err != nil {
		errs = append(errs, fmt.Errorf("locale: %w", err))
	}
	if strings.TrimSpace(c.Cookie.Name) == "" {
		errs = append(errs, errors.New("cookie.name is required / cookie 名称不能为空"))
	}
	mode, err := c.Cookie.SameSiteMode()
	if err != nil {
		errs = append(errs, err)
	} else if mode == http.SameSiteNoneMode && !c.Cookie.Secure {
		errs = append(errs, errors.New("cookie.same_site=none requires cookie.secure=true"))
	}
	switch c.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(c.DB.Path) == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if strings.TrimSpace(c.DB.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.DB.Driver))
	}
	switch c.Cache.Driver {
	case "", "none", "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver: unsupported %q", c.Cache.Driver))
	}
	return errors.Join(errs...)
}
