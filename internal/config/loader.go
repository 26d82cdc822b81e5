package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads defaults, then config.yaml from "." or /etc/xpref/, then XPREF_* env vars.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path; empty means search the defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/xpref/")
	}

	v.SetEnvPrefix("XPREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// It's okay if config file is missing, we rely on Envs/Defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.allowed_origins", []string{})
	v.SetDefault("http.allow_credentials", false)
	v.SetDefault("http.max_body_bytes", 64*1024)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.add_source", false)
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/xpref.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.connect_retry", "30s")

	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.prefix", "xpref")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "xpref")
	v.SetDefault("auth.audience", "xpref-client")
	v.SetDefault("auth.leeway", "30s")

	v.SetDefault("locale.supported", []string{"en", "fr", "es", "pt-BR", "zh-CN"})
	v.SetDefault("locale.default", "en")
	v.SetDefault("locale.catalog_dir", "")

	v.SetDefault("cookie.name", "preference")
	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.http_only", false)
	v.SetDefault("cookie.same_site", "lax")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 120)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "xpref")
	v.SetDefault("metrics.subsystem", "http")
	v.SetDefault("metrics.token", "")
}
