package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. DASHBOARD_API_BASE_URL.
const EnvPrefix = "DASHBOARD"

// Config is the resolved runtime configuration for dashctl and embedders.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Session   SessionConfig   `mapstructure:"session"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
}

type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ConversionTimeout time.Duration `mapstructure:"conversion_timeout"`
}

// SessionConfig locates the persisted session written by the login flow.
type SessionConfig struct {
	Path string `mapstructure:"path"`
}

type DashboardConfig struct {
	LoginURL      string        `mapstructure:"login_url"`
	RedirectDelay time.Duration `mapstructure:"redirect_delay"`
	// CacheMaxAge of zero keeps section data until invalidated.
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`
	Manifest    string        `mapstructure:"manifest"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	Production bool   `mapstructure:"production"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api-supamart.onrender.com/api")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.conversion_timeout", 3*time.Second)
	v.SetDefault("session.path", "~/.supamart/session.json")
	v.SetDefault("dashboard.login_url", "/login")
	v.SetDefault("dashboard.redirect_delay", 2*time.Second)
	v.SetDefault("dashboard.cache_max_age", time.Duration(0))
	v.SetDefault("dashboard.manifest", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.production", false)
	v.SetDefault("server.addr", ":8080")
}

// Load resolves configuration from defaults, an optional YAML file at path and
// DASHBOARD_* environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Session.Path = expandHome(cfg.Session.Path)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the dashboard cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("config: api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("config: api.timeout must be positive")
	}
	if c.API.ConversionTimeout <= 0 {
		return errors.New("config: api.conversion_timeout must be positive")
	}
	if c.Dashboard.RedirectDelay < 0 || c.Dashboard.CacheMaxAge < 0 {
		return errors.New("config: dashboard durations must not be negative")
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
