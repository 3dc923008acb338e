// ABOUTME: Configuration loader for the wishlist CLI and TUI
// ABOUTME: Layers flags over WISHLIST_* env (with .env) over config.yaml over defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "WISHLIST"

// DefaultAPIURL is used when nothing else names the backend
const DefaultAPIURL = "http://localhost:8082"

type Config struct {
	APIURL    string        `mapstructure:"api_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ConfigDir string        `mapstructure:"config_dir"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Debounce delays for filter inputs
	SearchDebounce     time.Duration `mapstructure:"search_debounce"`
	AdminUsersDebounce time.Duration `mapstructure:"admin_users_debounce"`
	AdminPostsDebounce time.Duration `mapstructure:"admin_posts_debounce"`

	NotificationPoll time.Duration `mapstructure:"notification_poll"`
	OAuthProvider    string        `mapstructure:"oauth_provider"`
}

// Options controls where Load looks
type Options struct {
	// File is an explicit config file; empty means <ConfigDir>/config.yaml if present
	File string
	// EnvFile is a dotenv file loaded before reading the environment; empty means ".env"
	EnvFile string
	// Flags, when set, override everything else for the keys they define
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"api-url": "api_url",
	"timeout": "timeout",
}

// Load resolves the configuration. Precedence: flag > env > config file > default.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Plain LOG_LEVEL/LOG_FORMAT are honored as well
	v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("log_format", EnvPrefix+"_LOG_FORMAT", "LOG_FORMAT")

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	file := opts.File
	if file == "" {
		candidate := filepath.Join(v.GetString("config_dir"), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.APIURL = strings.TrimRight(ensureScheme(strings.TrimSpace(cfg.APIURL)), "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the resolved values
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url must use http or https, got %q", u.Scheme)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	for name, d := range map[string]time.Duration{
		"search_debounce":      c.SearchDebounce,
		"admin_users_debounce": c.AdminUsersDebounce,
		"admin_posts_debounce": c.AdminPostsDebounce,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", "30s")
	v.SetDefault("config_dir", DefaultConfigDir())

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("search_debounce", "300ms")
	v.SetDefault("admin_users_debounce", "500ms")
	v.SetDefault("admin_posts_debounce", "300ms")

	v.SetDefault("notification_poll", "60s")
	v.SetDefault("oauth_provider", "google")
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/wishlist, falling back to ~/.config/wishlist
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wishlist")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wishlist"
	}
	return filepath.Join(home, ".config", "wishlist")
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(raw string) string {
	if raw == "" {
		return raw
	}
	if !strings.Contains(raw, "://") {
		return "http://" + raw
	}
	return raw
}
