// Package config handles client configuration using Viper.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/log"
	"github.com/felixgeelhaar/memorymap/internal/platform"
)

// EnvPrefix is the prefix of environment overrides (MEMORYMAP_API_URL, ...).
const EnvPrefix = "MEMORYMAP"

// DirName is the per-user directory under $HOME.
const DirName = ".memorymap"

// Config holds the client configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api" json:"api" yaml:"api"`
	Session SessionConfig `mapstructure:"session" json:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" json:"log" yaml:"log"`
}

// APIConfig locates the backend.
type APIConfig struct {
	URL     string        `mapstructure:"url" json:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
}

// MarshalJSON writes Timeout as a duration string such as "30s".
func (c APIConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		URL     string `json:"url"`
		Timeout string `json:"timeout"`
	}{c.URL, c.Timeout.String()})
}

// SessionConfig locates the persisted session.
type SessionConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// LogConfig configures diagnostics.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// Dir returns ~/.memorymap.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     platform.DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			Path: filepath.Join(Dir(), "session.json"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Loader reads configuration from defaults, a .env file, the config file and
// MEMORYMAP_* environment variables, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader. configPath may be empty to use DefaultPath.
func NewLoader(configPath string) *Loader {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Viper exposes the underlying instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads configuration. A missing config file is not an error.
func (l *Loader) Load() (*Config, error) {
	// A .env file in the working directory is optional.
	_ = godotenv.Load()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeConfigReadFailed, "failed to read config file", err).
				WithSuggestion("Run 'memorymap config init --force' to rewrite it")
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "invalid configuration", err)
	}

	cfg.Session.Path = expandHome(cfg.Session.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when none was found.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Load reads configuration from configPath (or the default location).
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "api.url must not be empty")
	}
	if !strings.HasPrefix(c.API.URL, "http://") && !strings.HasPrefix(c.API.URL, "https://") {
		return errors.New(errors.ErrCodeConfigInvalid, "api.url must start with http:// or https://").
			WithSuggestion("Example: MEMORYMAP_API_URL=http://localhost:8000")
	}
	if c.API.Timeout < 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "api.timeout must not be negative")
	}
	if c.Session.Path == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "session.path must not be empty")
	}
	if _, ok := log.LookupLevel(c.Log.Level); !ok {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown log.level %q", c.Log.Level)).
			WithSuggestion("Use one of: " + strings.Join(log.LevelNames(), ", "))
	}
	if _, ok := log.LookupFormat(c.Log.Format); !ok {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown log.format %q", c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	return nil
}

// Save writes cfg to path as YAML, creating the directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "failed to create config directory", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "failed to write config file", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	out := struct {
		API struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"api"`
		Session SessionConfig `yaml:"session"`
		Log     LogConfig     `yaml:"log"`
	}{Session: cfg.Session, Log: cfg.Log}
	out.API.URL = cfg.API.URL
	out.API.Timeout = cfg.API.Timeout.String()

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to encode config", err)
	}
	return data, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api.url", d.API.URL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("session.path", d.Session.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
