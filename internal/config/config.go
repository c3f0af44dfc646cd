// Package config handles the XDG configuration directory, the config file
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

const (
	// AppName is the application directory name.
	AppName = "todoview"

	// ConfigFile is the settings filename inside the config directory.
	ConfigFile = "config.toml"

	// LogFile is the default log filename inside the config directory.
	LogFile = "todoview.log"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// DefaultAPIBase is the REST server used when none is configured.
	DefaultAPIBase = "http://localhost:5001"
)

// Backend names.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Theme names. ThemeAuto picks light or dark from the terminal background.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	// Logger is set by the dispatcher once the destination is known.
	Logger *log.Logger `toml:"-"`

	APIBase        string        `toml:"api_base"`
	Backend        string        `toml:"backend"`
	Token          string        `toml:"token"`
	Theme          string        `toml:"theme"`
	LogLevel       string        `toml:"log_level"`
	LogFormat      string        `toml:"log_format"`
	LogFile        string        `toml:"log_file"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// New creates a Config with defaults for the given config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todoview or $HOME/.config/todoview.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:      dir,
		APIBase:  DefaultAPIBase,
		Backend:  BackendREST,
		Theme:    ThemeLight,
		LogLevel: "info",
	}, nil
}

// Load creates a Config from defaults, then config.toml in the config
// directory if present, then TODOVIEW_* environment variables.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.loadFile(cfg.FilePath()); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("loading config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("TODOVIEW_API_BASE"); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("TODOVIEW_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("TODOVIEW_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("TODOVIEW_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("TODOVIEW_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TODOVIEW_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TODOVIEW_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST, BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend: %q (want %s or %s)", c.Backend, BackendREST, BackendGoogleTasks)
	}
	switch strings.ToLower(c.Theme) {
	case ThemeLight, ThemeDark, ThemeAuto:
	default:
		return fmt.Errorf("unknown theme: %q (want light, dark or auto)", c.Theme)
	}
	if c.Backend == BackendREST {
		u, err := url.Parse(c.APIBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api base: %q", c.APIBase)
		}
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("invalid request timeout: %s", c.RequestTimeout)
	}
	return nil
}

// Log returns the configured logger, or one that discards everything.
func (c *Config) Log() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c.Logger
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// LogPath returns the log file path, defaulting to the config directory.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.Dir, LogFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
