// Package config loads urlpulse settings from flags, environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lukemcguire/urlpulse/checker"
)

// EnvPrefix is prepended to every environment variable, e.g. URLPULSE_POOL_SIZE.
const EnvPrefix = "URLPULSE"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// Log formats.
const (
	LogConsole = "console"
	LogJSON    = "json"
)

// Config is the complete runtime configuration.
type Config struct {
	PoolSize       int           `mapstructure:"pool-size"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout"`
	TaskDeadline   time.Duration `mapstructure:"task-deadline"`
	UserAgent      string        `mapstructure:"user-agent"`
	MaxRedirects   int           `mapstructure:"max-redirects"`
	RateLimit      int           `mapstructure:"rate-limit"`

	MaxURLs int    `mapstructure:"max-urls"`
	Format  string `mapstructure:"format"`
	Plain   bool   `mapstructure:"plain"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// ConfigFile is the file settings were read from, empty if none.
	ConfigFile string `mapstructure:"-"`
	// URLs are the positional arguments.
	URLs []string `mapstructure:"-"`
}

// LoadDotEnv loads variables from a .env file in the working directory.
// A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// NewFlagSet defines every command-line flag with its default.
func NewFlagSet() *pflag.FlagSet {
	def := checker.DefaultConfig()

	fs := pflag.NewFlagSet("urlpulse", pflag.ContinueOnError)
	fs.SortFlags = false

	fs.IntP("pool-size", "c", def.PoolSize, "number of concurrent workers")
	fs.Duration("connect-timeout", def.ConnectTimeout, "timeout for establishing a connection")
	fs.Duration("read-timeout", def.ReadTimeout, "timeout for receiving response headers")
	fs.Duration("task-deadline", def.TaskDeadline, "maximum time to wait for each URL's result")
	fs.String("user-agent", def.UserAgent, "user agent string")
	fs.Int("max-redirects", def.MaxRedirects, "redirects to follow before giving up")
	fs.Int("rate-limit", 0, "maximum requests per second across all workers (0 = unlimited)")
	fs.Int("max-urls", 200, "maximum number of URLs read from standard input")
	fs.StringP("format", "f", FormatText, "output format: text, json, csv or yaml")
	fs.Bool("plain", false, "disable the interactive progress display")
	fs.String("log-level", zerolog.LevelWarnValue, "log level: trace, debug, info, warn, error")
	fs.String("log-format", LogConsole, "log format: console or json")
	fs.String("config", "", "path to a YAML config file")

	return fs
}

// Load parses args and merges flags, URLPULSE_* environment variables and
// the config file, in that order of precedence.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := v.GetString("config")
	if path == "" {
		path = findConfigFile(configDirs())
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.URLs = fs.Args()

	cfg.Format = strings.ToLower(cfg.Format)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configNames are the file names searched for when --config is not given.
// The bare name is never matched, so a binary called urlpulse is ignored.
var configNames = []string{"urlpulse.yaml", "urlpulse.yml"}

func configDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "urlpulse"))
	}
	return dirs
}

// findConfigFile returns the first regular file in dirs matching
// configNames, or "" when there is none.
func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path
			}
		}
	}
	return ""
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.PoolSize <= 0:
		return fmt.Errorf("invalid pool-size %d: must be positive", c.PoolSize)
	case c.ConnectTimeout <= 0:
		return fmt.Errorf("invalid connect-timeout %s: must be positive", c.ConnectTimeout)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("invalid read-timeout %s: must be positive", c.ReadTimeout)
	case c.TaskDeadline <= 0:
		return fmt.Errorf("invalid task-deadline %s: must be positive", c.TaskDeadline)
	case c.MaxRedirects <= 0:
		return fmt.Errorf("invalid max-redirects %d: must be positive", c.MaxRedirects)
	case c.RateLimit < 0:
		return fmt.Errorf("invalid rate-limit %d: must not be negative", c.RateLimit)
	case c.MaxURLs <= 0:
		return fmt.Errorf("invalid max-urls %d: must be positive", c.MaxURLs)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatCSV, FormatYAML:
	default:
		return fmt.Errorf("invalid format %q: want text, json, csv or yaml", c.Format)
	}

	switch c.LogFormat {
	case LogConsole, LogJSON:
	default:
		return fmt.Errorf("invalid log-format %q: want console or json", c.LogFormat)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log-level: %w", err)
	}
	return nil
}

// Checker returns the settings the fetcher and pool are built from.
func (c *Config) Checker() checker.Config {
	return checker.Config{
		PoolSize:       c.PoolSize,
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		TaskDeadline:   c.TaskDeadline,
		UserAgent:      c.UserAgent,
		MaxRedirects:   c.MaxRedirects,
		RateLimit:      c.RateLimit,
	}
}
