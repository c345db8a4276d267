// Package config loads the settings of the dbmap command line tool from
// dbmap.yaml, DBMAP_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/syssam/dbmap/dialect"
)

// Config represents the dbmap tool configuration.
type Config struct {
	// Mapping is the default mapping document path.
	Mapping  string         `mapstructure:"mapping"`
	Dialect  string         `mapstructure:"dialect"`
	NoColor  bool           `mapstructure:"no_color"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig represents the connection used by verify.
type DatabaseConfig struct {
	DSN           string        `mapstructure:"dsn"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
	// Tables restricts verification; empty means every table.
	Tables []string `mapstructure:"tables"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dev   bool   `mapstructure:"dev"`
}

// Load reads the configuration file at path, or dbmap.yaml in the working
// directory when path is empty. A missing default file is not an error.
// Environment variables override the file, e.g. DBMAP_DATABASE_DSN, and
// overrides, keyed like the file, override both.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	v.SetDefault("mapping", "mapping.xml")
	v.SetDefault("dialect", dialect.SQLite)
	v.SetDefault("no_color", false)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.slow_threshold", "200ms")
	v.SetDefault("database.tables", []string{})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.dev", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dbmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DBMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	d, err := dialect.Normalize(c.Dialect)
	if err != nil {
		return fmt.Errorf("dialect: %w", err)
	}
	c.Dialect = d
	if c.Database.SlowThreshold < 0 {
		return fmt.Errorf("database.slow_threshold must not be negative, got %s", c.Database.SlowThreshold)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Logger returns a console logger writing to stderr at the configured
// level.
func (c *Config) Logger() *zap.Logger {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}
	enc := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	}
	if c.NoColor {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))
	var opts []zap.Option
	if c.Log.Dev {
		opts = append(opts, zap.Development(), zap.AddCaller(), zap.AddStacktrace(zapcore.WarnLevel))
	}
	return zap.New(core, opts...).Named("dbmap")
}
