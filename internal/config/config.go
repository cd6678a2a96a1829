// Package config loads buildgraph settings from defaults, an optional
// .buildgraph.yaml, BUILDGRAPH_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory when no
// explicit file is given.
const FileName = ".buildgraph"

// EnvPrefix prefixes every environment override, e.g. BUILDGRAPH_LOG_LEVEL.
const EnvPrefix = "BUILDGRAPH"

// Config is the resolved configuration.
type Config struct {
	DB         string     `mapstructure:"db"`
	Format     string     `mapstructure:"format"`
	ScriptsDir string     `mapstructure:"scripts_dir"`
	Log        LogConfig  `mapstructure:"log"`
	Plan       PlanConfig `mapstructure:"plan"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PlanConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":          "db",
	"format":      "format",
	"scripts-dir": "scripts_dir",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"concurrency": "plan.concurrency",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:     "buildgraph.db",
		Format: "json",
		Log:    LogConfig{Level: "warn", Format: "text"},
		Plan:   PlanConfig{Concurrency: 0},
	}
}

// Load resolves the configuration. file names an explicit config file and
// must exist when set; otherwise .buildgraph.yaml is looked up in dir and is
// optional. flags may be nil; only flags the user changed override the
// lower layers.
func Load(file, dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("db", def.DB)
	v.SetDefault("format", def.Format)
	v.SetDefault("scripts_dir", def.ScriptsDir)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("plan.concurrency", def.Plan.Concurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		if dir == "" {
			dir = "."
		}
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the CLI cannot act on.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid format %q: must be json or text", c.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Plan.Concurrency < 0 {
		return fmt.Errorf("invalid plan concurrency %d", c.Plan.Concurrency)
	}
	return nil
}
