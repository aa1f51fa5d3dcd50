package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration
type Config struct {
	Schema      string    `mapstructure:"schema"`
	Config      string    `mapstructure:"config"`
	Output      string    `mapstructure:"output"`
	Format      string    `mapstructure:"format"`
	OutDir      string    `mapstructure:"out_dir"`
	Parallelism int       `mapstructure:"parallelism"`
	Log         LogConfig `mapstructure:"log"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"schema":      "schema",
	"config":      "config",
	"output":      "output",
	"format":      "format",
	"out-dir":     "out_dir",
	"parallelism": "parallelism",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// LoadConfig loads configuration from defaults, a config file, STACKGEN_* environment
// variables and the flags of cmd, in increasing order of precedence.
// Without configPath, stackgen.yaml is searched in the working directory and $HOME/.config/stackgen.
func LoadConfig(configPath string, cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	v.SetDefault("schema", "schema.yaml")
	v.SetDefault("config", "")
	v.SetDefault("output", "manifest.json")
	v.SetDefault("format", "")
	v.SetDefault("out_dir", "dist")
	v.SetDefault("parallelism", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("stackgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/stackgen")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			// No config file, defaults apply
		case configPath != "":
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STACKGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range flagKeys {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
