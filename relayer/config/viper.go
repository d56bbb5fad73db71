// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func NewConfig(v *viper.Viper) (Config, error) {
	cfg, err := BuildConfig(v)
	if err != nil {
		return cfg, err
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("failed to validate configuration: %w", err)
	}
	return cfg, nil
}

// BuildViper builds the viper instance. The config file must be provided
// via the command line flag or environment variable; all config keys may
// be provided via config file or environment variable.
func BuildViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	// Flag names map to env var names with hyphens as underscores.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if !v.IsSet(ConfigFileKey) {
		return nil, fmt.Errorf("config file not set")
	}

	v.SetConfigFile(v.GetString(ConfigFileKey))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return v, nil
}

func SetDefaultConfigValues(v *viper.Viper) {
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(MetricsPortKey, defaultMetricsPort)
	v.SetDefault(ChainNameKey, defaultChainName)
	v.SetDefault(PreviousSignerRetentionKey, defaultPreviousSignerRetention)
	v.SetDefault(MinimumRotationDelayKey, defaultMinimumRotationDelay)
	v.SetDefault(SetCacheTTLSecondsKey, defaultSetCacheTTLSeconds)
}

// BuildConfig constructs the relayer config using viper. Flags take
// precedence over the config file, which takes precedence over defaults.
func BuildConfig(v *viper.Viper) (Config, error) {
	SetDefaultConfigValues(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal viper config: %w", err)
	}
	return cfg, nil
}

// BuildFlagSet returns the command line flags understood by the relayer.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("relayer", pflag.ContinueOnError)
	fs.String(ConfigFileKey, "", "Path to the JSON configuration file")
	fs.BoolP(VersionKey, "", false, "Display version and exit")
	fs.BoolP(HelpKey, "h", false, "Display help and exit")
	fs.String(LogLevelKey, defaultLogLevel, "Log level: debug, info, warn, error")
	fs.Uint16(MetricsPortKey, defaultMetricsPort, "Port for the Prometheus metrics endpoint")
	return fs
}
