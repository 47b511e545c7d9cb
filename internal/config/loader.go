//
// Copyright (C) 2023 Dmitry Kolesnikov
//
// This file may be modified and distributed under the terms
// of the MIT license.  See the LICENSE file for details.
// https://github.com/fogfish/timeline
//

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".timeline"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix, e.g. TIMELINE_BADGER_PATH.
const envPrefix = "TIMELINE"

// Load configuration from file, env vars and defaults. If configPath is
// non-empty, it is used as the explicit config file path. Otherwise, the
// config file is searched in CWD and $HOME. Missing config file is not an
// error, defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend)

	v.SetDefault("memory.dir", DefaultMemoryDir)

	v.SetDefault("badger.path", DefaultBadgerPath)
	v.SetDefault("badger.in_memory", DefaultBadgerInMemory)
	v.SetDefault("badger.sync_writes", DefaultBadgerSyncWrites)
	v.SetDefault("badger.conflict_retries", DefaultBadgerConflictRetries)
	v.SetDefault("badger.gc_interval", DefaultBadgerGCInterval)
	v.SetDefault("badger.gc_discard_ratio", DefaultBadgerGCDiscardRatio)
	v.SetDefault("badger.codec", DefaultBadgerCodec)

	v.SetDefault("logging.level", DefaultLoggingLevel)
	v.SetDefault("logging.format", DefaultLoggingFormat)
}
