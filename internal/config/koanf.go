// Corvid real-time search-indexing core
// Copyright 2026 The Corvid Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/corvid/config.yaml",
	"/etc/corvid/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config
// file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

var validate = validator.New()

// Validate checks the Config against its struct tags.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Load loads configuration using koanf with layered sources:
//  1. Defaults: built-in sensible defaults (Default())
//  2. Config file: optional YAML file, if found
//  3. Environment variables: override any setting (CORVID_ prefix)
//
// Precedence is ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// CORVID_ENGINE_DATA_DIR -> engine.data_dir
	envProvider := env.Provider("CORVID_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths, honoring
// CONFIG_PATH if set.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists the config paths that should be parsed as
// comma-separated slices when they arrive via environment variables.
var sliceConfigPaths = []string{
	"admin.cors_allowed_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Necessary because env vars arrive as strings, while
// the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps CORVID_-prefixed environment variable suffixes (already
// lowercased, prefix stripped) to koanf config paths.
var envMappings = map[string]string{
	"engine_data_dir":             "engine.data_dir",
	"engine_docid_mapper_factory": "engine.docid_mapper_factory",
	"engine_analyzer":             "engine.analyzer",
	"engine_similarity":           "engine.similarity",

	"loader_batch_size":               "loader.batch_size",
	"loader_max_batch_size":           "loader.max_batch_size",
	"loader_batch_delay":              "loader.batch_delay",
	"loader_rt_indexing":              "loader.rt_indexing",
	"loader_version_comparator":       "loader.version_comparator",
	"loader_optimize_target_segments": "loader.optimize_target_segments",

	"cache_freshness": "cache.freshness",
	"cache_sla":       "cache.sla",

	"consumer_high_water_mark": "consumer.high_water_mark",
	"consumer_flush_timeout":   "consumer.flush_timeout",
	"consumer_sync_timeout":    "consumer.sync_timeout",

	"admin_listen_addr":           "admin.listen_addr",
	"admin_shutdown_timeout":      "admin.shutdown_timeout",
	"admin_rate_limit_per_minute": "admin.rate_limit_per_minute",
	"admin_cors_allowed_origins":  "admin.cors_allowed_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps CORVID_-prefixed environment variable names to
// koanf config paths, e.g. CORVID_LOADER_BATCH_SIZE -> loader.batch_size.
// Unmapped keys are skipped to keep unrelated environment variables from
// polluting the config tree.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "CORVID_"))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a fresh koanf instance for advanced usage, such
// as hot-reload or testing with synthetic configuration sources.
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}

// WatchConfigFile sets up a file watcher for hot-reload capability. The
// caller is responsible for synchronizing access to the configuration it
// swaps in from callback.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
