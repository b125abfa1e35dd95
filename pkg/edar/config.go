// Copyright (c) 2025 The EDAR Authors
//
// SPDX-License-Identifier: Apache-2.0

package edar

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when no config file exists.
const (
	DefaultMapperPrefix = "edar"
	DefaultMountRoot    = "/media"
)

// Config holds the persisted defaults for setup runs. Everything here can be
// overridden per run by flags or prompts.
type Config struct {
	LogDir       string `yaml:"log_dir"`
	Filesystem   string `yaml:"filesystem"`
	MountRoot    string `yaml:"mount_root"`
	MapperPrefix string `yaml:"mapper_prefix"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogDir:       DefaultLogDir(),
		Filesystem:   string(FilesystemExt4),
		MountRoot:    DefaultMountRoot,
		MapperPrefix: DefaultMapperPrefix,
	}
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "edar", "config.yaml")
	}
	return filepath.Join(home, ".config", "edar", "config.yaml")
}

// LoadConfig reads a config file, falling back to defaults when it does not
// exist. Unset fields take their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- config path under the caller's home
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir()
	}
	if cfg.Filesystem == "" {
		cfg.Filesystem = string(FilesystemExt4)
	}
	if cfg.MountRoot == "" {
		cfg.MountRoot = DefaultMountRoot
	}
	if cfg.MapperPrefix == "" {
		cfg.MapperPrefix = DefaultMapperPrefix
	}

	return cfg, nil
}

// Save writes the config file, creating parent directories as needed.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
