// Package config resolves the pipeline configuration once at startup from
// environment variables and an optional YAML/JSON config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cenv "github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	kraw "github.com/knadh/koanf/providers/rawbytes"
	kfn "github.com/knadh/koanf/v2"
)

// Load resolves the configuration. CONFIG_CONTENT wins over CONFIG_FILE_PATH;
// with neither set the configuration comes from defaults and environment
// variables alone. GPXETL_-prefixed variables override file keys and the
// direct variables (REDSHIFT_*, DATA_PATH, CREATE_TABLE) are applied last.
func Load() (*Config, error) {
	envCfg := EnvConfig{}
	if err := cenv.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	validate := validator.New()
	if err := validate.Struct(&envCfg); err != nil {
		return nil, fmt.Errorf("failed to load environment configuration: %w", err)
	}

	var (
		cfg *Config
		err error
	)
	switch {
	case envCfg.ConfigContent != "":
		cfg, err = loadConfigContent(envCfg.ConfigContent, envCfg.ConfigFormat)
	case envCfg.ConfigFilePath != "":
		cfg, err = loadConfigFile(envCfg.ConfigFilePath)
	default:
		cfg, err = loadConfigEnv()
	}
	if err != nil {
		return nil, err
	}

	applyEnv(cfg, envCfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigFile loads configuration from a YAML or JSON file and merges
// environment overrides.
func loadConfigFile(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if _, err = os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("error opening config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	var parser kfn.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = kyaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		return nil, &UnsupportedExtensionError{Extension: ext}
	}

	k := kfn.New(".")
	if err = k.Load(kfile.Provider(absPath), parser); err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}
	return unmarshalKoanf(k)
}

// loadConfigContent loads configuration from raw YAML/JSON content. If format
// is empty, JSON is assumed when the trimmed content starts with '{'.
func loadConfigContent(content string, format string) (*Config, error) {
	trimmed := strings.TrimSpace(content)
	f := strings.ToLower(strings.TrimSpace(format))
	var parser kfn.Parser
	switch f {
	case "yaml", "yml":
		parser = kyaml.Parser()
	case "json":
		parser = kjson.Parser()
	case "":
		if strings.HasPrefix(trimmed, "{") {
			parser = kjson.Parser()
		} else {
			parser = kyaml.Parser()
		}
	default:
		return nil, &UnsupportedExtensionError{Extension: f}
	}

	k := kfn.New(".")
	if err := k.Load(kraw.Provider([]byte(content)), parser); err != nil {
		return nil, fmt.Errorf("error loading config content: %w", err)
	}
	return unmarshalKoanf(k)
}

// loadConfigEnv builds the configuration without a file, from defaults and
// environment overrides only.
func loadConfigEnv() (*Config, error) {
	return unmarshalKoanf(kfn.New("."))
}

func unmarshalKoanf(k *kfn.Koanf) (*Config, error) {
	loadEnv(k)

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("error applying config defaults: %w", err)
	}
	if err := k.UnmarshalWithConf("", cfg, kfn.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return cfg, nil
}

func loadEnv(k *kfn.Koanf) {
	// Allow overriding config via environment variables with prefix GPXETL_.
	// Example: GPXETL_CONNECTION__HOST=cluster.example.com
	const prefix = "GPXETL_"
	_ = k.Load(kenv.Provider(prefix, ".", func(s string) string {
		// Transform: GPXETL_FOO__BAR -> foo.bar
		noPrefix := strings.TrimPrefix(s, prefix)
		noPrefix = strings.ToLower(noPrefix)
		// Double underscore becomes dot for nesting
		noPrefix = strings.ReplaceAll(noPrefix, "__", ".")
		return noPrefix
	}), nil)
}

// applyEnv overlays the direct environment variables on the configuration.
// Unset variables leave the existing values in place.
func applyEnv(cfg *Config, envCfg EnvConfig) {
	if envCfg.DataPath != "" {
		cfg.Source = envCfg.DataPath
	}
	if envCfg.Table != "" {
		cfg.Table = envCfg.Table
	}
	if envCfg.CreateTable != "" {
		cfg.CreateTable = envCfg.CreateTable
	}
	if envCfg.DBName != "" {
		cfg.Connection.DBName = envCfg.DBName
	}
	if envCfg.Host != "" {
		cfg.Connection.Host = envCfg.Host
	}
	if envCfg.Port != 0 {
		cfg.Connection.Port = envCfg.Port
	}
	if envCfg.User != "" {
		cfg.Connection.User = envCfg.User
	}
	if envCfg.Password != "" {
		cfg.Connection.Password = envCfg.Password
	}
	if envCfg.SSLMode != "" {
		cfg.Connection.SSLMode = envCfg.SSLMode
	}
}

type UnsupportedExtensionError struct {
	Extension string
}

func (e *UnsupportedExtensionError) Error() string {
	return "unsupported config file extension: " + e.Extension
}
