package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LocalPath is where Load looks when no path is given.
const LocalPath = "configs/hexwar.yaml"

// Load reads the configuration.
// Search order: customPath -> ./configs/hexwar.yaml -> embedded default.
// Fields missing from a file keep their defaults. Environment variables,
// including those from a .env file in the working directory, override the
// result.
func Load(customPath string) (Config, error) {
	cfg := Default()

	switch {
	case customPath != "":
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
	default:
		if data, err := os.ReadFile(LocalPath); err == nil {
			local := cfg
			if err := yaml.Unmarshal(data, &local); err == nil {
				cfg = local
			} else {
				slog.Warn("ignoring unreadable config", "path", LocalPath, "error", err)
			}
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		slog.Warn(".env file not loaded", "error", err)
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotEnv loads path into the environment if it exists. Variables that
// are already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(cfg *Config) {
	cfg.Storage.DB = envOrDefault("HEXWAR_DB", cfg.Storage.DB)
	cfg.Storage.Map = envOrDefault("HEXWAR_MAP", cfg.Storage.Map)
	cfg.Server.Port = envIntOrDefault("HEXWAR_PORT", cfg.Server.Port)
	cfg.Server.AdminKey = envOrDefault("HEXWAR_ADMIN_KEY", cfg.Server.AdminKey)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring non-numeric env var", "key", key, "value", v)
		return def
	}
	return n
}

// Write saves cfg as YAML, creating parent directories.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
