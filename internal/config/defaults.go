package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/hexwar.yaml
var defaultYAML []byte

// Default returns the embedded default configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return fallback() // Fallback to hardcoded if embed fails
	}
	return cfg
}

func fallback() Config {
	return Config{
		Layout: LayoutConfig{Orientation: "pointy", Size: 24, OriginX: 400, OriginY: 300},
		Generate: GenerateConfig{
			Radius:       12,
			Seed:         42,
			WaterLevel:   0.30,
			Players:      2,
			Cities:       6,
			Ports:        3,
			ArmyManpower: 10,
			ArmyMorale:   5,
		},
		Moves:   MovesConfig{MoraleStep: 5, MaxBudget: 3, ForeignCost: 2, Airlift: true},
		Storage: StorageConfig{DB: "data/hexwar.db", Map: "data/map.json"},
		Server:  ServerConfig{Port: 8080, RateLimit: 120},
	}
}
