// Package config loads hexwar settings from YAML, a .env file and the
// environment.
package config

import (
	"fmt"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

// Config is the full hexwar configuration.
type Config struct {
	Layout   LayoutConfig   `yaml:"layout"`
	Generate GenerateConfig `yaml:"generate"`
	Moves    MovesConfig    `yaml:"moves"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
}

// LayoutConfig places the hex grid on screen.
type LayoutConfig struct {
	Orientation string  `yaml:"orientation"` // "flat" or "pointy"
	Size        float64 `yaml:"size"`        // Hex radius in pixels
	OriginX     float64 `yaml:"origin_x"`
	OriginY     float64 `yaml:"origin_y"`
}

// GenerateConfig controls new maps.
type GenerateConfig struct {
	Radius       int     `yaml:"radius"`
	Seed         int64   `yaml:"seed"`
	WaterLevel   float64 `yaml:"water_level"`
	Players      int     `yaml:"players"`
	Cities       int     `yaml:"cities"`
	Ports        int     `yaml:"ports"`
	ArmyManpower uint32  `yaml:"army_manpower"`
	ArmyMorale   uint32  `yaml:"army_morale"`
}

// MovesConfig holds the movement rules.
type MovesConfig struct {
	MoraleStep  uint32 `yaml:"morale_step"`
	MaxBudget   int    `yaml:"max_budget"`
	ForeignCost int    `yaml:"foreign_cost"`
	Airlift     bool   `yaml:"airlift"`
}

// StorageConfig names the save database and map file.
type StorageConfig struct {
	DB  string `yaml:"db"`
	Map string `yaml:"map"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AdminKey  string `yaml:"admin_key"`
	RateLimit int    `yaml:"rate_limit"` // Requests per minute per client, 0 disables
}

// HexLayout builds the layout described by c.
func (c LayoutConfig) HexLayout() (hex.Layout, error) {
	o, err := hex.ParseOrientation(c.Orientation)
	if err != nil {
		return hex.Layout{}, err
	}
	if c.Size <= 0 {
		return hex.Layout{}, fmt.Errorf("layout size must be positive, got %g", c.Size)
	}
	size := hex.Point{X: c.Size, Y: c.Size}
	origin := hex.Point{X: c.OriginX, Y: c.OriginY}
	if o == hex.Flat {
		return hex.FlatLayout(size, origin), nil
	}
	return hex.PointyLayout(size, origin), nil
}

// GenConfig converts to the world generator's settings.
func (c GenerateConfig) GenConfig() world.GenConfig {
	return world.GenConfig{
		Radius:       c.Radius,
		Seed:         c.Seed,
		WaterLevel:   c.WaterLevel,
		Players:      c.Players,
		Cities:       c.Cities,
		Ports:        c.Ports,
		ArmyManpower: c.ArmyManpower,
		ArmyMorale:   c.ArmyMorale,
	}
}

// Rules converts to the world's movement rules.
func (c MovesConfig) Rules() world.MoveRules {
	return world.MoveRules{
		MoraleStep:  c.MoraleStep,
		MaxBudget:   c.MaxBudget,
		ForeignCost: c.ForeignCost,
		Airlift:     c.Airlift,
	}
}

// MaxRadius bounds generated maps (197,377 tiles).
const MaxRadius = 256

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	if _, err := c.Layout.HexLayout(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if c.Generate.Radius < 1 {
		return fmt.Errorf("generate: radius must be at least 1, got %d", c.Generate.Radius)
	}
	if c.Generate.Radius > MaxRadius {
		return fmt.Errorf("generate: radius %d exceeds %d", c.Generate.Radius, MaxRadius)
	}
	if c.Generate.Players < 1 {
		return fmt.Errorf("generate: need at least one player, got %d", c.Generate.Players)
	}
	if c.Generate.Cities < 0 || c.Generate.Ports < 0 {
		return fmt.Errorf("generate: negative locality count (cities %d, ports %d)", c.Generate.Cities, c.Generate.Ports)
	}
	// Each player gets a capital, a satellite capital and an airport.
	tiles := 3*c.Generate.Radius*(c.Generate.Radius+1) + 1
	if n := 3*c.Generate.Players + c.Generate.Cities + c.Generate.Ports; n > tiles {
		return fmt.Errorf("generate: %d localities do not fit on %d tiles", n, tiles)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server: negative rate limit %d", c.Server.RateLimit)
	}
	return nil
}
