package config

import (
	"math"
	"sort"
)

// Presets are named scenarios built on top of DefaultConfig.
var Presets = map[string]func(c *Config){
	"idle": func(c *Config) {
		c.Run.Duration = 5
	},
	"wobble": func(c *Config) {
		c.Run.Start.Roll = 0.15
		c.Run.Duration = 5
	},
	"drop": func(c *Config) {
		c.Run.Start.Height = 3
		c.Run.Start.Roll = 0.3
		c.Run.Start.Pitch = -0.2
		c.Run.Duration = 5
	},
	"cruise": func(c *Config) {
		c.Run.Pilot = "cruise"
		c.Run.Duration = 20
	},
	"slalom": func(c *Config) {
		c.Run.Pilot = "cruise"
		c.Run.Duration = 30
		c.Cruise.TargetSpeed = 10
		c.Cruise.Steer = 0.3
		c.Cruise.WeavePeriod = 4
	},
	"brake-test": func(c *Config) {
		c.Run.Pilot = "script"
		c.Run.Duration = 12
		c.Scenario = []Segment{
			{Until: 6, Throttle: 1},
			{Until: 8, Throttle: 0},
			{Until: 12, Throttle: -0.5, FrontBrake: 0.8},
		}
	},
	"jump": func(c *Config) {
		c.Run.Pilot = "cruise"
		c.Run.Duration = 15
		c.Cruise.TargetSpeed = 14
		c.Terrain.Ramps = []RampConfig{
			{Start: 60, Base: 0, Pitch: 12 * math.Pi / 180, Length: 6, Width: 3},
		}
	},
	"episodes": func(c *Config) {
		c.Run.Episodes = 5
		c.Run.Duration = 4
		c.Run.Start.Jitter = 0.2
		c.Run.Seed = 1
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
