// Package config loads the user's settings file: editor feel, apply
// behavior and path overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"github.com/onigiri-dev/onigiri/internal/layout"
)

// DefaultLaunchDelayMS is the settle pause between launching commands
// and the final compositor reconfigure.
const DefaultLaunchDelayMS = 1500

// EditorConfig tunes the layout editor's feel.
type EditorConfig struct {
	MinLeafPixels float64 `toml:"min_leaf_pixels"`
	SnapDistance  float64 `toml:"snap_distance"`
	HitTolerance  float64 `toml:"hit_tolerance"`
}

// ApplyConfig tunes how profiles are applied and launched.
type ApplyConfig struct {
	DefaultGap    int  `toml:"default_gap"`
	LaunchDelayMS int  `toml:"launch_delay_ms"`
	SkipRunning   bool `toml:"skip_running"`
}

// PathsConfig overrides the standard file locations. Empty fields mean
// the XDG defaults.
type PathsConfig struct {
	KWinRules string `toml:"kwin_rules"`
	Profiles  string `toml:"profiles"`
}

// UserConfig is the whole settings file.
type UserConfig struct {
	Editor EditorConfig `toml:"editor"`
	Apply  ApplyConfig  `toml:"apply"`
	Paths  PathsConfig  `toml:"paths"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *UserConfig {
	return &UserConfig{
		Editor: EditorConfig{
			MinLeafPixels: layout.DefaultMinLeafPixels,
			SnapDistance:  layout.DefaultSnapDistance,
			HitTolerance:  layout.DefaultHitTolerance,
		},
		Apply: ApplyConfig{
			DefaultGap:    0,
			LaunchDelayMS: DefaultLaunchDelayMS,
			SkipRunning:   false,
		},
	}
}

// GetConfigPath returns the settings file location, creating parent
// directories as needed.
func GetConfigPath() (string, error) {
	return xdg.ConfigFile("onigiri/onigiri.toml")
}

// LoadUserConfig reads the settings file, writing the defaults first
// when none exists. Missing keys keep their defaults and out-of-range
// values are clamped rather than rejected.
func LoadUserConfig() (*UserConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("could not determine config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := SaveUserConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.clamp()
	return cfg, nil
}

// SaveUserConfig writes the settings file.
func SaveUserConfig(cfg *UserConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *UserConfig) clamp() {
	if c.Editor.MinLeafPixels <= 0 {
		c.Editor.MinLeafPixels = layout.DefaultMinLeafPixels
	}
	if c.Editor.SnapDistance <= 0 {
		c.Editor.SnapDistance = layout.DefaultSnapDistance
	}
	if c.Editor.HitTolerance <= 0 {
		c.Editor.HitTolerance = layout.DefaultHitTolerance
	}
	if c.Apply.DefaultGap < 0 {
		c.Apply.DefaultGap = 0
	}
	if c.Apply.LaunchDelayMS < 0 {
		c.Apply.LaunchDelayMS = DefaultLaunchDelayMS
	}
}

// EditorOptions converts the editor section into layout options.
func (c *UserConfig) EditorOptions() layout.Options {
	return layout.Options{
		MinLeafPixels: c.Editor.MinLeafPixels,
		SnapDistance:  c.Editor.SnapDistance,
		HitTolerance:  c.Editor.HitTolerance,
	}
}

// LaunchDelay returns the settle pause as a duration.
func (c *UserConfig) LaunchDelay() time.Duration {
	return time.Duration(c.Apply.LaunchDelayMS) * time.Millisecond
}
