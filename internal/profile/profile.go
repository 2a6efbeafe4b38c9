// Package profile defines the Onigiri configuration document: named
// profiles made of window tiles, per-monitor layout slots, and the JSON
// store that persists them under the user config directory.
package profile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/onigiri-dev/onigiri/internal/layout"
)

// Match types understood by the window rule writer.
const (
	MatchNone       = "none"
	MatchClass      = "class"
	MatchTitle      = "title"
	MatchRegexTitle = "regex-title"
)

// Launch modes for a tile's command.
const (
	LaunchRaw    = "raw"
	LaunchHelper = "helper"
	LaunchApp    = "app"
)

// Match describes how a tile identifies its target window.
type Match struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Usable reports whether the match should produce a window rule.
// Catch-all matches (type "none" or a blank value) never do.
func (m Match) Usable() bool {
	return m.Type != "" && m.Type != MatchNone && strings.TrimSpace(m.Value) != ""
}

// NormalizedValue returns the match value with surrounding space removed.
func (m Match) NormalizedValue() string {
	return strings.TrimSpace(m.Value)
}

// Tile is a single rectangular region and its window binding. Geometry is
// in global screen pixels, the same coordinates window rules use.
type Tile struct {
	Name         string `json:"name"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Match        Match  `json:"match"`
	Command      string `json:"command"`
	NoBorder     bool   `json:"no_border"`
	SkipTaskbar  bool   `json:"skip_taskbar"`
	SkipPager    bool   `json:"skip_pager,omitempty"`
	KeepAbove    bool   `json:"keep_above,omitempty"`
	Enabled      bool   `json:"enabled"`
	LaunchMode   string `json:"launch_mode"`
	TerminalApp  string `json:"terminal_app"`
	ShellCommand string `json:"shell_command"`
	AppID        string `json:"app_id,omitempty"`
	AppName      string `json:"app_name,omitempty"`
	// Desktop pins the window to a virtual desktop (1-based, 0 = any).
	Desktop int `json:"desktop,omitempty"`
	// Screen pins the window to an output (1-based, 0 = any).
	Screen int `json:"screen,omitempty"`
}

// NewTile returns a tile with the stock defaults for a freshly added
// region.
func NewTile(name string) *Tile {
	t := defaultTile()
	t.Name = name
	return &t
}

func defaultTile() Tile {
	return Tile{
		Width:       800,
		Height:      600,
		Match:       Match{Type: MatchNone},
		Enabled:     true,
		LaunchMode:  LaunchRaw,
		TerminalApp: "alacritty",
	}
}

// UnmarshalJSON fills in defaults for keys the stored document omits so
// files written by older versions keep loading.
func (t *Tile) UnmarshalJSON(data []byte) error {
	type tile Tile
	aux := tile(defaultTile())
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Tile(aux)
	t.Match.Type = strings.TrimSpace(t.Match.Type)
	if t.Match.Type == "" {
		t.Match.Type = MatchNone
	}
	return nil
}

// HasValidMatch reports whether the tile should produce a window rule.
func (t *Tile) HasValidMatch() bool {
	return t.Match.Usable()
}

// SetMatch replaces the window match.
func (t *Tile) SetMatch(matchType, value string) {
	t.Match = Match{Type: matchType, Value: value}
}

// ClearMatch removes the window match so no rule is written.
func (t *Tile) ClearMatch() {
	t.Match = Match{Type: MatchNone}
}

// SetGeometry moves the tile to the given rectangle.
func (t *Tile) SetGeometry(x, y, w, h int) {
	t.X, t.Y, t.Width, t.Height = x, y, w, h
}

// Rect returns the tile's geometry as a rectangle labeled with its name.
func (t *Tile) Rect() layout.LabeledRect {
	return layout.LabeledRect{X: t.X, Y: t.Y, W: t.Width, H: t.Height, Label: t.Name}
}

// Profile is a named tiling arrangement: the tiles to place, the gap
// between them, and the layouts saved per monitor.
type Profile struct {
	Name               string                     `json:"name"`
	Monitor            string                     `json:"monitor"`
	MonitorBackgrounds map[string]string          `json:"monitor_backgrounds,omitempty"`
	TileGap            int                        `json:"tile_gap"`
	Tiles              []*Tile                    `json:"tiles"`
	LayoutSlots        map[string]*MonitorLayouts `json:"layout_slots,omitempty"`
}

// NewProfile returns an empty profile bound to the default monitor.
func NewProfile(name string) *Profile {
	return &Profile{Name: name, Monitor: "default", Tiles: []*Tile{}}
}

// UnmarshalJSON applies defaults and upgrades legacy layout_slots
// encodings in place, so old documents load without a migration step.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type prof Profile
	aux := struct {
		*prof
		RawSlots json.RawMessage `json:"layout_slots"`
	}{prof: (*prof)(p)}
	p.Monitor = "default"
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.LayoutSlots = migrateLayoutSlots(aux.RawSlots)
	return nil
}

// FindTile returns the tile with the given name, or nil.
func (p *Profile) FindTile(name string) *Tile {
	for _, t := range p.Tiles {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddTile appends a tile with stock defaults and returns it.
func (p *Profile) AddTile(name string) *Tile {
	t := NewTile(name)
	p.Tiles = append(p.Tiles, t)
	return t
}

// RemoveTile deletes the named tile and reports whether it existed.
func (p *Profile) RemoveTile(name string) bool {
	for i, t := range p.Tiles {
		if t.Name == name {
			p.Tiles = append(p.Tiles[:i], p.Tiles[i+1:]...)
			return true
		}
	}
	return false
}

// Config is the document root of onigiri.json.
type Config struct {
	Profiles []*Profile `json:"profiles"`
}

// FindProfile returns the profile with the given name, or nil.
func (c *Config) FindProfile(name string) *Profile {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// AddProfile appends an empty profile and returns it.
func (c *Config) AddProfile(name string) *Profile {
	p := NewProfile(name)
	c.Profiles = append(c.Profiles, p)
	return p
}

// RemoveProfile deletes the named profile and reports whether it existed.
func (c *Config) RemoveProfile(name string) bool {
	for i, p := range c.Profiles {
		if p.Name == name {
			c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
			return true
		}
	}
	return false
}

// Names lists the profile names in document order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Clone returns a deep copy made through the JSON codec.
func (c *Config) Clone() (*Config, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("clone config: %w", err)
	}
	out := &Config{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("clone config: %w", err)
	}
	return out, nil
}
