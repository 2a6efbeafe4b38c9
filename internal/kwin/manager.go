// Package kwin persists KWin window rules in the kwinrulesrc INI file
// and pokes the compositor over D-Bus so it picks them up. Rules are
// plain records; no other window-manager state is modeled.
package kwin

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
	"gopkg.in/ini.v1"
)

func init() {
	// kwinrulesrc is written without alignment padding, the way KConfig
	// writes it.
	ini.PrettyFormat = false
}

// Description prefixes marking rules as ours. The legacy prefix is what
// earlier releases wrote; it is still recognized so cleanup catches old
// rules.
const (
	descriptionPrefix       = "Onigiri:"
	legacyDescriptionPrefix = "KWinTiler:"
)

const generalSection = "General"

// RuleDescription returns the description recorded for a profile's tile.
func RuleDescription(profileName, tileName string) string {
	return descriptionPrefix + profileName + ":" + tileName
}

// LegacyRuleDescription returns the description earlier releases wrote
// for the same tile.
func LegacyRuleDescription(profileName, tileName string) string {
	return legacyDescriptionPrefix + profileName + ":" + tileName
}

// OwnedDescription reports whether a rule description was written by
// this tool, under the current or the legacy prefix.
func OwnedDescription(desc string) bool {
	return strings.HasPrefix(desc, descriptionPrefix) ||
		strings.HasPrefix(desc, legacyDescriptionPrefix)
}

func profilePrefixes(profileName string) []string {
	return []string{
		descriptionPrefix + profileName + ":",
		legacyDescriptionPrefix + profileName + ":",
	}
}

// OwnedByProfile reports whether a rule description belongs to the
// named profile, under either prefix.
func OwnedByProfile(desc, profileName string) bool {
	for _, prefix := range profilePrefixes(profileName) {
		if strings.HasPrefix(desc, prefix) {
			return true
		}
	}
	return false
}

// RuleSpec describes the window rule to write for one tile. Geometry is
// in global screen pixels. MatchType takes the profile match types
// ("class", "title", "regex-title"); anything else writes no matcher.
type RuleSpec struct {
	Description string
	X, Y, W, H  int
	MatchType   string
	MatchValue  string
	NoBorder    bool
	SkipTaskbar bool
	SkipPager   bool
	KeepAbove   bool
	// Desktop pins the window to a virtual desktop (1-based, 0 = any).
	Desktop int
	// Screen pins the window to an output (1-based, 0 = any).
	Screen int
}

// Rule is one window rule as read back from kwinrulesrc.
type Rule struct {
	ID          string
	Description string
	Position    string
	Size        string
	WMClass     string
	Title       string
	Enabled     bool
	Owned       bool
}

// DefaultRulesPath returns the standard kwinrulesrc location.
func DefaultRulesPath() string {
	return filepath.Join(xdg.ConfigHome, "kwinrulesrc")
}

// Manager reads and writes window rules at a fixed kwinrulesrc path.
type Manager struct {
	path string
}

// NewManager returns a manager bound to the given rules file.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the rules file the manager operates on.
func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) load() (*ini.File, error) {
	f, err := ini.LooseLoad(m.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", m.path, err)
	}
	return f, nil
}

func (m *Manager) save(f *ini.File) error {
	setRulesList(f, rulesList(f))

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}
	if err := os.WriteFile(m.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	return nil
}

// rulesList returns the ordered rule IDs from [General].rules.
func rulesList(f *ini.File) []string {
	raw := strings.TrimSpace(f.Section(generalSection).Key("rules").String())
	if raw == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// setRulesList updates [General].rules and [General].count, dropping
// duplicates while keeping order.
func setRulesList(f *ini.File, ids []string) {
	seen := make(map[string]bool, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			cleaned = append(cleaned, id)
			seen[id] = true
		}
	}
	general := f.Section(generalSection)
	general.Key("rules").SetValue(strings.Join(cleaned, ","))
	general.Key("count").SetValue(strconv.Itoa(len(cleaned)))
}

// findByDescription returns the section whose Description matches, or "".
func findByDescription(f *ini.File, desc string) string {
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection || name == generalSection {
			continue
		}
		if sec.Key("Description").String() == desc {
			return name
		}
	}
	return ""
}

// Upsert writes a single rule, reusing the section that already carries
// the spec's description. It returns the rule ID.
func (m *Manager) Upsert(spec RuleSpec) (string, error) {
	f, err := m.load()
	if err != nil {
		return "", err
	}
	id := upsertRule(f, spec)
	if err := m.save(f); err != nil {
		return "", err
	}
	return id, nil
}

func upsertRule(f *ini.File, spec RuleSpec) string {
	id := findByDescription(f, spec.Description)
	if id == "" {
		id = uuid.NewString()
		setRulesList(f, append(rulesList(f), id))
	}
	sec := f.Section(id)

	sec.Key("Description").SetValue(spec.Description)
	sec.Key("position").SetValue(fmt.Sprintf("%d,%d", spec.X, spec.Y))
	sec.Key("positionrule").SetValue("2")
	sec.Key("size").SetValue(fmt.Sprintf("%d,%d", spec.W, spec.H))
	sec.Key("sizerule").SetValue("2")

	setFlag(sec, "noborder", spec.NoBorder)
	setFlag(sec, "skiptaskbar", spec.SkipTaskbar)
	setFlag(sec, "skippager", spec.SkipPager)
	setFlag(sec, "above", spec.KeepAbove)

	// Replace the matcher wholesale so retargeting a rule from class to
	// title never leaves the old keys behind.
	sec.DeleteKey("wmclass")
	sec.DeleteKey("wmclassmatch")
	sec.DeleteKey("title")
	sec.DeleteKey("titlematch")
	switch spec.MatchType {
	case "class":
		sec.Key("wmclass").SetValue(spec.MatchValue)
		sec.Key("wmclassmatch").SetValue("1") // exact
	case "title":
		sec.Key("title").SetValue(spec.MatchValue)
		sec.Key("titlematch").SetValue("2") // substring
	case "regex-title":
		sec.Key("title").SetValue(spec.MatchValue)
		sec.Key("titlematch").SetValue("3") // regex
	}

	if spec.Desktop > 0 {
		sec.Key("desktop").SetValue(strconv.Itoa(spec.Desktop))
		sec.Key("desktoprule").SetValue("2")
	} else {
		sec.DeleteKey("desktop")
		sec.DeleteKey("desktoprule")
	}
	if spec.Screen > 0 {
		sec.Key("screen").SetValue(strconv.Itoa(spec.Screen - 1))
		sec.Key("screenrule").SetValue("2")
	} else {
		sec.DeleteKey("screen")
		sec.DeleteKey("screenrule")
	}

	sec.Key("types").SetValue("1") // normal windows only

	return id
}

// setFlag writes a force-on boolean rule key or removes it entirely, the
// KWin convention for "not forced".
func setFlag(sec *ini.Section, key string, on bool) {
	if on {
		sec.Key(key).SetValue("true")
		sec.Key(key + "rule").SetValue("2")
		return
	}
	sec.DeleteKey(key)
	sec.DeleteKey(key + "rule")
}

// SyncProfile writes one rule per spec and removes owned rules that no
// spec claims, all in a single file rewrite. By default only the named
// profile's stale rules go away; exclusive widens removal to every
// owned rule, so the synced profile becomes the only active layout. It
// returns how many rules were written and how many were removed.
func (m *Manager) SyncProfile(profileName string, specs []RuleSpec, exclusive bool) (written, removed int, err error) {
	f, err := m.load()
	if err != nil {
		return 0, 0, err
	}

	keep := make(map[string]bool, len(specs))
	for _, spec := range specs {
		upsertRule(f, spec)
		keep[spec.Description] = true
		written++
	}

	removed = removeMatching(f, func(desc string) bool {
		if keep[desc] {
			return false
		}
		if exclusive {
			return OwnedDescription(desc)
		}
		return OwnedByProfile(desc, profileName)
	})

	if err := m.save(f); err != nil {
		return 0, 0, err
	}
	return written, removed, nil
}

// removeMatching deletes every rule section whose description the
// predicate selects and prunes the [General] list.
func removeMatching(f *ini.File, match func(desc string) bool) int {
	var doomed []string
	for _, sec := range f.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection || name == generalSection {
			continue
		}
		if match(sec.Key("Description").String()) {
			doomed = append(doomed, name)
		}
	}

	if len(doomed) == 0 {
		return 0
	}

	doomedSet := make(map[string]bool, len(doomed))
	for _, name := range doomed {
		doomedSet[name] = true
		f.DeleteSection(name)
	}

	var kept []string
	for _, id := range rulesList(f) {
		if !doomedSet[id] {
			kept = append(kept, id)
		}
	}
	setRulesList(f, kept)

	return len(doomed)
}

// Remove deletes a single rule by ID and reports whether it existed.
func (m *Manager) Remove(id string) (bool, error) {
	f, err := m.load()
	if err != nil {
		return false, err
	}
	if id == generalSection || !f.HasSection(id) {
		return false, nil
	}
	f.DeleteSection(id)

	var kept []string
	for _, rid := range rulesList(f) {
		if rid != id {
			kept = append(kept, rid)
		}
	}
	setRulesList(f, kept)

	if err := m.save(f); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveProfile deletes every rule owned by the named profile, including
// rules written under the legacy prefix. It returns how many went away.
func (m *Manager) RemoveProfile(profileName string) (int, error) {
	f, err := m.load()
	if err != nil {
		return 0, err
	}
	removed := removeMatching(f, func(desc string) bool {
		return OwnedByProfile(desc, profileName)
	})
	if removed == 0 {
		return 0, nil
	}
	if err := m.save(f); err != nil {
		return 0, err
	}
	return removed, nil
}

// RemoveOwned deletes every rule this tool ever wrote, for any profile.
func (m *Manager) RemoveOwned() (int, error) {
	f, err := m.load()
	if err != nil {
		return 0, err
	}
	removed := removeMatching(f, OwnedDescription)
	if removed == 0 {
		return 0, nil
	}
	if err := m.save(f); err != nil {
		return 0, err
	}
	return removed, nil
}

// List returns the rules in [General] order. Sections missing from the
// list are invisible, matching how the rules KCM reads the file.
func (m *Manager) List() ([]Rule, error) {
	f, err := m.load()
	if err != nil {
		return nil, err
	}

	var rules []Rule
	for _, id := range rulesList(f) {
		if !f.HasSection(id) {
			continue
		}
		sec := f.Section(id)
		desc := sec.Key("Description").String()
		enabled := strings.ToLower(strings.TrimSpace(sec.Key("Enabled").String())) != "false"

		rules = append(rules, Rule{
			ID:          id,
			Description: desc,
			Position:    sec.Key("position").String(),
			Size:        sec.Key("size").String(),
			WMClass:     sec.Key("wmclass").String(),
			Title:       sec.Key("title").String(),
			Enabled:     enabled,
			Owned:       OwnedDescription(desc),
		})
	}
	return rules, nil
}

// SetEnabled toggles a rule. Enabling removes the Enabled key since KWin
// treats a missing key as enabled; disabling writes Enabled=false. It
// reports whether the rule exists.
func (m *Manager) SetEnabled(id string, enabled bool) (bool, error) {
	f, err := m.load()
	if err != nil {
		return false, err
	}
	if id == generalSection || !f.HasSection(id) {
		return false, nil
	}

	sec := f.Section(id)
	if enabled {
		sec.DeleteKey("Enabled")
	} else {
		sec.Key("Enabled").SetValue("false")
	}

	if err := m.save(f); err != nil {
		return false, err
	}
	return true, nil
}
