// Package apps discovers launchable desktop applications and manages
// the autostart entry that re-applies a profile at login.
package apps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/ini.v1"
)

// Entry is one installed application, read from its .desktop file.
type Entry struct {
	// ID is the desktop file name, e.g. "firefox.desktop".
	ID   string
	Name string
	// Exec is the Exec line with field codes (%u, %F, ...) stripped.
	Exec string
	// WMClass is StartupWMClass when the file declares one.
	WMClass string
	// NoDisplay entries are menu-hidden; Scan skips them unless asked.
	NoDisplay bool
}

// Scan walks the standard application directories and returns the
// installed apps sorted by display name. Entries with the same desktop
// file ID shadow each other, earlier directories winning, so a user
// override in ~/.local/share/applications hides the system copy.
func Scan(includeHidden bool) ([]Entry, error) {
	dirs := []string{filepath.Join(xdg.DataHome, "applications")}
	for _, dir := range xdg.DataDirs {
		dirs = append(dirs, filepath.Join(dir, "applications"))
	}
	return ScanDirs(dirs, includeHidden)
}

// ScanDirs is Scan over an explicit directory list.
func ScanDirs(dirs []string, includeHidden bool) ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	for _, dir := range dirs {
		names, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, de := range names {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ".desktop") {
				continue
			}
			if seen[de.Name()] {
				continue
			}
			entry, ok := parseDesktopFile(filepath.Join(dir, de.Name()))
			if !ok {
				continue
			}
			seen[de.Name()] = true
			if entry.NoDisplay && !includeHidden {
				continue
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].ID < entries[j].ID
	})
	return entries, nil
}

// parseDesktopFile reads the [Desktop Entry] group of one file.
// Unparseable files, entries without a usable Name and Exec, and
// Hidden=true entries (which the desktop-entry format treats as deleted) are dropped.
func parseDesktopFile(path string) (Entry, bool) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return Entry{}, false
	}
	sec, err := f.GetSection("Desktop Entry")
	if err != nil {
		return Entry{}, false
	}

	if strings.EqualFold(strings.TrimSpace(sec.Key("Hidden").String()), "true") {
		return Entry{}, false
	}

	name := strings.TrimSpace(sec.Key("Name").String())
	exec := cleanExec(sec.Key("Exec").String())
	if name == "" || exec == "" {
		return Entry{}, false
	}

	return Entry{
		ID:        filepath.Base(path),
		Name:      name,
		Exec:      exec,
		WMClass:   strings.TrimSpace(sec.Key("StartupWMClass").String()),
		NoDisplay: strings.EqualFold(strings.TrimSpace(sec.Key("NoDisplay").String()), "true"),
	}, true
}

// cleanExec drops the %-prefixed field codes a launcher would expand.
func cleanExec(exec string) string {
	var kept []string
	for _, part := range strings.Fields(exec) {
		if strings.HasPrefix(part, "%") {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, " ")
}

// Lookup finds an app by desktop file ID, falling back to a
// case-insensitive display name match.
func Lookup(entries []Entry, query string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == query {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, query) {
			return e, true
		}
	}
	return Entry{}, false
}
