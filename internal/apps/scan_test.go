package apps_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/onigiri-dev/onigiri/internal/apps"
)

func writeDesktop(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// =============================================================================
// Desktop File Scan Tests
// =============================================================================

func TestScanDirsParsesEntries(t *testing.T) {
	dir := t.TempDir()
	writeDesktop(t, dir, "firefox.desktop", `[Desktop Entry]
Type=Application
Name=Firefox
Exec=/usr/lib/firefox/firefox %u
StartupWMClass=firefox
Categories=Network;WebBrowser;
`)

	entries, err := apps.ScanDirs([]string{dir}, false)
	if err != nil {
		t.Fatalf("ScanDirs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.ID != "firefox.desktop" {
		t.Errorf("Expected ID firefox.desktop, got %s", e.ID)
	}
	if e.Name != "Firefox" {
		t.Errorf("Expected name Firefox, got %s", e.Name)
	}
	if e.Exec != "/usr/lib/firefox/firefox" {
		t.Errorf("Expected field codes stripped from exec, got %q", e.Exec)
	}
	if e.WMClass != "firefox" {
		t.Errorf("Expected WMClass firefox, got %s", e.WMClass)
	}
	if e.NoDisplay {
		t.Error("Expected NoDisplay to be false")
	}
}

func TestScanSkipsUnusableEntries(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"missing name", "[Desktop Entry]\nExec=foo\n"},
		{"missing exec", "[Desktop Entry]\nName=Foo\n"},
		{"exec is only field codes", "[Desktop Entry]\nName=Foo\nExec=%U\n"},
		{"hidden", "[Desktop Entry]\nName=Foo\nExec=foo\nHidden=true\n"},
		{"no display", "[Desktop Entry]\nName=Foo\nExec=foo\nNoDisplay=true\n"},
		{"no desktop entry group", "[Desktop Action new]\nName=Foo\nExec=foo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeDesktop(t, dir, "app.desktop", tt.contents)

			entries, err := apps.ScanDirs([]string{dir}, false)
			if err != nil {
				t.Fatalf("ScanDirs failed: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("Expected entry to be skipped, got %+v", entries)
			}
		})
	}
}

func TestScanIncludeHidden(t *testing.T) {
	dir := t.TempDir()
	writeDesktop(t, dir, "menu-hidden.desktop", "[Desktop Entry]\nName=Hidden Tool\nExec=tool\nNoDisplay=true\n")
	writeDesktop(t, dir, "deleted.desktop", "[Desktop Entry]\nName=Deleted\nExec=gone\nHidden=true\n")

	entries, err := apps.ScanDirs([]string{dir}, true)
	if err != nil {
		t.Fatalf("ScanDirs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected only the NoDisplay entry, got %d entries", len(entries))
	}
	if entries[0].Name != "Hidden Tool" || !entries[0].NoDisplay {
		t.Errorf("Expected the NoDisplay entry, got %+v", entries[0])
	}
}

func TestScanEarlierDirectoryShadows(t *testing.T) {
	userDir := t.TempDir()
	systemDir := t.TempDir()
	writeDesktop(t, userDir, "editor.desktop", "[Desktop Entry]\nName=My Editor\nExec=myeditor\n")
	writeDesktop(t, systemDir, "editor.desktop", "[Desktop Entry]\nName=System Editor\nExec=editor\n")

	entries, err := apps.ScanDirs([]string{userDir, systemDir}, false)
	if err != nil {
		t.Fatalf("ScanDirs failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "My Editor" {
		t.Errorf("Expected the user override to win, got %s", entries[0].Name)
	}
}

func TestScanUnusableOverrideDoesNotHideSystemEntry(t *testing.T) {
	userDir := t.TempDir()
	systemDir := t.TempDir()
	// A broken user copy should not shadow a working system entry.
	writeDesktop(t, userDir, "editor.desktop", "[Desktop Entry]\nName=Broken\n")
	writeDesktop(t, systemDir, "editor.desktop", "[Desktop Entry]\nName=System Editor\nExec=editor\n")

	entries, err := apps.ScanDirs([]string{userDir, systemDir}, false)
	if err != nil {
		t.Fatalf("ScanDirs failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "System Editor" {
		t.Fatalf("Expected the system entry to survive, got %+v", entries)
	}
}

func TestScanSortsByName(t *testing.T) {
	dir := t.TempDir()
	writeDesktop(t, dir, "z.desktop", "[Desktop Entry]\nName=zsh docs\nExec=zd\n")
	writeDesktop(t, dir, "a.desktop", "[Desktop Entry]\nName=Btop\nExec=btop\n")
	writeDesktop(t, dir, "m.desktop", "[Desktop Entry]\nName=alacritty\nExec=alacritty\n")

	entries, err := apps.ScanDirs([]string{dir}, false)
	if err != nil {
		t.Fatalf("ScanDirs failed: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := []string{"alacritty", "Btop", "zsh docs"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, names)
		}
	}
}

func TestScanMissingDirectory(t *testing.T) {
	entries, err := apps.ScanDirs([]string{filepath.Join(t.TempDir(), "nope")}, false)
	if err != nil {
		t.Fatalf("Expected missing directories to be skipped, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

// =============================================================================
// Lookup Tests
// =============================================================================

func TestLookup(t *testing.T) {
	entries := []apps.Entry{
		{ID: "firefox.desktop", Name: "Firefox", Exec: "firefox"},
		{ID: "org.kde.konsole.desktop", Name: "Konsole", Exec: "konsole"},
	}

	if e, ok := apps.Lookup(entries, "org.kde.konsole.desktop"); !ok || e.Name != "Konsole" {
		t.Errorf("Expected ID lookup to find Konsole, got %+v ok=%v", e, ok)
	}
	if e, ok := apps.Lookup(entries, "firefox"); !ok || e.ID != "firefox.desktop" {
		t.Errorf("Expected name lookup to find firefox.desktop, got %+v ok=%v", e, ok)
	}
	if _, ok := apps.Lookup(entries, "emacs"); ok {
		t.Error("Expected lookup miss for unknown app")
	}
}
