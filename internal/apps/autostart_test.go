package apps_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"

	"github.com/onigiri-dev/onigiri/internal/apps"
)

// tempConfigHome points XDG_CONFIG_HOME at a scratch directory for the
// duration of the test.
func tempConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Cleanup(func() { xdg.Reload() })
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
	return dir
}

// =============================================================================
// Autostart Entry Tests
// =============================================================================

func TestInstallAutostart(t *testing.T) {
	dir := tempConfigHome(t)

	path, err := apps.InstallAutostart("dash")
	if err != nil {
		t.Fatalf("InstallAutostart failed: %v", err)
	}
	want := filepath.Join(dir, "autostart", "onigiri.desktop")
	if path != want {
		t.Errorf("Expected path %s, got %s", want, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read autostart entry: %v", err)
	}
	contents := string(data)

	if !strings.HasPrefix(contents, "[Desktop Entry]\n") {
		t.Error("Expected a [Desktop Entry] header")
	}
	if !strings.Contains(contents, `launch "dash"`) {
		t.Errorf("Expected the Exec line to launch the profile, got:\n%s", contents)
	}
	if !strings.Contains(contents, "X-GNOME-Autostart-enabled=true") {
		t.Error("Expected the autostart-enabled marker")
	}
	if !strings.Contains(contents, "Comment=Start Onigiri and apply profile 'dash'") {
		t.Error("Expected the profile name in the comment")
	}
}

func TestInstallAutostartOverwrites(t *testing.T) {
	tempConfigHome(t)

	if _, err := apps.InstallAutostart("dash"); err != nil {
		t.Fatalf("First install failed: %v", err)
	}
	path, err := apps.InstallAutostart("coding")
	if err != nil {
		t.Fatalf("Second install failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read autostart entry: %v", err)
	}
	if !strings.Contains(string(data), `launch "coding"`) {
		t.Error("Expected the entry to be rewritten for the new profile")
	}
	if strings.Contains(string(data), "dash") {
		t.Error("Expected no trace of the previous profile")
	}
}

func TestRemoveAutostart(t *testing.T) {
	tempConfigHome(t)

	if _, err := apps.InstallAutostart("dash"); err != nil {
		t.Fatalf("InstallAutostart failed: %v", err)
	}

	removed, err := apps.RemoveAutostart()
	if err != nil {
		t.Fatalf("RemoveAutostart failed: %v", err)
	}
	if !removed {
		t.Error("Expected removal of an existing entry to report true")
	}

	removed, err = apps.RemoveAutostart()
	if err != nil {
		t.Fatalf("Second RemoveAutostart failed: %v", err)
	}
	if removed {
		t.Error("Expected removal of a missing entry to report false")
	}

	if _, err := os.Stat(apps.AutostartPath()); !os.IsNotExist(err) {
		t.Errorf("Expected the entry to be gone, stat err: %v", err)
	}
}
