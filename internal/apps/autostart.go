package apps

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const autostartFileName = "onigiri.desktop"

// One autostart entry per user; installing for another profile
// overwrites it.
const autostartTemplate = `[Desktop Entry]
Type=Application
Exec="%s" launch "%s"
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true
Name=Onigiri
Comment=Start Onigiri and apply profile '%s'
`

// AutostartPath returns where the login entry lives.
func AutostartPath() string {
	return filepath.Join(xdg.ConfigHome, "autostart", autostartFileName)
}

// InstallAutostart writes a .desktop entry that applies and launches the
// named profile at login. It returns the path written.
func InstallAutostart(profileName string) (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return installAutostart(AutostartPath(), exe, profileName)
}

func installAutostart(path, exe, profileName string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create autostart dir: %w", err)
	}
	contents := fmt.Sprintf(autostartTemplate, exe, profileName, profileName)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return "", fmt.Errorf("write autostart entry: %w", err)
	}
	return path, nil
}

// RemoveAutostart deletes the login entry and reports whether one
// existed.
func RemoveAutostart() (bool, error) {
	return removeAutostart(AutostartPath())
}

func removeAutostart(path string) (bool, error) {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove autostart entry: %w", err)
	}
	return true, nil
}
