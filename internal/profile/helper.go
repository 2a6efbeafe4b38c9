package profile

import (
	"fmt"
	"strings"
)

// fallbackTileTitle is used when a helper tile has no name yet. The title
// still has to be stable so the generated title match can find the window.
const fallbackTileTitle = "Onigiri Tile"

// BuildHelperCommand composes the terminal invocation for a helper-mode
// tile. The terminal is told to set its window title to the tile name so
// the generated title match finds the window, and the shell command is
// followed by an interactive shell so the window stays open.
func BuildHelperCommand(terminal, shellCommand, tileName string) string {
	terminal = strings.TrimSpace(terminal)
	if terminal == "" {
		terminal = "alacritty"
	}
	cmd := strings.TrimSpace(shellCommand)
	title := strings.TrimSpace(tileName)
	if title == "" {
		title = fallbackTileTitle
	}

	switch terminal {
	case "alacritty", "kitty":
		if cmd == "" {
			return fmt.Sprintf("%s --title '%s'", terminal, title)
		}
		return fmt.Sprintf("%s --title '%s' -e bash -lc '%s; exec $SHELL'", terminal, title, cmd)
	case "konsole":
		// The tab title usually ends up in the window title.
		if cmd == "" {
			return fmt.Sprintf("%s --new-tab -p tabtitle='%s'", terminal, title)
		}
		return fmt.Sprintf("%s --new-tab --hold -p tabtitle='%s' -e bash -lc '%s; exec $SHELL'", terminal, title, cmd)
	case "xterm":
		if cmd == "" {
			return fmt.Sprintf("%s -T '%s'", terminal, title)
		}
		return fmt.Sprintf("%s -T '%s' -e bash -lc '%s; exec $SHELL'", terminal, title, cmd)
	default:
		// Unknown terminal: no reliable title flag, just run the command.
		if cmd == "" {
			return terminal
		}
		return fmt.Sprintf("%s -e bash -lc '%s; exec $SHELL'", terminal, cmd)
	}
}

// RebuildHelperCommand regenerates the stored command and the automatic
// title match for a helper-mode tile. Tiles in other launch modes are
// left alone.
func (t *Tile) RebuildHelperCommand() bool {
	if t.LaunchMode != LaunchHelper {
		return false
	}

	t.Command = BuildHelperCommand(t.TerminalApp, t.ShellCommand, t.Name)

	title := strings.TrimSpace(t.Name)
	if title == "" {
		title = fallbackTileTitle
	}
	t.SetMatch(MatchTitle, title)
	return true
}
