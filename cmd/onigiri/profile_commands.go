package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onigiri-dev/onigiri/internal/apps"
	"github.com/onigiri-dev/onigiri/internal/profile"
)

func runProfileList() error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles. Create one with 'onigiri profiles create <name>'.")
		return nil
	}

	rows := make([][]string, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		rows = append(rows, []string{
			p.Name,
			p.Monitor,
			strconv.Itoa(len(p.Tiles)),
			strconv.Itoa(p.TileGap),
			p.CurrentLayoutName(),
		})
	}

	fmt.Println()
	fmt.Println(titleStyle().Render("Profiles"))
	printTable([]string{"Name", "Monitor", "Tiles", "Gap", "Layout"}, rows)
	return nil
}

func runProfileShow(name string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	p := cfg.FindProfile(name)
	if p == nil {
		return fmt.Errorf("profile %q not found", name)
	}

	fmt.Println()
	fmt.Println(titleStyle().Render(fmt.Sprintf("Profile '%s'", p.Name)))
	fmt.Printf("Monitor: %s   Gap: %dpx   Layouts: %s (active: %s)\n",
		p.Monitor, p.TileGap, strings.Join(p.LayoutNames(), ", "), p.CurrentLayoutName())

	if problems := profile.ValidateProfile(p); len(problems) > 0 {
		fmt.Println()
		for _, problem := range problems {
			fmt.Printf("  problem: %s\n", problem)
		}
	}
	fmt.Println()

	if len(p.Tiles) == 0 {
		fmt.Println("No tiles.")
		return nil
	}
	printTileTable(p)
	return nil
}

func printTileTable(p *profile.Profile) {
	rows := make([][]string, 0, len(p.Tiles))
	for _, t := range p.Tiles {
		match := "-"
		if t.HasValidMatch() {
			match = fmt.Sprintf("%s=%s", t.Match.Type, t.Match.NormalizedValue())
		}
		rows = append(rows, []string{
			t.Name,
			fmt.Sprintf("%d,%d %dx%d", t.X, t.Y, t.Width, t.Height),
			match,
			t.LaunchMode,
			truncate(t.Command, 40),
			yesNo(t.Enabled),
		})
	}
	printTable([]string{"Tile", "Geometry", "Match", "Mode", "Command", "Enabled"}, rows)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// runProfileCreate adds a profile. A negative gap means "use the
// settings default".
func runProfileCreate(name string, gap int) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	if gap < 0 {
		gap = env.userConfig.Apply.DefaultGap
	}
	err = env.mutate("create profile "+name, func(cfg *profile.Config) error {
		if cfg.FindProfile(name) != nil {
			return fmt.Errorf("profile %q already exists", name)
		}
		p := cfg.AddProfile(name)
		p.TileGap = gap
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created profile '%s'\n", name)
	return nil
}

func runProfileDelete(name string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate("delete profile "+name, func(cfg *profile.Config) error {
		if !cfg.RemoveProfile(name) {
			return fmt.Errorf("profile %q not found", name)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Deleted profile '%s'. Its rules stay until 'onigiri unapply %s'.\n", name, name)
	return nil
}

func runProfileRename(oldName, newName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate(fmt.Sprintf("rename profile %s to %s", oldName, newName), func(cfg *profile.Config) error {
		p := cfg.FindProfile(oldName)
		if p == nil {
			return fmt.Errorf("profile %q not found", oldName)
		}
		if cfg.FindProfile(newName) != nil {
			return fmt.Errorf("profile %q already exists", newName)
		}
		p.Name = newName
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Renamed profile '%s' to '%s'\n", oldName, newName)
	return nil
}

func runProfileCopy(source, copyName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate(fmt.Sprintf("copy profile %s to %s", source, copyName), func(cfg *profile.Config) error {
		src := cfg.FindProfile(source)
		if src == nil {
			return fmt.Errorf("profile %q not found", source)
		}
		if cfg.FindProfile(copyName) != nil {
			return fmt.Errorf("profile %q already exists", copyName)
		}

		// Clone through the codec so the copy shares nothing with the
		// source.
		tmp := &profile.Config{Profiles: []*profile.Profile{src}}
		clone, err := tmp.Clone()
		if err != nil {
			return err
		}
		dup := clone.Profiles[0]
		dup.Name = copyName
		cfg.Profiles = append(cfg.Profiles, dup)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Copied profile '%s' to '%s'\n", source, copyName)
	return nil
}

// runTileSet backs both 'tiles add' (create=true) and 'tiles set'. Only
// flags the user actually passed are applied.
func runTileSet(cmd *cobra.Command, profileName, tileName string, create bool) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}

	label := "edit tile " + tileName
	if create {
		label = "add tile " + tileName
	}

	err = env.mutate(label, func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}

		t := p.FindTile(tileName)
		switch {
		case t == nil && !create:
			return fmt.Errorf("tile %q not found in profile %q; use 'tiles add'", tileName, profileName)
		case t != nil && create:
			return fmt.Errorf("tile %q already exists in profile %q; use 'tiles set'", tileName, profileName)
		case t == nil:
			t = p.AddTile(tileName)
		}

		return applyTileFlags(cmd, t)
	})
	if err != nil {
		return err
	}

	if create {
		fmt.Printf("Added tile '%s' to profile '%s'\n", tileName, profileName)
	} else {
		fmt.Printf("Updated tile '%s'\n", tileName)
	}
	return nil
}

// applyTileFlags copies changed flags onto the tile most-specific-last:
// --app seeds match and command, --terminal/--shell switch the tile to
// helper mode, and explicit match/command flags override both.
func applyTileFlags(cmd *cobra.Command, t *profile.Tile) error {
	flags := cmd.Flags()

	if flags.Changed("x") || flags.Changed("y") || flags.Changed("width") || flags.Changed("height") {
		x := intFlag(cmd, "x", t.X)
		y := intFlag(cmd, "y", t.Y)
		w := intFlag(cmd, "width", t.Width)
		h := intFlag(cmd, "height", t.Height)
		t.SetGeometry(x, y, w, h)
	}

	if flags.Changed("app") {
		query, _ := flags.GetString("app")
		entries, err := apps.Scan(false)
		if err != nil {
			return err
		}
		entry, ok := apps.Lookup(entries, query)
		if !ok {
			return fmt.Errorf("no installed application matches %q; see 'onigiri apps'", query)
		}
		t.LaunchMode = profile.LaunchApp
		t.AppID = entry.ID
		t.AppName = entry.Name
		t.Command = entry.Exec
		if entry.WMClass != "" {
			t.SetMatch(profile.MatchClass, entry.WMClass)
		} else {
			// Without StartupWMClass the executable name is the usual
			// class on X11 and Wayland both.
			t.SetMatch(profile.MatchClass, firstWord(entry.Exec))
		}
	}

	if flags.Changed("terminal") || flags.Changed("shell") {
		t.LaunchMode = profile.LaunchHelper
		if flags.Changed("terminal") {
			t.TerminalApp, _ = flags.GetString("terminal")
		}
		if flags.Changed("shell") {
			t.ShellCommand, _ = flags.GetString("shell")
		}
		t.RebuildHelperCommand()
	}

	if flags.Changed("match-class") {
		v, _ := flags.GetString("match-class")
		t.SetMatch(profile.MatchClass, v)
	}
	if flags.Changed("match-title") {
		v, _ := flags.GetString("match-title")
		t.SetMatch(profile.MatchTitle, v)
	}
	if flags.Changed("match-regex-title") {
		v, _ := flags.GetString("match-regex-title")
		t.SetMatch(profile.MatchRegexTitle, v)
	}
	if flags.Changed("command") {
		t.Command, _ = flags.GetString("command")
		if t.LaunchMode == profile.LaunchHelper {
			t.LaunchMode = profile.LaunchRaw
		}
	}

	if flags.Changed("no-border") {
		t.NoBorder, _ = flags.GetBool("no-border")
	}
	if flags.Changed("skip-taskbar") {
		t.SkipTaskbar, _ = flags.GetBool("skip-taskbar")
	}
	if flags.Changed("skip-pager") {
		t.SkipPager, _ = flags.GetBool("skip-pager")
	}
	if flags.Changed("keep-above") {
		t.KeepAbove, _ = flags.GetBool("keep-above")
	}
	if flags.Changed("disabled") {
		disabled, _ := flags.GetBool("disabled")
		t.Enabled = !disabled
	}
	if flags.Changed("desktop") {
		t.Desktop = intFlag(cmd, "desktop", t.Desktop)
	}
	if flags.Changed("screen") {
		t.Screen = intFlag(cmd, "screen", t.Screen)
	}

	if problems := profile.ValidateTile(t); len(problems) > 0 {
		for _, problem := range problems {
			warnf("tile '%s': %s", t.Name, problem)
		}
	}
	return nil
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return fallback
	}
	return v
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func runTileRemove(profileName, tileName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	err = env.mutate("remove tile "+tileName, func(cfg *profile.Config) error {
		p := cfg.FindProfile(profileName)
		if p == nil {
			return fmt.Errorf("profile %q not found", profileName)
		}
		if !p.RemoveTile(tileName) {
			return fmt.Errorf("tile %q not found in profile %q", tileName, profileName)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("Removed tile '%s' from profile '%s'\n", tileName, profileName)
	return nil
}

func runTileList(profileName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}
	if len(p.Tiles) == 0 {
		fmt.Printf("Profile '%s' has no tiles.\n", profileName)
		return nil
	}

	fmt.Println()
	fmt.Println(titleStyle().Render(fmt.Sprintf("Tiles of '%s'", profileName)))
	printTileTable(p)
	return nil
}

func runUndo() error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}

	entry, err := env.history.Undo(cfg)
	if errors.Is(err, profile.ErrNoUndo) {
		fmt.Println("Nothing to undo.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := env.store.Save(entry.Config); err != nil {
		return err
	}
	fmt.Printf("Undid: %s\n", entry.Label)
	return nil
}

func runRedo() error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}

	entry, err := env.history.Redo(cfg)
	if errors.Is(err, profile.ErrNoRedo) {
		fmt.Println("Nothing to redo.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := env.store.Save(entry.Config); err != nil {
		return err
	}
	fmt.Printf("Redid: %s\n", entry.Label)
	return nil
}
