package main

import (
	"fmt"

	"github.com/onigiri-dev/onigiri/internal/apps"
)

func runRulesList() error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	rules, err := env.rules.List()
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Printf("No window rules in %s\n", env.rules.Path())
		return nil
	}

	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		owner := "other"
		if r.Owned {
			owner = "onigiri"
		}
		rows = append(rows, []string{
			r.ID,
			truncate(r.Description, 40),
			r.Position,
			r.Size,
			yesNo(r.Enabled),
			owner,
		})
	}

	fmt.Println()
	fmt.Println(titleStyle().Render("KWin window rules"))
	printTable([]string{"ID", "Description", "Position", "Size", "Enabled", "Owner"}, rows)
	return nil
}

func runRulesSetEnabled(id string, enabled bool) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Printf("Dry run: would set rule %s enabled=%v\n", id, enabled)
		return nil
	}

	found, err := env.rules.SetEnabled(id, enabled)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("rule %q not found; see 'onigiri rules list'", id)
	}
	if enabled {
		fmt.Printf("Enabled rule %s\n", id)
	} else {
		fmt.Printf("Disabled rule %s\n", id)
	}
	return nil
}

func runAppsList(includeHidden bool) error {
	entries, err := apps.Scan(includeHidden)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No desktop applications found.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Name,
			e.ID,
			e.WMClass,
			truncate(e.Exec, 48),
		})
	}

	fmt.Println()
	fmt.Println(titleStyle().Render("Installed applications"))
	printTable([]string{"Name", "ID", "WM class", "Command"}, rows)
	return nil
}

func runAutostartInstall(profileName string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	cfg, err := env.store.Load()
	if err != nil {
		return err
	}
	if cfg.FindProfile(profileName) == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}
	if dryRun {
		fmt.Printf("Dry run: would install autostart entry at %s\n", apps.AutostartPath())
		return nil
	}

	path, err := apps.InstallAutostart(profileName)
	if err != nil {
		return err
	}
	fmt.Printf("Installed autostart entry for '%s'\n  %s\n", profileName, path)
	return nil
}

func runAutostartRemove() error {
	if dryRun {
		fmt.Printf("Dry run: would remove %s\n", apps.AutostartPath())
		return nil
	}
	removed, err := apps.RemoveAutostart()
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("No autostart entry installed.")
		return nil
	}
	fmt.Println("Removed the autostart entry.")
	return nil
}
