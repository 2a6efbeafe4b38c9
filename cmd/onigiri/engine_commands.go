package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/onigiri-dev/onigiri/internal/config"
	"github.com/onigiri-dev/onigiri/internal/engine"
	"github.com/onigiri-dev/onigiri/internal/kwin"
	"github.com/onigiri-dev/onigiri/internal/profile"
)

// appEnv bundles the settings, the profile store, the rules file and the
// undo history every command operates on.
type appEnv struct {
	userConfig *config.UserConfig
	store      *profile.Store
	rules      *kwin.Manager
	history    *profile.History
}

// newAppEnv loads the settings and resolves the store and rules paths,
// honoring the [paths] overrides.
func newAppEnv() (*appEnv, error) {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		warnf("failed to load config, using defaults: %v", err)
		userConfig = config.DefaultConfig()
	}

	storePath := userConfig.Paths.Profiles
	if storePath == "" {
		storePath, err = profile.DefaultStorePath()
		if err != nil {
			return nil, fmt.Errorf("could not determine profile path: %w", err)
		}
	}

	rulesPath := userConfig.Paths.KWinRules
	if rulesPath == "" {
		rulesPath = kwin.DefaultRulesPath()
	}

	return &appEnv{
		userConfig: userConfig,
		store:      profile.NewStore(storePath),
		rules:      kwin.NewManager(rulesPath),
		history:    profile.NewHistory(profile.DefaultHistoryDir(), profile.DefaultHistoryLimit),
	}, nil
}

// engine builds the apply/launch engine with the session's options.
func (a *appEnv) engine(exclusive, skipRunning bool) *engine.Engine {
	return engine.New(a.store, a.rules, nil, nil, engine.Options{
		DryRun:      dryRun,
		Exclusive:   exclusive,
		SettleDelay: a.userConfig.LaunchDelay(),
		SkipRunning: skipRunning || a.userConfig.Apply.SkipRunning,
	})
}

// mutate loads the document, snapshots it for undo, applies fn and saves.
// Dry runs skip the snapshot and the save so nothing touches disk.
func (a *appEnv) mutate(label string, fn func(cfg *profile.Config) error) error {
	cfg, err := a.store.Load()
	if err != nil {
		return err
	}
	if dryRun {
		if err := fn(cfg); err != nil {
			return err
		}
		fmt.Printf("Dry run: not saving %q\n", label)
		return nil
	}
	if err := a.history.Snapshot(cfg, label); err != nil {
		warnf("history snapshot failed: %v", err)
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return a.store.Save(cfg)
}

// resolveProfileName picks the profile to act on: the one named on the
// command line, or the only one in the document.
func resolveProfileName(cfg *profile.Config, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	names := cfg.Names()
	switch len(names) {
	case 0:
		return "", errors.New("no profiles configured; create one with 'onigiri profiles create'")
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("several profiles exist (%s); name one", strings.Join(names, ", "))
	}
}

func (a *appEnv) profileNameFromArgs(args []string) (string, error) {
	cfg, err := a.store.Load()
	if err != nil {
		return "", err
	}
	return resolveProfileName(cfg, args)
}

func runApply(args []string, exclusive bool) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	name, err := env.profileNameFromArgs(args)
	if err != nil {
		return err
	}

	res, err := env.engine(exclusive, false).Apply(context.Background(), name)
	if err != nil {
		return err
	}

	verb := "Applied"
	if res.DryRun {
		verb = "Would apply"
	}
	fmt.Printf("%s profile '%s': %d rule(s) written, %d removed\n", verb, res.Profile, res.RulesWritten, res.RulesRemoved)
	for _, tile := range res.SkippedTiles {
		fmt.Printf("  skipped '%s': no usable window match\n", tile)
	}
	return nil
}

func runUnapply(args []string, all bool) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	eng := env.engine(false, false)

	if all {
		removed, err := eng.UnapplyAll(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d rule(s)\n", removed)
		return nil
	}

	name, err := env.profileNameFromArgs(args)
	if err != nil {
		return err
	}
	removed, err := eng.Unapply(context.Background(), name)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d rule(s) for profile '%s'\n", removed, name)
	return nil
}

func runLaunch(args []string, skipRunning bool, tile string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	name, err := env.profileNameFromArgs(args)
	if err != nil {
		return err
	}
	eng := env.engine(false, skipRunning)

	if tile != "" {
		if err := eng.LaunchTile(name, tile); err != nil {
			return err
		}
		fmt.Printf("Launched tile '%s'\n", tile)
		return nil
	}

	res, err := eng.Launch(context.Background(), name)
	if err != nil {
		return err
	}
	fmt.Printf("Launched %d tile(s) for profile '%s'\n", len(res.Launched), name)
	for _, t := range res.Skipped {
		fmt.Printf("  '%s' already running, skipped\n", t)
	}
	return nil
}

func runStatus(args []string) error {
	env, err := newAppEnv()
	if err != nil {
		return err
	}
	name, err := env.profileNameFromArgs(args)
	if err != nil {
		return err
	}

	statuses, err := env.engine(false, false).Status(context.Background(), name)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Printf("Profile '%s' has no tiles.\n", name)
		return nil
	}

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		rule := "absent"
		if st.RuleID != "" {
			rule = "present"
			if !st.RuleEnabled {
				rule = "disabled"
			}
		}
		rows = append(rows, []string{
			st.Tile,
			yesNo(st.Enabled),
			rule,
			yesNo(st.Running),
		})
	}

	fmt.Println()
	fmt.Println(titleStyle().Render(fmt.Sprintf("Profile '%s'", name)))
	printTable([]string{"Tile", "Enabled", "Rule", "Running"}, rows)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Table styling shared by every listing command.

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
}

func printTable(headers []string, rows [][]string) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Println(t.Render())
	fmt.Println()
}
