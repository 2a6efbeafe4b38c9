// Package main implements Onigiri, a per-monitor tiling layout designer
// for KDE Plasma. Onigiri turns saved split layouts into KWin window
// rules and launches the matching applications, so a whole workspace
// comes back with one command.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/onigiri-dev/onigiri/internal/config"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	dryRun bool
)

func main() {
	// Root command
	rootCmd := &cobra.Command{
		Use:   "onigiri",
		Short: "Tiling layout designer for KWin",
		Long: `Onigiri - Tiling layout designer for KWin

Design per-monitor window layouts as recursive splits, translate them into
KWin window rules and launch the matching applications. Profiles live in a
single JSON document; layouts are edited headlessly from the command line.`,
		Example: `  # Apply a profile's layout as KWin rules
  onigiri apply coding

  # Apply, then launch every tile's command
  onigiri launch coding

  # Split the first leaf of the active layout into three columns
  onigiri layout split coding 0 3

  # Watch the profile file and re-apply on change
  onigiri watch coding`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log planned changes without writing anything")

	// Engine command variables
	var applyExclusive, unapplyAll, skipRunning bool
	var launchTile string

	applyCmd := &cobra.Command{
		Use:   "apply [profile]",
		Short: "Write a profile's layout as KWin rules",
		Long: `Push the profile's active layout into its tiles, save the profile
document and rewrite the profile's KWin window rules.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(args, applyExclusive)
		},
	}
	applyCmd.Flags().BoolVar(&applyExclusive, "exclusive", false, "Remove every Onigiri rule this apply does not write")

	unapplyCmd := &cobra.Command{
		Use:   "unapply [profile]",
		Short: "Remove a profile's KWin rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnapply(args, unapplyAll)
		},
	}
	unapplyCmd.Flags().BoolVar(&unapplyAll, "all", false, "Remove every rule Onigiri ever wrote")

	launchCmd := &cobra.Command{
		Use:   "launch [profile]",
		Short: "Apply a profile and launch its tile commands",
		Long: `Apply the profile, then start every enabled tile's command detached
from this process. After a short settle pause KWin is asked to re-read
its rules so fresh windows are caught.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(args, skipRunning, launchTile)
		},
	}
	launchCmd.Flags().BoolVar(&skipRunning, "skip-running", false, "Do not launch tiles whose program already runs")
	launchCmd.Flags().StringVar(&launchTile, "tile", "", "Launch a single tile's command, without touching rules")

	runCmd := &cobra.Command{
		Use:   "run [profile]",
		Short: "Alias for launch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(args, skipRunning, "")
		},
	}
	runCmd.Flags().BoolVar(&skipRunning, "skip-running", false, "Do not launch tiles whose program already runs")

	statusCmd := &cobra.Command{
		Use:   "status [profile]",
		Short: "Show rule and process state per tile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args)
		},
	}

	// Profile command group
	profilesCmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile", "p"},
		Short:   "Manage profiles",
	}

	var createGap int
	profilesCreateCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gap := createGap
			if !cmd.Flags().Changed("gap") {
				gap = -1
			}
			return runProfileCreate(args[0], gap)
		},
	}
	profilesCreateCmd.Flags().IntVar(&createGap, "gap", 0, "Gap between tiles in pixels (default from settings)")

	profilesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List profiles",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProfileList()
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Show a profile's tiles and layouts",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProfileShow(args[0])
			},
		},
		profilesCreateCmd,
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Delete a profile",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProfileDelete(args[0])
			},
		},
		&cobra.Command{
			Use:   "rename <old> <new>",
			Short: "Rename a profile",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProfileRename(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "copy <source> <copy>",
			Short: "Duplicate a profile under a new name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runProfileCopy(args[0], args[1])
			},
		},
	)

	// Tile command group
	tilesCmd := &cobra.Command{
		Use:     "tiles",
		Aliases: []string{"tile", "t"},
		Short:   "Manage a profile's tiles",
	}

	tilesAddCmd := &cobra.Command{
		Use:   "add <profile> <tile>",
		Short: "Add a tile to a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTileSet(cmd, args[0], args[1], true)
		},
	}
	addTileFlags(tilesAddCmd)

	tilesSetCmd := &cobra.Command{
		Use:   "set <profile> <tile>",
		Short: "Change an existing tile",
		Long: `Change an existing tile. Only the flags given on the command line are
applied; everything else keeps its stored value.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTileSet(cmd, args[0], args[1], false)
		},
	}
	addTileFlags(tilesSetCmd)

	tilesCmd.AddCommand(
		tilesAddCmd,
		tilesSetCmd,
		&cobra.Command{
			Use:   "remove <profile> <tile>",
			Short: "Remove a tile from a profile",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTileRemove(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "list <profile>",
			Short: "List a profile's tiles",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTileList(args[0])
			},
		},
	)

	// Layout command group
	layoutCmd := &cobra.Command{
		Use:     "layout",
		Aliases: []string{"l"},
		Short:   "Edit a profile's split layout",
		Long: `Edit the active layout of a profile as a tree of recursive splits.
Leaves are addressed by the index shown by 'layout show' or by the tile
name labeling them; dividers are addressed by their index.`,
	}

	var boundsW, boundsH float64
	layoutCmd.PersistentFlags().Float64Var(&boundsW, "screen-width", 1920, "Screen width the layout is designed for")
	layoutCmd.PersistentFlags().Float64Var(&boundsH, "screen-height", 1080, "Screen height the layout is designed for")

	var splitHorizontal bool
	layoutSplitCmd := &cobra.Command{
		Use:   "split <profile> <leaf> [count]",
		Short: "Split a leaf into equal parts",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayoutSplit(args, boundsW, boundsH, splitHorizontal)
		},
	}
	layoutSplitCmd.Flags().BoolVar(&splitHorizontal, "horizontal", false, "Split top/bottom instead of left/right")

	var clearLabel bool
	layoutLabelCmd := &cobra.Command{
		Use:   "label <profile> <leaf> [tile]",
		Short: "Assign a tile name to a leaf",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayoutLabel(args, boundsW, boundsH, clearLabel)
		},
	}
	layoutLabelCmd.Flags().BoolVar(&clearLabel, "clear", false, "Remove the leaf's label instead")

	var gridColumns, gridRows string
	layoutGridCmd := &cobra.Command{
		Use:   "grid <profile>",
		Short: "Replace the layout with a grid template",
		Example: `  # Two columns: two cells on the left, three on the right
  onigiri layout grid coding --columns 2,3

  # Three rows of one, two and one cells
  onigiri layout grid coding --rows 1,2,1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayoutGrid(args[0], boundsW, boundsH, gridColumns, gridRows)
		},
	}
	layoutGridCmd.Flags().StringVar(&gridColumns, "columns", "", "Comma-separated cell counts, one per column")
	layoutGridCmd.Flags().StringVar(&gridRows, "rows", "", "Comma-separated cell counts, one per row")

	var showGap int
	layoutShowCmd := &cobra.Command{
		Use:   "show <profile>",
		Short: "Preview the active layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gap := showGap
			if !cmd.Flags().Changed("gap") {
				gap = -1
			}
			return runLayoutShow(args[0], boundsW, boundsH, gap)
		},
	}
	layoutShowCmd.Flags().IntVar(&showGap, "gap", 0, "Also print the gap-projected geometry (default: the profile's gap)")

	layoutCmd.AddCommand(
		layoutShowCmd,
		layoutSplitCmd,
		&cobra.Command{
			Use:   "combine <profile> <divider>",
			Short: "Merge the two leaves around a divider",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutCombine(args, boundsW, boundsH)
			},
		},
		layoutLabelCmd,
		&cobra.Command{
			Use:   "nudge <profile> <divider> <delta>",
			Short: "Move a divider by a pixel delta",
			Long: `Move a divider by a pixel delta along its axis. The move is clamped so
no region shrinks below the minimum leaf size, and snaps onto nearby
aligned dividers just like an interactive drag.`,
			Args: cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutNudge(args, boundsW, boundsH)
			},
		},
		layoutGridCmd,
		&cobra.Command{
			Use:   "clear <profile>",
			Short: "Reset the active layout to a single region",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutClear(args[0])
			},
		},
		&cobra.Command{
			Use:   "slots <profile>",
			Short: "List the layouts saved for the profile's monitor",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutSlots(args[0])
			},
		},
		&cobra.Command{
			Use:   "use <profile> <layout>",
			Short: "Switch the active layout",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutUse(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "save-slot <profile> <layout>",
			Short: "Save the active layout under a new name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutSaveSlot(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "delete-slot <profile> <layout>",
			Short: "Delete a saved layout",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutDeleteSlot(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "rename-slot <profile> <old> <new>",
			Short: "Rename a saved layout",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLayoutRenameSlot(args[0], args[1], args[2])
			},
		},
	)

	// Rules command group
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the KWin rules file",
	}
	rulesCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List window rules",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRulesList()
			},
		},
		&cobra.Command{
			Use:   "enable <id>",
			Short: "Enable a rule",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRulesSetEnabled(args[0], true)
			},
		},
		&cobra.Command{
			Use:   "disable <id>",
			Short: "Disable a rule without removing it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runRulesSetEnabled(args[0], false)
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove every rule Onigiri ever wrote",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runUnapply(nil, true)
			},
		},
	)

	// Application discovery
	var appsAll bool
	appsCmd := &cobra.Command{
		Use:   "apps",
		Short: "List installed desktop applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAppsList(appsAll)
		},
	}
	appsCmd.Flags().BoolVar(&appsAll, "all", false, "Include menu-hidden (NoDisplay) entries")

	autostartCmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage the login autostart entry",
	}
	autostartCmd.AddCommand(
		&cobra.Command{
			Use:   "install <profile>",
			Short: "Launch the profile at login",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAutostartInstall(args[0])
			},
		},
		&cobra.Command{
			Use:   "remove",
			Short: "Remove the login entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAutostartRemove()
			},
		},
	)

	// Watch command
	var watchDebounceMS int
	watchCmd := &cobra.Command{
		Use:   "watch <profile>",
		Short: "Re-apply a profile whenever its file changes",
		Long: `Watch the profile document and re-apply the named profile every time the
file changes, so edits from another terminal take effect immediately.
Stops on Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], watchDebounceMS)
		},
	}
	watchCmd.Flags().IntVar(&watchDebounceMS, "debounce", 250, "Milliseconds to wait for the file to settle")

	// History commands
	undoCmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the last profile change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUndo()
		},
	}
	redoCmd := &cobra.Command{
		Use:   "redo",
		Short: "Redo the last undone change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedo()
		},
	}

	// Config command group
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Onigiri settings",
		Long:  `Manage the Onigiri settings file (editor feel, apply behavior, paths)`,
	}
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print settings file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				return printConfigPath()
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfig()
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit settings in $EDITOR",
			RunE: func(cmd *cobra.Command, args []string) error {
				return editConfigFile()
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Reset settings to defaults",
			Long: `Reset the Onigiri settings file to default values

This will overwrite your existing settings after confirmation.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return resetConfigToDefaults()
			},
		},
	)

	// Add subcommands to root
	rootCmd.AddCommand(
		applyCmd, unapplyCmd, launchCmd, runCmd, statusCmd,
		profilesCmd, tilesCmd, layoutCmd,
		rulesCmd, appsCmd, autostartCmd,
		watchCmd, undoCmd, redoCmd, configCmd,
	)

	// Execute with fang
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// addTileFlags registers the shared flag set of 'tiles add' and
// 'tiles set'.
func addTileFlags(cmd *cobra.Command) {
	cmd.Flags().Int("x", 0, "X position in pixels")
	cmd.Flags().Int("y", 0, "Y position in pixels")
	cmd.Flags().Int("width", 800, "Width in pixels")
	cmd.Flags().Int("height", 600, "Height in pixels")
	cmd.Flags().String("match-class", "", "Match windows by WM class")
	cmd.Flags().String("match-title", "", "Match windows by exact title")
	cmd.Flags().String("match-regex-title", "", "Match windows by title regex")
	cmd.Flags().String("command", "", "Shell command that launches the window")
	cmd.Flags().String("app", "", "Fill match and command from an installed application")
	cmd.Flags().String("terminal", "", "Terminal emulator for a helper-mode tile")
	cmd.Flags().String("shell", "", "Shell command to run inside the helper terminal")
	cmd.Flags().Bool("no-border", false, "Remove the window border")
	cmd.Flags().Bool("skip-taskbar", false, "Hide the window from the taskbar")
	cmd.Flags().Bool("skip-pager", false, "Hide the window from the pager")
	cmd.Flags().Bool("keep-above", false, "Keep the window above others")
	cmd.Flags().Bool("disabled", false, "Keep the tile but stop applying and launching it")
	cmd.Flags().Int("desktop", 0, "Pin to a virtual desktop (1-based, 0 = any)")
	cmd.Flags().Int("screen", 0, "Pin to an output (1-based, 0 = any)")
}

// printConfigPath prints the settings file path
func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

// showConfig prints the effective settings as TOML, defaults filled in.
func showConfig() error {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

// editConfigFile opens the settings file in $EDITOR
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Ensure config file exists (create default if needed)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if _, err := config.LoadUserConfig(); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "vi", "nano", "emacs"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Please set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resetConfigToDefaults overwrites the settings file with the defaults
func resetConfigToDefaults() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Check if config exists and ask for confirmation
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Warning: This will overwrite your existing settings at:\n")
		fmt.Printf("  %s\n\n", configPath)
		fmt.Printf("Are you sure you want to reset to defaults? (yes/no): ")

		var response string
		fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "yes" && response != "y" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	if err := config.SaveUserConfig(config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Printf("Settings reset to defaults\n")
	fmt.Printf("  Location: %s\n", configPath)
	fmt.Println("\nYou can customize them with: onigiri config edit")
	return nil
}

// warnf reports a soft failure in CLI glue: print and continue.
func warnf(format string, args ...any) {
	log.Printf("Warning: "+format, args...)
}
