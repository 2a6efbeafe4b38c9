package engine

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/onigiri-dev/onigiri/internal/profile"
)

// LaunchResult reports what a launch did.
type LaunchResult struct {
	Applied *ApplyResult
	// Launched and Skipped hold tile names; skipped tiles already had a
	// running process.
	Launched []string
	Skipped  []string
}

// Launch applies the profile, starts every enabled tile's command, then
// waits for the windows to map and reconfigures once more so the fresh
// rules catch them.
func (e *Engine) Launch(ctx context.Context, profileName string) (*LaunchResult, error) {
	cfg, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return nil, fmt.Errorf("profile %q not found", profileName)
	}

	applied, err := e.applyLoaded(ctx, cfg, p)
	if err != nil {
		return nil, err
	}
	res := &LaunchResult{Applied: applied}

	for _, t := range p.Tiles {
		if !t.Enabled {
			continue
		}
		command := strings.TrimSpace(t.Command)
		if command == "" {
			continue
		}

		if e.opts.SkipRunning {
			running, err := processRunning(ctx, launchNeedle(t))
			if err != nil {
				e.log.Warn("process scan failed", "tile", t.Name, "err", err)
			}
			if running {
				e.log.Info("already running, not launching", "tile", t.Name)
				res.Skipped = append(res.Skipped, t.Name)
				continue
			}
		}

		if e.opts.DryRun {
			e.log.Info("would launch", "tile", t.Name, "command", command)
			res.Launched = append(res.Launched, t.Name)
			continue
		}

		if err := startDetached(command); err != nil {
			e.log.Error("launch failed", "tile", t.Name, "err", err)
			continue
		}
		e.log.Info("launched", "tile", t.Name, "command", command)
		res.Launched = append(res.Launched, t.Name)
	}

	if len(res.Launched) > 0 && !e.opts.DryRun {
		e.settle(ctx)
		e.reconfigure(ctx)
	}
	return res, nil
}

// LaunchTile starts a single tile's command without touching rules.
func (e *Engine) LaunchTile(profileName, tileName string) error {
	cfg, err := e.store.Load()
	if err != nil {
		return err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}
	t := p.FindTile(tileName)
	if t == nil {
		return fmt.Errorf("tile %q not found in profile %q", tileName, profileName)
	}

	command := strings.TrimSpace(t.Command)
	if command == "" {
		return fmt.Errorf("tile %q has no command configured", tileName)
	}

	if e.opts.DryRun {
		e.log.Info("would launch", "tile", t.Name, "command", command)
		return nil
	}
	return startDetached(command)
}

// settle pauses so launched windows can map and set their titles before
// the compositor re-reads the rules.
func (e *Engine) settle(ctx context.Context) {
	if e.opts.SettleDelay <= 0 {
		return
	}
	timer := time.NewTimer(e.opts.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// startDetached runs a shell command in its own session so it survives
// this process exiting.
func startDetached(command string) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %q: %w", command, err)
	}
	return cmd.Process.Release()
}

// launchNeedle picks the string used to spot a tile's running process:
// the shell command for helper tiles, otherwise the command's first
// word with shell quoting trimmed.
func launchNeedle(t *profile.Tile) string {
	src := t.Command
	if t.LaunchMode == profile.LaunchHelper && strings.TrimSpace(t.ShellCommand) != "" {
		src = t.ShellCommand
	}
	fields := strings.Fields(src)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], `'"`)
}

// processRunning reports whether any process command line contains the
// needle.
func processRunning(ctx context.Context, needle string) (bool, error) {
	if needle == "" {
		return false, nil
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.Contains(cmdline, needle) {
			return true, nil
		}
	}
	return false, nil
}
