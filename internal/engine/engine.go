// Package engine ties the pieces together: it projects saved layout
// geometry into profile tiles, syncs the KWin rules file, launches tile
// commands and pokes the compositor so changes take effect.
package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/onigiri-dev/onigiri/internal/kwin"
	"github.com/onigiri-dev/onigiri/internal/layout"
	"github.com/onigiri-dev/onigiri/internal/profile"
)

// Compositor notifies the window manager after rule changes.
type Compositor interface {
	Reconfigure(ctx context.Context) error
}

// CompositorFunc adapts a plain function to the Compositor interface.
type CompositorFunc func(ctx context.Context) error

// Reconfigure calls the wrapped function.
func (f CompositorFunc) Reconfigure(ctx context.Context) error { return f(ctx) }

// DefaultSettleDelay is how long launched windows get to map before the
// compositor is asked to re-read its rules.
const DefaultSettleDelay = 1500 * time.Millisecond

// Options tune apply and launch behavior.
type Options struct {
	// DryRun logs what would change without writing anything.
	DryRun bool
	// Exclusive removes every owned rule this apply does not write, so
	// the applied profile becomes the only active layout.
	Exclusive bool
	// SettleDelay is the pause between launching commands and the final
	// reconfigure. Zero means no pause; negative picks the default.
	SettleDelay time.Duration
	// SkipRunning skips launching tiles whose program already runs.
	SkipRunning bool
}

// Engine runs the high-level operations against one profile store and
// one rules file.
type Engine struct {
	store *profile.Store
	rules *kwin.Manager
	comp  Compositor
	log   *log.Logger
	opts  Options
}

// New builds an engine. A nil compositor means the real KWin session
// bus; a nil logger gets a stderr logger with the engine prefix.
func New(store *profile.Store, rules *kwin.Manager, comp Compositor, logger *log.Logger, opts Options) *Engine {
	if comp == nil {
		comp = CompositorFunc(kwin.Reconfigure)
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "engine",
		})
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	return &Engine{store: store, rules: rules, comp: comp, log: logger, opts: opts}
}

// ApplyResult reports what an apply did.
type ApplyResult struct {
	Profile      string
	RulesWritten int
	RulesRemoved int
	// SkippedTiles are enabled tiles left ruleless because they had no
	// usable match; a matchless rule would capture every window.
	SkippedTiles []string
	Reconfigured bool
	DryRun       bool
}

// Apply pushes the profile's saved layout into its tiles, persists the
// config and rewrites the profile's KWin rules.
func (e *Engine) Apply(ctx context.Context, profileName string) (*ApplyResult, error) {
	cfg, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return nil, fmt.Errorf("profile %q not found", profileName)
	}
	return e.applyLoaded(ctx, cfg, p)
}

func (e *Engine) applyLoaded(ctx context.Context, cfg *profile.Config, p *profile.Profile) (*ApplyResult, error) {
	e.pushLayoutGeometry(p)
	specs, skipped := e.ruleSpecs(p)
	res := &ApplyResult{Profile: p.Name, SkippedTiles: skipped, DryRun: e.opts.DryRun}

	if e.opts.DryRun {
		for _, s := range specs {
			e.log.Info("would write rule",
				"description", s.Description,
				"position", fmt.Sprintf("%d,%d", s.X, s.Y),
				"size", fmt.Sprintf("%dx%d", s.W, s.H))
		}
		removed, err := e.plannedRemovals(p.Name, specs)
		if err != nil {
			return nil, err
		}
		res.RulesWritten = len(specs)
		res.RulesRemoved = removed
		return res, nil
	}

	// Config first, rules second, the same order the original service
	// uses: the rules must reflect what is on disk.
	if err := e.store.Save(cfg); err != nil {
		return nil, err
	}

	written, removed, err := e.rules.SyncProfile(p.Name, specs, e.opts.Exclusive)
	if err != nil {
		return nil, err
	}
	res.RulesWritten = written
	res.RulesRemoved = removed
	res.Reconfigured = e.reconfigure(ctx)

	e.log.Info("applied profile",
		"profile", p.Name,
		"rules", written,
		"removed", removed)
	return res, nil
}

// pushLayoutGeometry projects the current layout slots over the
// profile's tile gap and writes the result into the tiles they name.
// Tiles the layout does not mention keep their stored geometry.
func (e *Engine) pushLayoutGeometry(p *profile.Profile) {
	slots := p.CurrentSlots()
	if len(slots) == 0 {
		return
	}
	for _, r := range layout.PadRects(slots, float64(p.TileGap)) {
		t := p.FindTile(r.Label)
		if t == nil {
			e.log.Warn("layout names an unknown tile", "tile", r.Label, "profile", p.Name)
			continue
		}
		t.SetGeometry(r.X, r.Y, r.W, r.H)
	}
}

// ruleSpecs builds the rules for every enabled tile with a usable match
// and returns the names of the tiles that were skipped.
func (e *Engine) ruleSpecs(p *profile.Profile) ([]kwin.RuleSpec, []string) {
	var specs []kwin.RuleSpec
	var skipped []string
	for _, t := range p.Tiles {
		if !t.Enabled {
			continue
		}
		if !t.HasValidMatch() {
			skipped = append(skipped, t.Name)
			e.log.Warn("tile has no usable match, skipping", "tile", t.Name, "profile", p.Name)
			continue
		}
		specs = append(specs, kwin.RuleSpec{
			Description: kwin.RuleDescription(p.Name, t.Name),
			X:           t.X,
			Y:           t.Y,
			W:           t.Width,
			H:           t.Height,
			MatchType:   t.Match.Type,
			MatchValue:  t.Match.NormalizedValue(),
			NoBorder:    t.NoBorder,
			SkipTaskbar: t.SkipTaskbar,
			SkipPager:   t.SkipPager,
			KeepAbove:   t.KeepAbove,
			Desktop:     t.Desktop,
			Screen:      t.Screen,
		})
	}
	return specs, skipped
}

// plannedRemovals counts what a real sync would remove, for dry runs.
func (e *Engine) plannedRemovals(profileName string, specs []kwin.RuleSpec) (int, error) {
	keep := make(map[string]bool, len(specs))
	for _, s := range specs {
		keep[s.Description] = true
	}
	rules, err := e.rules.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, r := range rules {
		if keep[r.Description] {
			continue
		}
		doomed := kwin.OwnedByProfile(r.Description, profileName)
		if e.opts.Exclusive {
			doomed = r.Owned
		}
		if doomed {
			e.log.Info("would remove rule", "description", r.Description)
			removed++
		}
	}
	return removed, nil
}

// reconfigure pokes the compositor. Failures are logged, not fatal: the
// rules are already on disk and apply on the next reload.
func (e *Engine) reconfigure(ctx context.Context) bool {
	if err := e.comp.Reconfigure(ctx); err != nil {
		e.log.Warn("kwin reconfigure failed", "err", err)
		return false
	}
	return true
}

// Unapply removes the profile's rules and returns how many went away.
func (e *Engine) Unapply(ctx context.Context, profileName string) (int, error) {
	if e.opts.DryRun {
		return e.plannedRemovals(profileName, nil)
	}
	removed, err := e.rules.RemoveProfile(profileName)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		e.reconfigure(ctx)
		e.log.Info("removed profile rules", "profile", profileName, "removed", removed)
	}
	return removed, nil
}

// UnapplyAll removes every rule this tool ever wrote.
func (e *Engine) UnapplyAll(ctx context.Context) (int, error) {
	if e.opts.DryRun {
		rules, err := e.rules.List()
		if err != nil {
			return 0, err
		}
		removed := 0
		for _, r := range rules {
			if r.Owned {
				e.log.Info("would remove rule", "description", r.Description)
				removed++
			}
		}
		return removed, nil
	}

	removed, err := e.rules.RemoveOwned()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		e.reconfigure(ctx)
		e.log.Info("removed all owned rules", "removed", removed)
	}
	return removed, nil
}

// TileStatus is one row of a profile status report.
type TileStatus struct {
	Tile        string
	Enabled     bool
	RuleID      string
	RuleEnabled bool
	Running     bool
}

// Status reports, per tile, whether a rule is present and enabled and
// whether the tile's program appears to be running.
func (e *Engine) Status(ctx context.Context, profileName string) ([]TileStatus, error) {
	cfg, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	p := cfg.FindProfile(profileName)
	if p == nil {
		return nil, fmt.Errorf("profile %q not found", profileName)
	}

	rules, err := e.rules.List()
	if err != nil {
		return nil, err
	}
	byDesc := make(map[string]kwin.Rule, len(rules))
	for _, r := range rules {
		byDesc[r.Description] = r
	}

	statuses := make([]TileStatus, 0, len(p.Tiles))
	for _, t := range p.Tiles {
		st := TileStatus{Tile: t.Name, Enabled: t.Enabled}

		r, ok := byDesc[kwin.RuleDescription(p.Name, t.Name)]
		if !ok {
			r, ok = byDesc[kwin.LegacyRuleDescription(p.Name, t.Name)]
		}
		if ok {
			st.RuleID = r.ID
			st.RuleEnabled = r.Enabled
		}

		if needle := launchNeedle(t); needle != "" {
			running, err := processRunning(ctx, needle)
			if err != nil {
				e.log.Warn("process scan failed", "tile", t.Name, "err", err)
			}
			st.Running = running
		}

		statuses = append(statuses, st)
	}
	return statuses, nil
}
