package engine_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/onigiri-dev/onigiri/internal/engine"
	"github.com/onigiri-dev/onigiri/internal/kwin"
	"github.com/onigiri-dev/onigiri/internal/layout"
	"github.com/onigiri-dev/onigiri/internal/profile"
)

type fakeCompositor struct {
	calls int
}

func (f *fakeCompositor) Reconfigure(ctx context.Context) error {
	f.calls++
	return nil
}

type fixture struct {
	store *profile.Store
	rules *kwin.Manager
	comp  *fakeCompositor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	return &fixture{
		store: profile.NewStore(filepath.Join(dir, "onigiri.json")),
		rules: kwin.NewManager(filepath.Join(dir, "kwinrulesrc")),
		comp:  &fakeCompositor{},
	}
}

func (f *fixture) engine(opts engine.Options) *engine.Engine {
	return engine.New(f.store, f.rules, f.comp, log.New(io.Discard), opts)
}

// seedConfig stores a "dash" profile with a matched left tile, a
// matchless right tile and a two-column layout with a 10px gap.
func seedConfig(t *testing.T, f *fixture) {
	t.Helper()

	p := profile.NewProfile("dash")
	p.TileGap = 10

	left := p.AddTile("left")
	left.SetMatch(profile.MatchClass, "btop")
	left.Command = "btop"

	p.AddTile("right")

	p.SetSlots([]layout.LabeledRect{
		{X: 0, Y: 0, W: 100, H: 100, Label: "left"},
		{X: 100, Y: 0, W: 100, H: 100, Label: "right"},
	})

	cfg := &profile.Config{}
	cfg.Profiles = append(cfg.Profiles, p)
	if err := f.store.Save(cfg); err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}
}

// =============================================================================
// Apply Tests
// =============================================================================

func TestApplyWritesRules(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)
	eng := f.engine(engine.Options{})

	res, err := eng.Apply(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if res.RulesWritten != 1 {
		t.Errorf("Expected 1 rule written, got %d", res.RulesWritten)
	}
	if len(res.SkippedTiles) != 1 || res.SkippedTiles[0] != "right" {
		t.Errorf("Expected the matchless tile to be skipped, got %v", res.SkippedTiles)
	}
	if !res.Reconfigured || f.comp.calls != 1 {
		t.Errorf("Expected one reconfigure, got %d (reconfigured=%v)", f.comp.calls, res.Reconfigured)
	}

	rules, err := f.rules.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("Expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.Description != "Onigiri:dash:left" {
		t.Errorf("Expected description Onigiri:dash:left, got %s", r.Description)
	}
	// 10px gap over a 200x100 layout: full gap at screen edges, half at
	// the shared edge.
	if r.Position != "10,10" {
		t.Errorf("Expected gapped position 10,10, got %s", r.Position)
	}
	if r.Size != "85,80" {
		t.Errorf("Expected gapped size 85,80, got %s", r.Size)
	}
	if r.WMClass != "btop" {
		t.Errorf("Expected wmclass btop, got %s", r.WMClass)
	}
}

func TestApplyPersistsPushedGeometry(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)
	eng := f.engine(engine.Options{})

	if _, err := eng.Apply(context.Background(), "dash"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	cfg, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p := cfg.FindProfile("dash")
	if p == nil {
		t.Fatal("Expected the profile to survive the save")
	}

	left := p.FindTile("left")
	if left == nil {
		t.Fatal("Expected the left tile")
	}
	if left.X != 10 || left.Y != 10 || left.Width != 85 || left.Height != 80 {
		t.Errorf("Expected left geometry (10,10,85,80), got (%d,%d,%d,%d)",
			left.X, left.Y, left.Width, left.Height)
	}

	// The matchless tile still receives layout geometry even though no
	// rule is written for it.
	right := p.FindTile("right")
	if right == nil {
		t.Fatal("Expected the right tile")
	}
	if right.X != 105 || right.Y != 10 || right.Width != 85 || right.Height != 80 {
		t.Errorf("Expected right geometry (105,10,85,80), got (%d,%d,%d,%d)",
			right.X, right.Y, right.Width, right.Height)
	}
}

func TestApplyMissingProfile(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)
	eng := f.engine(engine.Options{})

	_, err := eng.Apply(context.Background(), "nope")
	if err == nil {
		t.Fatal("Expected an error for an unknown profile")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected a not-found error, got %v", err)
	}
}

func TestApplyWithoutLayoutUsesTileGeometry(t *testing.T) {
	f := newFixture(t)

	p := profile.NewProfile("dash")
	tile := p.AddTile("solo")
	tile.SetGeometry(5, 6, 700, 500)
	tile.SetMatch(profile.MatchTitle, "solo")

	cfg := &profile.Config{}
	cfg.Profiles = append(cfg.Profiles, p)
	if err := f.store.Save(cfg); err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}

	eng := f.engine(engine.Options{})
	if _, err := eng.Apply(context.Background(), "dash"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	rules, err := f.rules.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("Expected 1 rule, got %d", len(rules))
	}
	if rules[0].Position != "5,6" || rules[0].Size != "700,500" {
		t.Errorf("Expected stored geometry 5,6 700x500, got %s %s",
			rules[0].Position, rules[0].Size)
	}
}

func TestApplyRemovesStaleRules(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)

	if _, err := f.rules.Upsert(kwin.RuleSpec{Description: kwin.RuleDescription("dash", "gone"), W: 100, H: 100}); err != nil {
		t.Fatalf("Seed stale rule failed: %v", err)
	}

	res, err := f.engine(engine.Options{}).Apply(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.RulesRemoved != 1 {
		t.Errorf("Expected 1 stale rule removed, got %d", res.RulesRemoved)
	}
}

func TestApplyExclusiveRemovesOtherProfiles(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)

	if _, err := f.rules.Upsert(kwin.RuleSpec{Description: kwin.RuleDescription("coding", "editor"), W: 100, H: 100}); err != nil {
		t.Fatalf("Seed other profile rule failed: %v", err)
	}

	res, err := f.engine(engine.Options{Exclusive: true}).Apply(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if res.RulesRemoved != 1 {
		t.Errorf("Expected the other profile's rule removed, got %d", res.RulesRemoved)
	}

	rules, err := f.rules.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, r := range rules {
		if r.Description == "Onigiri:coding:editor" {
			t.Error("Expected the other profile's rule to be gone")
		}
	}
}

func TestApplyDryRun(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)

	res, err := f.engine(engine.Options{DryRun: true}).Apply(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !res.DryRun {
		t.Error("Expected a dry-run result")
	}
	if res.RulesWritten != 1 {
		t.Errorf("Expected 1 planned rule, got %d", res.RulesWritten)
	}
	if f.comp.calls != 0 {
		t.Errorf("Expected no reconfigure on dry run, got %d", f.comp.calls)
	}

	if _, err := os.Stat(f.rules.Path()); !os.IsNotExist(err) {
		t.Errorf("Expected no rules file after dry run, stat err: %v", err)
	}

	// The pushed geometry must not be persisted either.
	cfg, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	left := cfg.FindProfile("dash").FindTile("left")
	if left.X != 0 || left.Width != 800 {
		t.Errorf("Expected tile geometry untouched on disk, got (%d,%d,%d,%d)",
			left.X, left.Y, left.Width, left.Height)
	}
}

// =============================================================================
// Unapply Tests
// =============================================================================

func TestUnapply(t *testing.T) {
	f := newFixture(t)
	seedConfig(t, f)
	eng := f.engine(engine.Options{})
	ctx := context.Background()

	if _, err := eng.Apply(ctx, "dash"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	removed, err := eng.Unapply(ctx, "dash")
	if err != nil {
		t.Fatalf("Unapply failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 rule removed, got %d", removed)
	}
	if f.comp.calls != 2 {
		t.Errorf("Expected 2 reconfigures (apply + unapply), got %d", f.comp.calls)
	}

	removed, err = eng.Unapply(ctx, "dash")
	if err != nil {
		t.Fatalf("Second unapply failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected nothing left to remove, got %d", removed)
	}
	if f.comp.calls != 2 {
		t.Errorf("Expected no reconfigure when nothing was removed, got %d", f.comp.calls)
	}
}

func TestUnapplyAll(t *testing.T) {
	f := newFixture(t)
	seeds := []string{
		kwin.RuleDescription("dash", "a"),
		"KWinTiler:coding:b",
		"Firefox fullscreen fix",
	}
	for _, desc := range seeds {
		if _, err := f.rules.Upsert(kwin.RuleSpec{Description: desc, W: 100, H: 100}); err != nil {
			t.Fatalf("Seed %q failed: %v", desc, err)
		}
	}

	removed, err := f.engine(engine.Options{}).UnapplyAll(context.Background())
	if err != nil {
		t.Fatalf("UnapplyAll failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 owned rules removed, got %d", removed)
	}

	rules, err := f.rules.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rules) != 1 || rules[0].Description != "Firefox fullscreen fix" {
		t.Fatalf("Expected only the foreign rule to survive, got %+v", rules)
	}
}

// =============================================================================
// Launch Tests
// =============================================================================

func launchConfig(t *testing.T, f *fixture, command string) {
	t.Helper()

	p := profile.NewProfile("dash")
	tile := p.AddTile("noop")
	tile.SetMatch(profile.MatchTitle, "noop")
	tile.Command = command

	cfg := &profile.Config{}
	cfg.Profiles = append(cfg.Profiles, p)
	if err := f.store.Save(cfg); err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}
}

func TestLaunch(t *testing.T) {
	f := newFixture(t)
	launchConfig(t, f, "true")

	eng := f.engine(engine.Options{SettleDelay: time.Millisecond})
	res, err := eng.Launch(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if len(res.Launched) != 1 || res.Launched[0] != "noop" {
		t.Errorf("Expected the noop tile to launch, got %v", res.Launched)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("Expected nothing skipped, got %v", res.Skipped)
	}
	if f.comp.calls != 2 {
		t.Errorf("Expected reconfigure after apply and after launch, got %d", f.comp.calls)
	}
	if res.Applied == nil || res.Applied.RulesWritten != 1 {
		t.Errorf("Expected the apply step to write 1 rule, got %+v", res.Applied)
	}
}

func TestLaunchSkipsRunning(t *testing.T) {
	f := newFixture(t)
	// The test binary itself is guaranteed to be running.
	launchConfig(t, f, os.Args[0])

	eng := f.engine(engine.Options{SettleDelay: time.Millisecond, SkipRunning: true})
	res, err := eng.Launch(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}

	if len(res.Skipped) != 1 || res.Skipped[0] != "noop" {
		t.Errorf("Expected the running tile to be skipped, got %v", res.Skipped)
	}
	if len(res.Launched) != 0 {
		t.Errorf("Expected nothing launched, got %v", res.Launched)
	}
	if f.comp.calls != 1 {
		t.Errorf("Expected only the apply reconfigure, got %d", f.comp.calls)
	}
}

func TestLaunchDryRun(t *testing.T) {
	f := newFixture(t)
	launchConfig(t, f, "true")

	res, err := f.engine(engine.Options{DryRun: true}).Launch(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	if len(res.Launched) != 1 {
		t.Errorf("Expected 1 planned launch, got %v", res.Launched)
	}
	if f.comp.calls != 0 {
		t.Errorf("Expected no reconfigure on dry run, got %d", f.comp.calls)
	}
	if _, err := os.Stat(f.rules.Path()); !os.IsNotExist(err) {
		t.Errorf("Expected no rules file after dry run, stat err: %v", err)
	}
}

func TestLaunchTile(t *testing.T) {
	f := newFixture(t)
	marker := filepath.Join(t.TempDir(), "launched")
	launchConfig(t, f, "touch "+marker)

	eng := f.engine(engine.Options{})
	if err := eng.LaunchTile("dash", "noop"); err != nil {
		t.Fatalf("LaunchTile failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected the detached command to run")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLaunchTileErrors(t *testing.T) {
	f := newFixture(t)

	p := profile.NewProfile("dash")
	p.AddTile("empty")
	cfg := &profile.Config{}
	cfg.Profiles = append(cfg.Profiles, p)
	if err := f.store.Save(cfg); err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}

	eng := f.engine(engine.Options{})

	if err := eng.LaunchTile("nope", "empty"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected a profile not-found error, got %v", err)
	}
	if err := eng.LaunchTile("dash", "nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected a tile not-found error, got %v", err)
	}
	if err := eng.LaunchTile("dash", "empty"); err == nil || !strings.Contains(err.Error(), "no command") {
		t.Errorf("Expected a no-command error, got %v", err)
	}
}

// =============================================================================
// Status Tests
// =============================================================================

func TestStatus(t *testing.T) {
	f := newFixture(t)

	p := profile.NewProfile("dash")
	self := p.AddTile("self")
	self.SetMatch(profile.MatchClass, "self")
	self.Command = os.Args[0]
	p.AddTile("bare")

	cfg := &profile.Config{}
	cfg.Profiles = append(cfg.Profiles, p)
	if err := f.store.Save(cfg); err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}

	eng := f.engine(engine.Options{})
	ctx := context.Background()
	if _, err := eng.Apply(ctx, "dash"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	statuses, err := eng.Status(ctx, "dash")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("Expected 2 status rows, got %d", len(statuses))
	}

	selfRow := statuses[0]
	if selfRow.Tile != "self" {
		t.Fatalf("Expected the self tile first, got %s", selfRow.Tile)
	}
	if selfRow.RuleID == "" {
		t.Error("Expected a rule ID for the matched tile")
	}
	if !selfRow.RuleEnabled {
		t.Error("Expected the rule to be enabled")
	}
	if !selfRow.Running {
		t.Error("Expected the test binary to be detected as running")
	}

	bareRow := statuses[1]
	if bareRow.RuleID != "" {
		t.Errorf("Expected no rule for the matchless tile, got %s", bareRow.RuleID)
	}
	if bareRow.Running {
		t.Error("Expected no running process for a commandless tile")
	}

	if _, err := f.rules.SetEnabled(selfRow.RuleID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	statuses, err = eng.Status(ctx, "dash")
	if err != nil {
		t.Fatalf("Second status failed: %v", err)
	}
	if statuses[0].RuleEnabled {
		t.Error("Expected the rule to be reported as disabled")
	}
}

func TestStatusFindsLegacyRules(t *testing.T) {
	f := newFixture(t)

	p := profile.NewProfile("dash")
	p.AddTile("old")
	cfg := &profile.Config{}
	cfg.Profiles = append(cfg.Profiles, p)
	if err := f.store.Save(cfg); err != nil {
		t.Fatalf("Failed to seed config: %v", err)
	}

	if _, err := f.rules.Upsert(kwin.RuleSpec{Description: kwin.LegacyRuleDescription("dash", "old"), W: 100, H: 100}); err != nil {
		t.Fatalf("Seed legacy rule failed: %v", err)
	}

	statuses, err := f.engine(engine.Options{}).Status(context.Background(), "dash")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(statuses) != 1 || statuses[0].RuleID == "" {
		t.Fatalf("Expected the legacy rule to be found, got %+v", statuses)
	}
}
