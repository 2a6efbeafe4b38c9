package profile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/onigiri-dev/onigiri/internal/profile"
)

// =============================================================================
// History Tests
// =============================================================================

func checkDepth(t *testing.T, h *profile.History, wantUndo, wantRedo int) {
	t.Helper()
	undo, redo, err := h.Depth()
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if undo != wantUndo || redo != wantRedo {
		t.Errorf("Expected depth %d/%d, got %d/%d", wantUndo, wantRedo, undo, redo)
	}
}

func TestHistoryUndoRedo(t *testing.T) {
	h := profile.NewHistory(t.TempDir(), 0)
	cfg := &profile.Config{}

	if err := h.Snapshot(cfg, "create dash"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	cfg.AddProfile("dash")

	if err := h.Snapshot(cfg, "create coding"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	cfg.AddProfile("coding")

	checkDepth(t, h, 2, 0)

	entry, err := h.Undo(cfg)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if entry.Label != "create coding" {
		t.Errorf("Expected to undo the coding change, got %q", entry.Label)
	}
	if len(entry.Config.Profiles) != 1 || entry.Config.Profiles[0].Name != "dash" {
		t.Errorf("Expected the pre-change document, got %v", entry.Config.Names())
	}
	checkDepth(t, h, 1, 1)

	entry2, err := h.Undo(entry.Config)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if len(entry2.Config.Profiles) != 0 {
		t.Errorf("Expected the empty initial document, got %v", entry2.Config.Names())
	}
	checkDepth(t, h, 0, 2)

	if _, err := h.Undo(entry2.Config); !errors.Is(err, profile.ErrNoUndo) {
		t.Errorf("Expected ErrNoUndo, got %v", err)
	}

	redone, err := h.Redo(entry2.Config)
	if err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if len(redone.Config.Profiles) != 1 || redone.Config.Profiles[0].Name != "dash" {
		t.Errorf("Expected redo to restore the dash document, got %v", redone.Config.Names())
	}
	checkDepth(t, h, 1, 1)
}

func TestHistorySnapshotClearsRedo(t *testing.T) {
	h := profile.NewHistory(t.TempDir(), 0)
	cfg := &profile.Config{}

	if err := h.Snapshot(cfg, "first"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	cfg.AddProfile("dash")

	if _, err := h.Undo(cfg); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	checkDepth(t, h, 0, 1)

	if err := h.Snapshot(cfg, "second"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	checkDepth(t, h, 1, 0)

	if _, err := h.Redo(cfg); !errors.Is(err, profile.ErrNoRedo) {
		t.Errorf("Expected ErrNoRedo after a new snapshot, got %v", err)
	}
}

func TestHistoryLimitTrims(t *testing.T) {
	h := profile.NewHistory(t.TempDir(), 3)
	cfg := &profile.Config{}

	labels := []string{"one", "two", "three", "four", "five"}
	for _, label := range labels {
		if err := h.Snapshot(cfg, label); err != nil {
			t.Fatalf("Snapshot %s failed: %v", label, err)
		}
	}
	checkDepth(t, h, 3, 0)

	for _, want := range []string{"five", "four", "three"} {
		entry, err := h.Undo(cfg)
		if err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
		if entry.Label != want {
			t.Errorf("Expected label %q, got %q", want, entry.Label)
		}
	}

	if _, err := h.Undo(cfg); !errors.Is(err, profile.ErrNoUndo) {
		t.Errorf("Expected the oldest snapshots to be trimmed, got %v", err)
	}
}

func TestHistorySkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	h := profile.NewHistory(dir, 0)
	cfg := &profile.Config{}

	if err := h.Snapshot(cfg, "one"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if err := h.Snapshot(cfg, "two"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "history.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, err := f.WriteString("not json at all\n"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	f.Close()

	checkDepth(t, h, 2, 0)

	entry, err := h.Undo(cfg)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if entry.Label != "two" {
		t.Errorf("Expected the corrupt tail line to be skipped, got %q", entry.Label)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := profile.NewHistory(t.TempDir(), 0)
	cfg := &profile.Config{}

	if _, err := h.Undo(cfg); !errors.Is(err, profile.ErrNoUndo) {
		t.Errorf("Expected ErrNoUndo, got %v", err)
	}
	if _, err := h.Redo(cfg); !errors.Is(err, profile.ErrNoRedo) {
		t.Errorf("Expected ErrNoRedo, got %v", err)
	}
	checkDepth(t, h, 0, 0)
}
