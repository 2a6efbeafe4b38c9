package profile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

const (
	// DefaultHistoryLimit caps how many undo snapshots are kept.
	DefaultHistoryLimit = 50

	undoFileName = "history.jsonl"
	redoFileName = "redo.jsonl"

	// maxHistoryLine bounds a single snapshot line when reading back.
	maxHistoryLine = 1024 * 1024
)

// Errors reported when there is no snapshot to move to.
var (
	ErrNoUndo = errors.New("nothing to undo")
	ErrNoRedo = errors.New("nothing to redo")
)

// HistoryEntry is one stored snapshot of the profile document.
type HistoryEntry struct {
	Time   time.Time `json:"time"`
	Label  string    `json:"label"`
	Config *Config   `json:"config"`
}

// History keeps bounded undo/redo stacks of config snapshots as JSONL
// files so they survive across CLI invocations.
type History struct {
	mu    sync.Mutex
	dir   string
	limit int
}

// DefaultHistoryDir returns the state directory used for history files.
func DefaultHistoryDir() string {
	return filepath.Join(xdg.StateHome, "onigiri")
}

// NewHistory returns a history store rooted at dir. A non-positive limit
// falls back to DefaultHistoryLimit.
func NewHistory(dir string, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{dir: dir, limit: limit}
}

// Snapshot records the state of the document before a change. Taking a
// snapshot discards any redo entries, like every editor does.
func (h *History) Snapshot(cfg *Config, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, err := cfg.Clone()
	if err != nil {
		return err
	}

	entries, err := h.read(h.undoPath())
	if err != nil {
		return err
	}
	entries = append(entries, HistoryEntry{Time: time.Now(), Label: label, Config: snap})
	if len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}
	if err := h.write(h.undoPath(), entries); err != nil {
		return err
	}

	if err := os.Remove(h.redoPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear redo history: %w", err)
	}
	return nil
}

// Undo pops the most recent snapshot, pushing the current document onto
// the redo stack. The returned entry holds the config to restore and the
// label of the change being undone.
func (h *History) Undo(current *Config) (*HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.read(h.undoPath())
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoUndo
	}
	last := entries[len(entries)-1]

	snap, err := current.Clone()
	if err != nil {
		return nil, err
	}
	redo, err := h.read(h.redoPath())
	if err != nil {
		return nil, err
	}
	redo = append(redo, HistoryEntry{Time: time.Now(), Label: last.Label, Config: snap})
	if err := h.write(h.redoPath(), redo); err != nil {
		return nil, err
	}

	if err := h.write(h.undoPath(), entries[:len(entries)-1]); err != nil {
		return nil, err
	}
	return &last, nil
}

// Redo pops the most recently undone snapshot, pushing the current
// document back onto the undo stack.
func (h *History) Redo(current *Config) (*HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	redo, err := h.read(h.redoPath())
	if err != nil {
		return nil, err
	}
	if len(redo) == 0 {
		return nil, ErrNoRedo
	}
	last := redo[len(redo)-1]

	snap, err := current.Clone()
	if err != nil {
		return nil, err
	}
	entries, err := h.read(h.undoPath())
	if err != nil {
		return nil, err
	}
	entries = append(entries, HistoryEntry{Time: time.Now(), Label: last.Label, Config: snap})
	if len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}
	if err := h.write(h.undoPath(), entries); err != nil {
		return nil, err
	}

	if err := h.write(h.redoPath(), redo[:len(redo)-1]); err != nil {
		return nil, err
	}
	return &last, nil
}

// Depth reports how many undo and redo snapshots are stored.
func (h *History) Depth() (undo, redo int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	undoEntries, err := h.read(h.undoPath())
	if err != nil {
		return 0, 0, err
	}
	redoEntries, err := h.read(h.redoPath())
	if err != nil {
		return 0, 0, err
	}
	return len(undoEntries), len(redoEntries), nil
}

func (h *History) undoPath() string {
	return filepath.Join(h.dir, undoFileName)
}

func (h *History) redoPath() string {
	return filepath.Join(h.dir, redoFileName)
}

// read loads every well-formed line. Malformed lines are skipped so one
// corrupt snapshot cannot wedge undo entirely.
func (h *History) read(path string) ([]HistoryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer f.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxHistoryLine), maxHistoryLine)
	for scanner.Scan() {
		var e HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

func (h *History) write(path string, entries []HistoryEntry) error {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	var buf bytes.Buffer
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
