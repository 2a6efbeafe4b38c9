package layout_test

import (
	"reflect"
	"testing"

	"github.com/onigiri-dev/onigiri/internal/layout"
)

// TestApplyTemplateColumns tests the columns mode: one column per entry,
// each subdivided into that many rows.
func TestApplyTemplateColumns(t *testing.T) {
	e := layout.NewEditor(400, 300, layout.DefaultOptions())

	if !e.ApplyTemplate(layout.Template{Mode: layout.Columns, Counts: []int{2, 1}}) {
		t.Fatal("ApplyTemplate failed")
	}

	got := e.ExportRects()
	want := []layout.LabeledRect{
		{X: 0, Y: 0, W: 200, H: 150},
		{X: 0, Y: 150, W: 200, H: 150},
		{X: 200, Y: 0, W: 200, H: 300},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	assertTiling(t, e)
}

// TestApplyTemplateRows tests the rows mode: one row per entry, each
// subdivided into that many columns.
func TestApplyTemplateRows(t *testing.T) {
	e := layout.NewEditor(400, 300, layout.DefaultOptions())

	if !e.ApplyTemplate(layout.Template{Mode: layout.Rows, Counts: []int{1, 2}}) {
		t.Fatal("ApplyTemplate failed")
	}

	got := e.ExportRects()
	want := []layout.LabeledRect{
		{X: 0, Y: 0, W: 400, H: 150},
		{X: 0, Y: 150, W: 200, H: 150},
		{X: 200, Y: 150, W: 200, H: 150},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	assertTiling(t, e)
}

// TestApplyTemplateClampsCounts tests the 1..16 clamp on entry counts and
// the 16-entry cap.
func TestApplyTemplateClampsCounts(t *testing.T) {
	e := layout.NewEditor(1920, 1080, layout.DefaultOptions())
	if !e.ApplyTemplate(layout.Template{Mode: layout.Columns, Counts: []int{0, 99}}) {
		t.Fatal("ApplyTemplate failed")
	}
	if got := len(e.Leaves()); got != 17 {
		t.Errorf("expected 1+16 leaves, got %d", got)
	}

	wide := make([]int, 20)
	for i := range wide {
		wide[i] = 1
	}
	if !e.ApplyTemplate(layout.Template{Mode: layout.Rows, Counts: wide}) {
		t.Fatal("ApplyTemplate failed")
	}
	if got := len(e.Leaves()); got != 16 {
		t.Errorf("expected entry list capped at 16, got %d leaves", got)
	}
}

// TestApplyTemplateEmpty tests that an empty template leaves the tree
// untouched.
func TestApplyTemplateEmpty(t *testing.T) {
	e := layout.NewEditor(800, 600, layout.DefaultOptions())
	e.SplitLeaf(e.Leaves()[0].ID, 2, layout.Vertical)

	if e.ApplyTemplate(layout.Template{Mode: layout.Columns}) {
		t.Error("empty template should report false")
	}
	if got := len(e.Leaves()); got != 2 {
		t.Errorf("tree changed by empty template: %d leaves", got)
	}
}

// TestApplyTemplateReplacesTree tests that applying a template discards the
// previous tree including its labels.
func TestApplyTemplateReplacesTree(t *testing.T) {
	e := layout.NewEditor(1920, 1080, layout.DefaultOptions())
	e.SetLeafLabel(e.Leaves()[0].ID, "old")

	if !e.ApplyTemplate(layout.Template{Mode: layout.Columns, Counts: []int{3, 2, 4}}) {
		t.Fatal("ApplyTemplate failed")
	}

	leaves := e.Leaves()
	if len(leaves) != 9 {
		t.Fatalf("expected 9 leaves, got %d", len(leaves))
	}
	for _, lf := range leaves {
		if lf.Label != "" {
			t.Errorf("template leaves should start unlabeled, got %q", lf.Label)
		}
	}
	assertTiling(t, e)
}
