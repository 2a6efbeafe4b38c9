package layout

// TemplateMode selects the outer axis of a grid template.
type TemplateMode int

const (
	// Columns lays out one column per entry; each count is the number of
	// rows inside that column.
	Columns TemplateMode = iota
	// Rows lays out one row per entry; each count is the number of columns
	// inside that row.
	Rows
)

// maxTemplateCount caps both the number of template entries and the count
// inside each entry.
const maxTemplateCount = 16

// Template describes an uneven grid: a run of equal columns (or rows) where
// each one is subdivided independently.
type Template struct {
	Mode   TemplateMode
	Counts []int
}

// ApplyTemplate replaces the whole tree with the given grid. Entry counts
// are clamped to 1..16 and the entry list is truncated at 16; an empty
// template leaves the tree untouched and reports false. All resulting
// leaves are fresh and unlabeled.
func (e *Editor) ApplyTemplate(t Template) bool {
	if len(t.Counts) == 0 {
		return false
	}
	counts := t.Counts
	if len(counts) > maxTemplateCount {
		counts = counts[:maxTemplateCount]
	}
	clamped := make([]int, len(counts))
	for i, c := range counts {
		clamped[i] = min(max(c, 1), maxTemplateCount)
	}

	outer, inner := Vertical, Horizontal
	if t.Mode == Rows {
		outer, inner = Horizontal, Vertical
	}

	e.EndDrag()
	e.root = e.equalSplitChain(len(clamped), outer, "")
	e.invalidate()

	// Subdivide each outer cell. Leaf ids are collected up front because
	// every inner split retires the id it splits.
	e.ensureGeometry()
	ids := make([]int, len(e.leaves))
	for i, lf := range e.leaves {
		ids[i] = lf.ID
	}
	for i, id := range ids {
		if clamped[i] > 1 {
			e.SplitLeaf(id, clamped[i], inner)
		}
	}
	return true
}
