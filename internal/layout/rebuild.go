package layout

import (
	"math"
	"sort"
)

// srcRect is the float working form of a saved rectangle during
// reconstruction.
type srcRect struct {
	x, y, w, h float64
	label      string
}

// span returns the rectangle's extent along the split axis: x..x+w for
// vertical splits, y..y+h for horizontal ones.
func (r srcRect) span(o Orientation) (float64, float64) {
	if o == Vertical {
		return r.x, r.x + r.w
	}
	return r.y, r.y + r.h
}

func bbox(rects []srcRect) Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, r := range rects {
		minX = math.Min(minX, r.x)
		minY = math.Min(minY, r.y)
		maxX = math.Max(maxX, r.x+r.w)
		maxY = math.Max(maxY, r.y+r.h)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// LoadFromRects replaces the tree with one reconstructed from a previously
// exported rectangle list. An empty list resets to a single full-area leaf.
// The id allocator restarts; ids from the old tree are meaningless
// afterwards. Input rectangles that overlap or fail to tile their bounding
// box degrade to the single-leaf fallback instead of failing.
func (e *Editor) LoadFromRects(rects []LabeledRect) {
	e.EndDrag()
	e.nextID = 0
	e.invalidate()

	if len(rects) == 0 {
		e.root = e.newLeaf("")
		return
	}

	src := make([]srcRect, len(rects))
	for i, r := range rects {
		src[i] = srcRect{
			x:     float64(r.X),
			y:     float64(r.Y),
			w:     float64(r.W),
			h:     float64(r.H),
			label: r.Label,
		}
	}

	root := e.buildFromRects(src, bbox(src))
	if root == nil {
		root = e.newLeaf("")
	}
	e.root = root
}

// ExportRects flattens the current leaf rectangles, labeled or not, into the
// integer-rounded form used for persistence.
func (e *Editor) ExportRects() []LabeledRect {
	e.ensureGeometry()
	out := make([]LabeledRect, 0, len(e.leaves))
	for _, lf := range e.leaves {
		out = append(out, LabeledRect{
			X:     int(math.Round(lf.Rect.X)),
			Y:     int(math.Round(lf.Rect.Y)),
			W:     int(math.Round(lf.Rect.W)),
			H:     int(math.Round(lf.Rect.H)),
			Label: lf.Label,
		})
	}
	return out
}

// buildFromRects recursively reconstructs a split tree for the rectangles
// inside the given region. It looks for a line no rectangle crosses, trying
// every vertical candidate before any horizontal one, and accepts the first
// candidate in coordinate order that cleanly partitions the set. When no
// clean line exists the whole region collapses to a single leaf.
func (e *Editor) buildFromRects(rects []srcRect, region Rect) *Node {
	if len(rects) == 0 {
		return nil
	}
	if len(rects) == 1 {
		return e.newLeaf(rects[0].label)
	}

	if n := e.trySplit(rects, region, Vertical); n != nil {
		return n
	}
	if n := e.trySplit(rects, region, Horizontal); n != nil {
		return n
	}

	// Lossy fallback: one leaf for the whole region. Keep the label only if
	// every rectangle agrees on it.
	labels := make(map[string]struct{}, len(rects))
	for _, r := range rects {
		labels[r.label] = struct{}{}
	}
	label := ""
	if len(labels) == 1 {
		label = rects[0].label
	}
	return e.newLeaf(label)
}

// trySplit looks for a clean split of rects along the given axis and returns
// the split node, or nil when every candidate line is crossed by some
// rectangle. Each side recurses with its own tight bounding box.
func (e *Editor) trySplit(rects []srcRect, region Rect, o Orientation) *Node {
	lo, size := region.X, region.W
	if o == Horizontal {
		lo, size = region.Y, region.H
	}

	for _, c := range splitCandidates(rects, o, lo, lo+size) {
		var first, second, crossing []srcRect
		for _, r := range rects {
			a, b := r.span(o)
			switch {
			case b <= c+edgeEps:
				first = append(first, r)
			case a >= c-edgeEps:
				second = append(second, r)
			default:
				crossing = append(crossing, r)
			}
		}
		if len(crossing) > 0 || len(first) == 0 || len(second) == 0 {
			continue
		}

		ratio := 0.5
		if size > 0 {
			ratio = (c - lo) / size
		}
		return &Node{
			Kind:        SplitNode,
			Orientation: o,
			Ratio:       ratio,
			First:       e.buildFromRects(first, bbox(first)),
			Second:      e.buildFromRects(second, bbox(second)),
		}
	}
	return nil
}

// splitCandidates returns the distinct rectangle edge coordinates along one
// axis in ascending order, excluding anything within edgeEps of the region
// bounds lo and hi.
func splitCandidates(rects []srcRect, o Orientation, lo, hi float64) []float64 {
	set := make(map[float64]struct{}, len(rects)*2)
	for _, r := range rects {
		a, b := r.span(o)
		set[a] = struct{}{}
		set[b] = struct{}{}
	}
	out := make([]float64, 0, len(set))
	for c := range set {
		if c > lo+edgeEps && c < hi-edgeEps {
			out = append(out, c)
		}
	}
	sort.Float64s(out)
	return out
}
