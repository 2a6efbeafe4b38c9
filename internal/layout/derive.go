package layout

import "math"

// clampRatio clamps a split ratio so both children keep at least minLeaf
// pixels of the parent dimension. The minimum ratio itself is kept inside
// [0.01, 0.49] so very small parents still leave room for both sides.
func clampRatio(ratio, minLeaf, dim float64) float64 {
	minRatio := minLeaf / math.Max(dim, 1)
	minRatio = math.Max(0.01, math.Min(minRatio, 0.49))
	maxRatio := 1 - minRatio
	return math.Max(minRatio, math.Min(ratio, maxRatio))
}

// ensureGeometry rebuilds the cached leaf rectangles and divider lines if a
// mutation invalidated them. Every reader of derived geometry goes through
// here, so stale geometry can never be observed.
func (e *Editor) ensureGeometry() {
	if e.geomOK {
		return
	}
	e.leaves = e.leaves[:0]
	e.dividers = e.dividers[:0]
	if e.root != nil {
		e.walk(e.root, e.bounds)
	}
	e.geomOK = true
}

// walk derives geometry for one node given its inherited rectangle. Split
// ratios are clamped and written back, so drift introduced by bound changes
// is corrected once and then stays fixed.
func (e *Editor) walk(n *Node, r Rect) {
	if n.IsLeaf() {
		e.leaves = append(e.leaves, LeafRect{ID: n.ID, Label: n.Label, Rect: r})
		return
	}

	if n.Orientation == Vertical {
		n.Ratio = clampRatio(n.Ratio, e.opts.MinLeafPixels, r.W)
		w1 := r.W * n.Ratio
		x := r.X + w1
		e.dividers = append(e.dividers, Divider{
			Node:        n,
			Orientation: Vertical,
			X1:          x,
			Y1:          r.Y,
			X2:          x,
			Y2:          r.Bottom(),
			Parent:      r,
		})
		e.walk(n.First, Rect{X: r.X, Y: r.Y, W: w1, H: r.H})
		e.walk(n.Second, Rect{X: x, Y: r.Y, W: r.W - w1, H: r.H})
		return
	}

	n.Ratio = clampRatio(n.Ratio, e.opts.MinLeafPixels, r.H)
	h1 := r.H * n.Ratio
	y := r.Y + h1
	e.dividers = append(e.dividers, Divider{
		Node:        n,
		Orientation: Horizontal,
		X1:          r.X,
		Y1:          y,
		X2:          r.Right(),
		Y2:          y,
		Parent:      r,
	})
	e.walk(n.First, Rect{X: r.X, Y: r.Y, W: r.W, H: h1})
	e.walk(n.Second, Rect{X: r.X, Y: y, W: r.W, H: r.H - h1})
}
