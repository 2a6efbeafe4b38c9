package layout

import "math"

// BeginDrag starts an edit gesture at the given point. If a divider lies
// within the hit tolerance the session enters GrabDivider and subsequent
// DragTo calls move that divider; otherwise the leaf under the point is
// selected (GrabLeaf, informational only). Grabbing replaces any previous
// grab; callers arbitrate by only calling this on pointer-down transitions.
func (e *Editor) BeginDrag(x, y float64) GrabKind {
	e.EndDrag()
	e.ensureGeometry()

	if d := e.dividerAt(x, y); d != nil {
		e.grab = GrabDivider
		e.grabNode = d.Node
		return e.grab
	}
	if lf, ok := e.LeafAt(x, y); ok {
		e.grab = GrabLeaf
		e.grabLeaf = lf.ID
		return e.grab
	}
	return GrabNone
}

// dividerAt returns the divider nearest to the point within the hit
// tolerance, measured perpendicular to the divider line, or nil. The point
// must lie within the divider's span along the line.
func (e *Editor) dividerAt(x, y float64) *Divider {
	var best *Divider
	bestDist := math.Inf(1)
	for i := range e.dividers {
		d := &e.dividers[i]
		var dist float64
		if d.Orientation == Vertical {
			if y < d.Y1 || y > d.Y2 {
				continue
			}
			dist = math.Abs(x - d.X1)
		} else {
			if x < d.X1 || x > d.X2 {
				continue
			}
			dist = math.Abs(y - d.Y1)
		}
		if dist <= e.opts.HitTolerance && dist < bestDist {
			best = d
			bestDist = dist
		}
	}
	return best
}

// DragTo moves the grabbed divider by the given delta in layout coordinates
// and reports whether the ratio changed. The proposed position is clamped so
// both children keep the minimum leaf size, then magnetically snapped to the
// first other divider of the same orientation that overlaps the grabbed
// divider's parent rectangle and lies within the snap distance. Drags on
// regions too small to host two minimum leaves are ignored.
func (e *Editor) DragTo(dx, dy float64) bool {
	if e.grab != GrabDivider || e.grabNode == nil {
		return false
	}

	// Geometry may have changed since the grab; locate the divider again.
	e.ensureGeometry()
	var d *Divider
	for i := range e.dividers {
		if e.dividers[i].Node == e.grabNode {
			d = &e.dividers[i]
			break
		}
	}
	if d == nil {
		return false
	}

	minLeaf := e.opts.MinLeafPixels
	var origin, dim, pos, delta float64
	if d.Orientation == Vertical {
		origin, dim, pos, delta = d.Parent.X, d.Parent.W, d.X1, dx
	} else {
		origin, dim, pos, delta = d.Parent.Y, d.Parent.H, d.Y1, dy
	}

	lo := origin + minLeaf
	hi := origin + dim - minLeaf
	if hi <= lo {
		return false
	}
	pos = math.Max(lo, math.Min(pos+delta, hi))

	// Magnetic snap against other co-oriented dividers whose span overlaps
	// this divider's parent region. First match wins.
	for i := range e.dividers {
		s := &e.dividers[i]
		if s.Node == e.grabNode || s.Orientation != d.Orientation {
			continue
		}
		if d.Orientation == Vertical {
			if s.Y2 <= d.Parent.Y || s.Y1 >= d.Parent.Bottom() {
				continue
			}
			if math.Abs(s.X1-pos) <= e.opts.SnapDistance {
				pos = s.X1
				break
			}
		} else {
			if s.X2 <= d.Parent.X || s.X1 >= d.Parent.Right() {
				continue
			}
			if math.Abs(s.Y1-pos) <= e.opts.SnapDistance {
				pos = s.Y1
				break
			}
		}
	}

	e.grabNode.Ratio = clampRatio((pos-origin)/dim, minLeaf, dim)
	e.grabNode.Orientation = d.Orientation
	e.invalidate()
	return true
}

// EndDrag clears the grab state. It never changes geometry.
func (e *Editor) EndDrag() {
	e.grab = GrabNone
	e.grabNode = nil
	e.grabLeaf = -1
}

// Grab returns what the session currently holds.
func (e *Editor) Grab() GrabKind { return e.grab }

// GrabbedLeaf returns the leaf selected by the last BeginDrag, if any.
func (e *Editor) GrabbedLeaf() (LeafRect, bool) {
	if e.grab != GrabLeaf {
		return LeafRect{}, false
	}
	return e.FindLeaf(e.grabLeaf)
}

// NudgeDivider grabs the divider at the given index in derivation order,
// moves it by delta pixels along its axis (with the usual clamping and
// snapping), and releases it. It reports whether the divider moved.
func (e *Editor) NudgeDivider(index int, delta float64) bool {
	divs := e.Dividers()
	if index < 0 || index >= len(divs) {
		return false
	}
	e.EndDrag()
	e.grab = GrabDivider
	e.grabNode = divs[index].Node

	var ok bool
	if divs[index].Orientation == Vertical {
		ok = e.DragTo(delta, 0)
	} else {
		ok = e.DragTo(0, delta)
	}
	e.EndDrag()
	return ok
}
