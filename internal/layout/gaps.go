package layout

import "math"

// ProjectGaps returns the labeled leaf rectangles with a visual gap carved
// out of each one. Edges sitting on the screen border get the full gap;
// shared interior edges get half a gap on each side, so neighbors end up a
// full gap apart. Padding is clamped so no rectangle collapses below one
// pixel even when the gap is huge. A non-positive gap returns the labeled
// rectangles unchanged. Unlabeled leaves are never emitted.
func (e *Editor) ProjectGaps(gap float64) []LabeledRect {
	e.ensureGeometry()
	if gap < 0 {
		gap = 0
	}
	screenW, screenH := e.bounds.W, e.bounds.H

	out := make([]LabeledRect, 0, len(e.leaves))
	for _, lf := range e.leaves {
		if lf.Label == "" {
			continue
		}

		x, y := lf.Rect.X, lf.Rect.Y
		w, h := lf.Rect.W, lf.Rect.H

		if gap > 0 {
			leftPad, rightPad := gap/2, gap/2
			topPad, bottomPad := gap/2, gap/2
			if math.Abs(x) <= edgeEps {
				leftPad = gap
			}
			if math.Abs(x+w-screenW) <= edgeEps {
				rightPad = gap
			}
			if math.Abs(y) <= edgeEps {
				topPad = gap
			}
			if math.Abs(y+h-screenH) <= edgeEps {
				bottomPad = gap
			}

			totalW := math.Min(leftPad+rightPad, math.Max(w-1, 0))
			totalH := math.Min(topPad+bottomPad, math.Max(h-1, 0))

			x += leftPad
			y += topPad
			w = math.Max(1, w-totalW)
			h = math.Max(1, h-totalH)
		}

		out = append(out, LabeledRect{
			X:     int(math.Round(x)),
			Y:     int(math.Round(y)),
			W:     int(math.Round(w)),
			H:     int(math.Round(h)),
			Label: lf.Label,
		})
	}
	return out
}

// PadRects applies the same gap projection to stored rectangles without
// going through a tree rebuild, so saved layouts that no longer tile
// cleanly still come out padded rather than collapsed. The screen extent
// for edge detection is the rectangles' own bounding extent, matching
// how they were exported. Unlabeled rectangles are dropped.
func PadRects(rects []LabeledRect, gap float64) []LabeledRect {
	if gap < 0 {
		gap = 0
	}

	var screenW, screenH float64
	for _, r := range rects {
		screenW = math.Max(screenW, float64(r.X+r.W))
		screenH = math.Max(screenH, float64(r.Y+r.H))
	}

	out := make([]LabeledRect, 0, len(rects))
	for _, r := range rects {
		if r.Label == "" {
			continue
		}

		x, y := float64(r.X), float64(r.Y)
		w, h := float64(r.W), float64(r.H)

		if gap > 0 {
			leftPad, rightPad := gap/2, gap/2
			topPad, bottomPad := gap/2, gap/2
			if math.Abs(x) <= edgeEps {
				leftPad = gap
			}
			if math.Abs(x+w-screenW) <= edgeEps {
				rightPad = gap
			}
			if math.Abs(y) <= edgeEps {
				topPad = gap
			}
			if math.Abs(y+h-screenH) <= edgeEps {
				bottomPad = gap
			}

			totalW := math.Min(leftPad+rightPad, math.Max(w-1, 0))
			totalH := math.Min(topPad+bottomPad, math.Max(h-1, 0))

			x += leftPad
			y += topPad
			w = math.Max(1, w-totalW)
			h = math.Max(1, h-totalH)
		}

		out = append(out, LabeledRect{
			X:     int(math.Round(x)),
			Y:     int(math.Round(y)),
			W:     int(math.Round(w)),
			H:     int(math.Round(h)),
			Label: r.Label,
		})
	}
	return out
}
