// Package layout implements the recursive split-based layout editor at the
// heart of Onigiri. A layout is a binary tree of horizontal/vertical splits
// whose leaves are rectangular regions that can be labeled with tile names.
// All rectangles are derived from the tree plus split ratios; the package
// supports interactive divider dragging with magnetic snapping, structural
// edits (split/combine/relabel), reconstruction of a tree from a saved
// rectangle list, and gap projection for the final window geometry.
package layout

import "math"

// Orientation describes the axis of a split node.
type Orientation int

const (
	// Vertical divides the parent rectangle left/right by width.
	Vertical Orientation = iota
	// Horizontal divides the parent rectangle top/bottom by height.
	Horizontal
)

// String returns a short human-readable name for the orientation.
func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// NodeKind discriminates the two node variants of the split tree.
type NodeKind int

const (
	// LeafNode is an undivided rectangular region, optionally labeled.
	LeafNode NodeKind = iota
	// SplitNode divides its inherited rectangle into two children.
	SplitNode
)

// Node is a node of the split tree. Leaves carry ID and Label; splits carry
// Orientation, Ratio and both children. A tree is always a strict binary
// tree: every split has exactly two non-nil children and nodes are never
// shared between trees.
type Node struct {
	Kind NodeKind

	// Leaf fields.
	ID    int
	Label string

	// Split fields. Ratio is the fraction of the parent's relevant
	// dimension given to First.
	Orientation Orientation
	Ratio       float64
	First       *Node
	Second      *Node
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n != nil && n.Kind == LeafNode }

// IsSplit reports whether the node is a split.
func (n *Node) IsSplit() bool { return n != nil && n.Kind == SplitNode }

// Rect is an axis-aligned rectangle in layout coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether the point lies inside the rectangle, edges
// included.
func (r Rect) Contains(x, y float64) bool {
	return r.X <= x && x <= r.Right() && r.Y <= y && y <= r.Bottom()
}

// LabeledRect is the flat, integer-rounded exchange form of a region: the
// shape persisted in profile layout slots and produced by gap projection.
type LabeledRect struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
	Label string `json:"tile_name"`
}

// LeafRect is the derived geometry of one leaf.
type LeafRect struct {
	ID    int
	Label string
	Rect  Rect
}

// Divider is the derived divider line of one split node: the boundary
// between its two children inside the node's inherited (parent) rectangle.
type Divider struct {
	Node        *Node
	Orientation Orientation
	X1, Y1      float64
	X2, Y2      float64
	Parent      Rect
}

// GrabKind identifies what an edit session currently holds.
type GrabKind int

const (
	// GrabNone means the session is idle.
	GrabNone GrabKind = iota
	// GrabDivider means a divider is grabbed and drags adjust its ratio.
	GrabDivider
	// GrabLeaf means a leaf was hit instead of a divider; selection only.
	GrabLeaf
)

// Defaults for the editor options.
const (
	DefaultMinLeafPixels = 10.0
	DefaultHitTolerance  = 6.0
	DefaultSnapDistance  = 8.0
)

// edgeEps is the tolerance used for boundary coincidence checks, both when
// picking reconstruction split candidates and when deciding whether a region
// touches the screen border during gap projection.
const edgeEps = 0.5

// combineEps is the size-equality tolerance for combining sibling leaves.
const combineEps = 1e-3

// Options configures an Editor. Zero or negative values fall back to the
// package defaults.
type Options struct {
	// MinLeafPixels is the minimum width/height a leaf keeps along its
	// parent split's axis.
	MinLeafPixels float64
	// HitTolerance is the maximum perpendicular distance at which a
	// divider can be grabbed.
	HitTolerance float64
	// SnapDistance is the magnetic snapping range toward co-linear
	// dividers while dragging.
	SnapDistance float64
}

// DefaultOptions returns the standard editor options.
func DefaultOptions() Options {
	return Options{
		MinLeafPixels: DefaultMinLeafPixels,
		HitTolerance:  DefaultHitTolerance,
		SnapDistance:  DefaultSnapDistance,
	}
}

func (o Options) withDefaults() Options {
	if o.MinLeafPixels <= 0 {
		o.MinLeafPixels = DefaultMinLeafPixels
	}
	if o.HitTolerance <= 0 {
		o.HitTolerance = DefaultHitTolerance
	}
	if o.SnapDistance <= 0 {
		o.SnapDistance = DefaultSnapDistance
	}
	return o
}

// Editor owns one split tree and its derived geometry, and runs the
// interactive edit session on top of it. It is not safe for concurrent use;
// a tree is owned by exactly one edit session at a time.
type Editor struct {
	opts   Options
	bounds Rect
	root   *Node
	nextID int

	// Cached geometry, rebuilt lazily after any mutation.
	leaves   []LeafRect
	dividers []Divider
	geomOK   bool

	grab     GrabKind
	grabNode *Node
	grabLeaf int
}

// NewEditor creates an editor over a width x height bounding rectangle,
// starting from a single full-area unlabeled leaf.
func NewEditor(width, height float64, opts Options) *Editor {
	e := &Editor{
		opts:     opts.withDefaults(),
		grabLeaf: -1,
	}
	e.bounds = Rect{W: math.Max(width, 1), H: math.Max(height, 1)}
	e.root = e.newLeaf("")
	return e
}

// SetBounds replaces the bounding rectangle for all derivations. Dimensions
// are floored at one pixel.
func (e *Editor) SetBounds(width, height float64) {
	e.bounds = Rect{W: math.Max(width, 1), H: math.Max(height, 1)}
	e.invalidate()
}

// Bounds returns the current bounding rectangle.
func (e *Editor) Bounds() Rect { return e.bounds }

// Root returns the root node of the tree.
func (e *Editor) Root() *Node { return e.root }

// Leaves returns the derived leaf rectangles in tree (pre-order) walk order.
func (e *Editor) Leaves() []LeafRect {
	e.ensureGeometry()
	out := make([]LeafRect, len(e.leaves))
	copy(out, e.leaves)
	return out
}

// Dividers returns the derived divider lines in tree (pre-order) walk order.
func (e *Editor) Dividers() []Divider {
	e.ensureGeometry()
	out := make([]Divider, len(e.dividers))
	copy(out, e.dividers)
	return out
}

// LeafAt returns the first leaf whose rectangle contains the point.
func (e *Editor) LeafAt(x, y float64) (LeafRect, bool) {
	e.ensureGeometry()
	for _, lf := range e.leaves {
		if lf.Rect.Contains(x, y) {
			return lf, true
		}
	}
	return LeafRect{}, false
}

// FindLeaf returns the derived rectangle of the leaf with the given id.
func (e *Editor) FindLeaf(id int) (LeafRect, bool) {
	e.ensureGeometry()
	for _, lf := range e.leaves {
		if lf.ID == id {
			return lf, true
		}
	}
	return LeafRect{}, false
}

func (e *Editor) newLeaf(label string) *Node {
	n := &Node{Kind: LeafNode, ID: e.nextID, Label: label}
	e.nextID++
	return n
}

func (e *Editor) invalidate() { e.geomOK = false }
