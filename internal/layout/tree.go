package layout

import "math"

// findLeaf returns the leaf with the given id, or nil.
func findLeaf(n *Node, id int) *Node {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		if n.ID == id {
			return n
		}
		return nil
	}
	if found := findLeaf(n.First, id); found != nil {
		return found
	}
	return findLeaf(n.Second, id)
}

// replaceLeaf rewrites the parent reference of the leaf with the given id to
// point at repl. It reports whether a replacement happened. The root case is
// handled by the caller.
func replaceLeaf(n *Node, id int, repl *Node) bool {
	if n == nil || n.IsLeaf() {
		return false
	}
	if n.First.IsLeaf() && n.First.ID == id {
		n.First = repl
		return true
	}
	if n.Second.IsLeaf() && n.Second.ID == id {
		n.Second = repl
		return true
	}
	if replaceLeaf(n.First, id, repl) {
		return true
	}
	return replaceLeaf(n.Second, id, repl)
}

// replaceSplit rewrites the parent reference of target (matched by pointer
// identity) to point at repl. It reports whether a replacement happened.
func replaceSplit(n, target, repl *Node) bool {
	if n == nil || !n.IsSplit() {
		return false
	}
	if n.First == target {
		n.First = repl
		return true
	}
	if n.Second == target {
		n.Second = repl
		return true
	}
	if replaceSplit(n.First, target, repl) {
		return true
	}
	return replaceSplit(n.Second, target, repl)
}

// SplitLeaf replaces the leaf with the given id by a right-leaning chain of
// count-1 splits so that all count resulting leaves occupy equal shares of
// the leaf's region. The original label moves to the first resulting leaf;
// the rest start unlabeled. No-op for count < 2 or an unknown id.
func (e *Editor) SplitLeaf(id, count int, o Orientation) bool {
	if count < 2 || e.root == nil {
		return false
	}

	isRoot := e.root.IsLeaf() && e.root.ID == id
	var leaf *Node
	if isRoot {
		leaf = e.root
	} else {
		leaf = findLeaf(e.root, id)
	}
	if leaf == nil || !leaf.IsLeaf() {
		return false
	}

	chain := e.equalSplitChain(count, o, leaf.Label)
	if isRoot {
		e.root = chain
	} else if !replaceLeaf(e.root, id, chain) {
		return false
	}
	e.invalidate()
	return true
}

// equalSplitChain builds a chain of splits dividing a region into count
// equal parts. Each link gives its first child 1/remaining of the region, so
// ratios run 1/count, 1/(count-1), ..., 1/2 down the chain.
func (e *Editor) equalSplitChain(count int, o Orientation, label string) *Node {
	if count == 1 {
		return e.newLeaf(label)
	}
	first := e.newLeaf(label)
	rest := e.equalSplitChain(count-1, o, "")
	return &Node{
		Kind:        SplitNode,
		Orientation: o,
		Ratio:       1 / float64(count),
		First:       first,
		Second:      rest,
	}
}

// CanCombine reports whether the split's two children are both leaves with
// equal derived width and height, which makes combining them lossless.
func (e *Editor) CanCombine(n *Node) bool {
	if n == nil || !n.IsSplit() || !n.First.IsLeaf() || !n.Second.IsLeaf() {
		return false
	}
	r1, ok1 := e.FindLeaf(n.First.ID)
	r2, ok2 := e.FindLeaf(n.Second.ID)
	if !ok1 || !ok2 {
		return false
	}
	return math.Abs(r1.Rect.W-r2.Rect.W) < combineEps &&
		math.Abs(r1.Rect.H-r2.Rect.H) < combineEps
}

// CombineSplit removes a split whose children are two equally sized leaves,
// merging them into one new leaf. The new leaf takes the first non-empty
// label among the children. No-op when the precondition does not hold.
func (e *Editor) CombineSplit(n *Node) bool {
	if e.root == nil || !e.CanCombine(n) {
		return false
	}

	label := n.First.Label
	if label == "" {
		label = n.Second.Label
	}
	merged := e.newLeaf(label)

	if e.root == n {
		e.root = merged
	} else if !replaceSplit(e.root, n, merged) {
		return false
	}
	e.invalidate()
	return true
}

// SetLeafLabel assigns a label to the leaf with the given id. No-op when the
// id is unknown. The tree does not enforce label uniqueness across leaves;
// that is the caller's concern.
func (e *Editor) SetLeafLabel(id int, label string) bool {
	leaf := findLeaf(e.root, id)
	if leaf == nil {
		return false
	}
	leaf.Label = label
	e.invalidate()
	return true
}
