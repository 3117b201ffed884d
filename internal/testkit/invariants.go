// Package testkit holds structural checks shared by parser and editor tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"jinspect/internal/tree"
)

// CheckSpanInvariants runs a minimal set of span invariants on a tree:
// 1) the root spans exactly the file content
// 2) every node points back to its parent and lies inside the parent's span
// 3) siblings are ordered and do not overlap
// 4) only an import list may have an empty span
func CheckSpanInvariants(t *tree.Tree) error {
	if t == nil || t.File() == nil {
		return fmt.Errorf("nil tree or file")
	}
	t.RLock()
	defer t.RUnlock()

	sf := t.File()
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	// 1) root span sanity
	root := t.Span(t.Root())
	if root.Start != 0 || root.End != lenContent {
		return fmt.Errorf("root span %d-%d does not cover content of %d bytes", root.Start, root.End, lenContent)
	}
	if root.File != sf.ID {
		return fmt.Errorf("root span points to different file id: got=%d want=%d", root.File, sf.ID)
	}

	var walkErr error
	tree.Walk(t, t.Root(), func(id tree.NodeID) bool {
		if walkErr != nil {
			return false
		}
		walkErr = checkChildren(t, id)
		return walkErr == nil
	})
	return walkErr
}

func checkChildren(t *tree.Tree, id tree.NodeID) error {
	parent := t.Span(id)
	var prevEnd uint32
	for i, c := range t.Children(id) {
		n := t.Node(c)
		if n == nil {
			return fmt.Errorf("child %d of %d is missing", c, id)
		}
		// 2) back link and containment
		if n.Parent != id {
			return fmt.Errorf("node %d: parent link %d, want %d", c, n.Parent, id)
		}
		sp := n.Span
		if sp.File != parent.File {
			return fmt.Errorf("node %d: span file mismatch: got=%d want=%d", c, sp.File, parent.File)
		}
		if sp.End < sp.Start || (sp.End == sp.Start && n.Kind != tree.KindImportList) {
			return fmt.Errorf("node %d (%v): empty span %d-%d", c, n.Kind, sp.Start, sp.End)
		}
		if !parent.Contains(sp) {
			return fmt.Errorf("node %d span %d-%d is outside parent span %d-%d", c, sp.Start, sp.End, parent.Start, parent.End)
		}
		// 3) order
		if i > 0 && sp.Start < prevEnd {
			return fmt.Errorf("node %d starts at %d before previous sibling ends at %d", c, sp.Start, prevEnd)
		}
		prevEnd = sp.End
	}
	return nil
}
