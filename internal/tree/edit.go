package tree

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
)

var (
	// ErrNoNode is returned when an edit targets a missing or removed node.
	ErrNoNode = errors.New("tree: node not found")
	// ErrRootRemoval is returned when an edit tries to delete the file root.
	ErrRootRemoval = errors.New("tree: cannot remove the root node")
	// ErrInconsistent signals a broken parent/child link discovered while editing.
	ErrInconsistent = errors.New("tree: inconsistent parent link")
)

// Editor stages mutations on a private copy of the tree. Nothing it does is
// visible until the enclosing Edit call returns without error.
type Editor struct {
	nodes   *arena
	content []byte
	root    NodeID
	removed []NodeID
}

// Edit runs fn with exclusive access to the tree. Changes are applied
// atomically: on error the tree is left exactly as it was. A successful edit
// that changed anything bumps the generation and returns the ids of every
// node it detached.
func (t *Tree) Edit(fn func(e *Editor) error) ([]NodeID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := &Editor{
		nodes: t.nodes.clone(),
		root:  t.root,
	}
	if t.file != nil {
		e.content = slices.Clone(t.file.Content)
	}

	if err := fn(e); err != nil {
		return nil, err
	}
	if len(e.removed) == 0 {
		return nil, nil
	}

	t.nodes = e.nodes
	if t.file != nil {
		t.file.SetContent(e.content)
	}
	t.gen.Add(1)
	return e.removed, nil
}

// Node returns the staged node for id.
func (e *Editor) Node(id NodeID) *Node {
	n := e.nodes.at(id)
	if n == nil || n.removed {
		return nil
	}
	return n
}

// Remove detaches id and its subtree from the parent's child sequence and
// deletes the covered source text. Siblings keep their relative order.
func (e *Editor) Remove(id NodeID) error {
	n := e.Node(id)
	if n == nil {
		return fmt.Errorf("remove %d: %w", id, ErrNoNode)
	}
	if id == e.root {
		return ErrRootRemoval
	}
	parent := e.Node(n.Parent)
	if parent == nil {
		return fmt.Errorf("remove %d: %w", id, ErrInconsistent)
	}
	idx := slices.Index(parent.Children, id)
	if idx < 0 {
		return fmt.Errorf("remove %d: not a child of %d: %w", id, n.Parent, ErrInconsistent)
	}

	start, end, err := e.removalRange(n.Span.Start, n.Span.End)
	if err != nil {
		return fmt.Errorf("remove %d: %w", id, err)
	}

	parent.Children = slices.Delete(parent.Children, idx, idx+1)

	subtree := e.subtree(id)
	for _, sub := range subtree {
		e.nodes.kill(sub)
	}
	e.removed = append(e.removed, subtree...)

	e.splice(start, end)
	return nil
}

func (e *Editor) subtree(id NodeID) []NodeID {
	out := []NodeID{id}
	for i := 0; i < len(out); i++ {
		if n := e.nodes.at(out[i]); n != nil {
			out = append(out, n.Children...)
		}
	}
	return out
}

// removalRange widens [start,end) to whole lines when the node is alone on
// its lines; otherwise it only swallows trailing blanks.
func (e *Editor) removalRange(start, end uint32) (uint32, uint32, error) {
	size, err := safecast.Conv[uint32](len(e.content))
	if err != nil {
		return 0, 0, err
	}
	if start > end || end > size {
		return 0, 0, fmt.Errorf("span %d-%d outside content of %d bytes", start, end, size)
	}

	lineStart := start
	for lineStart > 0 && isBlank(e.content[lineStart-1]) {
		lineStart--
	}
	lineEnd := end
	for lineEnd < size && isBlank(e.content[lineEnd]) {
		lineEnd++
	}
	ownsLine := (lineStart == 0 || e.content[lineStart-1] == '\n') &&
		(lineEnd == size || e.content[lineEnd] == '\n')
	if ownsLine {
		if lineEnd < size {
			lineEnd++ // newline
		}
		return lineStart, lineEnd, nil
	}
	return start, lineEnd, nil
}

func (e *Editor) splice(start, end uint32) {
	e.content = slices.Delete(e.content, int(start), int(end))
	for i := range e.nodes.nodes {
		if n := &e.nodes.nodes[i]; !n.removed {
			n.Span = n.Span.Cut(start, end)
		}
	}
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }
