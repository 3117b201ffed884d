package tree

import (
	"sync"
	"sync/atomic"

	"jinspect/internal/source"
)

// Navigator is the read-only surface analysis code walks.
type Navigator interface {
	Kind(id NodeID) Kind
	Parent(id NodeID) NodeID
	Children(id NodeID) []NodeID
	Span(id NodeID) source.Span
	File() *source.File
}

// Tree owns every node of one source file.
//
// Reads (Node, Kind, Children, ...) are safe to run concurrently while the
// caller holds RLock; Edit takes the exclusive lock and bumps the generation,
// after which every Ref taken earlier reports itself stale.
type Tree struct {
	mu    sync.RWMutex
	file  *source.File
	nodes *arena
	root  NodeID
	gen   atomic.Uint64
}

// New returns a tree for file holding only a KindFile root that spans the
// whole content.
func New(file *source.File) *Tree {
	t := &Tree{
		file:  file,
		nodes: newArena(64),
	}
	end := uint32(0)
	if file != nil {
		end = uint32(len(file.Content))
	}
	var fid source.FileID
	if file != nil {
		fid = file.ID
	}
	t.root = t.nodes.push(Node{
		Kind: KindFile,
		Span: source.Span{File: fid, Start: 0, End: end},
	})
	return t
}

// Add appends n as the last child of parent and returns its id. It is meant
// for front ends building a tree before it is shared; edits go through Edit.
func (t *Tree) Add(parent NodeID, n Node) NodeID {
	n.Parent = parent
	n.Children = nil
	id := t.nodes.push(n)
	if p := t.nodes.at(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

func (t *Tree) RLock()   { t.mu.RLock() }
func (t *Tree) RUnlock() { t.mu.RUnlock() }

func (t *Tree) File() *source.File { return t.file }
func (t *Tree) Root() NodeID       { return t.root }

// Generation increases by one with every successful edit.
func (t *Tree) Generation() uint64 { return t.gen.Load() }

// Node returns the node for id, or nil when id is invalid or was removed.
// The returned value must be treated as read-only.
func (t *Tree) Node(id NodeID) *Node {
	n := t.nodes.at(id)
	if n == nil || n.removed {
		return nil
	}
	return n
}

func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// Children returns the ordered child ids. READONLY.
func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Node(id); n != nil {
		return n.Children
	}
	return nil
}

func (t *Tree) Span(id NodeID) source.Span {
	if n := t.Node(id); n != nil {
		return n.Span
	}
	return source.Span{}
}

// Text returns the source text covered by id.
func (t *Tree) Text(id NodeID) string {
	n := t.Node(id)
	if n == nil || t.file == nil {
		return ""
	}
	if int(n.Span.End) > len(t.file.Content) || n.Span.Start > n.Span.End {
		return ""
	}
	return string(t.file.Content[n.Span.Start:n.Span.End])
}

// Len counts the live nodes, root included.
func (t *Tree) Len() int { return t.nodes.live }

// Ancestor returns the nearest ancestor of id matching pred, or NoNodeID.
func (t *Tree) Ancestor(id NodeID, pred func(Kind) bool) NodeID {
	for cur := t.Parent(id); cur.IsValid(); cur = t.Parent(cur) {
		if pred(t.Kind(cur)) {
			return cur
		}
	}
	return NoNodeID
}

// ChildrenOf returns the direct children of id with the given kind, in order.
func (t *Tree) ChildrenOf(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.Kind(c) == kind {
			out = append(out, c)
		}
	}
	return out
}

// Ref captures id at the current generation.
func (t *Tree) Ref(id NodeID) Ref {
	return Ref{Tree: t, Node: id, Gen: t.Generation()}
}
