package tree

// Ref points at a node as it existed in one generation of its tree.
type Ref struct {
	Tree *Tree
	Node NodeID
	Gen  uint64
}

func (r Ref) IsZero() bool { return r.Tree == nil || !r.Node.IsValid() }

// Valid reports whether the tree has not been edited since the ref was taken
// and the node is still attached.
func (r Ref) Valid() bool {
	if r.IsZero() {
		return false
	}
	if r.Tree.Generation() != r.Gen {
		return false
	}
	return r.Tree.Node(r.Node) != nil
}
