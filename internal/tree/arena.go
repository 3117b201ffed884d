package tree

import "slices"

// arena stores the nodes of one tree by id. Ids start at 1 so that the zero
// NodeID never names a node; removed nodes keep their slot.
type arena struct {
	nodes []Node
	live  int
}

func newArena(hint int) *arena {
	return &arena{nodes: make([]Node, 0, hint)}
}

func (a *arena) push(n Node) NodeID {
	a.nodes = append(a.nodes, n)
	a.live++
	return NodeID(len(a.nodes))
}

// at returns the slot for id, removed or not; nil when id was never allocated.
func (a *arena) at(id NodeID) *Node {
	if id == NoNodeID || int(id) > len(a.nodes) {
		return nil
	}
	return &a.nodes[id-1]
}

// kill marks id removed. The slot stays so that stale refs cannot alias a
// new node.
func (a *arena) kill(id NodeID) {
	if n := a.at(id); n != nil && !n.removed {
		n.removed = true
		a.live--
	}
}

// clone copies the arena deep enough for an Editor to mutate child lists
// without touching the original.
func (a *arena) clone() *arena {
	out := &arena{nodes: slices.Clone(a.nodes), live: a.live}
	for i := range out.nodes {
		out.nodes[i].Children = slices.Clone(out.nodes[i].Children)
	}
	return out
}
