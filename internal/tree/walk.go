package tree

// Walk visits root and its descendants depth-first in pre-order. When fn
// returns false the children of that node are skipped.
func Walk(nav Navigator, root NodeID, fn func(id NodeID) bool) {
	if !root.IsValid() || nav.Kind(root) == KindInvalid {
		return
	}
	if !fn(root) {
		return
	}
	for _, c := range nav.Children(root) {
		Walk(nav, c, fn)
	}
}

// Descendants returns id and every node below it in pre-order.
func Descendants(nav Navigator, id NodeID) []NodeID {
	var out []NodeID
	Walk(nav, id, func(n NodeID) bool {
		out = append(out, n)
		return true
	})
	return out
}
