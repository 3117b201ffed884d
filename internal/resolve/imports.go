package resolve

import (
	"strings"

	"jinspect/internal/tree"
)

// Import describes one import statement.
type Import struct {
	Node      tree.NodeID
	Qualified string // dotted name without a trailing ".*"
	Namespace string // the imported namespace for on-demand imports, the parent otherwise
	Leaf      string // empty for on-demand imports
	OnDemand  bool
	Static    bool
}

// SplitQualified splits name at its last dot. ok is false when there is no dot.
func SplitQualified(name string) (ns, leaf string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name, false
	}
	return name[:i], name[i+1:], true
}

// ImportOf describes the import node id of t. ok is false for other kinds.
func ImportOf(t *tree.Tree, id tree.NodeID) (Import, bool) {
	node := t.Node(id)
	if node == nil || node.Kind != tree.KindImport {
		return Import{}, false
	}
	imp := Import{
		Node:      id,
		Qualified: node.Name,
		OnDemand:  node.OnDemand,
		Static:    node.Static,
	}
	if imp.OnDemand {
		imp.Namespace = node.Name
		return imp, true
	}
	imp.Namespace, imp.Leaf, _ = SplitQualified(node.Name)
	return imp, true
}

// Imports lists the import statements of t in source order.
func Imports(t *tree.Tree) []Import {
	var out []Import
	for _, list := range t.ChildrenOf(t.Root(), tree.KindImportList) {
		for _, id := range t.Children(list) {
			if imp, ok := ImportOf(t, id); ok {
				out = append(out, imp)
			}
		}
	}
	return out
}

// HasOnDemandImportConflict reports whether the leaf of qualified is also
// reachable through an on-demand import of a different namespace in t, so
// that dropping the single-name import would change what the bare name
// resolves to. Static imports never count.
func HasOnDemandImportConflict(idx *Index, t *tree.Tree, qualified string) bool {
	ns, leaf, ok := SplitQualified(qualified)
	if !ok {
		return false
	}
	for _, imp := range Imports(t) {
		if !imp.OnDemand || imp.Static || imp.Namespace == ns {
			continue
		}
		if idx.Declares(imp.Namespace, leaf) {
			return true
		}
	}
	return false
}
