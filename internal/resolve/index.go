// Package resolve answers the narrow semantic queries rules need: which
// methods a declaration overrides, and what an import brings into scope.
// It is not a type checker; unresolvable names are silently skipped.
package resolve

import (
	"slices"
	"strings"

	"jinspect/internal/tree"
)

// TypeDecl locates one type declaration.
type TypeDecl struct {
	Tree      *tree.Tree
	Node      tree.NodeID
	Qualified string
}

// Index maps qualified type names to declarations and namespaces to the
// simple names they declare. Build it once before analysis; afterwards it is
// read-only and safe for concurrent use.
type Index struct {
	types      map[string]TypeDecl
	namespaces map[string]map[string]struct{}
	packages   map[*tree.Tree]string
}

func NewIndex() *Index {
	return &Index{
		types:      make(map[string]TypeDecl),
		namespaces: make(map[string]map[string]struct{}),
		packages:   make(map[*tree.Tree]string),
	}
}

// Build indexes trees and registers extra namespace members, typically from
// the project manifest.
func Build(trees []*tree.Tree, extra map[string][]string) *Index {
	idx := NewIndex()
	for _, t := range trees {
		idx.AddTree(t)
	}
	for ns, members := range extra {
		idx.AddNamespace(ns, members...)
	}
	return idx
}

// AddTree registers every type declaration of t, nested ones included.
func (idx *Index) AddTree(t *tree.Tree) {
	if t == nil {
		return
	}
	t.RLock()
	defer t.RUnlock()

	pkg := PackageOf(t)
	idx.packages[t] = pkg
	for _, c := range t.Children(t.Root()) {
		if t.Kind(c).IsTypeDecl() {
			idx.addType(t, c, pkg)
		}
	}
}

func (idx *Index) addType(t *tree.Tree, id tree.NodeID, ns string) {
	n := t.Node(id)
	if n == nil || n.Name == "" {
		return
	}
	qualified := join(ns, n.Name)
	if _, dup := idx.types[qualified]; !dup {
		idx.types[qualified] = TypeDecl{Tree: t, Node: id, Qualified: qualified}
	}
	idx.AddNamespace(ns, n.Name)
	for _, c := range n.Children {
		if t.Kind(c).IsTypeDecl() {
			idx.addType(t, c, qualified)
		}
	}
}

// AddNamespace records that ns declares members.
func (idx *Index) AddNamespace(ns string, members ...string) {
	set, ok := idx.namespaces[ns]
	if !ok {
		set = make(map[string]struct{}, len(members))
		idx.namespaces[ns] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
}

// Lookup returns the declaration for a fully qualified type name.
func (idx *Index) Lookup(qualified string) (TypeDecl, bool) {
	if idx == nil {
		return TypeDecl{}, false
	}
	d, ok := idx.types[qualified]
	return d, ok
}

// Declares reports whether namespace ns is known to declare leaf.
func (idx *Index) Declares(ns, leaf string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.namespaces[ns][leaf]
	return ok
}

// Namespaces returns the known namespaces in sorted order.
func (idx *Index) Namespaces() []string {
	out := make([]string, 0, len(idx.namespaces))
	for ns := range idx.namespaces {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Package returns the package t was indexed under.
func (idx *Index) Package(t *tree.Tree) (string, bool) {
	if idx == nil {
		return "", false
	}
	pkg, ok := idx.packages[t]
	return pkg, ok
}

// PackageOf reads the package clause of t; the default package is "".
func PackageOf(t *tree.Tree) string {
	for _, c := range t.ChildrenOf(t.Root(), tree.KindPackage) {
		if n := t.Node(c); n != nil {
			return n.Name
		}
	}
	return ""
}

func join(ns, name string) string {
	if ns == "" {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(ns) + 1 + len(name))
	sb.WriteString(ns)
	sb.WriteByte('.')
	sb.WriteString(name)
	return sb.String()
}
