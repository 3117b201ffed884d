package resolve

import (
	"strings"

	"jinspect/internal/tree"
)

// ResolveType resolves a type name written inside the declaration ctx of t.
// Lookup order: member types of enclosing declarations, top-level types of
// the same file, single-name imports, the same package, on-demand imports,
// and finally the name taken as fully qualified. The caller holds t's lock.
func ResolveType(idx *Index, t *tree.Tree, ctx tree.NodeID, name string) (TypeDecl, bool) {
	if name == "" {
		return TypeDecl{}, false
	}
	first, rest, dotted := strings.Cut(name, ".")
	if dotted {
		if head, ok := resolveSimple(idx, t, ctx, first); ok {
			if d, ok := idx.Lookup(head.Qualified + "." + rest); ok {
				return d, true
			}
		}
		return idx.Lookup(name)
	}
	if d, ok := resolveSimple(idx, t, ctx, name); ok {
		return d, true
	}
	return idx.Lookup(name)
}

func resolveSimple(idx *Index, t *tree.Tree, ctx tree.NodeID, name string) (TypeDecl, bool) {
	pkg := PackageOf(t)

	// enclosing declarations, innermost first
	for cur := ctx; cur.IsValid() && t.Kind(cur) != tree.KindFile; cur = t.Parent(cur) {
		if !t.Kind(cur).IsTypeDecl() {
			continue
		}
		for _, c := range t.Children(cur) {
			if n := t.Node(c); n != nil && n.Kind.IsTypeDecl() && n.Name == name {
				return localDecl(t, c, pkg)
			}
		}
		if n := t.Node(cur); n != nil && n.Name == name {
			return localDecl(t, cur, pkg)
		}
	}
	for _, c := range t.Children(t.Root()) {
		if n := t.Node(c); n != nil && n.Kind.IsTypeDecl() && n.Name == name {
			return localDecl(t, c, pkg)
		}
	}

	imports := Imports(t)
	for _, imp := range imports {
		if !imp.OnDemand && !imp.Static && imp.Leaf == name {
			if d, ok := idx.Lookup(imp.Qualified); ok {
				return d, true
			}
		}
	}
	if d, ok := idx.Lookup(join(pkg, name)); ok {
		return d, true
	}
	for _, imp := range imports {
		if imp.OnDemand && !imp.Static {
			if d, ok := idx.Lookup(join(imp.Namespace, name)); ok {
				return d, true
			}
		}
	}
	return TypeDecl{}, false
}

func localDecl(t *tree.Tree, id tree.NodeID, pkg string) (TypeDecl, bool) {
	return TypeDecl{Tree: t, Node: id, Qualified: qualifiedName(t, id, pkg)}, true
}

// qualifiedName builds the dotted name of the type declaration id.
func qualifiedName(t *tree.Tree, id tree.NodeID, pkg string) string {
	var parts []string
	for cur := id; cur.IsValid() && t.Kind(cur).IsTypeDecl(); cur = t.Parent(cur) {
		parts = append(parts, t.Node(cur).Name)
	}
	name := pkg
	for i := len(parts) - 1; i >= 0; i-- {
		name = join(name, parts[i])
	}
	return name
}
