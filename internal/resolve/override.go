package resolve

import (
	"jinspect/internal/tree"
)

// MethodRef locates a method declaration together with its declaring type.
type MethodRef struct {
	Tree      *tree.Tree
	Node      tree.NodeID
	Owner     tree.NodeID
	OwnerKind tree.Kind
	Mods      tree.Modifiers
}

// InInterface reports whether the declaring type is interface-like.
func (m MethodRef) InInterface() bool { return m.OwnerKind.IsInterfaceLike() }

type typeKey struct {
	tree *tree.Tree
	node tree.NodeID
}

// edge is one step up the supertype graph. args are the type arguments the
// subtype passes, already erased in the subtype's scope; raw is set when it
// passes none.
type edge struct {
	key  typeKey
	args []erased
	raw  bool
}

// SuperMethods returns the methods that m overrides: for each branch of the
// supertype graph, the nearest declaration with the same name and the same
// parameter types once the supertype's type variables are replaced by the
// arguments passed along the way. Superclasses come before interfaces, each
// in declaration order. The caller must hold t's read lock; other trees are
// read-locked here.
//
// Constructors, static and private methods never override and yield nothing.
func SuperMethods(idx *Index, t *tree.Tree, m tree.NodeID) []MethodRef {
	node := t.Node(m)
	if node == nil || node.Kind != tree.KindMethod {
		return nil
	}
	if node.Mods.Has(tree.ModStatic) || node.Mods.Has(tree.ModPrivate) {
		return nil
	}
	owner := node.Parent
	if !t.Kind(owner).IsTypeDecl() {
		return nil
	}

	r := &resolver{idx: idx, home: t}
	want := r.eraseAll(t, m, node.Params, binding{})
	visited := map[typeKey]bool{{t, owner}: true}
	queue := r.supertypes(t, owner, binding{})

	var out []MethodRef
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.key] {
			continue
		}
		visited[cur.key] = true

		found, next := r.scan(cur, node.Name, want)
		if found != nil {
			out = append(out, *found)
			continue
		}
		queue = append(queue, next...)
	}
	return out
}

type resolver struct {
	idx  *Index
	home *tree.Tree
}

// view runs fn with u read-locked unless u is the tree being analysed.
func (r *resolver) view(u *tree.Tree, fn func()) {
	if u != r.home {
		u.RLock()
		defer u.RUnlock()
	}
	fn()
}

// scan looks for an override candidate in the type at e and, failing that,
// returns the type's own supertypes.
func (r *resolver) scan(e edge, name string, want []erased) (found *MethodRef, next []edge) {
	k := e.key
	r.view(k.tree, func() {
		owner := k.tree.Node(k.node)
		if owner == nil {
			return
		}
		b := bind(k.node, owner.TypeParams, e)
		for _, c := range owner.Children {
			cand := k.tree.Node(c)
			if cand == nil || cand.Kind != tree.KindMethod || cand.Name != name {
				continue
			}
			if cand.Mods.Has(tree.ModPrivate) || cand.Mods.Has(tree.ModStatic) {
				continue
			}
			if !sameParams(r.eraseAll(k.tree, c, cand.Params, b), want) {
				continue
			}
			found = &MethodRef{Tree: k.tree, Node: c, Owner: k.node, OwnerKind: owner.Kind, Mods: cand.Mods}
			return
		}
		next = r.supertypes(k.tree, k.node, b)
	})
	return found, next
}

// supertypes resolves the declared supertypes of the type id in u, erasing
// their type arguments under b. The caller holds u's lock.
func (r *resolver) supertypes(u *tree.Tree, id tree.NodeID, b binding) []edge {
	n := u.Node(id)
	if n == nil {
		return nil
	}
	var refs []tree.TypeRef
	switch n.Kind {
	case tree.KindClass, tree.KindInterface:
		refs = append(refs, n.Extends...)
		refs = append(refs, n.Implements...)
	case tree.KindEnum, tree.KindRecord:
		refs = n.Implements
	}

	out := make([]edge, 0, len(refs))
	for _, ref := range refs {
		d, ok := ResolveType(r.idx, u, id, ref.Name)
		if !ok {
			continue
		}
		e := edge{key: typeKey{d.Tree, d.Node}, raw: len(ref.Args) == 0}
		for _, a := range ref.Args {
			e.args = append(e.args, r.erase(u, id, a, b))
		}
		out = append(out, e)
	}
	return out
}
