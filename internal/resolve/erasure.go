package resolve

import (
	"strconv"
	"strings"

	"jinspect/internal/tree"
)

const objectType = "java.lang.Object"

// erased is a parameter type reduced to what override matching compares.
// exact names are fully qualified; the others are known by simple name only
// because nothing in scope says where they come from. A class type variable
// keeps its declaring type in owner so that variables of unrelated types
// never match each other.
type erased struct {
	name  string
	exact bool
	owner typeKey
	dims  int
}

// binding maps the type variables of one type declaration to the arguments
// a subtype passed for them. A raw binding erases them to their bounds.
type binding struct {
	owner typeKey
	args  map[string]erased
	raw   bool
}

// bind pairs the declared type variables of owner with the arguments of e.
// A mismatched argument count is treated as a raw reference.
func bind(owner tree.NodeID, params []tree.TypeParam, e edge) binding {
	b := binding{owner: typeKey{e.key.tree, owner}}
	if len(params) == 0 {
		return b
	}
	if e.raw || len(e.args) != len(params) {
		b.raw = true
		return b
	}
	b.args = make(map[string]erased, len(params))
	for i, p := range params {
		b.args[p.Name] = e.args[i]
	}
	return b
}

func (r *resolver) eraseAll(u *tree.Tree, ctx tree.NodeID, refs []tree.TypeRef, b binding) []erased {
	out := make([]erased, 0, len(refs))
	for _, ref := range refs {
		out = append(out, r.erase(u, ctx, ref, b))
	}
	return out
}

// erase reduces ref, written at ctx in u, to a comparable form. Order: type
// variables, declarations known to the index, names written qualified,
// single-name imports. The caller holds u's lock.
func (r *resolver) erase(u *tree.Tree, ctx tree.NodeID, ref tree.TypeRef, b binding) erased {
	dims := ref.ArrayDims()
	if ref.Name == "?" {
		return erased{name: objectType, exact: true, dims: dims}
	}
	first, rest, dotted := strings.Cut(ref.Name, ".")
	if !dotted {
		if e, ok := r.typeVar(u, ctx, ref.Name, b); ok {
			e.dims += dims
			return e
		}
	}
	if d, ok := ResolveType(r.idx, u, ctx, ref.Name); ok {
		return erased{name: d.Qualified, exact: true, dims: dims}
	}
	for _, imp := range Imports(u) {
		if imp.OnDemand || imp.Static || imp.Leaf != first {
			continue
		}
		name := imp.Qualified
		if dotted {
			name += "." + rest
		}
		return erased{name: name, exact: true, dims: dims}
	}
	if dotted {
		return erased{name: ref.Name, exact: true, dims: dims}
	}
	return erased{name: ref.Name, dims: dims}
}

// typeVar finds the type variable name visible at ctx, innermost declaration
// first. Method type variables are compared by position.
func (r *resolver) typeVar(u *tree.Tree, ctx tree.NodeID, name string, b binding) (erased, bool) {
	for cur := ctx; cur.IsValid() && u.Kind(cur) != tree.KindFile; cur = u.Parent(cur) {
		n := u.Node(cur)
		if n == nil {
			break
		}
		for i, p := range n.TypeParams {
			if p.Name != name {
				continue
			}
			switch {
			case !n.Kind.IsTypeDecl():
				return erased{name: "#" + strconv.Itoa(i), exact: true}, true
			case b.owner == (typeKey{u, cur}) && b.raw:
				if len(p.Bounds) == 0 {
					return erased{name: objectType, exact: true}, true
				}
				return r.erase(u, cur, p.Bounds[0], binding{}), true
			case b.owner == (typeKey{u, cur}):
				if e, ok := b.args[name]; ok {
					return e, true
				}
			}
			return erased{name: name, exact: true, owner: typeKey{u, cur}}, true
		}
	}
	return erased{}, false
}

func sameParams(a, b []erased) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameType(a[i], b[i]) {
			return false
		}
	}
	return true
}

// sameType compares qualified names when both sides know them and falls
// back to simple names otherwise.
func sameType(a, b erased) bool {
	if a.dims != b.dims || a.owner != b.owner {
		return false
	}
	if a.exact && b.exact {
		return a.name == b.name
	}
	return simpleName(a.name) == simpleName(b.name)
}

func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
