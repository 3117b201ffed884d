package tree

import (
	"strings"

	"jinspect/internal/source"
)

// TypeRef is a type as written at a use site. Generic arguments are kept
// only for supertypes (extends/implements); elsewhere they are erased.
type TypeRef struct {
	Name    string // dotted name as written, e.g. "java.util.List" or "List"
	Dims    int    // array dimensions
	Varargs bool
	Args    []TypeRef // "?" stands for a wildcard
}

// TypeParam is a declared type variable with its bounds.
type TypeParam struct {
	Name   string
	Bounds []TypeRef
}

// SimpleName returns the last segment of the dotted name.
func (r TypeRef) SimpleName() string {
	if i := strings.LastIndexByte(r.Name, '.'); i >= 0 {
		return r.Name[i+1:]
	}
	return r.Name
}

// ArrayDims counts varargs as one extra dimension.
func (r TypeRef) ArrayDims() int {
	if r.Varargs {
		return r.Dims + 1
	}
	return r.Dims
}

func (r TypeRef) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range r.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	for range r.Dims {
		sb.WriteString("[]")
	}
	if r.Varargs {
		sb.WriteString("...")
	}
	return sb.String()
}

// Node is one element of a Tree. Parent is a back-link for navigation only.
type Node struct {
	Kind     Kind
	Span     source.Span
	Parent   NodeID
	Children []NodeID

	// Name holds the declared identifier; for imports and the package
	// clause it holds the dotted name.
	Name string
	Mods Modifiers

	OnDemand bool // import a.b.*
	Static   bool // import static

	TypeParams []TypeParam
	Params     []TypeRef
	Result     TypeRef
	Extends    []TypeRef
	Implements []TypeRef
	HasBody    bool

	removed bool
}

// Removed reports whether an edit detached the node from its tree.
func (n *Node) Removed() bool { return n.removed }
