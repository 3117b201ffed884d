// Package analysis walks a tree once and dispatches every node to the rules
// subscribed to its kind.
package analysis

import (
	"jinspect/internal/diag"
	"jinspect/internal/tree"
)

// Visit tells the walker whether a rule wants to see the children of the node
// it was just given.
type Visit uint8

const (
	Descend Visit = iota
	SkipChildren
)

// CheckFunc inspects one node. It must not keep references to the tree once
// it returns.
type CheckFunc func(p *Pass, node tree.NodeID) Visit

// Rule is plain data: subscribed kinds, a check and the metadata used to
// render its findings. Rules are immutable and shared across concurrent runs.
type Rule struct {
	ID       string
	Name     string
	Group    string
	Kinds    []tree.Kind
	Code     diag.Code
	Severity diag.Severity
	// Template is the message; "#ref" expands to the target's name, "#loc"
	// is dropped, other "#key" placeholders come from Pass.Diagnostic vars.
	Template string
	Fix      *diag.Fix
	Check    CheckFunc
}

// Groups used by the builtin rules.
const (
	GroupImports     = "imports"
	GroupClassLayout = "class layout"
)
