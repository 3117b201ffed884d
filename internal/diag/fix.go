package diag

import "jinspect/internal/tree"

// FixApplicability describes how safe it is to apply a fix automatically.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// FixOp mutates the staged tree for target. It runs under the tree's
// exclusive lock; returning an error discards every staged change.
type FixOp func(e *tree.Editor, target tree.NodeID) error

// Fix is a named mutation shared by all diagnostics of one rule.
type Fix struct {
	ID            string
	Title         string
	Applicability FixApplicability
	Op            FixOp
}

// DeleteTarget removes the target node and its source text.
func DeleteTarget(e *tree.Editor, target tree.NodeID) error {
	return e.Remove(target)
}
