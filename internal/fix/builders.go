package fix

import (
	"jinspect/internal/diag"
	"jinspect/internal/tree"
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f *diag.Fix, opts []Option) *diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// New creates an always-safe fix running op.
func New(id, title string, op diag.FixOp, opts ...Option) *diag.Fix {
	return applyOptions(&diag.Fix{
		ID:            id,
		Title:         title,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Op:            op,
	}, opts)
}

// DeleteNode creates fix that removes the diagnostic's target node together
// with the source lines it owns.
func DeleteNode(id, title string, opts ...Option) *diag.Fix {
	return New(id, title, diag.DeleteTarget, opts...)
}

// DeleteNodeOf creates fix that only removes the target when it has the given
// kind; anything else is reported as ErrKindMismatch and nothing changes.
func DeleteNodeOf(kind tree.Kind, id, title string, opts ...Option) *diag.Fix {
	return New(id, title, func(e *tree.Editor, target tree.NodeID) error {
		n := e.Node(target)
		if n == nil {
			return tree.ErrNoNode
		}
		if n.Kind != kind {
			return &KindMismatchError{Want: kind, Got: n.Kind}
		}
		return e.Remove(target)
	}, opts...)
}
