package diag

import (
	"jinspect/internal/source"
	"jinspect/internal/tree"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Rule     string
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Target   tree.Ref
	Notes    []Note
	Fix      *Fix
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithFix(fix *Fix) Diagnostic {
	d.Fix = fix
	return d
}

// Stale reports whether the diagnostic points at a node whose tree has been
// edited since the diagnostic was produced. Diagnostics without a target are
// never stale.
func (d *Diagnostic) Stale() bool {
	if d.Target.IsZero() {
		return false
	}
	return !d.Target.Valid()
}
