package analysis

import (
	"context"
	"strings"

	"jinspect/internal/diag"
	"jinspect/internal/resolve"
	"jinspect/internal/tree"
)

// Pass is handed to a rule for one node visit.
type Pass struct {
	Ctx   context.Context
	Tree  *tree.Tree
	Index *resolve.Index

	rule     *Rule
	severity diag.Severity
	reporter diag.Reporter
}

// Rule returns the rule being run.
func (p *Pass) Rule() *Rule { return p.rule }

// Report emits a finding on node using the rule's template and fix.
func (p *Pass) Report(node tree.NodeID) {
	p.Emit(p.Diagnostic(node, nil))
}

// Diagnostic builds, without emitting, the finding for node. vars fill
// "#key" placeholders of the template.
func (p *Pass) Diagnostic(node tree.NodeID, vars map[string]string) diag.Diagnostic {
	name := ""
	if n := p.Tree.Node(node); n != nil {
		name = n.Name
	}
	d := diag.New(p.severity, p.rule.Code, p.Tree.Span(node), Render(p.rule.Template, name, vars))
	d.Rule = p.rule.ID
	d.Target = p.Tree.Ref(node)
	d.Fix = p.rule.Fix
	return d
}

// Emit forwards d to the run's reporter.
func (p *Pass) Emit(d diag.Diagnostic) {
	if p.reporter != nil {
		p.reporter.Report(d)
	}
}

// Render expands a message template. "#ref" becomes ref, "#loc" is removed
// and "#key" is replaced by vars[key]. Surrounding whitespace is collapsed.
func Render(template, ref string, vars map[string]string) string {
	var sb strings.Builder
	for i := 0; i < len(template); {
		c := template[i]
		if c != '#' {
			sb.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(template) && isWordByte(template[j]) {
			j++
		}
		key := template[i+1 : j]
		switch {
		case key == "ref":
			sb.WriteString(ref)
		case key == "loc":
		case key != "" && vars != nil:
			if v, ok := vars[key]; ok {
				sb.WriteString(v)
			} else {
				sb.WriteString(template[i:j])
			}
		default:
			sb.WriteString(template[i:j])
		}
		i = j
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
