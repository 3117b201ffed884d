package rules

import (
	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/fix"
	"jinspect/internal/resolve"
	"jinspect/internal/source"
	"jinspect/internal/tree"
)

const AbstractOverrideID = "abstract-override"

var removeAbstractMethodFix = fix.DeleteNodeOf(tree.KindMethod,
	"remove-redundant-abstract-method", "Remove redundant abstract method declaration")

var abstractOverride = &analysis.Rule{
	ID:       AbstractOverrideID,
	Name:     "Abstract method overrides abstract method",
	Group:    analysis.GroupClassLayout,
	Kinds:    []tree.Kind{tree.KindMethod, tree.KindConstructor},
	Code:     diag.LayRedundantAbstractDecl,
	Severity: diag.SevWarning,
	Template: "Abstract method '#ref' overrides abstract method #loc",
	Fix:      removeAbstractMethodFix,
	Check:    checkAbstractOverride,
}

// AbstractOverride flags abstract or interface methods that only restate an
// inherited abstract contract.
//
// Interface default methods are skipped even though they are interface
// members: they carry a body, so they are not a restatement, and the fix
// would delete that body.
func AbstractOverride() *analysis.Rule { return abstractOverride }

// checkAbstractOverride never descends: a method's subtree holds nothing the
// rule cares about.
func checkAbstractOverride(p *analysis.Pass, id tree.NodeID) analysis.Visit {
	t := p.Tree
	m := t.Node(id)
	if m == nil || m.Kind == tree.KindConstructor {
		return analysis.SkipChildren
	}
	ownerKind := t.Kind(m.Parent)
	if !m.Mods.Has(tree.ModAbstract) && !ownerKind.IsInterfaceLike() {
		return analysis.SkipChildren
	}
	// default-методы интерфейса конкретны, их тело не трогаем
	if m.HasBody {
		return analysis.SkipChildren
	}

	for _, super := range resolve.SuperMethods(p.Index, t, id) {
		if !super.InInterface() && !super.Mods.Has(tree.ModAbstract) {
			continue
		}
		d := p.Diagnostic(id, nil)
		if span, ok := declSpan(t, super); ok {
			d = d.WithNote(span, "overridden method is declared here")
		}
		p.Emit(d)
		return analysis.SkipChildren
	}
	return analysis.SkipChildren
}

func declSpan(home *tree.Tree, m resolve.MethodRef) (span source.Span, ok bool) {
	if m.Tree != home {
		m.Tree.RLock()
		defer m.Tree.RUnlock()
	}
	if m.Tree.Node(m.Node) == nil {
		return span, false
	}
	return m.Tree.Span(m.Node), true
}
