package rules

import (
	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/fix"
	"jinspect/internal/resolve"
	"jinspect/internal/tree"
)

const (
	ImplicitImportID = "implicit-import"

	// DefaultImplicitNamespace is imported into every compilation unit.
	DefaultImplicitNamespace = "java.lang"
)

var deleteImportFix = fix.DeleteNodeOf(tree.KindImport,
	"delete-unnecessary-import", "Delete unnecessary import")

// ImplicitImport flags imports from ns, a namespace that is in scope without
// any import. An empty ns means java.lang.
func ImplicitImport(ns string) *analysis.Rule {
	if ns == "" {
		ns = DefaultImplicitNamespace
	}
	return &analysis.Rule{
		ID:       ImplicitImportID,
		Name:     ns + " import",
		Group:    analysis.GroupImports,
		Kinds:    tree.TypeDeclKinds,
		Code:     diag.ImpRedundantImplicitName,
		Severity: diag.SevWarning,
		Template: "Unnecessary import from package #ns #loc",
		Fix:      deleteImportFix,
		Check:    implicitImportCheck(ns),
	}
}

// implicitImportCheck inspects the import list once per file, from the first
// top-level type declaration. Wildcards of ns are always reported; a
// single-name import is reported unless another namespace's wildcard also
// provides its simple name. A name without a dot ends the scan.
func implicitImportCheck(ns string) analysis.CheckFunc {
	vars := map[string]string{"ns": ns}
	return func(p *analysis.Pass, id tree.NodeID) analysis.Visit {
		t := p.Tree
		if t.Parent(id) != t.Root() || firstTypeDecl(t) != id {
			return analysis.SkipChildren
		}

		for _, imp := range resolve.Imports(t) {
			if imp.Static {
				continue
			}
			if imp.OnDemand {
				if imp.Namespace == ns {
					p.Emit(p.Diagnostic(imp.Node, vars))
				}
				continue
			}
			parent, _, ok := resolve.SplitQualified(imp.Qualified)
			if !ok {
				return analysis.SkipChildren
			}
			if parent == ns && !resolve.HasOnDemandImportConflict(p.Index, t, imp.Qualified) {
				p.Emit(p.Diagnostic(imp.Node, vars))
			}
		}
		return analysis.SkipChildren
	}
}

func firstTypeDecl(t *tree.Tree) tree.NodeID {
	for _, c := range t.Children(t.Root()) {
		if t.Kind(c).IsTypeDecl() {
			return c
		}
	}
	return tree.NoNodeID
}
