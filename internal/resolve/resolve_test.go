package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"jinspect/internal/javasrc"
	"jinspect/internal/source"
	"jinspect/internal/tree"
)

type project struct {
	trees map[string]*tree.Tree
	idx   *Index
}

func load(t *testing.T, files map[string]string) *project {
	t.Helper()
	fs := source.NewFileSet()
	p := &project{trees: make(map[string]*tree.Tree)}
	var all []*tree.Tree
	for name, src := range files {
		tr, err := javasrc.Parse(fs.Get(fs.AddVirtual(name, []byte(src))))
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		p.trees[name] = tr
		all = append(all, tr)
	}
	p.idx = Build(all, nil)
	return p
}

// method finds the method called name declared directly in the type called owner.
func (p *project) method(t *testing.T, file, owner, name string) (*tree.Tree, tree.NodeID) {
	t.Helper()
	tr := p.trees[file]
	for _, id := range tree.Descendants(tr, tr.Root()) {
		n := tr.Node(id)
		if n.Kind == tree.KindMethod && n.Name == name && tr.Node(n.Parent).Name == owner {
			return tr, id
		}
	}
	t.Fatalf("method %s.%s not found in %s", owner, name, file)
	return nil, 0
}

func (p *project) supers(t *testing.T, file, owner, name string) []string {
	t.Helper()
	tr, id := p.method(t, file, owner, name)
	tr.RLock()
	defer tr.RUnlock()
	var out []string
	for _, ref := range SuperMethods(p.idx, tr, id) {
		out = append(out, ref.Tree.Node(ref.Owner).Name+"."+ref.Tree.Node(ref.Node).Name)
	}
	return out
}

func TestSuperMethodsInterfaces(t *testing.T) {
	p := load(t, map[string]string{
		"I.java": "interface I { void m(); }\ninterface J extends I { void m(); }\n",
	})
	if got := p.supers(t, "I.java", "I", "m"); len(got) != 0 {
		t.Fatalf("I.m has no ancestors, got %v", got)
	}
	if diff := cmp.Diff([]string{"I.m"}, p.supers(t, "I.java", "J", "m")); diff != "" {
		t.Fatalf("J.m supers mismatch (-want +got):\n%s", diff)
	}
}

func TestSuperMethodsNearestPerBranch(t *testing.T) {
	p := load(t, map[string]string{
		"A.java": `abstract class A { abstract void m(); }
class B extends A { void m() {} }
abstract class C extends B implements K { abstract void m(); }
interface K { void m(); }
`,
	})
	if diff := cmp.Diff([]string{"B.m", "K.m"}, p.supers(t, "A.java", "C", "m")); diff != "" {
		t.Fatalf("C.m supers mismatch (-want +got):\n%s", diff)
	}
}

func TestSuperMethodsAcrossFiles(t *testing.T) {
	p := load(t, map[string]string{
		"p/I.java": "package p;\npublic interface I { void run(String s, int... rest); }\n",
		"q/K.java": "package q;\nimport p.I;\ninterface K extends I { void run(java.lang.String s, int[] rest); }\n",
		"q/L.java": "package q;\nimport p.*;\ninterface L extends I { void run(String s, int rest); }\n",
	})
	if diff := cmp.Diff([]string{"I.run"}, p.supers(t, "q/K.java", "K", "run")); diff != "" {
		t.Fatalf("K.run supers mismatch (-want +got):\n%s", diff)
	}
	if got := p.supers(t, "q/L.java", "L", "run"); len(got) != 0 {
		t.Fatalf("different arity of dims must not match, got %v", got)
	}
}

func TestSuperMethodsSkipsStaticPrivateAndCycles(t *testing.T) {
	p := load(t, map[string]string{
		"X.java": `interface X extends Y { void z(); static void s() {} }
interface Y extends X { static void s() {} }
abstract class P { private void h() {} }
abstract class Q extends P { abstract void h(); }
`,
	})
	if got := p.supers(t, "X.java", "X", "z"); len(got) != 0 {
		t.Fatalf("cycle without match must yield nothing, got %v", got)
	}
	if got := p.supers(t, "X.java", "Y", "s"); len(got) != 0 {
		t.Fatalf("static methods never override, got %v", got)
	}
	if got := p.supers(t, "X.java", "Q", "h"); len(got) != 0 {
		t.Fatalf("private methods are not overridable, got %v", got)
	}
}

func TestSuperMethodsComparesQualifiedParameterTypes(t *testing.T) {
	p := load(t, map[string]string{
		"I.java": "interface I { void m(java.util.List l); void d(java.util.Date d); void s(String s); }\n",
		"J.java": "interface J extends I { void m(java.awt.List l); void d(java.sql.Date d); void s(java.lang.String s); }\n",
		"K.java": "import java.awt.List;\ninterface K extends I { void m(List l); }\n",
		"L.java": "import java.util.List;\ninterface L extends I { void m(List l); }\n",
	})
	tests := []struct {
		file, owner, name string
		want              []string
	}{
		{"J.java", "J", "m", nil},
		{"J.java", "J", "d", nil},
		{"J.java", "J", "s", []string{"I.s"}},
		{"K.java", "K", "m", nil},
		{"L.java", "L", "m", []string{"I.m"}},
	}
	for _, tt := range tests {
		got := p.supers(t, tt.file, tt.owner, tt.name)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%s.%s supers mismatch (-want +got):\n%s", tt.owner, tt.name, diff)
		}
	}
}

func TestSuperMethodsSubstitutesTypeArguments(t *testing.T) {
	p := load(t, map[string]string{
		"I.java": "interface I<T> { void m(T t); }\n",
		"A.java": `interface A extends I<String> { void m(String s); }
interface B<T> extends I<String> { void m(T t); }
interface C extends I { void m(Object o); }
interface D<U> extends I<U> { void m(U u); }
interface E<U> extends I<U> { }
interface F extends E<Integer> { void m(Integer i); }
interface G extends E<Integer> { void m(String s); }
interface H<V extends Number> extends I { void m(V v); }
interface M { <X> void g(X x); }
interface N extends M { <Y> void g(Y y); }
`,
	})
	tests := []struct {
		owner string
		want  []string
	}{
		{"A", []string{"I.m"}},
		{"B", nil},
		{"C", []string{"I.m"}},
		{"D", []string{"I.m"}},
		{"F", []string{"I.m"}},
		{"G", nil},
		{"H", nil},
	}
	for _, tt := range tests {
		got := p.supers(t, "A.java", tt.owner, "m")
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%s.m supers mismatch (-want +got):\n%s", tt.owner, diff)
		}
	}
	if diff := cmp.Diff([]string{"M.g"}, p.supers(t, "A.java", "N", "g")); diff != "" {
		t.Fatalf("generic method supers mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		in, ns, leaf string
		ok           bool
	}{
		{"java.lang.String", "java.lang", "String", true},
		{"a.B", "a", "B", true},
		{"Plain", "", "Plain", false},
	}
	for _, tt := range tests {
		ns, leaf, ok := SplitQualified(tt.in)
		if ns != tt.ns || leaf != tt.leaf || ok != tt.ok {
			t.Fatalf("SplitQualified(%q) = %q, %q, %v", tt.in, ns, leaf, ok)
		}
	}
}

func TestImportsAndConflict(t *testing.T) {
	p := load(t, map[string]string{
		"A.java": `import java.lang.String;
import java.lang.*;
import java.awt.*;
import static java.util.Collections.*;
class A {}
`,
	})
	tr := p.trees["A.java"]

	imports := Imports(tr)
	want := []Import{
		{Qualified: "java.lang.String", Namespace: "java.lang", Leaf: "String"},
		{Qualified: "java.lang", Namespace: "java.lang", OnDemand: true},
		{Qualified: "java.awt", Namespace: "java.awt", OnDemand: true},
		{Qualified: "java.util.Collections", Namespace: "java.util.Collections", OnDemand: true, Static: true},
	}
	if diff := cmp.Diff(want, imports, cmpIgnoreNode); diff != "" {
		t.Fatalf("imports mismatch (-want +got):\n%s", diff)
	}

	if HasOnDemandImportConflict(p.idx, tr, "java.lang.String") {
		t.Fatal("no namespace declares String yet")
	}
	p.idx.AddNamespace("java.lang", "String")
	if HasOnDemandImportConflict(p.idx, tr, "java.lang.String") {
		t.Fatal("a wildcard of the same namespace is not a conflict")
	}
	p.idx.AddNamespace("java.util.Collections", "String")
	if HasOnDemandImportConflict(p.idx, tr, "java.lang.String") {
		t.Fatal("static imports are not a conflict")
	}
	p.idx.AddNamespace("java.awt", "String")
	if !HasOnDemandImportConflict(p.idx, tr, "java.lang.String") {
		t.Fatal("java.awt.* also brings String into scope")
	}
	if HasOnDemandImportConflict(p.idx, tr, "String") {
		t.Fatal("names without a namespace never conflict")
	}
}

func TestResolveTypeOrder(t *testing.T) {
	p := load(t, map[string]string{
		"p/Base.java":  "package p;\npublic class Base {}\n",
		"r/Base.java":  "package r;\npublic class Base {}\n",
		"q/Use.java":   "package q;\nimport r.Base;\nimport p.*;\nclass Use extends Base {}\n",
		"q/Local.java": "package q;\nimport r.*;\nclass Local { class Base {} }\n",
	})
	use := p.trees["q/Use.java"]
	cls := use.ChildrenOf(use.Root(), tree.KindClass)[0]
	d, ok := ResolveType(p.idx, use, cls, "Base")
	if !ok || d.Qualified != "r.Base" {
		t.Fatalf("single import must win over on-demand: %+v %v", d, ok)
	}

	local := p.trees["q/Local.java"]
	cls = local.ChildrenOf(local.Root(), tree.KindClass)[0]
	d, ok = ResolveType(p.idx, local, cls, "Base")
	if !ok || d.Qualified != "q.Local.Base" {
		t.Fatalf("member type must win: %+v %v", d, ok)
	}
	if _, ok := ResolveType(p.idx, local, cls, "Missing"); ok {
		t.Fatal("unknown names must stay unresolved")
	}
}

var cmpIgnoreNode = cmp.FilterPath(func(p cmp.Path) bool {
	return p.Last().String() == ".Node"
}, cmp.Ignore())
