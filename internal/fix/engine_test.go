package fix_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/fix"
	"jinspect/internal/javasrc"
	"jinspect/internal/observ"
	"jinspect/internal/resolve"
	"jinspect/internal/rules"
	"jinspect/internal/source"
	"jinspect/internal/testkit"
	"jinspect/internal/tree"
)

type workspace struct {
	mem   afero.Fs
	fs    *source.FileSet
	trees []*tree.Tree
	idx   *resolve.Index
}

func load(t *testing.T, files map[string]string) *workspace {
	t.Helper()
	w := &workspace{mem: afero.NewMemMapFs(), fs: source.NewFileSetWithBase("/src")}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	slices.Sort(paths) // стабильный порядок файлов
	for _, p := range paths {
		full := "/src/" + p
		if err := afero.WriteFile(w.mem, full, []byte(files[p]), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		id, err := w.fs.Load(w.mem, full)
		if err != nil {
			t.Fatalf("load %s: %v", p, err)
		}
		tr, err := javasrc.Parse(w.fs.Get(id))
		if err != nil {
			t.Fatalf("parse %s: %v", p, err)
		}
		w.trees = append(w.trees, tr)
	}
	w.idx = resolve.Build(w.trees, nil)
	return w
}

func (w *workspace) batch(wr fix.Writable) fix.Batch {
	return fix.Batch{
		Trees:    w.trees,
		Rules:    rules.Builtin(rules.Config{}),
		Analysis: analysis.Options{Index: w.idx},
		Writable: wr,
	}
}

func (w *workspace) analyse(t *tree.Tree) []diag.Diagnostic {
	return analysis.Run(context.Background(), t, rules.Builtin(rules.Config{}), analysis.Options{Index: w.idx})
}

func (w *workspace) disk(t *testing.T, p string) string {
	t.Helper()
	data, err := afero.ReadFile(w.mem, "/src/"+p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(data)
}

const stringImport = `import java.util.List;
import java.lang.String;
import java.util.Map;
class A {}
`

func TestApplyRemovesExactlyTheImport(t *testing.T) {
	w := load(t, map[string]string{"A.java": stringImport})
	tr := w.trees[0]
	reg := diag.NewRegistry(0)
	for _, d := range w.analyse(tr) {
		reg.Add(d)
	}
	items := reg.Items()
	if len(items) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(items))
	}

	eng := fix.NewEngine(reg, w.mem)
	if err := eng.ApplyDiagnostic(context.Background(), &items[0], fix.FSWritable{Fs: w.mem}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := "import java.util.List;\nimport java.util.Map;\nclass A {}\n"
	if got := string(tr.File().Content); got != want {
		t.Fatalf("content mismatch:\nwant %q\ngot  %q", want, got)
	}
	var names []string
	for _, imp := range resolve.Imports(tr) {
		names = append(names, imp.Qualified)
	}
	if diff := cmp.Diff([]string{"java.util.List", "java.util.Map"}, names); diff != "" {
		t.Fatalf("remaining imports mismatch (-want +got):\n%s", diff)
	}
	if reg.Len() != 0 {
		t.Fatalf("diagnostic of the removed import must be invalidated, %d left", reg.Len())
	}
	if !items[0].Stale() {
		t.Fatal("diagnostic must report a stale target after the edit")
	}
}

func TestApplyNotWritableLeavesTreeUnchanged(t *testing.T) {
	for name, wr := range map[string]fix.Writable{
		"never":     fix.Never,
		"read-only": nil, // filled below
	} {
		t.Run(name, func(t *testing.T) {
			w := load(t, map[string]string{"A.java": stringImport})
			if wr == nil {
				wr = fix.FSWritable{Fs: afero.NewReadOnlyFs(w.mem)}
			}
			tr := w.trees[0]
			reg := diag.NewRegistry(0)
			diags := w.analyse(tr)
			for _, d := range diags {
				reg.Add(d)
			}
			before := string(tr.File().Content)
			children := len(tr.Children(tr.Root()))

			err := fix.NewEngine(reg, w.mem).ApplyDiagnostic(context.Background(), &diags[0], wr)
			if !errors.Is(err, fix.ErrNotWritable) {
				t.Fatalf("expected ErrNotWritable, got %v", err)
			}
			var ferr *fix.Error
			if !errors.As(err, &ferr) || ferr.Path != "/src/A.java" {
				t.Fatalf("expected *fix.Error for /src/A.java, got %#v", err)
			}
			if got := string(tr.File().Content); got != before {
				t.Fatalf("content changed: %q", got)
			}
			if tr.Generation() != 0 || len(tr.Children(tr.Root())) != children {
				t.Fatal("tree was modified")
			}
			if diags[0].Stale() || reg.Len() != 1 {
				t.Fatal("diagnostic must stay open")
			}
			if got := w.disk(t, "A.java"); got != before {
				t.Fatalf("file on disk changed: %q", got)
			}
		})
	}
}

func TestFSWritable(t *testing.T) {
	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "/rw.java", []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(mem, "/ro.java", []byte("x"), 0o444); err != nil {
		t.Fatal(err)
	}
	w := fix.FSWritable{Fs: mem}
	ctx := context.Background()

	tests := []struct {
		name string
		file *source.File
		want bool
	}{
		{"writable", &source.File{Path: "/rw.java"}, true},
		{"mode", &source.File{Path: "/ro.java"}, false},
		{"missing", &source.File{Path: "/nope.java"}, false},
		{"virtual", &source.File{Path: "/rw.java", Flags: source.FileVirtual}, false},
		{"read-only flag", &source.File{Path: "/rw.java", Flags: source.FileReadOnly}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := w.EnsureWritable(ctx, tt.file); got != tt.want {
			t.Errorf("%s: EnsureWritable = %v, want %v", tt.name, got, tt.want)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if w.EnsureWritable(cancelled, &source.File{Path: "/rw.java"}) {
		t.Error("cancelled context must refuse")
	}
}

func TestApplyStaleTarget(t *testing.T) {
	w := load(t, map[string]string{"A.java": "import java.lang.String;\nimport java.lang.Integer;\nclass A {}\n"})
	tr := w.trees[0]
	diags := w.analyse(tr)
	if len(diags) != 2 {
		t.Fatalf("expected two diagnostics, got %d", len(diags))
	}
	eng := &fix.Engine{}
	if err := eng.ApplyDiagnostic(context.Background(), &diags[0], fix.Always); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	err := eng.ApplyDiagnostic(context.Background(), &diags[1], fix.Always)
	if !errors.Is(err, fix.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if got := string(tr.File().Content); got != "import java.lang.Integer;\nclass A {}\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestApplyKindMismatchRollsBack(t *testing.T) {
	w := load(t, map[string]string{"A.java": stringImport})
	tr := w.trees[0]
	guarded := fix.DeleteNodeOf(tree.KindMethod, "drop-method", "Drop method")
	class := tr.ChildrenOf(tr.Root(), tree.KindClass)[0]

	err := (&fix.Engine{}).Apply(context.Background(), guarded, tr.Ref(class), fix.Always)
	var mismatch *fix.KindMismatchError
	if !errors.As(err, &mismatch) || mismatch.Got != tree.KindClass {
		t.Fatalf("expected kind mismatch, got %v", err)
	}
	if tr.Generation() != 0 || string(tr.File().Content) != stringImport {
		t.Fatal("failed fix must not change the tree")
	}
	if err := (&fix.Engine{}).Apply(context.Background(), &diag.Fix{ID: "x"}, tr.Ref(class), fix.Always); !errors.Is(err, fix.ErrNoOp) {
		t.Fatalf("expected ErrNoOp, got %v", err)
	}
}

func TestApplyAllIsIdempotent(t *testing.T) {
	w := load(t, map[string]string{
		"A.java": `import java.lang.*;
import java.lang.String;
import java.util.List;
import java.lang.Integer;
class A {}
`,
		"I.java": "interface I { void m(); }\n",
		"J.java": `interface J extends I {
    /** again */
    void m();

    void n();
}
`,
	})
	reg := diag.NewRegistry(0)
	eng := fix.NewEngine(reg, w.mem)
	eng.BaseDir = "/src"

	res, err := eng.ApplyAll(context.Background(), w.batch(fix.FSWritable{Fs: w.mem}), fix.ApplyOptions{Mode: fix.ApplyModeAll})
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if len(res.Applied) != 4 {
		t.Fatalf("expected 4 applied fixes, got %+v", res.Applied)
	}
	if diff := cmp.Diff([]string{"A.java", "J.java"}, changedPaths(res)); diff != "" {
		t.Fatalf("changed files mismatch (-want +got):\n%s", diff)
	}

	if got, want := w.disk(t, "A.java"), "import java.util.List;\nclass A {}\n"; got != want {
		t.Fatalf("A.java:\nwant %q\ngot  %q", want, got)
	}
	if got, want := w.disk(t, "J.java"), "interface J extends I {\n\n    void n();\n}\n"; got != want {
		t.Fatalf("J.java:\nwant %q\ngot  %q", want, got)
	}
	if got := w.disk(t, "I.java"); got != "interface I { void m(); }\n" {
		t.Fatalf("I.java must not change: %q", got)
	}

	for _, tr := range w.trees {
		if err := testkit.CheckSpanInvariants(tr); err != nil {
			t.Fatalf("%s: %v", tr.File().Path, err)
		}
		if diags := w.analyse(tr); len(diags) != 0 {
			t.Fatalf("%s still has findings: %+v", tr.File().Path, diags)
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("registry holds %d diagnostics", reg.Len())
	}

	_, err = eng.ApplyAll(context.Background(), w.batch(fix.FSWritable{Fs: w.mem}), fix.ApplyOptions{Mode: fix.ApplyModeAll})
	if !errors.Is(err, fix.ErrNoFixes) {
		t.Fatalf("second run: expected ErrNoFixes, got %v", err)
	}
}

func TestApplyAllOnce(t *testing.T) {
	w := load(t, map[string]string{"A.java": "import java.lang.String;\nimport java.lang.Integer;\nclass A {}\n"})
	timer := observ.NewTimer()
	eng := &fix.Engine{BaseDir: "/src", Timer: timer}
	res, err := eng.ApplyAll(context.Background(), w.batch(fix.Always), fix.ApplyOptions{Mode: fix.ApplyModeOnce})
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if len(res.Applied) != 1 || len(res.FileChanges) != 1 {
		t.Fatalf("expected exactly one fix, got %+v", res)
	}
	runs := make(map[string]int)
	for _, p := range timer.Report().Phases {
		runs[p.Name] = p.Runs
	}
	if diff := cmp.Diff(map[string]int{"reanalysis": 1, "edit": 1}, runs); diff != "" {
		t.Fatalf("timer phases mismatch (-want +got):\n%s", diff)
	}
	change := res.FileChanges[0]
	if string(change.Before) == string(change.After) || string(change.After) != "import java.lang.Integer;\nclass A {}\n" {
		t.Fatalf("unexpected change %+v", change)
	}
	// без Fs файл на диске не трогаем
	if got := w.disk(t, "A.java"); got != string(change.Before) {
		t.Fatalf("disk content changed without Fs: %q", got)
	}
}

func TestApplyAllByID(t *testing.T) {
	w := load(t, map[string]string{
		"A.java": "import java.lang.String;\nabstract class A implements Runnable, K { public abstract void run(); }\ninterface K { void run(); }\n",
	})
	eng := &fix.Engine{}
	res, err := eng.ApplyAll(context.Background(), w.batch(fix.Always), fix.ApplyOptions{
		Mode:     fix.ApplyModeID,
		TargetID: "remove-redundant-abstract-method",
	})
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].Rule != rules.AbstractOverrideID {
		t.Fatalf("unexpected applied fixes %+v", res.Applied)
	}
	if got := string(w.trees[0].File().Content); got != "import java.lang.String;\nabstract class A implements Runnable, K { }\ninterface K { void run(); }\n" {
		t.Fatalf("content = %q", got)
	}

	res, err = eng.ApplyAll(context.Background(), w.batch(fix.Always), fix.ApplyOptions{Mode: fix.ApplyModeID, TargetID: "nope"})
	if !errors.Is(err, fix.ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Fatalf("unexpected skips %+v", res.Skipped)
	}
}

func TestApplyAllSkipsUnwritableFiles(t *testing.T) {
	w := load(t, map[string]string{"A.java": stringImport})
	res, err := (&fix.Engine{}).ApplyAll(context.Background(), w.batch(fix.Never), fix.ApplyOptions{Mode: fix.ApplyModeAll})
	if !errors.Is(err, fix.ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != fix.ErrNotWritable.Error() {
		t.Fatalf("unexpected skips %+v", res.Skipped)
	}
	if string(w.trees[0].File().Content) != stringImport {
		t.Fatal("tree changed")
	}
}

func TestApplyAllSkipsManualReviewFixes(t *testing.T) {
	w := load(t, map[string]string{"A.java": stringImport})
	manual := &analysis.Rule{
		ID:    "manual",
		Kinds: []tree.Kind{tree.KindImport},
		Code:  diag.ImpRedundantImplicitName,
		Fix: fix.DeleteNode("manual-delete", "Delete import",
			fix.WithApplicability(diag.FixApplicabilityManualReview)),
		Check: func(p *analysis.Pass, node tree.NodeID) analysis.Visit {
			p.Report(node)
			return analysis.Descend
		},
	}
	b := w.batch(fix.Always)
	b.Rules = []*analysis.Rule{manual}

	res, err := (&fix.Engine{}).ApplyAll(context.Background(), b, fix.ApplyOptions{Mode: fix.ApplyModeAll})
	if !errors.Is(err, fix.ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 3 || res.Skipped[0].Reason != "applicability is manual-review" {
		t.Fatalf("unexpected skips %+v", res.Skipped)
	}

	// once falls back to the first fix whatever its applicability
	res, err = (&fix.Engine{}).ApplyAll(context.Background(), b, fix.ApplyOptions{Mode: fix.ApplyModeOnce})
	if err != nil || len(res.Applied) != 1 {
		t.Fatalf("once: %+v, %v", res, err)
	}
	if got := string(w.trees[0].File().Content); got != "import java.lang.String;\nimport java.util.Map;\nclass A {}\n" {
		t.Fatalf("content = %q", got)
	}
}

func changedPaths(res *fix.ApplyResult) []string {
	out := make([]string, 0, len(res.FileChanges))
	for _, c := range res.FileChanges {
		out = append(out, c.Path)
	}
	return out
}
