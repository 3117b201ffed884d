package tree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jinspect/internal/source"
)

const sample = "import a.B;\nimport c.D;\nclass X {}\n"

func buildSample(t *testing.T) (*Tree, []NodeID, NodeID) {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddVirtual("X.java", []byte(sample))
	tr := New(fs.Get(fid))

	list := tr.Add(tr.Root(), Node{Kind: KindImportList, Span: source.Span{File: fid, Start: 0, End: 23}})
	imp1 := tr.Add(list, Node{Kind: KindImport, Name: "a.B", Span: source.Span{File: fid, Start: 0, End: 11}})
	imp2 := tr.Add(list, Node{Kind: KindImport, Name: "c.D", Span: source.Span{File: fid, Start: 12, End: 23}})
	class := tr.Add(tr.Root(), Node{Kind: KindClass, Name: "X", Span: source.Span{File: fid, Start: 24, End: 34}})
	return tr, []NodeID{list, imp1, imp2}, class
}

func TestNavigation(t *testing.T) {
	tr, ids, class := buildSample(t)
	list, imp1, imp2 := ids[0], ids[1], ids[2]

	if got := tr.Kind(imp1); got != KindImport {
		t.Fatalf("Kind = %v, want import", got)
	}
	if got := tr.Parent(imp2); got != list {
		t.Fatalf("Parent = %d, want %d", got, list)
	}
	if diff := cmp.Diff([]NodeID{list, class}, tr.Children(tr.Root())); diff != "" {
		t.Fatalf("root children mismatch (-want +got):\n%s", diff)
	}
	if got := tr.Text(class); got != "class X {}" {
		t.Fatalf("Text = %q", got)
	}
	if got := tr.Len(); got != 5 {
		t.Fatalf("Len = %d, want 5", got)
	}
	if got := tr.Kind(NodeID(99)); got != KindInvalid {
		t.Fatalf("unknown id kind = %v", got)
	}
}

func TestRemovePreservesOrderAndShiftsSpans(t *testing.T) {
	tr, ids, class := buildSample(t)
	list, imp1, imp2 := ids[0], ids[1], ids[2]
	ref := tr.Ref(imp2)

	removed, err := tr.Edit(func(e *Editor) error { return e.Remove(imp1) })
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if diff := cmp.Diff([]NodeID{imp1}, removed); diff != "" {
		t.Fatalf("removed mismatch (-want +got):\n%s", diff)
	}

	if got := string(tr.File().Content); got != "import c.D;\nclass X {}\n" {
		t.Fatalf("content = %q", got)
	}
	if diff := cmp.Diff([]NodeID{imp2}, tr.Children(list)); diff != "" {
		t.Fatalf("import list mismatch (-want +got):\n%s", diff)
	}
	if got := tr.Text(imp2); got != "import c.D;" {
		t.Fatalf("second import text = %q", got)
	}
	if got := tr.Text(class); got != "class X {}" {
		t.Fatalf("class text = %q", got)
	}
	if tr.Node(imp1) != nil {
		t.Fatal("removed node still reachable")
	}
	if tr.Generation() != 1 {
		t.Fatalf("generation = %d, want 1", tr.Generation())
	}
	if ref.Valid() {
		t.Fatal("ref taken before the edit must be stale")
	}
	if !tr.Ref(imp2).Valid() {
		t.Fatal("fresh ref must be valid")
	}
}

func TestRemoveSubtree(t *testing.T) {
	tr, ids, _ := buildSample(t)
	removed, err := tr.Edit(func(e *Editor) error { return e.Remove(ids[0]) })
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("expected list and both imports removed, got %v", removed)
	}
	if got := string(tr.File().Content); got != "class X {}\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestEditFailureLeavesTreeUntouched(t *testing.T) {
	tr, ids, _ := buildSample(t)
	boom := errors.New("boom")
	before := string(tr.File().Content)

	_, err := tr.Edit(func(e *Editor) error {
		if err := e.Remove(ids[1]); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := string(tr.File().Content); got != before {
		t.Fatalf("content changed: %q", got)
	}
	if tr.Generation() != 0 {
		t.Fatalf("generation moved to %d", tr.Generation())
	}
	if len(tr.Children(ids[0])) != 2 || tr.Node(ids[1]) == nil {
		t.Fatal("staged removal leaked into the tree")
	}
}

func TestRemoveErrors(t *testing.T) {
	tr, _, _ := buildSample(t)
	if _, err := tr.Edit(func(e *Editor) error { return e.Remove(tr.Root()) }); !errors.Is(err, ErrRootRemoval) {
		t.Fatalf("expected ErrRootRemoval, got %v", err)
	}
	if _, err := tr.Edit(func(e *Editor) error { return e.Remove(NodeID(77)) }); !errors.Is(err, ErrNoNode) {
		t.Fatalf("expected ErrNoNode, got %v", err)
	}
}

func TestRemoveInlineKeepsLine(t *testing.T) {
	fs := source.NewFileSet()
	content := "class X { int a; int b; }\n"
	fid := fs.AddVirtual("X.java", []byte(content))
	tr := New(fs.Get(fid))
	class := tr.Add(tr.Root(), Node{Kind: KindClass, Span: source.Span{File: fid, Start: 0, End: 25}})
	a := tr.Add(class, Node{Kind: KindField, Span: source.Span{File: fid, Start: 10, End: 16}})
	tr.Add(class, Node{Kind: KindField, Span: source.Span{File: fid, Start: 17, End: 23}})

	if _, err := tr.Edit(func(e *Editor) error { return e.Remove(a) }); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got := string(tr.File().Content); got != "class X { int b; }\n" {
		t.Fatalf("content = %q", got)
	}
	if got := tr.Text(class); got != "class X { int b; }" {
		t.Fatalf("class text = %q", got)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	tr, ids, class := buildSample(t)
	var seen []NodeID
	Walk(tr, tr.Root(), func(id NodeID) bool {
		seen = append(seen, id)
		return tr.Kind(id) != KindImportList
	})
	if diff := cmp.Diff([]NodeID{tr.Root(), ids[0], class}, seen); diff != "" {
		t.Fatalf("walk mismatch (-want +got):\n%s", diff)
	}
}
