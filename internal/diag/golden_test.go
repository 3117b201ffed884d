package diag

import (
	"testing"

	"jinspect/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	userFile := fs.Add("/workspace/src/p/Sample.java", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     LayRedundantAbstractDecl,
			Message:  "second",
			Primary:  source.Span{File: userFile, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     SynUnexpectedToken,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: userFile, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: userFile, Start: 2, End: 3}, Msg: "note line"},
			},
		},
	}

	expected := "error SYN2001 src/p/Sample.java:1:1 first line second\n" +
		"note SYN2001 src/p/Sample.java:2:1 note line\n" +
		"warning LAY7001 src/p/Sample.java:2:1 second"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatGoldenFixMarkers(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")
	a := fs.Add("/workspace/B.java", []byte("import java.lang.String;\n"), 0)
	b := fs.Add("/workspace/A.java", []byte("class A {}\n"), 0)

	diags := []Diagnostic{
		New(SevWarning, ImpRedundantImplicitName, source.Span{File: a, Start: 0, End: 24}, "Unnecessary import").
			WithFix(&Fix{ID: "remove-import"}),
		New(SevInfo, LayRedundantAbstractDecl, source.Span{File: b, Start: 6, End: 7}, "plain"),
		New(SevError, SynUnexpectedToken, source.Span{File: 99}, "unresolvable"),
	}
	want := "info LAY7001 A.java:1:7 plain\n" +
		"warning IMP6001 B.java:1:1 Unnecessary import [fix: remove-import]"
	if got := FormatGolden(diags, fs, GoldenOpts{Fixes: true}); got != want {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
	if got := FormatGolden(nil, fs, GoldenOpts{}); got != "" {
		t.Fatalf("empty input rendered %q", got)
	}
}
