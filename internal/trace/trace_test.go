package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func names(events []Event) string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.Kind.String()+":"+ev.Name)
	}
	return strings.Join(out, " ")
}

func TestRecorderLevels(t *testing.T) {
	rec := NewRecorder(8, LevelPhase)
	ctx := WithTracer(context.Background(), rec)

	ctx, pass := Start(ctx, ScopePass, "analysis")
	passID := pass.ID()
	fctx, file := StartFile(ctx, "analysis", "A.java")
	Rule(fctx, "implicit-import", "A.java", "import")
	file.End("")
	Error(ctx, ScopeRule, "rule-panic", "implicit-import", "A.java", "boom")
	pass.End("done")

	want := "begin:analysis error:rule-panic end:analysis"
	if got := names(rec.Events()); got != want {
		t.Fatalf("events = %q, want %q", got, want)
	}
	if ev := rec.Events()[1]; ev.Rule != "implicit-import" || ev.File != "A.java" || ev.Parent != passID {
		t.Fatalf("error point = %+v", ev)
	}
}

func TestStartNestsSpans(t *testing.T) {
	rec := NewRecorder(8, LevelDebug)
	ctx := WithTracer(context.Background(), rec)

	ctx, outer := Start(ctx, ScopePass, "outer")
	outerID := outer.ID()
	ictx, inner := StartFile(ctx, "inner", "B.java")
	Rule(ictx, "abstract-override", "B.java", "method")
	inner.End("")
	outer.End("")

	events := rec.Events()
	if got := names(events); got != "begin:outer begin:inner point:abstract-override end:inner end:outer" {
		t.Fatalf("events = %q", got)
	}
	if events[1].Parent != outerID || events[1].File != "B.java" {
		t.Fatalf("inner begin = %+v", events[1])
	}
	if events[2].Parent != events[1].Span {
		t.Fatalf("rule point parent = %d, want %d", events[2].Parent, events[1].Span)
	}
	if outer.End("") != 0 {
		t.Fatal("second End must be inert")
	}
}

func TestRecorderWrapsAndDumps(t *testing.T) {
	rec := NewRecorder(3, LevelDebug)
	ctx := WithTracer(context.Background(), rec)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ctx, ScopePass, name, "")
	}
	if got := names(rec.Events()); got != "point:c point:d point:e" {
		t.Fatalf("events = %q", got)
	}
	if rec.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", rec.Dropped())
	}

	var buf bytes.Buffer
	if err := rec.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 || lines[0] != "... 2 earlier event(s) dropped" || !strings.HasSuffix(lines[3], "• e") {
		t.Fatalf("unexpected dump:\n%s", buf.String())
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatText)
	ctx := WithTracer(context.Background(), st)
	_, sp := StartFile(ctx, "parse", "src/A.java")
	sp.Set("nodes", "12").Set("bytes", "300").End("ok")
	if err := st.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "→ parse @src/A.java\n") ||
		!strings.Contains(out, "← parse @src/A.java (ok) {bytes=300, nodes=12}\n") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Rule(WithTracer(context.Background(), st), "implicit-import", "A.java", "import")
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	delete(got, "time")
	delete(got, "seq")
	want := map[string]any{
		"kind":   "point",
		"scope":  "rule",
		"name":   "implicit-import",
		"rule":   "implicit-import",
		"file":   "A.java",
		"detail": "import",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestNewBothModes(t *testing.T) {
	fsys := afero.NewMemMapFs()
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Path: "out/trace.ndjson", Fs: fsys})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := RecorderOf(tr)
	if rec == nil {
		t.Fatal("both mode must carry a recorder")
	}
	_, sp := Start(WithTracer(context.Background(), tr), ScopeDriver, "diagnose")
	sp.End("")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := afero.ReadFile(fsys, "out/trace.ndjson")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if n := bytes.Count(data, []byte("\n")); n != 2 {
		t.Fatalf("stream got %d lines:\n%s", n, data)
	}
	events := rec.Events()
	if len(events) != 2 || events[0].Seq == 0 || !bytes.Contains(data, []byte(`"seq":`)) {
		t.Fatalf("recorder events = %+v", events)
	}

	if _, err := New(Config{Level: LevelPhase, Mode: ModeStream}); err == nil {
		t.Fatal("stream mode without output must fail")
	}
	if tr, err := New(Config{Level: LevelOff, Mode: ModeStream}); err != nil || tr != Nop {
		t.Fatalf("level off = %v, %v", tr, err)
	}
}

func TestNopIsSilent(t *testing.T) {
	ctx, sp := Start(context.Background(), ScopeDriver, "y")
	if sp.ID() != 0 || sp.End("") != 0 {
		t.Fatal("span without tracer must be inert")
	}
	if frameOf(ctx).span != 0 {
		t.Fatal("disabled tracer must not push a span")
	}
	var nilSpan *Span
	if nilSpan.Set("k", "v") != nil || nilSpan.End("") != 0 {
		t.Fatal("nil span must be inert")
	}
}

func TestParse(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected level error")
	}
	if m, err := ParseMode("Both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode(""); err == nil {
		t.Fatal("expected mode error")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}
