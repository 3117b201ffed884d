package fuzztests

import (
	"context"
	"errors"
	"testing"
	"time"

	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/fix"
	"jinspect/internal/javasrc"
	"jinspect/internal/resolve"
	"jinspect/internal/rules"
	"jinspect/internal/source"
	"jinspect/internal/testkit"
	"jinspect/internal/tree"
)

// parseTimeout is the maximum time allowed for parsing a single input.
const parseTimeout = 5 * time.Second

func FuzzParseJava(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("Fuzz.java", clamp(input)))

		done := make(chan *tree.Tree, 1)
		go func() {
			tr, err := javasrc.Parse(file)
			if err != nil {
				tr = nil
			}
			done <- tr
		}()

		select {
		case tr := <-done:
			if tr == nil {
				return
			}
			if err := testkit.CheckSpanInvariants(tr); err != nil {
				t.Fatalf("span invariants: %v\ninput: %q", err, input)
			}
		case <-time.After(parseTimeout):
			t.Fatalf("parser hang detected (timeout %v) on input: %q", parseTimeout, input)
		}
	})
}

// FuzzFixConverges applies every safe fix and checks that the edited tree
// stays well formed and that nothing fixable is left.
func FuzzFixConverges(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("Fuzz.java", clamp(input)))
		tr, err := javasrc.Parse(file)
		if err != nil {
			return
		}

		all := rules.Builtin(rules.Config{})
		batch := fix.Batch{
			Trees:    []*tree.Tree{tr},
			Rules:    all,
			Analysis: analysis.Options{Index: resolve.Build([]*tree.Tree{tr}, nil)},
			Writable: fix.Always,
		}
		eng := &fix.Engine{}
		res, err := eng.ApplyAll(context.Background(), batch, fix.ApplyOptions{Mode: fix.ApplyModeAll})
		if err != nil && !errors.Is(err, fix.ErrNoFixes) {
			t.Fatalf("ApplyAll: %v\ninput: %q", err, input)
		}
		if err := testkit.CheckSpanInvariants(tr); err != nil {
			t.Fatalf("span invariants after fixes: %v\ninput: %q", err, input)
		}
		if len(res.Skipped) > 0 {
			// лимит итераций или отказ правки: остаток ожидаем
			return
		}
		for _, d := range analysis.Run(context.Background(), tr, all, batch.Analysis) {
			if d.Fix != nil && d.Fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				t.Fatalf("fixable finding left after ApplyAll: %s\ninput: %q", d.Message, input)
			}
		}
	})
}
