package analysis

import (
	"context"
	"fmt"
	"runtime/debug"

	"jinspect/internal/diag"
	"jinspect/internal/resolve"
	"jinspect/internal/trace"
	"jinspect/internal/tree"
)

// Options tune a run. The zero value runs every rule at its default severity.
type Options struct {
	Index    *resolve.Index
	Disabled map[string]bool
	Severity map[string]diag.Severity
}

// Run analyses t with rules and returns the findings in report order.
func Run(ctx context.Context, t *tree.Tree, rules []*Rule, opts Options) []diag.Diagnostic {
	var sink diag.SliceReporter
	RunWith(ctx, t, rules, opts, &sink)
	return sink.Items
}

// RunWith walks t once in depth-first pre-order under its read lock. Each node
// goes to every enabled rule subscribed to its kind, in registration order.
// A rule returning SkipChildren stops seeing that subtree; when no rule is
// left the subtree is not walked at all. A panicking check counts as no match.
func RunWith(ctx context.Context, t *tree.Tree, rules []*Rule, opts Options, r diag.Reporter) {
	if t == nil || len(rules) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	path := ""
	if f := t.File(); f != nil {
		path = f.Path
	}
	ctx, span := trace.StartFile(ctx, "analysis", path)
	defer span.End("")

	w := newWalker(ctx, t, rules, opts, diag.NewDedupReporter(r))
	if w.active == 0 {
		return
	}

	t.RLock()
	defer t.RUnlock()
	w.visit(t.Root())
	span.Set("nodes", fmt.Sprint(w.visited))
}

type walker struct {
	ctx        context.Context
	tree       *tree.Tree
	path       string
	traceRules bool

	rules  []*Rule
	passes []Pass
	table  [tree.NumKinds][]int

	// pruned[i] > 0 while rule i is inside a subtree it asked to skip
	pruned  []int
	active  int
	visited int
}

func newWalker(ctx context.Context, t *tree.Tree, rules []*Rule, opts Options, r diag.Reporter) *walker {
	w := &walker{
		ctx:        ctx,
		tree:       t,
		traceRules: trace.FromContext(ctx).Level() >= trace.LevelDebug,
	}
	if f := t.File(); f != nil {
		w.path = f.Path
	}
	for _, rule := range rules {
		if rule == nil || rule.Check == nil || opts.Disabled[rule.ID] {
			continue
		}
		sev := rule.Severity
		if s, ok := opts.Severity[rule.ID]; ok {
			sev = s
		}
		idx := len(w.rules)
		w.rules = append(w.rules, rule)
		w.passes = append(w.passes, Pass{
			Ctx:      ctx,
			Tree:     t,
			Index:    opts.Index,
			rule:     rule,
			severity: sev,
			reporter: r,
		})
		for _, k := range rule.Kinds {
			if int(k) < len(w.table) {
				w.table[k] = append(w.table[k], idx)
			}
		}
	}
	w.pruned = make([]int, len(w.rules))
	w.active = len(w.rules)
	return w
}

func (w *walker) visit(id tree.NodeID) {
	kind := w.tree.Kind(id)
	if kind == tree.KindInvalid {
		return
	}
	w.visited++

	var skipped []int
	for _, ri := range w.table[kind] {
		if w.pruned[ri] > 0 {
			continue
		}
		if w.call(ri, id) == SkipChildren {
			skipped = append(skipped, ri)
			w.pruned[ri]++
			w.active--
		}
	}

	if w.active > 0 {
		for _, c := range w.tree.Children(id) {
			w.visit(c)
		}
	}

	for _, ri := range skipped {
		w.pruned[ri]--
		w.active++
	}
}

// call runs one check, turning a panic into "no match".
func (w *walker) call(ri int, id tree.NodeID) (v Visit) {
	rule := w.rules[ri]
	defer func() {
		if rec := recover(); rec != nil {
			trace.Error(w.ctx, trace.ScopeRule, "rule-panic", rule.ID, w.path,
				fmt.Sprintf("node %d: %v\n%s", id, rec, debug.Stack()))
			v = Descend
		}
	}()

	if w.traceRules {
		trace.Rule(w.ctx, rule.ID, w.path, w.tree.Kind(id).String())
	}
	return rule.Check(&w.passes[ri], id)
}
