package fix

// todo: --staged-only / --since для работы только с изменёнными в git файлами.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/observ"
	"jinspect/internal/source"
	"jinspect/internal/trace"
	"jinspect/internal/tree"
)

// DefaultMaxIterations bounds the analyse/apply loop for one file.
const DefaultMaxIterations = 256

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode          ApplyMode
	TargetID      string
	MaxIterations int
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Rule          string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Path   string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	Before    []byte
	After     []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

// Engine applies fixes to trees. The zero value edits trees in memory only.
type Engine struct {
	// Registry, when set, receives every analysis result of ApplyAll and
	// loses the diagnostics of removed nodes after each edit.
	Registry *diag.Registry
	// Fs, when set, receives the new content of every changed file.
	Fs      afero.Fs
	BaseDir string
	Logger  hclog.Logger
	// Timer, when set, accumulates the re-analysis and edit runs of ApplyAll.
	Timer *observ.Timer
}

// NewEngine returns an engine reporting into reg and persisting through fsys.
func NewEngine(reg *diag.Registry, fsys afero.Fs) *Engine {
	return &Engine{Registry: reg, Fs: fsys}
}

func (e *Engine) logger() hclog.Logger {
	if e.Logger == nil {
		return hclog.NewNullLogger()
	}
	return e.Logger
}

// Apply runs f against target. The writability check happens first and
// without any lock; a refusal leaves the tree untouched and yields an *Error
// wrapping ErrNotWritable. The edit itself runs under the tree's exclusive
// lock and either applies completely or not at all.
func (e *Engine) Apply(ctx context.Context, f *diag.Fix, target tree.Ref, w Writable) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if f == nil || f.Op == nil {
		return ErrNoOp
	}
	if target.IsZero() || !target.Valid() {
		return errorFor(target, f, ErrStale)
	}
	file := target.Tree.File()
	if w == nil || !w.EnsureWritable(ctx, file) {
		return errorFor(target, f, ErrNotWritable)
	}

	path := ""
	if file != nil {
		path = file.Path
	}
	_, span := trace.StartFile(ctx, "fix:"+f.ID, path)
	removed, err := target.Tree.Edit(func(ed *tree.Editor) error {
		// the writability check ran unlocked, someone may have edited since
		if target.Tree.Generation() != target.Gen {
			return ErrStale
		}
		return f.Op(ed, target.Node)
	})
	if err != nil {
		span.End("failed")
		return errorFor(target, f, err)
	}
	span.Set("removed", fmt.Sprint(len(removed))).End("ok")

	if e.Registry != nil {
		e.Registry.Invalidate(target.Tree, removed)
	}
	return nil
}

// ApplyDiagnostic applies the fix attached to d.
func (e *Engine) ApplyDiagnostic(ctx context.Context, d *diag.Diagnostic, w Writable) error {
	if d.Fix == nil {
		return ErrNoOp
	}
	return e.Apply(ctx, d.Fix, d.Target, w)
}

func errorFor(target tree.Ref, f *diag.Fix, err error) error {
	path := ""
	if target.Tree != nil && target.Tree.File() != nil {
		path = target.Tree.File().Path
	}
	return &Error{Path: path, Fix: f.ID, Err: err}
}

// Batch is the input of ApplyAll.
type Batch struct {
	Trees    []*tree.Tree
	Rules    []*analysis.Rule
	Analysis analysis.Options
	Writable Writable
}

// ApplyAll analyses every tree, applies one selected fix, re-analyses and
// repeats until nothing applicable is left or the iteration limit is hit.
// ApplyModeOnce stops after the first applied fix of the batch.
func (e *Engine) ApplyAll(ctx context.Context, b Batch, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if ctx == nil {
		ctx = context.Background()
	}
	limit := opts.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}
	ctx, span := trace.Start(ctx, trace.ScopePass, "fix")
	defer span.End("")

	sawTarget := false
	for _, t := range b.Trees {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if t == nil || t.File() == nil {
			continue
		}
		before := slices.Clone(t.File().Content)
		edits, found, err := e.fixTree(ctx, t, b, opts, limit, result)
		sawTarget = sawTarget || found
		if err != nil {
			return result, err
		}
		if edits > 0 {
			change, err := e.persist(t.File(), before, edits)
			if err != nil {
				return result, err
			}
			result.FileChanges = append(result.FileChanges, change)
		}
		if opts.Mode == ApplyModeOnce && len(result.Applied) > 0 {
			break
		}
	}
	if opts.Mode == ApplyModeID && !sawTarget {
		result.Skipped = append(result.Skipped, SkippedFix{
			ID:     opts.TargetID,
			Reason: "fix id not found",
		})
	}

	sort.SliceStable(result.FileChanges, func(i, j int) bool {
		return result.FileChanges[i].Path < result.FileChanges[j].Path
	})
	span.Set("applied", fmt.Sprint(len(result.Applied)))
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// fixTree runs the analyse/apply loop on t and returns the number of
// applied edits and whether any diagnostic carried the requested fix id.
func (e *Engine) fixTree(ctx context.Context, t *tree.Tree, b Batch, opts ApplyOptions, limit int, result *ApplyResult) (int, bool, error) {
	path := e.path(t.File())
	failed := make(map[string]bool)
	edits := 0
	found := false

	for iter := 0; ; iter++ {
		stopAnalyse := e.Timer.Track("reanalysis")
		diags := e.analyse(ctx, t, b)
		stopAnalyse("")
		for i := range diags {
			if diags[i].Fix != nil && diags[i].Fix.ID == opts.TargetID {
				found = true
			}
		}
		cand, skips := selectCandidate(diags, opts, failed)
		if cand == nil {
			for _, s := range skips {
				s.Path = path
				result.Skipped = append(result.Skipped, s)
			}
			return edits, found, nil
		}
		if iter >= limit {
			e.logger().Warn("fix iteration limit reached", "path", path, "limit", limit)
			result.Skipped = append(result.Skipped, SkippedFix{
				ID:     cand.Fix.ID,
				Title:  cand.Fix.Title,
				Path:   path,
				Reason: fmt.Sprintf("iteration limit %d reached", limit),
			})
			return edits, found, nil
		}

		stopEdit := e.Timer.Track("edit")
		err := e.Apply(ctx, cand.Fix, cand.Target, b.Writable)
		stopEdit("")
		switch {
		case err == nil:
			edits++
			result.Applied = append(result.Applied, AppliedFix{
				ID:            cand.Fix.ID,
				Title:         cand.Fix.Title,
				Rule:          cand.Rule,
				Code:          cand.Code,
				Message:       cand.Message,
				Applicability: cand.Fix.Applicability,
				PrimaryPath:   path,
			})
			if opts.Mode == ApplyModeOnce {
				return edits, found, nil
			}
		case errors.Is(err, ErrNotWritable):
			// every other fix of this file would be refused as well
			e.logger().Debug("file is not writable", "path", path)
			result.Skipped = append(result.Skipped, SkippedFix{
				ID:     cand.Fix.ID,
				Title:  cand.Fix.Title,
				Path:   path,
				Reason: ErrNotWritable.Error(),
			})
			return edits, found, nil
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return edits, found, ctxErr
			}
			e.logger().Debug("fix failed", "path", path, "fix", cand.Fix.ID, "error", err)
			failed[candidateKey(cand)] = true
			result.Skipped = append(result.Skipped, SkippedFix{
				ID:     cand.Fix.ID,
				Title:  cand.Fix.Title,
				Path:   path,
				Reason: err.Error(),
			})
		}
	}
}

func (e *Engine) analyse(ctx context.Context, t *tree.Tree, b Batch) []diag.Diagnostic {
	diags := analysis.Run(ctx, t, b.Rules, b.Analysis)
	if e.Registry != nil {
		e.Registry.Reset(t)
		e.Registry.Merge(diags)
	}
	sort.SliceStable(diags, func(i, j int) bool { return diag.Less(&diags[i], &diags[j]) })
	return diags
}

// selectCandidate picks the next fix of one file. Diagnostics arrive sorted by
// position so the earliest fix in the file wins.
func selectCandidate(diags []diag.Diagnostic, opts ApplyOptions, failed map[string]bool) (*diag.Diagnostic, []SkippedFix) {
	var fallback *diag.Diagnostic
	skipped := make([]SkippedFix, 0)
	for i := range diags {
		d := &diags[i]
		if d.Fix == nil || d.Fix.Op == nil || failed[candidateKey(d)] {
			continue
		}
		switch opts.Mode {
		case ApplyModeID:
			if d.Fix.ID == opts.TargetID {
				return d, nil
			}
		case ApplyModeAll:
			if d.Fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return d, nil
			}
			skipped = append(skipped, SkippedFix{
				ID:     d.Fix.ID,
				Title:  d.Fix.Title,
				Reason: fmt.Sprintf("applicability is %s", d.Fix.Applicability.String()),
			})
		case ApplyModeOnce:
			if d.Fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return d, nil
			}
			if fallback == nil {
				fallback = d
			}
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, skipped
}

func candidateKey(d *diag.Diagnostic) string {
	return fmt.Sprintf("%s:%s:%s", d.Rule, d.Fix.ID, d.Primary.String())
}

func (e *Engine) persist(file *source.File, before []byte, edits int) (FileChange, error) {
	change := FileChange{
		Path:      e.path(file),
		EditCount: edits,
		Before:    before,
		After:     slices.Clone(file.Content),
	}
	if e.Fs == nil {
		return change, nil
	}
	if err := writeBack(e.Fs, file); err != nil {
		return change, &Error{Path: file.Path, Err: err}
	}
	e.logger().Info("file rewritten", "path", change.Path, "fixes", edits)
	return change, nil
}

func (e *Engine) path(file *source.File) string {
	if file == nil {
		return ""
	}
	if e.BaseDir == "" {
		return file.Path
	}
	return file.Display(source.PathRelative, e.BaseDir)
}
