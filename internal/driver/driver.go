// Package driver runs the inspection pipeline: load, parse, index and
// analyse a set of Java files.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"jinspect/internal/analysis"
	"jinspect/internal/diag"
	"jinspect/internal/javasrc"
	"jinspect/internal/observ"
	"jinspect/internal/resolve"
	"jinspect/internal/source"
	"jinspect/internal/trace"
	"jinspect/internal/tree"
)

// SyntaxRule is the Rule id carried by parse diagnostics.
const SyntaxRule = "syntax"

// Options configure a pipeline run. Zero values fall back to the OS
// filesystem, GOMAXPROCS workers and an unlimited registry.
type Options struct {
	Fs             afero.Fs
	BaseDir        string
	Exclude        func(rel string) bool
	Jobs           int
	MaxDiagnostics int

	// Namespaces lists simple names of namespaces that are not part of the
	// analysed sources, e.g. from the project manifest.
	Namespaces map[string][]string
	Analysis   analysis.Options

	Timer  *observ.Timer
	Logger hclog.Logger
}

func (o *Options) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}

func (o *Options) jobs(n int) int {
	jobs := o.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

func (o *Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

// FileResult описывает один входной файл.
type FileResult struct {
	Path   string
	FileID source.FileID
	// Tree is nil when the file could not be read or parsed.
	Tree *tree.Tree
	Err  error
}

// Result holds everything a run produced. Trees and Index stay usable for
// fixing after Diagnose returns.
type Result struct {
	FileSet  *source.FileSet
	Files    []FileResult
	Trees    []*tree.Tree
	Index    *resolve.Index
	Registry *diag.Registry
	Analysis analysis.Options
}

// Load reads and parses every Java file under target and builds the index.
// Unreadable or malformed files become error diagnostics; they never abort
// the run.
func Load(ctx context.Context, target string, opts Options) (*Result, error) {
	log := opts.logger()
	ctx, span := trace.Start(ctx, trace.ScopePass, "load")
	defer span.End("")

	fsys := opts.fs()
	stopList := opts.Timer.Track("list")
	paths, err := ListJavaFiles(fsys, target, opts.Exclude)
	stopList(fmt.Sprintf("%d files", len(paths)))
	if err != nil {
		return nil, err
	}
	log.Debug("files listed", "target", target, "count", len(paths))

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = target
		if info, statErr := fsys.Stat(target); statErr == nil && !info.IsDir() {
			baseDir = ""
		}
	}
	res := &Result{
		FileSet:  source.NewFileSetWithBase(baseDir),
		Files:    make([]FileResult, len(paths)),
		Registry: diag.NewRegistry(opts.MaxDiagnostics),
		Analysis: opts.Analysis,
	}

	// Предзагружаем все файлы последовательно, FileID идут в порядке путей
	stopRead := opts.Timer.Track("read")
	for i, path := range paths {
		fr := FileResult{Path: path}
		id, loadErr := res.FileSet.Load(fsys, path)
		if loadErr != nil {
			id = res.FileSet.Add(path, nil, source.FileVirtual|source.FileReadOnly)
			fr.Err = loadErr
			res.Registry.Add(diag.NewError(diag.IOLoadFileError,
				source.Span{File: id}, fmt.Sprintf("failed to read file: %v", loadErr)))
			log.Warn("cannot read file", "path", path, "error", loadErr)
		}
		fr.FileID = id
		res.Files[i] = fr
	}
	stopRead("")

	if err := res.parse(ctx, &opts); err != nil {
		return res, err
	}

	stopIndex := opts.Timer.Track("index")
	_, ispan := trace.Start(ctx, trace.ScopePass, "index")
	for _, fr := range res.Files {
		if fr.Tree != nil {
			res.Trees = append(res.Trees, fr.Tree)
		}
	}
	res.Index = resolve.Build(res.Trees, opts.Namespaces)
	res.Analysis.Index = res.Index
	ispan.Set("types", fmt.Sprint(len(res.Trees))).End("")
	stopIndex("")

	span.Set("files", fmt.Sprint(len(paths)))
	return res, nil
}

func (r *Result) parse(ctx context.Context, opts *Options) error {
	if len(r.Files) == 0 {
		return nil
	}
	stop := opts.Timer.Track("parse")
	defer stop("")
	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
	defer span.End("")

	failed := make([]bool, len(r.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs(len(r.Files)))
	for i := range r.Files {
		if r.Files[i].Err != nil {
			continue
		}
		g.Go(func() error {
			// Проверка отмены
			if err := gctx.Err(); err != nil {
				return err
			}
			fr := &r.Files[i] // индексы уникальны, мьютекс не нужен
			t, err := javasrc.Parse(r.FileSet.Get(fr.FileID))
			if err != nil {
				fr.Err = err
				failed[i] = true
				opts.logger().Debug("parse failed", "path", fr.Path, "error", err)
				return nil
			}
			fr.Tree = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// ошибки разбора сливаются в порядке файлов, а не завершения воркеров
	var syntax []diag.Diagnostic
	for i, fr := range r.Files {
		if failed[i] {
			syntax = append(syntax, syntaxDiagnostic(fr.FileID, fr.Err))
		}
	}
	r.Registry.Merge(syntax)
	return nil
}

func syntaxDiagnostic(file source.FileID, err error) diag.Diagnostic {
	var serr *javasrc.SyntaxError
	d := diag.NewError(diag.SynUnexpectedToken, source.Span{File: file}, err.Error())
	if errors.As(err, &serr) {
		d.Primary = serr.Span
		d.Message = serr.Msg
	}
	d.Rule = SyntaxRule
	return d
}

// Analyse runs rules over every parsed tree in parallel and stores the
// findings in the registry.
func (r *Result) Analyse(ctx context.Context, rules []*analysis.Rule, opts Options) error {
	stop := opts.Timer.Track("analysis")
	defer stop(fmt.Sprintf("%d rules", len(rules)))
	ctx, span := trace.Start(ctx, trace.ScopePass, "analysis")
	defer span.End("")

	if len(r.Trees) == 0 || len(rules) == 0 {
		return nil
	}
	// у каждого дерева свой буфер; слияние после Wait
	found := make([]diag.SliceReporter, len(r.Trees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs(len(r.Trees)))
	for i, t := range r.Trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			analysis.RunWith(gctx, t, rules, r.Analysis, &found[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []diag.Diagnostic
	for i := range found {
		all = append(all, found[i].Items...)
	}
	if dropped := r.Registry.Merge(all); dropped > 0 {
		opts.logger().Debug("diagnostic limit reached", "dropped", dropped)
	}
	return nil
}

// Diagnose loads target and analyses it with rules.
func Diagnose(ctx context.Context, target string, rules []*analysis.Rule, opts Options) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "diagnose")
	defer span.End("")

	res, err := Load(ctx, target, opts)
	if err != nil {
		return res, err
	}
	if err := res.Analyse(ctx, rules, opts); err != nil {
		return res, err
	}
	opts.logger().Debug("diagnose finished", "files", len(res.Files), "diagnostics", res.Registry.Len())
	return res, nil
}

// Diagnostics returns the live findings in output order.
func (r *Result) Diagnostics() []diag.Diagnostic {
	r.Registry.Sort()
	return r.Registry.Live()
}
