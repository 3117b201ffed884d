package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jinspect/internal/analysis"
	"jinspect/internal/driver"
	"jinspect/internal/observ"
	"jinspect/internal/prof"
	"jinspect/internal/project"
	"jinspect/internal/rules"
	"jinspect/internal/settings"
	"jinspect/internal/trace"
)

// app holds the state shared by every command of one invocation.
type app struct {
	fs       afero.Fs
	viper    *viper.Viper
	settings settings.Settings
	logger   hclog.Logger
	color    bool
	stderr   io.Writer
	tracer   trace.Tracer
	profiles *prof.Session
}

var settingKeys = []string{
	settings.KeyColor,
	settings.KeyQuiet,
	settings.KeyTimings,
	settings.KeyMaxDiagnostics,
	settings.KeyJobs,
	settings.KeyFormat,
	settings.KeyLogLevel,
	settings.KeyTrace,
	settings.KeyTraceLevel,
	settings.KeyTraceFormat,
	settings.KeyTraceMode,
}

// init resolves settings (flags > env > settings file > defaults), then sets
// up the logger and the tracer.
func (a *app) init(cmd *cobra.Command) error {
	if err := settings.LoadDotEnv(a.fs, ".env"); err != nil {
		return err
	}
	v, err := settings.New(a.fs)
	if err != nil {
		return err
	}
	// persistent flags are merged into cmd.Flags() by the time we run
	for _, key := range settingKeys {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind %s flag: %w", key, err)
			}
		}
	}
	s, err := settings.Load(v)
	if err != nil {
		return err
	}
	a.viper = v
	a.settings = s

	switch s.Color {
	case "on":
		a.color = true
	case "off":
		a.color = false
	default:
		a.color = isTerminal(cmd.OutOrStdout())
	}

	a.logger = hclog.New(&hclog.LoggerOptions{
		Name:   "jinspect",
		Level:  hclog.LevelFromString(s.LogLevel),
		Output: cmd.ErrOrStderr(),
	})
	if s.ConfigFile != "" {
		a.logger.Debug("settings loaded", "path", s.ConfigFile)
	}

	a.stderr = cmd.ErrOrStderr()
	if err := a.setupTracing(cmd); err != nil {
		return err
	}

	profiles, err := a.setupProfiling(cmd)
	if err != nil {
		a.close(nil)
		return err
	}
	a.profiles = profiles
	return nil
}

// setupProfiling starts the profilers requested by the persistent flags.
func (a *app) setupProfiling(cmd *cobra.Command) (*prof.Session, error) {
	var cfg prof.Config
	for flag, dst := range map[string]*string{
		"cpu-profile":   &cfg.CPU,
		"mem-profile":   &cfg.Mem,
		"runtime-trace": &cfg.Trace,
	} {
		v, err := cmd.Flags().GetString(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		*dst = v
	}
	if cfg == (prof.Config{}) {
		return nil, nil
	}
	s, err := prof.Start(a.fs, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	return s, nil
}

// close stops profiling and the tracer; cmdErr is what the command returned.
func (a *app) close(cmdErr error) {
	if a.profiles != nil {
		if err := a.profiles.Stop(); err != nil {
			a.logger.Error("profiling", "error", err)
		}
		a.profiles = nil
	}
	a.closeTracing(a.stderr, cmdErr)
}

// pipeline is everything a command needs to run the driver on one target.
type pipeline struct {
	target   string
	baseDir  string
	manifest *project.Manifest
	rules    []*analysis.Rule
	opts     driver.Options
	timer    *observ.Timer
}

// newPipeline combines the project manifest governing target with the
// resolved settings and the rule selection from --rules.
func (a *app) newPipeline(cmd *cobra.Command, target string, ruleIDs []string) (*pipeline, error) {
	if _, err := a.fs.Stat(target); err != nil {
		return nil, err
	}
	p := &pipeline{target: target, baseDir: target}
	if info, err := a.fs.Stat(target); err == nil && !info.IsDir() {
		p.baseDir = filepath.Dir(target)
	}

	manifest, ok, err := project.LoadManifest(a.fs, target)
	if err != nil {
		return nil, err
	}
	var cfg project.Config
	if ok {
		p.manifest = manifest
		p.baseDir = manifest.Root
		cfg = manifest.Config
		a.logger.Debug("project manifest", "path", manifest.Path)
	}

	all := rules.Builtin(rules.Config{ImplicitNamespace: cfg.Inspect.ImplicitNamespace})
	for _, id := range cfg.RuleIDs() {
		if !slices.ContainsFunc(all, func(r *analysis.Rule) bool { return r.ID == id }) {
			a.logger.Warn("unknown rule in project manifest", "id", id)
		}
	}
	if len(ruleIDs) == 0 {
		ruleIDs = enabledFromManifest(all, &cfg)
	}
	selected, err := rules.Select(all, ruleIDs)
	if err != nil {
		return nil, err
	}
	p.rules = selected

	maxDiags := a.settings.MaxDiagnostics
	if cfg.Inspect.MaxDiagnostics > 0 && !a.explicit(cmd, settings.KeyMaxDiagnostics) {
		maxDiags = cfg.Inspect.MaxDiagnostics
	}
	jobs := a.settings.Jobs
	if cfg.Inspect.Jobs > 0 && !a.explicit(cmd, settings.KeyJobs) {
		jobs = cfg.Inspect.Jobs
	}

	if a.settings.Timings {
		p.timer = observ.NewTimer()
	}

	p.opts = driver.Options{
		Fs:             a.fs,
		BaseDir:        p.baseDir,
		Jobs:           jobs,
		MaxDiagnostics: maxDiags,
		Namespaces:     cfg.Namespaces,
		Analysis: analysis.Options{
			Disabled: cfg.Disabled(),
			Severity: cfg.Severities(),
		},
		Timer:  p.timer,
		Logger: a.logger.Named("driver"),
	}
	if ok && len(cfg.Inspect.Exclude) > 0 {
		p.opts.Exclude = excludeFunc(target, manifest)
	}
	return p, nil
}

// explicit reports whether key was set on the command line or in the
// environment, where it beats the project manifest.
func (a *app) explicit(cmd *cobra.Command, key string) bool {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		return true
	}
	envKey := settings.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	_, set := os.LookupEnv(envKey)
	return set
}

// enabledFromManifest returns nil when the manifest switches nothing off, so
// that every rule runs; disabled rules are also filtered by analysis.Options.
func enabledFromManifest(all []*analysis.Rule, cfg *project.Config) []string {
	disabled := cfg.Disabled()
	if len(disabled) == 0 {
		return nil
	}
	var ids []string
	for _, r := range all {
		if !disabled[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		// пустой список означает "все правила", оставляем фильтр анализатору
		return nil
	}
	return ids
}

// excludeFunc maps paths relative to the walked target onto the manifest
// root before matching [inspect].exclude.
func excludeFunc(target string, m *project.Manifest) func(rel string) bool {
	return func(rel string) bool {
		abs := filepath.Join(target, filepath.FromSlash(rel))
		fromRoot, err := filepath.Rel(m.Root, abs)
		if err != nil || strings.HasPrefix(fromRoot, "..") {
			return false
		}
		return m.Config.Excluded(fromRoot)
	}
}

func (a *app) printTimings(cmd *cobra.Command, p *pipeline) {
	if p.timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), p.timer.Summary())
}
