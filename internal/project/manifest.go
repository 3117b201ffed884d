package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"jinspect/internal/diag"
)

// ErrManifestInvalid wraps every validation failure of jinspect.toml.
var ErrManifestInvalid = errors.New("invalid project manifest")

// Manifest is a decoded jinspect.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors jinspect.toml:
//
//	[inspect]
//	implicit_namespace = "java.lang"
//	max_diagnostics = 200
//	jobs = 0
//	exclude = ["build/**"]
//
//	[rules.abstract-override]
//	enabled = true
//	severity = "warning"
//
//	[namespaces]
//	"java.awt" = ["List", "Color"]
type Config struct {
	Inspect    InspectConfig         `toml:"inspect"`
	Rules      map[string]RuleConfig `toml:"rules"`
	Namespaces map[string][]string   `toml:"namespaces"`
}

type InspectConfig struct {
	ImplicitNamespace string   `toml:"implicit_namespace"`
	MaxDiagnostics    int      `toml:"max_diagnostics"`
	Jobs              int      `toml:"jobs"`
	Exclude           []string `toml:"exclude"`
}

type RuleConfig struct {
	Enabled  *bool  `toml:"enabled"`
	Severity string `toml:"severity"`
}

// LoadManifest finds and decodes the manifest governing startDir. ok is false
// when there is none; that is not an error.
func LoadManifest(fsys afero.Fs, startDir string) (*Manifest, bool, error) {
	manifestPath, ok, err := FindManifest(fsys, startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(fsys, manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

// LoadConfig decodes and validates the manifest at path.
func LoadConfig(fsys afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w: %w", path, ErrManifestInvalid, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys %s: %w", path, strings.Join(keys, ", "), ErrManifestInvalid)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w: %w", path, ErrManifestInvalid, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if ns := c.Inspect.ImplicitNamespace; ns != "" && !IsQualifiedName(ns) {
		return fmt.Errorf("[inspect].implicit_namespace %q is not a qualified name", ns)
	}
	if c.Inspect.MaxDiagnostics < 0 {
		return fmt.Errorf("[inspect].max_diagnostics must not be negative")
	}
	if c.Inspect.Jobs < 0 {
		return fmt.Errorf("[inspect].jobs must not be negative")
	}
	for _, pattern := range c.Inspect.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("[inspect].exclude %q: %w", pattern, err)
		}
	}
	for id, rc := range c.Rules {
		if rc.Severity == "" {
			continue
		}
		if _, err := diag.ParseSeverity(rc.Severity); err != nil {
			return fmt.Errorf("[rules.%s].severity: %w", id, err)
		}
	}
	for ns, members := range c.Namespaces {
		if !IsQualifiedName(ns) {
			return fmt.Errorf("[namespaces] key %q is not a qualified name", ns)
		}
		for _, m := range members {
			if !isIdent(m) {
				return fmt.Errorf("[namespaces].%q: %q is not a simple name", ns, m)
			}
		}
	}
	return nil
}

// Disabled returns the ids of rules switched off in [rules.<id>].
func (c *Config) Disabled() map[string]bool {
	out := make(map[string]bool)
	for id, rc := range c.Rules {
		if rc.Enabled != nil && !*rc.Enabled {
			out[id] = true
		}
	}
	return out
}

// Severities returns the severity overrides of [rules.<id>]. The config is
// validated on load, so unknown names are ignored here.
func (c *Config) Severities() map[string]diag.Severity {
	out := make(map[string]diag.Severity)
	for id, rc := range c.Rules {
		if rc.Severity == "" {
			continue
		}
		if sev, err := diag.ParseSeverity(rc.Severity); err == nil {
			out[id] = sev
		}
	}
	return out
}

// RuleIDs lists the rule ids mentioned in the manifest, sorted.
func (c *Config) RuleIDs() []string {
	ids := make([]string, 0, len(c.Rules))
	for id := range c.Rules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Excluded reports whether rel, a slash-separated path relative to the
// project root, matches an [inspect].exclude pattern. A trailing "/**"
// matches the whole directory.
func (c *Config) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Inspect.Exclude {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
