// Package baseline records accepted findings so later runs only report new ones.
package baseline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"jinspect/internal/diag"
	"jinspect/internal/source"
)

// Current schema version - increment when the Entry format changes
const schemaVersion uint16 = 1

// ErrSchema is returned when a baseline file was written by an incompatible version.
var ErrSchema = errors.New("baseline: unsupported schema")

// Entry is one accepted finding. Count is the number of identical findings
// (same rule, file and line text) that were accepted.
type Entry struct {
	Fingerprint string
	Rule        string
	Path        string
	Count       int
}

type payload struct {
	Schema  uint16
	Entries []Entry
}

// Baseline is a multiset of finding fingerprints.
type Baseline struct {
	entries map[string]*Entry
}

// Fingerprint identifies d independently of its line number: the rule, the
// file path relative to baseDir and the trimmed text of the primary line.
func Fingerprint(d *diag.Diagnostic, fs *source.FileSet, baseDir string) (fp, path string) {
	rule := d.Rule
	if rule == "" {
		rule = d.Code.ID()
	}
	var text string
	if f := fs.Get(d.Primary.File); f != nil {
		path = f.Display(source.PathRelative, baseDir)
		start, _ := fs.Resolve(d.Primary)
		text = strings.TrimSpace(f.Line(start.Line))
	}
	h := sha256.New()
	h.Write([]byte(rule))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)), path
}

// New builds a baseline accepting every diagnostic in diags.
func New(diags []diag.Diagnostic, fs *source.FileSet, baseDir string) *Baseline {
	b := &Baseline{entries: make(map[string]*Entry, len(diags))}
	for i := range diags {
		fp, path := Fingerprint(&diags[i], fs, baseDir)
		if e, ok := b.entries[fp]; ok {
			e.Count++
			continue
		}
		rule := diags[i].Rule
		if rule == "" {
			rule = diags[i].Code.ID()
		}
		b.entries[fp] = &Entry{Fingerprint: fp, Rule: rule, Path: path, Count: 1}
	}
	return b
}

// Len returns the number of accepted findings.
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, e := range b.entries {
		n += e.Count
	}
	return n
}

// Entries returns the entries sorted by path, then rule, then fingerprint.
func (b *Baseline) Entries() []Entry {
	if b == nil {
		return nil
	}
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(x, y Entry) int {
		if c := strings.Compare(x.Path, y.Path); c != 0 {
			return c
		}
		if c := strings.Compare(x.Rule, y.Rule); c != 0 {
			return c
		}
		return strings.Compare(x.Fingerprint, y.Fingerprint)
	})
	return out
}

// Filter drops diagnostics covered by the baseline. Each entry suppresses at
// most Count findings, so a duplicated finding shows up again.
func (b *Baseline) Filter(diags []diag.Diagnostic, fs *source.FileSet, baseDir string) (kept []diag.Diagnostic, suppressed int) {
	if b == nil || len(b.entries) == 0 {
		return diags, 0
	}
	left := make(map[string]int, len(b.entries))
	for fp, e := range b.entries {
		left[fp] = e.Count
	}
	kept = make([]diag.Diagnostic, 0, len(diags))
	for i := range diags {
		fp, _ := Fingerprint(&diags[i], fs, baseDir)
		if left[fp] > 0 {
			left[fp]--
			suppressed++
			continue
		}
		kept = append(kept, diags[i])
	}
	return kept, suppressed
}

// Load reads a baseline written by Save.
func Load(fsys afero.Fs, path string) (*Baseline, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", path, err)
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("baseline %s: schema %d: %w", path, p.Schema, ErrSchema)
	}
	b := &Baseline{entries: make(map[string]*Entry, len(p.Entries))}
	for i := range p.Entries {
		e := p.Entries[i]
		if e.Count <= 0 {
			continue
		}
		if prev, ok := b.entries[e.Fingerprint]; ok {
			prev.Count += e.Count
			continue
		}
		b.entries[e.Fingerprint] = &e
	}
	return b, nil
}

// Save writes the baseline to path, replacing it atomically.
func (b *Baseline) Save(fsys afero.Fs, path string) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := afero.TempFile(fsys, dir, "baseline-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&payload{Schema: schemaVersion, Entries: b.Entries()}); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	// Атомарная замена
	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.Remove(tmp)
		return err
	}
	return nil
}

// Exists reports whether a baseline file is present at path.
func Exists(fsys afero.Fs, path string) bool {
	ok, err := afero.Exists(fsys, path)
	return ok && err == nil
}
