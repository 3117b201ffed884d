package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"jinspect/internal/source"
)

// GoldenOpts selects what FormatGolden prints besides the primary lines.
type GoldenOpts struct {
	Notes bool // one "note" line per resolvable note
	Fixes bool // append "[fix: id]" to diagnostics carrying a fix
}

// goldenLine is one rendered entry; the fields are the sort key.
type goldenLine struct {
	path     string
	line     uint32
	col      uint32
	severity string
	code     string
	text     string
}

func (g goldenLine) compare(o goldenLine) int {
	return cmp.Or(
		cmp.Compare(g.path, o.path),
		cmp.Compare(g.line, o.line),
		cmp.Compare(g.col, o.col),
		cmp.Compare(g.severity, o.severity),
		cmp.Compare(g.code, o.code),
		cmp.Compare(g.text, o.text),
	)
}

// FormatGolden renders diagnostics one per line,
//
//	severity CODE path:line:col message
//
// with paths relative to the file set's base directory. Lines are sorted so
// that the result does not depend on worker scheduling; it is empty when no
// diagnostic resolves to a file.
func FormatGolden(diags []Diagnostic, fs *source.FileSet, opts GoldenOpts) string {
	if fs == nil {
		return ""
	}
	var lines []goldenLine
	for i := range diags {
		d := &diags[i]
		text := oneLine(d.Message)
		if opts.Fixes && d.Fix != nil {
			text += " [fix: " + d.Fix.ID + "]"
		}
		if l, ok := goldenAt(fs, d.Primary, severityLabel(d.Severity), d.Code.ID(), text); ok {
			lines = append(lines, l)
		}
		if !opts.Notes {
			continue
		}
		for _, n := range d.Notes {
			if l, ok := goldenAt(fs, n.Span, "note", d.Code.ID(), oneLine(n.Msg)); ok {
				lines = append(lines, l)
			}
		}
	}
	slices.SortStableFunc(lines, goldenLine.compare)

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", l.severity, l.code, l.path, l.line, l.col, l.text)
	}
	return b.String()
}

// FormatGoldenDiagnostics is FormatGolden without fix markers.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return FormatGolden(diags, fs, GoldenOpts{Notes: includeNotes})
}

func goldenAt(fs *source.FileSet, span source.Span, severity, code, text string) (goldenLine, bool) {
	file := fs.Get(span.File)
	if file == nil {
		return goldenLine{}, false
	}
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(file.Display(source.PathRelative, fs.BaseDir()))
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return goldenLine{
		path:     path,
		line:     start.Line,
		col:      start.Col,
		severity: severity,
		code:     code,
		text:     text,
	}, true
}

func severityLabel(sev Severity) string {
	if sev > SevError {
		return "info"
	}
	return strings.ToLower(sev.String())
}

// oneLine folds every line break into a space.
func oneLine(msg string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg))
}
