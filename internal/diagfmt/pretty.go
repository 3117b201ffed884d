package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"jinspect/internal/diag"
	"jinspect/internal/source"
)

type palette struct {
	err, warn, info, note, path, gutter, caret, fix *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		path:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		fix:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.path, p.gutter, p.caret, p.fix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждой диагностики печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes и fix.
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i := range diags {
		d := &diags[i]
		prettyOne(w, d, fs, opts, pal)
		if i < len(diags)-1 {
			fmt.Fprintln(w)
		}
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	start, end := fs.Resolve(d.Primary)
	path := formatPath(fs, d.Primary.File, opts.PathMode)
	fmt.Fprintf(w, "%s: %s: %s\n",
		pal.path.Sprintf("%s:%d:%d", path, start.Line, start.Col),
		pal.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID()),
		d.Message)

	if f := fs.Get(d.Primary.File); f != nil && start.Line > 0 {
		writeSnippet(w, f, start, end, int(opts.Context), pal)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s (%s:%d:%d)\n", pal.note.Sprint("note:"), n.Msg,
				formatPath(fs, n.Span.File, opts.PathMode), ns.Line, ns.Col)
		}
	}
	if opts.ShowFixes && d.Fix != nil {
		fmt.Fprintf(w, "  %s %s [%s]\n", pal.fix.Sprint("fix:"), d.Fix.Title, d.Fix.Applicability)
	}
}

func writeSnippet(w io.Writer, f *source.File, start, end source.LineCol, context int, pal palette) {
	lines := len(f.LineIdx)
	if len(f.Content) > 0 && f.Content[len(f.Content)-1] != '\n' {
		lines++
	}
	first := max(1, int(start.Line)-context)
	last := max(int(start.Line), min(int(start.Line)+context, lines))
	width := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.Line(uint32(ln))
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", width, ln), text)
		if ln != int(start.Line) {
			continue
		}
		caretEnd := int(end.Col)
		if end.Line != start.Line {
			caretEnd = len(text) + 1
		}
		n := max(1, caretEnd-int(start.Col))
		marker := "^" + strings.Repeat("~", n-1)
		pad := strings.Repeat(" ", int(start.Col)-1)
		fmt.Fprintf(w, "%s %s%s\n", pal.gutter.Sprintf("%*s |", width, ""), pad, pal.caret.Sprint(marker))
	}
}
