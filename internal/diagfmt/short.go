package diagfmt

import (
	"fmt"
	"io"

	"jinspect/internal/diag"
	"jinspect/internal/source"
)

// Short печатает по одной строке на диагностику:
// <path>:<line>:<col>: <severity> <CODE> [rule] <message>
func Short(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, mode PathMode) {
	for i := range diags {
		d := &diags[i]
		start, _ := fs.Resolve(d.Primary)
		rule := ""
		if d.Rule != "" {
			rule = " [" + d.Rule + "]"
		}
		fmt.Fprintf(w, "%s:%d:%d: %s %s%s %s\n",
			formatPath(fs, d.Primary.File, mode), start.Line, start.Col,
			d.Severity, d.Code.ID(), rule, d.Message)
	}
}
