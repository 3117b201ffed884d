package diagfmt

import (
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// DiffContext is the number of unchanged lines shown around each hunk.
const DiffContext = 3

type diffLine struct {
	op   diffpatch.Operation
	text string
}

// UnifiedDiff renders the change from before to after as a unified diff with
// a/ and b/ path prefixes. Equal inputs give an empty string.
func UnifiedDiff(path string, before, after []byte) string {
	if string(before) == string(after) {
		return ""
	}
	lines := diffLines(string(before), string(after))

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)

	// номера строк старого и нового файла перед каждой операцией
	oldNo := make([]int, len(lines)+1)
	newNo := make([]int, len(lines)+1)
	for i, l := range lines {
		oldNo[i+1], newNo[i+1] = oldNo[i], newNo[i]
		if l.op != diffpatch.DiffInsert {
			oldNo[i+1]++
		}
		if l.op != diffpatch.DiffDelete {
			newNo[i+1]++
		}
	}

	for _, h := range hunks(lines, DiffContext) {
		oldCount := oldNo[h[1]] - oldNo[h[0]]
		newCount := newNo[h[1]] - newNo[h[0]]
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", hunkRange(oldNo[h[0]], oldCount), hunkRange(newNo[h[0]], newCount))
		for _, l := range lines[h[0]:h[1]] {
			switch l.op {
			case diffpatch.DiffInsert:
				sb.WriteByte('+')
			case diffpatch.DiffDelete:
				sb.WriteByte('-')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteString(l.text)
			if !strings.HasSuffix(l.text, "\n") {
				sb.WriteString("\n\\ No newline at end of file\n")
			}
		}
	}
	return sb.String()
}

func diffLines(before, after string) []diffLine {
	dmp := diffpatch.New()
	a, b, table := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var out []diffLine
	for _, d := range diffs {
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			out = append(out, diffLine{op: d.Type, text: text})
		}
	}
	return out
}

// hunks groups changed lines into half-open [start,end) ranges of lines,
// merging changes that are closer than 2*context lines apart.
func hunks(lines []diffLine, context int) [][2]int {
	var out [][2]int
	for i := 0; i < len(lines); i++ {
		if lines[i].op == diffpatch.DiffEqual {
			continue
		}
		start := max(0, i-context)
		last := i
		for j := i + 1; j < len(lines) && j <= last+2*context; j++ {
			if lines[j].op != diffpatch.DiffEqual {
				last = j
			}
		}
		end := min(len(lines), last+context+1)
		if n := len(out); n > 0 && start <= out[n-1][1] {
			out[n-1][1] = end
		} else {
			out = append(out, [2]int{start, end})
		}
		i = last
	}
	return out
}

func hunkRange(before, count int) string {
	start := before + 1
	if count == 0 {
		start = before
	}
	if count == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
