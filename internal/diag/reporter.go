package diag

import "jinspect/internal/source"

// Reporter получает диагностики от правил и фаз драйвера.
type Reporter interface {
	Report(d Diagnostic)
}

// SliceReporter collects diagnostics in order. Not safe for concurrent use.
type SliceReporter struct{ Items []Diagnostic }

func (r *SliceReporter) Report(d Diagnostic) { r.Items = append(r.Items, d) }

// findingKey identifies a finding for deduplication: the same rule saying the
// same thing about the same bytes.
type findingKey struct {
	rule string
	code Code
	span source.Span
	msg  string
}

func keyOf(d *Diagnostic) findingKey {
	return findingKey{rule: d.Rule, code: d.Code, span: d.Primary, msg: d.Message}
}

// DedupReporter forwards each distinct finding once. A rule subscribed to
// several kinds may reach the same node twice during one walk. Not safe for
// concurrent use.
type DedupReporter struct {
	next Reporter
	seen map[findingKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[findingKey]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	k := keyOf(&d)
	if _, dup := r.seen[k]; dup {
		return
	}
	r.seen[k] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}
