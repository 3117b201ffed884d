package diag

import (
	"sort"
	"sync"

	"jinspect/internal/tree"
)

// Registry accumulates diagnostics for a run. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	items []Diagnostic
	seen  map[findingKey]struct{}
	max   int
}

// NewRegistry returns a registry that keeps at most max diagnostics; max <= 0
// means unlimited.
func NewRegistry(max int) *Registry {
	return &Registry{
		seen: make(map[findingKey]struct{}),
		max:  max,
	}
}

// Add stores d unless the limit is reached or an identical finding is already
// present. It returns false when the diagnostic was dropped.
func (r *Registry) Add(d Diagnostic) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.items) >= r.max {
		return false
	}
	key := keyOf(&d)
	if _, ok := r.seen[key]; ok {
		return false
	}
	r.seen[key] = struct{}{}
	r.items = append(r.items, d)
	return true
}

// Merge adds a batch of findings and keeps the first max of everything
// stored, in output order. Parallel producers collect into their own slices
// and merge once, so the kept set does not depend on completion order. It
// returns how many diagnostics were dropped by the limit.
func (r *Registry) Merge(ds []Diagnostic) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range ds {
		key := keyOf(&ds[i])
		if _, ok := r.seen[key]; ok {
			continue
		}
		r.seen[key] = struct{}{}
		r.items = append(r.items, ds[i])
	}
	sort.SliceStable(r.items, func(i, j int) bool {
		return Less(&r.items[i], &r.items[j])
	})
	if r.max <= 0 || len(r.items) <= r.max {
		return 0
	}
	dropped := len(r.items) - r.max
	for i := r.max; i < len(r.items); i++ {
		delete(r.seen, keyOf(&r.items[i]))
	}
	clear(r.items[r.max:])
	r.items = r.items[:r.max]
	return dropped
}

func (r *Registry) Cap() int { return r.max }

// Len returns the number of stored diagnostics, stale ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Items returns a snapshot of every stored diagnostic.
func (r *Registry) Items() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.items))
	copy(out, r.items)
	return out
}

// Live returns the diagnostics whose targets are still valid.
func (r *Registry) Live() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, 0, len(r.items))
	for i := range r.items {
		if !r.items[i].Stale() {
			out = append(out, r.items[i])
		}
	}
	return out
}

// ForTree returns the live diagnostics targeting nodes of t, in stored order.
func (r *Registry) ForTree(t *tree.Tree) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Diagnostic
	for i := range r.items {
		d := &r.items[i]
		if d.Target.Tree == t && !d.Stale() {
			out = append(out, *d)
		}
	}
	return out
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (r *Registry) HasErrors() bool {
	return r.hasSeverity(SevError)
}

// HasWarnings возвращает true, если есть хотя бы одна диагностика с Severity >= Warning
func (r *Registry) HasWarnings() bool {
	return r.hasSeverity(SevWarning)
}

func (r *Registry) hasSeverity(floor Severity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].Severity >= floor {
			return true
		}
	}
	return false
}

// Invalidate drops every diagnostic of t whose target is one of removed and
// returns how many were dropped. Targets elsewhere in t are left in place;
// their refs already report themselves stale.
func (r *Registry) Invalidate(t *tree.Tree, removed []tree.NodeID) int {
	if len(removed) == 0 {
		return 0
	}
	gone := make(map[tree.NodeID]struct{}, len(removed))
	for _, id := range removed {
		gone[id] = struct{}{}
	}
	return r.drop(func(d *Diagnostic) bool {
		if d.Target.Tree != t {
			return false
		}
		_, ok := gone[d.Target.Node]
		return ok
	})
}

// Reset drops every diagnostic of t, typically before re-analysing it.
func (r *Registry) Reset(t *tree.Tree) int {
	return r.drop(func(d *Diagnostic) bool { return d.Target.Tree == t })
}

// Prune drops stale diagnostics.
func (r *Registry) Prune() int {
	return r.drop(func(d *Diagnostic) bool { return d.Stale() })
}

func (r *Registry) drop(match func(d *Diagnostic) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	dropped := 0
	for i := range r.items {
		if match(&r.items[i]) {
			delete(r.seen, keyOf(&r.items[i]))
			dropped++
			continue
		}
		kept = append(kept, r.items[i])
	}
	clear(r.items[len(kept):])
	r.items = kept
	return dropped
}

// Sort сортирует диагностики по: file, start, end, severity (desc), code (asc)
// для стабильного и детерминированного порядка вывода.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.SliceStable(r.items, func(i, j int) bool {
		return Less(&r.items[i], &r.items[j])
	})
}

// Less orders diagnostics by file, start, end, severity (desc) and code.
func Less(di, dj *Diagnostic) bool {
	// сначала по файлу
	if di.Primary.File != dj.Primary.File {
		return di.Primary.File < dj.Primary.File
	}
	// затем по старту
	if di.Primary.Start != dj.Primary.Start {
		return di.Primary.Start < dj.Primary.Start
	}
	if di.Primary.End != dj.Primary.End {
		return di.Primary.End < dj.Primary.End
	}
	// затем по severity (по убыванию: Error > Warning > Info)
	if di.Severity != dj.Severity {
		return di.Severity > dj.Severity
	}
	return di.Code < dj.Code
}
