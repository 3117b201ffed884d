// Package observ collects per-phase wall-clock timings for --timings output.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase accumulates every run of one named pipeline step. The fix loop
// re-analyses a file after each edit, so a phase may run many times.
type Phase struct {
	Name  string
	Runs  int
	Total time.Duration
	Max   time.Duration
	Note  string // note of the latest finished run
}

// Timer tracks pipeline phases. It is safe for concurrent use; phases are
// reported in the order in which they first began.
type Timer struct {
	mu     sync.Mutex
	phases []*Phase
	byName map[string]*Phase
	first  time.Time
	last   time.Time
	now    func() time.Time
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer {
	return &Timer{byName: make(map[string]*Phase), now: time.Now}
}

// Track starts one run of name and returns the function finishing it.
// A nil Timer returns a no-op.
func (t *Timer) Track(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	started := t.now()
	if t.first.IsZero() {
		t.first = started
	}
	p := t.byName[name]
	if p == nil {
		p = &Phase{Name: name}
		t.byName[name] = p
		t.phases = append(t.phases, p)
	}
	t.mu.Unlock()

	var once sync.Once
	return func(note string) {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			now := t.now()
			d := now.Sub(started)
			p.Runs++
			p.Total += d
			p.Max = max(p.Max, d)
			if note != "" {
				p.Note = note
			}
			if now.After(t.last) {
				t.last = now
			}
		})
	}
}

// PhaseReport is the serialisable view of a Phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	Runs       int     `json:"runs"`
	DurationMS float64 `json:"duration_ms"`
	MaxMS      float64 `json:"max_ms,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates the timer. TotalMS sums the phases; WallMS spans the
// first start to the last finish, and is smaller when phases overlap.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	WallMS  float64       `json:"wall_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	var total time.Duration
	for _, p := range t.phases {
		if p.Runs == 0 {
			continue // still running
		}
		total += p.Total
		pr := PhaseReport{Name: p.Name, Runs: p.Runs, DurationMS: millis(p.Total), Note: p.Note}
		if p.Runs > 1 {
			pr.MaxMS = millis(p.Max)
		}
		r.Phases = append(r.Phases, pr)
	}
	r.TotalMS = millis(total)
	if !t.last.IsZero() {
		r.WallMS = millis(t.last.Sub(t.first))
	}
	return r
}

// Summary renders the report for stderr.
func (t *Timer) Summary() string {
	r := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range r.Phases {
		name := p.Name
		if p.Runs > 1 {
			name = fmt.Sprintf("%s ×%d", p.Name, p.Runs)
		}
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-20s %7.2f ms (wall %.2f ms)\n", "total", r.TotalMS, r.WallMS)
	return sb.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
