package trace

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
)

// Tracer receives trace events. Implementations must be goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled reports Level() > LevelOff.
	Enabled() bool
}

var seq atomic.Uint64

// stamp gives ev its sequence number unless a fan-out already did.
func stamp(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = seq.Add(1)
	}
}

// Mode selects where events go.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // written out immediately
	ModeRing                   // kept in memory, dumped when the command fails
	ModeBoth                   // both of the above
)

var modeNames = [...]string{
	ModeStream: "stream",
	ModeRing:   "ring",
	ModeBoth:   "both",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(s)
	for m, name := range modeNames {
		if name != "" && name == s {
			return Mode(m), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid trace mode: %q (expected: stream|ring|both)", s)
}

// Config describes the tracer a command wants.
type Config struct {
	Level  Level
	Mode   Mode
	Format Format
	// Output receives the stream; when nil Path is created through Fs.
	Output io.Writer
	Path   string
	Fs     afero.Fs
	// Keep is the recorder capacity, DefaultKeep when zero.
	Keep int
}

// New builds the tracer described by cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	switch cfg.Mode {
	case ModeRing:
		return NewRecorder(cfg.Keep, cfg.Level), nil
	case ModeStream, ModeBoth:
	default:
		return nil, fmt.Errorf("unknown trace mode: %v", cfg.Mode)
	}

	w := cfg.Output
	if w == nil {
		if cfg.Path == "" || cfg.Path == "-" {
			return nil, errors.New("trace: stream mode needs an output")
		}
		fsys := cfg.Fs
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		f, err := fsys.Create(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		w = f
	}
	stream := NewStreamTracer(w, cfg.Level, formatFor(cfg.Format, cfg.Path))
	if cfg.Mode == ModeStream {
		return stream, nil
	}
	return tee{stream, NewRecorder(cfg.Keep, cfg.Level)}, nil
}

// RecorderOf returns the in-memory recorder behind t, if there is one.
func RecorderOf(t Tracer) *Recorder {
	switch t := t.(type) {
	case *Recorder:
		return t
	case tee:
		for _, sub := range t {
			if r := RecorderOf(sub); r != nil {
				return r
			}
		}
	}
	return nil
}

// tee fans events out; the first tracer's level is the reported one.
type tee []Tracer

func (t tee) Emit(ev *Event) {
	stamp(ev)
	for _, sub := range t {
		cp := *ev
		sub.Emit(&cp)
	}
}

func (t tee) Flush() error {
	var errs []error
	for _, sub := range t {
		errs = append(errs, sub.Flush())
	}
	return errors.Join(errs...)
}

func (t tee) Close() error {
	var errs []error
	for _, sub := range t {
		errs = append(errs, sub.Close())
	}
	return errors.Join(errs...)
}

func (t tee) Level() Level  { return t[0].Level() }
func (t tee) Enabled() bool { return t.Level() > LevelOff }
