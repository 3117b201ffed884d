package fix

import (
	"errors"
	"fmt"

	"jinspect/internal/tree"
)

var (
	// ErrNoFixes is returned when no fixes were applied.
	ErrNoFixes = errors.New("no applicable fixes found")
	// ErrStale is returned when the target changed since the diagnostic was produced.
	ErrStale = errors.New("fix target is stale")
	// ErrNotWritable is returned when the host refuses to modify the file.
	ErrNotWritable = errors.New("file is not writable")
	// ErrNoOp is returned for a fix without an operation.
	ErrNoOp = errors.New("fix has no operation")
)

// Error ties a failed fix to the file it targeted.
type Error struct {
	Path string
	Fix  string
	Err  error
}

func (e *Error) Error() string {
	if e.Fix == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Fix, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindMismatchError is returned by kind-guarded fixes applied to another node.
type KindMismatchError struct {
	Want tree.Kind
	Got  tree.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("fix expects a %s node, target is a %s", e.Want, e.Got)
}
