package fix

import (
	"context"
	"os"

	"github.com/spf13/afero"

	"jinspect/internal/source"
)

// Writable is asked before a file is modified. It runs without any tree lock
// held and may block, e.g. on a version-control checkout.
type Writable interface {
	EnsureWritable(ctx context.Context, file *source.File) bool
}

// WritableFunc adapts a function to Writable.
type WritableFunc func(ctx context.Context, file *source.File) bool

func (f WritableFunc) EnsureWritable(ctx context.Context, file *source.File) bool {
	return f(ctx, file)
}

var (
	// Always accepts every file.
	Always Writable = WritableFunc(func(context.Context, *source.File) bool { return true })
	// Never refuses every file.
	Never Writable = WritableFunc(func(context.Context, *source.File) bool { return false })
)

// FSWritable accepts files that exist on Fs with an owner write bit. Virtual
// and read-only files are refused, as is everything on an afero.ReadOnlyFs.
type FSWritable struct {
	Fs afero.Fs
}

func (w FSWritable) EnsureWritable(ctx context.Context, file *source.File) bool {
	if file == nil || w.Fs == nil || ctx.Err() != nil {
		return false
	}
	if file.Flags&(source.FileVirtual|source.FileReadOnly) != 0 {
		return false
	}
	if _, ok := w.Fs.(*afero.ReadOnlyFs); ok {
		return false
	}
	info, err := w.Fs.Stat(file.Path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o200 != 0
}

// writeBack persists file content through fsys, keeping the file mode.
func writeBack(fsys afero.Fs, file *source.File) error {
	mode := os.FileMode(0o644)
	if info, err := fsys.Stat(file.Path); err == nil {
		mode = info.Mode()
	}
	return afero.WriteFile(fsys, file.Path, file.Encoded(), mode)
}
