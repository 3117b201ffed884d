package source

import (
	"fmt"
	"os"
	"sync"

	"fortio.org/safecast"
	"github.com/spf13/afero"
)

// FileSet owns every file of one run. Files are stored by pointer so that a
// tree editing its file in place stays visible through Get.
type FileSet struct {
	mu      sync.RWMutex
	files   []*File
	latest  map[string]FileID // normalized path -> newest id
	baseDir string            // для относительных путей в выводе
}

// NewFileSet returns an empty set whose base is the working directory.
func NewFileSet() *FileSet {
	return &FileSet{latest: make(map[string]FileID)}
}

// NewFileSetWithBase returns an empty set reporting paths relative to baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.mu.Lock()
	fileSet.baseDir = dir
	fileSet.mu.Unlock()
}

// BaseDir returns the configured base, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	fileSet.mu.RLock()
	base := fileSet.baseDir
	fileSet.mu.RUnlock()
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return base
}

// Add stores already normalized content under a fresh FileID. Adding the
// same path twice yields two ids; Latest returns the newer one.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	path = normalizePath(path)

	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()

	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	f := &File{ID: FileID(n), Path: path, Flags: flags}
	f.SetContent(content)
	fileSet.files = append(fileSet.files, f)
	fileSet.latest[path] = f.ID
	return f.ID
}

// Load reads path through fsys, strips a BOM and folds CRLF, remembering
// both in the file flags so that Encoded can restore them.
func (fileSet *FileSet) Load(fsys afero.Fs, path string) (FileID, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return 0, err
	}
	var flags FileFlags
	content, hadBOM := removeBOM(raw)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content (tests, stdin, fuzz input). Virtual
// files are never written back by fixes.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id, or nil when the id is unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return fileSet.files[id]
}

func (fileSet *FileSet) Len() int {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	return len(fileSet.files)
}

// Latest returns the newest id added for path.
func (fileSet *FileSet) Latest(path string) (FileID, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	id, ok := fileSet.latest[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into start and end positions; both are zero when
// the file is unknown.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}
