package source

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
)

// FileID identifies a file within its FileSet; ids are dense and start at 0.
type FileID uint32

// FileFlags records how a file got into the set and what loading changed.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory (test, stdin, fuzz input)
	FileHadBOM                               // a UTF-8 byte order mark was stripped
	FileNormalizedCRLF                       // \r\n line endings were folded to \n
	FileReadOnly                             // must never be written back
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// File is one Java compilation unit. Content is the normalized text every
// span points into; a fix that edits the tree replaces it via SetContent.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol is a 1-based position. Col counts bytes, not runes.
type LineCol struct {
	Line uint32
	Col  uint32
}

// SetContent replaces the file content and recomputes the line index and hash.
func (f *File) SetContent(content []byte) {
	f.Content = content
	f.LineIdx = buildLineIndex(content)
	f.Hash = sha256.Sum256(content)
}

// Encoded returns the content in its on-disk form: CRLF line endings and the
// byte order mark are restored when loading removed them.
func (f *File) Encoded() []byte {
	out := f.Content
	if f.Flags&FileNormalizedCRLF != 0 {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if f.Flags&FileHadBOM != 0 {
		out = append(bytes.Clone(bom), out...)
	}
	return out
}

// Line returns line n (1-based) without its newline; "" when n is out of range.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.LineIdx)+1 {
		return ""
	}
	start := 0
	if n > 1 {
		start = int(f.LineIdx[n-2]) + 1
	}
	end := len(f.Content)
	if int(n) <= len(f.LineIdx) {
		end = int(f.LineIdx[n-1])
	}
	if start > end || end > len(f.Content) {
		return ""
	}
	return string(f.Content[start:end])
}

// PathMode selects how Display prints a file path.
type PathMode uint8

const (
	PathAuto     PathMode = iota // short paths as they are, long absolute ones as basename
	PathAbsolute                 // always absolute
	PathRelative                 // relative to a base directory when inside it
	PathBase                     // last element only
)

// Display formats the file path for output. baseDir only matters for
// PathRelative; an empty one means the working directory.
func (f *File) Display(mode PathMode, baseDir string) string {
	switch mode {
	case PathAbsolute:
		if abs, err := AbsolutePath(f.Path); err == nil {
			return abs
		}
	case PathRelative:
		if baseDir == "" {
			baseDir, _ = os.Getwd() //nolint:errcheck // falls back to the raw path below
		}
		if rel, err := RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case PathBase:
		return filepath.Base(f.Path)
	case PathAuto:
		// длинные абсолютные пути режем до имени файла
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}
