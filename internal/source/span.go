package source

import "fmt"

// Span is the half-open byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool    { return s.Start == s.End }
func (s Span) Len() uint32    { return s.End - s.Start }
func (s Span) String() string { return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End) }

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// Cover returns the smallest span holding both s and other. Spans of
// different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	return Span{File: s.File, Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Cut returns s as it reads after the bytes [from, to) were deleted from its
// file: offsets past the cut move left, offsets inside it collapse to from.
func (s Span) Cut(from, to uint32) Span {
	if to <= from {
		return s
	}
	s.Start = cutOffset(s.Start, from, to)
	s.End = cutOffset(s.End, from, to)
	return s
}

func cutOffset(x, from, to uint32) uint32 {
	switch {
	case x <= from:
		return x
	case x < to:
		return from
	}
	return x - (to - from)
}
