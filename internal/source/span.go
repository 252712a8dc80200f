package source

import "strconv"

// Span is the byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Cover widens s to include other. A span of another file leaves s as is.
func (s Span) Cover(other Span) Span {
	if s.File == other.File {
		s.Start, s.End = min(s.Start, other.Start), max(s.End, other.End)
	}
	return s
}

// String prints file:start-end; used by dumps and test failures.
func (s Span) String() string {
	b := strconv.AppendUint(nil, uint64(s.File), 10)
	b = append(b, ':')
	b = strconv.AppendUint(b, uint64(s.Start), 10)
	b = append(b, '-')
	return string(strconv.AppendUint(b, uint64(s.End), 10))
}
