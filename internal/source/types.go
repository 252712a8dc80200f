package source

type (
	// FileID identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual marks a file added from memory (tests, stdin, LSP buffers).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single source file.
//
// LineStarts holds the byte offset of the first byte of every line; it is
// built once when the file enters the FileSet and only consulted when a span
// has to be shown to a human.
type File struct {
	ID         FileID
	Path       string
	Content    []byte
	LineStarts []uint32
	Hash       [32]byte
	Flags      FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
