package source

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"fortio.org/safecast"
)

// normalizeCRLF заменяет все \r\n на \n, не трогая одиночные \r.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false
	for i := 0; i < len(content); {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
			continue
		}
		out = append(out, content[i])
		i++
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:], true
	}
	return content, false
}

// buildLineStarts returns the offset of every line start; line 1 always starts at 0.
func buildLineStarts(content []byte) []uint32 {
	out := make([]uint32, 1, 1+len(content)/32)
	for i, b := range content {
		if b != '\n' {
			continue
		}
		next, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		out = append(out, next)
	}
	return out
}

// toLineCol finds the line containing off by binary search over line starts.
func toLineCol(lineStarts []uint32, off uint32) LineCol {
	if len(lineStarts) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	// первая строка, начинающаяся строго после off, минус один
	idx := sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > off }) - 1
	if idx < 0 {
		idx = 0
	}
	line, err := safecast.Conv[uint32](idx + 1)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return LineCol{Line: line, Col: off - lineStarts[idx] + 1}
}

func normalizePath(path string) string {
	if path == "" {
		return path
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// BaseName returns the last element of path.
func BaseName(path string) string {
	return filepath.Base(path)
}

// RelativePath returns path relative to baseDir.
func RelativePath(path, baseDir string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absBase, absPath)
}
