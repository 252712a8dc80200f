package lsp

import (
	"bytes"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// applyChanges applies didChange edits in order. A change without a range
// replaces the whole document.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, ch := range changes {
		if ch.Range == nil {
			text = ch.Text
			continue
		}
		start := offsetForPosition(text, ch.Range.Start)
		end := max(offsetForPosition(text, ch.Range.End), start)
		text = text[:start] + ch.Text + text[end:]
	}
	return text
}

// offsetForPosition maps a position to a byte offset. Columns count UTF-16
// units; anything past the end of a line or of the text is clamped.
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	off := 0
	for range pos.Line {
		i := strings.IndexByte(text[off:], '\n')
		if i < 0 {
			return len(text)
		}
		off += i + 1
	}
	for units := 0; off < len(text) && text[off] != '\n'; {
		r, size := utf8.DecodeRuneInString(text[off:])
		w := utf16Len(r)
		if units+w > pos.Character {
			break
		}
		units += w
		off += size
	}
	return off
}

// positionForOffset is the inverse of offsetForPosition.
func positionForOffset(text []byte, off int) position {
	head := text[:min(max(off, 0), len(text))]
	pos := position{Line: bytes.Count(head, []byte{'\n'})}
	for _, r := range string(head[bytes.LastIndexByte(head, '\n')+1:]) {
		pos.Character += utf16Len(r)
	}
	return pos
}

// utf16Len считает невалидные байты за одну единицу, как редакторы.
func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
