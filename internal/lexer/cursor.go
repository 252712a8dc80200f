package lexer

import (
	"fmt"
	"unicode/utf8"

	"fortio.org/safecast"

	"viper/internal/source"
)

// Cursor walks the bytes of one file. Off never passes Limit.
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32
}

func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("%s: file too large: %w", f.Path, err))
	}
	return Cursor{File: f, Limit: limit}
}

func (c *Cursor) EOF() bool { return c.Off >= c.Limit }

// Peek returns the current byte, 0 at the end of input.
func (c *Cursor) Peek() byte { return c.PeekAt(0) }

// PeekAt смотрит на n байт вперёд; за концом файла 0.
func (c *Cursor) PeekAt(n uint32) byte {
	if n >= c.Limit-min(c.Off, c.Limit) {
		return 0
	}
	return c.File.Content[c.Off+n]
}

func (c *Cursor) Bump() byte {
	b := c.Peek()
	if !c.EOF() {
		c.Off++
	}
	return b
}

// Accept consumes seq if the input continues with it.
func (c *Cursor) Accept(seq ...byte) bool {
	for i, b := range seq {
		if c.PeekAt(uint32(i)) != b {
			return false
		}
	}
	c.Off += uint32(len(seq))
	return true
}

// PeekRune decodes the rune at the cursor. size is 0 at the end of input and
// 1 for a byte that is not valid UTF-8.
func (c *Cursor) PeekRune() (r rune, size int) {
	if c.EOF() {
		return utf8.RuneError, 0
	}
	if b := c.Peek(); b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(c.File.Content[c.Off:c.Limit])
}

func (c *Cursor) BumpRune() {
	_, size := c.PeekRune()
	c.Off += uint32(size) //nolint:gosec // size <= utf8.UTFMax
}

// Mark is a saved offset; SpanFrom turns it into the span read since.
type Mark uint32

func (c *Cursor) Mark() Mark { return Mark(c.Off) }

func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}
