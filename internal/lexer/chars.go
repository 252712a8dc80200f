package lexer

import "unicode"

// Классы ASCII байтов для сканера имён и чисел.
const (
	charDigit uint8 = 1 << iota
	charHex
	charIdentStart
)

var asciiClass = func() (t [utf8Self]uint8) {
	for b := range utf8Self {
		switch {
		case b >= '0' && b <= '9':
			t[b] = charDigit | charHex
		case b >= 'a' && b <= 'f', b >= 'A' && b <= 'F':
			t[b] = charHex | charIdentStart
		case b >= 'g' && b <= 'z', b >= 'G' && b <= 'Z', b == '_':
			t[b] = charIdentStart
		}
	}
	return t
}()

const utf8Self = 0x80

func hasClass(b byte, c uint8) bool { return b < utf8Self && asciiClass[b]&c != 0 }

func isDec(b byte) bool { return hasClass(b, charDigit) }

func isHex(b byte) bool { return hasClass(b, charHex) }

func isIdentStartByte(b byte) bool { return hasClass(b, charIdentStart) }

func isIdentContinueByte(b byte) bool { return hasClass(b, charIdentStart|charDigit) }

func isIdentStartRune(r rune) bool { return r == '_' || unicode.IsLetter(r) }

// Combining marks may continue a name but not start one.
func isIdentContinueRune(r rune) bool {
	return isIdentStartRune(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
