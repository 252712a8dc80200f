package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Layout
	Newline
	Indent
	Dedent

	// Ident represents an identifier token.
	Ident
	IntLit
	FloatLit
	StringLit

	KwDef
	KwReturn
	KwIf
	KwElif
	KwElse
	KwWhile
	KwFor
	KwIn
	KwPass
	KwBreak
	KwContinue
	KwClass
	KwImport
	KwFrom
	KwAs
	KwAnd
	KwOr
	KwNot
	KwTrue
	KwFalse
	KwNone
	KwIs
	KwLambda
	KwGlobal

	Plus          // +
	Minus         // -
	Star          // *
	StarStar      // **
	Slash         // /
	SlashSlash    // //
	Percent       // %
	At            // @
	Amp           // &
	Pipe          // |
	Caret         // ^
	Tilde         // ~
	Shl           // <<
	Shr           // >>
	Lt            // <
	Gt            // >
	LtEq          // <=
	GtEq          // >=
	EqEq          // ==
	BangEq        // !=
	Assign        // =
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	FloorAssign   // //=
	PercentAssign // %=
	LParen        // (
	RParen        // )
	LBracket      // [
	RBracket      // ]
	LBrace        // {
	RBrace        // }
	Comma         // ,
	Colon         // :
	Dot           // .
	Semicolon     // ;
	Arrow         // ->

	kindCount
)

var kindNames = [...]string{
	Invalid:       "INVALID",
	EOF:           "EOF",
	Newline:       "NEWLINE",
	Indent:        "INDENT",
	Dedent:        "DEDENT",
	Ident:         "NAME",
	IntLit:        "INTEGER",
	FloatLit:      "REAL",
	StringLit:     "STRING",
	KwDef:         "def",
	KwReturn:      "return",
	KwIf:          "if",
	KwElif:        "elif",
	KwElse:        "else",
	KwWhile:       "while",
	KwFor:         "for",
	KwIn:          "in",
	KwPass:        "pass",
	KwBreak:       "break",
	KwContinue:    "continue",
	KwClass:       "class",
	KwImport:      "import",
	KwFrom:        "from",
	KwAs:          "as",
	KwAnd:         "and",
	KwOr:          "or",
	KwNot:         "not",
	KwTrue:        "True",
	KwFalse:       "False",
	KwNone:        "None",
	KwIs:          "is",
	KwLambda:      "lambda",
	KwGlobal:      "global",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	StarStar:      "**",
	Slash:         "/",
	SlashSlash:    "//",
	Percent:       "%",
	At:            "@",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	Tilde:         "~",
	Shl:           "<<",
	Shr:           ">>",
	Lt:            "<",
	Gt:            ">",
	LtEq:          "<=",
	GtEq:          ">=",
	EqEq:          "==",
	BangEq:        "!=",
	Assign:        "=",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	FloorAssign:   "//=",
	PercentAssign: "%=",
	LParen:        "(",
	RParen:        ")",
	LBracket:      "[",
	RBracket:      "]",
	LBrace:        "{",
	RBrace:        "}",
	Comma:         ",",
	Colon:         ":",
	Dot:           ".",
	Semicolon:     ";",
	Arrow:         "->",
}

func (k Kind) String() string {
	if k < kindCount && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Class groups kinds for the token dump.
type Class uint8

const (
	ClassLayout Class = iota
	ClassName
	ClassLiteral
	ClassKeyword
	ClassOperator
)

// Class returns the dump category of the kind.
func (k Kind) Class() Class {
	switch {
	case k <= Dedent:
		return ClassLayout
	case k == Ident:
		return ClassName
	case k <= StringLit:
		return ClassLiteral
	case k <= KwGlobal:
		return ClassKeyword
	default:
		return ClassOperator
	}
}
