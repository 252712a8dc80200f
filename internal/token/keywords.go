package token

var keywords = map[string]Kind{
	"def":      KwDef,
	"return":   KwReturn,
	"if":       KwIf,
	"elif":     KwElif,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"in":       KwIn,
	"pass":     KwPass,
	"break":    KwBreak,
	"continue": KwContinue,
	"class":    KwClass,
	"import":   KwImport,
	"from":     KwFrom,
	"as":       KwAs,
	"and":      KwAnd,
	"or":       KwOr,
	"not":      KwNot,
	"True":     KwTrue,
	"False":    KwFalse,
	"None":     KwNone,
	"is":       KwIs,
	"lambda":   KwLambda,
	"global":   KwGlobal,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Keywords are case sensitive, as in Python.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
