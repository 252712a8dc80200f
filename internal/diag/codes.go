package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo               Code = 1000
	LexUnknownChar        Code = 1001
	LexUnterminatedString Code = 1002
	LexBadNumber          Code = 1003
	LexBadIndent          Code = 1004
	LexTabsAndSpaces      Code = 1005
	LexBadEscape          Code = 1006
	LexUnbalancedBracket  Code = 1007

	// Парсерные
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynExpectExpression  Code = 2002
	SynExpectIdentifier  Code = 2003
	SynExpectColon       Code = 2004
	SynExpectIndent      Code = 2005
	SynExpectNewline     Code = 2006
	SynUnclosedParen     Code = 2007
	SynUnclosedBracket   Code = 2008
	SynExpectType        Code = 2009
	SynBadParamOrder     Code = 2010
	SynBadAssignTarget   Code = 2011
	SynDecoratorTarget   Code = 2012
	SynTooManyErrors     Code = 2013
	SynExpectIn          Code = 2014
	SynDuplicateParam    Code = 2015
	SynPositionalAfterKw Code = 2016

	// Разрешение имён
	SemaUndefinedName     Code = 3001
	SemaRedeclared        Code = 3002
	SemaUnknownType       Code = 3003
	SemaNotCallable       Code = 3004
	SemaUnknownField      Code = 3005
	SemaUnknownKeyword    Code = 3006
	SemaBreakOutsideLoop  Code = 3007
	SemaReturnOutsideFunc Code = 3008
	SemaUnknownModule     Code = 3009
	SemaNameInfo          Code = 3099

	// Типы
	SemaTypeMismatch      Code = 3100
	SemaArgCount          Code = 3101
	SemaBadOperand        Code = 3102
	SemaNotIndexable      Code = 3103
	SemaBadCondition      Code = 3104
	SemaVariadicParam     Code = 3105
	SemaBadReturn         Code = 3106
	SemaMissingAnnotation Code = 3107
	SemaArrayLength       Code = 3108
	SemaBadIterable       Code = 3109
	SemaUnsupported       Code = 3110
	SemaIntLiteralRange   Code = 3111
	SemaBadCast           Code = 3112
	SemaUnusedValue       Code = 3190
	SemaShadowing         Code = 3191

	// IO
	IOLoadFileError Code = 4001

	// Кодогенерация
	GenUnsupported   Code = 5001
	GenBadType       Code = 5002
	GenTooManyArgs   Code = 5003
	GenInternalLimit Code = 5004

	// Проходы
	PassInfo         Code = 6000
	PassCannotInline Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexInfo:               "Lexical information",
	LexUnknownChar:        "Unknown character",
	LexUnterminatedString: "Unterminated string literal",
	LexBadNumber:          "Malformed number literal",
	LexBadIndent:          "Unindent does not match any outer indentation level",
	LexTabsAndSpaces:      "Inconsistent use of tabs and spaces in indentation",
	LexBadEscape:          "Invalid escape sequence",
	LexUnbalancedBracket:  "Unbalanced bracket",
	SynInfo:               "Syntax information",
	SynUnexpectedToken:    "Unexpected token",
	SynExpectExpression:   "Expect expression",
	SynExpectIdentifier:   "Expect identifier",
	SynExpectColon:        "Expect colon",
	SynExpectIndent:       "Expect an indented block",
	SynExpectNewline:      "Expect end of line",
	SynUnclosedParen:      "Unclosed parenthesis",
	SynUnclosedBracket:    "Unclosed bracket",
	SynExpectType:         "Expect type annotation",
	SynBadParamOrder:      "Invalid parameter order",
	SynBadAssignTarget:    "Cannot assign to expression",
	SynDecoratorTarget:    "Decorator must precede a function definition",
	SynTooManyErrors:      "Too many syntax errors",
	SynExpectIn:           "Expect 'in' in for statement",
	SynDuplicateParam:     "Duplicate parameter name",
	SynPositionalAfterKw:  "Positional argument follows keyword argument",
	SemaUndefinedName:     "Undefined name",
	SemaRedeclared:        "Ambiguous redeclaration",
	SemaUnknownType:       "Unknown type",
	SemaNotCallable:       "Object is not callable",
	SemaUnknownField:      "Unknown field",
	SemaUnknownKeyword:    "Unexpected keyword argument",
	SemaBreakOutsideLoop:  "'break' or 'continue' outside loop",
	SemaReturnOutsideFunc: "'return' outside function",
	SemaUnknownModule:     "Unknown module",
	SemaNameInfo:          "Name resolution information",
	SemaTypeMismatch:      "Type mismatch",
	SemaArgCount:          "Wrong number of arguments",
	SemaBadOperand:        "Unsupported operand type",
	SemaNotIndexable:      "Value is not indexable",
	SemaBadCondition:      "Condition must be bool",
	SemaVariadicParam:     "Variadic parameters are not supported",
	SemaBadReturn:         "Invalid return value",
	SemaMissingAnnotation: "Missing type annotation",
	SemaArrayLength:       "Array length mismatch",
	SemaBadIterable:       "Value is not iterable",
	SemaUnsupported:       "Unsupported construct",
	SemaIntLiteralRange:   "Integer literal out of range",
	SemaBadCast:           "Invalid conversion",
	SemaUnusedValue:       "Expression value is unused",
	SemaShadowing:         "Name shadows an outer declaration",
	IOLoadFileError:       "I/O load file error",
	GenUnsupported:        "Construct not supported by this backend",
	GenBadType:            "Type not supported by this backend",
	GenTooManyArgs:        "Too many arguments for this backend",
	GenInternalLimit:      "Backend limit exceeded",
	PassInfo:              "Pass information",
	PassCannotInline:      "Function cannot be inlined",
}

// ID returns the stable string form, e.g. SEM3001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("GEN%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PAS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return "Unknown error"
}

func (c Code) String() string {
	return c.ID()
}

// Class is the user-facing error category a code belongs to.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassLex
	ClassParse
	ClassNameResolution
	ClassType
	ClassIO
	ClassBackend
	ClassPass
)

func (c Code) Class() Class {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return ClassLex
	case ic >= 2000 && ic < 3000:
		return ClassParse
	case ic >= 3000 && ic < 3100:
		return ClassNameResolution
	case ic >= 3100 && ic < 4000:
		return ClassType
	case ic >= 4000 && ic < 5000:
		return ClassIO
	case ic >= 5000 && ic < 6000:
		return ClassBackend
	case ic >= 6000 && ic < 7000:
		return ClassPass
	}
	return ClassUnknown
}

func (c Class) String() string {
	switch c {
	case ClassLex:
		return "LexError"
	case ClassParse:
		return "ParseError"
	case ClassNameResolution:
		return "NameResolutionError"
	case ClassType:
		return "TypeError"
	case ClassIO:
		return "IOError"
	case ClassBackend:
		return "BackendError"
	case ClassPass:
		return "PassError"
	}
	return "Error"
}
