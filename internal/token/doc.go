// Package token defines lexical token kinds of the viper language.
// Invariants:
//   - Token.Text is a slice of the original source, except for identifiers,
//     which are NFKC-normalized.
//   - Token.Span covers exactly the bytes the token was scanned from.
//   - Layout tokens (Newline, Indent, Dedent) carry synthetic spans: Newline
//     covers the '\n', Indent/Dedent are zero-width at the first character of
//     the logical line.
//   - Built-in type names (i32, f64, str, ...) are identifiers. They are
//     recognized by lowering, not by the lexer.
package token
