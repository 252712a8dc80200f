package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"viper/internal/source"
	"viper/internal/token"
)

type TokenOutput struct {
	Kind string      `json:"kind"`
	Text string      `json:"text,omitempty"`
	Span source.Span `json:"span"`
}

var tokenClassColor = map[token.Class]color.Attribute{
	token.ClassLayout:   color.FgHiBlack,
	token.ClassName:     color.FgWhite,
	token.ClassLiteral:  color.FgGreen,
	token.ClassKeyword:  color.FgMagenta,
	token.ClassOperator: color.FgYellow,
}

// FormatTokens печатает по одному токену на строку: KIND "value" first:last.
// The value is shown for names and literals only; last is the offset of the
// token's final byte (first for zero-width layout tokens). EOF is not
// printed, so an empty file dumps as nothing.
func FormatTokens(w io.Writer, tokens []token.Token, opts TokenOpts) error {
	for _, tok := range tokens {
		if tok.Kind == token.EOF {
			break
		}
		kind := tok.Kind.String()
		if opts.Color {
			c := color.New(tokenClassColor[tok.Kind.Class()])
			c.EnableColor()
			kind = c.Sprint(kind)
		}
		line := kind
		switch tok.Kind {
		case token.Ident, token.IntLit, token.FloatLit, token.StringLit:
			line += fmt.Sprintf(" %q", tok.Text)
		}
		if opts.Offsets {
			last := tok.Span.Start
			if tok.Span.End > tok.Span.Start {
				last = tok.Span.End - 1
			}
			line += fmt.Sprintf(" %d:%d", tok.Span.Start, last)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatTokensJSON выводит токены в JSON формате
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{Kind: tok.Kind.String(), Text: tok.Text, Span: tok.Span})
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
