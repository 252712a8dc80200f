package lexer

import (
	"viper/internal/diag"
	"viper/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil: тогда ошибки игнорируем (но продолжаем лексить)
	TabSize  uint32        // tab stop for indentation; 0 means 8
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
	lx.errors++
}

func (lx *Lexer) warnLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportWarning(lx.opts.Reporter, code, sp, msg).Emit()
	}
}
