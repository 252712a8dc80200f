package diag

import (
	"viper/internal/source"
)

// Note is a secondary span with its own message ("declared here").
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one leveled finding tied to a primary span.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool {
	return d.Severity >= SevError
}
