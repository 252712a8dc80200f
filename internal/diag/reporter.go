package diag

import "viper/internal/source"

// Reporter: минимальный контракт получения диагностик от фаз.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note)
}

// Pending is a diagnostic being assembled. Nothing reaches the reporter
// until Emit; a second Emit is a no-op.
type Pending struct {
	to   Reporter
	d    Diagnostic
	sent bool
}

// ReportError starts an error diagnostic.
func ReportError(r Reporter, code Code, primary source.Span, msg string) *Pending {
	return &Pending{to: r, d: Diagnostic{Severity: SevError, Code: code, Message: msg, Primary: primary}}
}

func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *Pending {
	return &Pending{to: r, d: Diagnostic{Severity: SevWarning, Code: code, Message: msg, Primary: primary}}
}

// WithNote attaches a secondary span.
func (p *Pending) WithNote(sp source.Span, msg string) *Pending {
	p.d.Notes = append(p.d.Notes, Note{Span: sp, Msg: msg})
	return p
}

func (p *Pending) Emit() {
	if p.sent || p.to == nil {
		return
	}
	p.sent = true
	p.to.Report(p.d.Code, p.d.Severity, p.d.Primary, p.d.Message, p.d.Notes)
}

// BagReporter пишет прямо в Bag; nil Bag глотает всё.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if r.Bag != nil {
		r.Bag.Add(Diagnostic{Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes})
	}
}

// CountingReporter counts errors on their way to Next, so a stage can tell
// whether it failed without scanning the bag.
type CountingReporter struct {
	Next   Reporter
	Errors int
}

func (r *CountingReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note) {
	if sev == SevError {
		r.Errors++
	}
	if r.Next != nil {
		r.Next.Report(code, sev, primary, msg, notes)
	}
}

type NopReporter struct{}

func (NopReporter) Report(Code, Severity, source.Span, string, []Note) {}
