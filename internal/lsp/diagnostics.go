package lsp

import (
	"context"

	"viper/internal/diag"
	"viper/internal/driver"
	"viper/internal/source"
)

// LSP DiagnosticSeverity values.
const (
	severityError       = 1
	severityWarning     = 2
	severityInformation = 3
)

// publish analyzes the current text of uri and sends every diagnostic that
// belongs to it.
func (s *Server) publish(ctx context.Context, uri string) error {
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	text, ver := doc.text, doc.version
	s.mu.Unlock()

	path := uriToPath(uri)
	if path == "" {
		path = uri
	}
	d := driver.DiagnoseBuffer(ctx, path, text, s.opts.Compile)
	list := convert(uri, d)

	s.mu.Lock()
	if cur, ok := s.docs[uri]; ok {
		cur.published = true
	}
	s.mu.Unlock()
	return s.sendPublish(uri, &ver, list)
}

func convert(uri string, d *driver.Diagnosis) []lspDiagnostic {
	var out []lspDiagnostic
	for _, it := range d.Bag.Items() {
		ld := lspDiagnostic{
			Range:    spanRange(d.FileSet, it.Primary),
			Severity: severityOf(it.Severity),
			Code:     it.Code.ID(),
			Source:   "viper",
			Message:  it.Message,
		}
		for _, n := range it.Notes {
			ld.RelatedInformation = append(ld.RelatedInformation, relatedInfo{
				Location: location{URI: uri, Range: spanRange(d.FileSet, n.Span)},
				Message:  n.Msg,
			})
		}
		out = append(out, ld)
	}
	if d.ICE != nil {
		out = append(out, lspDiagnostic{
			Severity: severityError,
			Source:   "viper",
			Message:  "internal compiler error: " + d.ICE.Error(),
		})
	}
	return out
}

func spanRange(fs *source.FileSet, sp source.Span) lspRange {
	f := fs.Get(sp.File)
	if f == nil {
		return lspRange{}
	}
	return lspRange{
		Start: positionForOffset(f.Content, int(sp.Start)),
		End:   positionForOffset(f.Content, int(sp.End)),
	}
}

func severityOf(s diag.Severity) int {
	switch s {
	case diag.SevError:
		return severityError
	case diag.SevWarning:
		return severityWarning
	default:
		return severityInformation
	}
}
