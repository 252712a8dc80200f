package diag

// Severity orders diagnostics; only SevError fails a stage.
type Severity uint8

const (
	SevNote Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{SevNote: "note", SevWarning: "warning", SevError: "error"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "unknown"
}
