package driver

import "viper/internal/diag"

// ExitCode is the process status of a driver entry point.
type ExitCode int

const (
	ExitOK           ExitCode = 0
	ExitLex          ExitCode = 1
	ExitParse        ExitCode = 2
	ExitSemantic     ExitCode = 3
	ExitICE          ExitCode = 4 // verification failures and recovered panics
	ExitPass         ExitCode = 5
	ExitBackend      ExitCode = 6
	ExitConfig       ExitCode = 7
	ExitIO           ExitCode = 8
	ExitExternalTool ExitCode = 10
)

func (c ExitCode) String() string {
	switch c {
	case ExitOK:
		return "ok"
	case ExitLex:
		return "lex error"
	case ExitParse:
		return "parse error"
	case ExitSemantic:
		return "semantic error"
	case ExitICE:
		return "internal compiler error"
	case ExitPass:
		return "pass error"
	case ExitBackend:
		return "backend error"
	case ExitConfig:
		return "configuration error"
	case ExitIO:
		return "i/o error"
	case ExitExternalTool:
		return "external tool failed"
	}
	return "unknown"
}

// exitForClass maps a diagnostic category to the status of the stage that
// reports it.
func exitForClass(c diag.Class) ExitCode {
	switch c {
	case diag.ClassLex:
		return ExitLex
	case diag.ClassParse:
		return ExitParse
	case diag.ClassNameResolution, diag.ClassType:
		return ExitSemantic
	case diag.ClassIO:
		return ExitIO
	case diag.ClassBackend:
		return ExitBackend
	case diag.ClassPass:
		return ExitPass
	}
	return ExitICE
}

// exitForBag uses the first error in bag, ExitOK when there is none.
func exitForBag(bag *diag.Bag) ExitCode {
	for _, d := range bag.Items() {
		if d.IsError() {
			return exitForClass(d.Code.Class())
		}
	}
	return ExitOK
}
