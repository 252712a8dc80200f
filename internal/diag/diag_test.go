package diag

import (
	"errors"
	"strings"
	"testing"

	"viper/internal/source"
)

func TestBagPreservesInsertionOrder(t *testing.T) {
	bag := NewBag(0)
	r := BagReporter{Bag: bag}
	ReportWarning(r, SemaShadowing, source.Span{Start: 9, End: 10}, "second").Emit()
	ReportError(r, SemaUndefinedName, source.Span{Start: 1, End: 2}, "first").Emit()
	items := bag.Items()
	if len(items) != 2 || items[0].Message != "second" || items[1].Message != "first" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if !bag.HasErrors() || bag.ErrorCount() != 1 {
		t.Fatalf("HasErrors/ErrorCount mismatch")
	}
}

func TestBagLimitNeverDropsErrors(t *testing.T) {
	bag := NewBag(1)
	bag.Add(Diagnostic{Severity: SevWarning, Code: SemaShadowing})
	if bag.Add(Diagnostic{Severity: SevWarning, Code: SemaShadowing}) {
		t.Fatalf("warning over limit accepted")
	}
	if !bag.Add(Diagnostic{Severity: SevError, Code: SemaTypeMismatch}) {
		t.Fatalf("error over limit rejected")
	}
}

func TestDropWarnings(t *testing.T) {
	bag := NewBag(0)
	bag.Add(Diagnostic{Severity: SevNote})
	bag.Add(Diagnostic{Severity: SevError})
	bag.Add(Diagnostic{Severity: SevWarning})
	bag.DropWarnings()
	if bag.Len() != 1 || bag.Items()[0].Severity != SevError {
		t.Fatalf("DropWarnings left %+v", bag.Items())
	}
}

func TestCodeClasses(t *testing.T) {
	cases := map[Code]Class{
		LexUnknownChar:     ClassLex,
		SynUnexpectedToken: ClassParse,
		SemaUndefinedName:  ClassNameResolution,
		SemaTypeMismatch:   ClassType,
		GenUnsupported:     ClassBackend,
	}
	for code, want := range cases {
		if got := code.Class(); got != want {
			t.Errorf("%s: class %s, want %s", code.ID(), got, want)
		}
	}
	if SemaUndefinedName.ID() != "SEM3001" {
		t.Fatalf("ID = %s", SemaUndefinedName.ID())
	}
}

func TestResultFailRequiresError(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnexplainedFailure) {
			t.Fatalf("recover = %v", r)
		}
	}()
	bag := NewBag(0)
	bag.Add(Diagnostic{Severity: SevWarning})
	_ = Fail(bag, 0)
}

func TestFromBag(t *testing.T) {
	bag := NewBag(0)
	if res := FromBag(bag, "x"); !res.OK {
		t.Fatalf("empty bag must be ok")
	}
	bag.Add(Diagnostic{Severity: SevError})
	if res := FromBag(bag, "x"); res.OK || res.Value != "x" {
		t.Fatalf("res = %+v", res)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Option: "backend", Value: "wasm", Valid: []string{"llvm", "c"}}
	if !strings.Contains(err.Error(), `"wasm"`) || !strings.Contains(err.Error(), "llvm, c") {
		t.Fatalf("message = %s", err.Error())
	}
}
