package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "PHASE", "detail", "Debug"} {
		l, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if !strings.EqualFold(l.String(), s) {
			t.Errorf("ParseLevel(%q) = %s", s, l)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("want an error for an unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeModule) {
		t.Error("phase must stop at pass scope")
	}
	if !LevelDebug.ShouldEmit(ScopeNode) {
		t.Error("debug must emit node scope")
	}
	if LevelError.ShouldEmit(ScopeDriver) {
		t.Error("error level streams nothing")
	}
}

func TestRingWrapsOldestFirst(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeDriver, Name: name})
	}
	snap := r.Snapshot()
	if len(snap) != 3 || r.Len() != 3 {
		t.Fatalf("len = %d", len(snap))
	}
	var names []string
	for _, ev := range snap {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ""); got != "cde" {
		t.Fatalf("snapshot = %s, want cde", got)
	}
	if snap[0].Seq >= snap[1].Seq {
		t.Errorf("sequence numbers must grow")
	}
}

func TestStartNestsSpans(t *testing.T) {
	r := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), r)
	ctx, outer := Start(ctx, ScopeDriver, "compile")
	_, inner := Start(ctx, ScopePass, "parse")
	inner.WithExtra("tokens", "12").End("ok")
	outer.End("")

	evs := r.Snapshot()
	if len(evs) != 4 {
		t.Fatalf("got %d events", len(evs))
	}
	if evs[1].ParentID != outer.ID() || evs[1].Name != "parse" {
		t.Errorf("inner span not parented: %+v", evs[1])
	}
	if evs[2].Kind != KindSpanEnd || evs[2].Extra["tokens"] != "12" || evs[2].Detail != "ok" {
		t.Errorf("end event = %+v", evs[2])
	}
}

func TestDisabledSpansAreInert(t *testing.T) {
	s := Begin(Nop, ScopeDriver, "x", 0)
	if s.ID() != 0 || s.End("") != 0 {
		t.Fatal("span on a disabled tracer must be inert")
	}
	var nilSpan *Span
	nilSpan.WithExtra("k", "v").End("")

	r := NewRingTracer(4, LevelPhase)
	Begin(r, ScopeNode, "fn", 0).End("")
	if r.Len() != 0 {
		t.Fatal("node scope must be filtered at phase level")
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelDebug, FormatChrome)
	ctx := WithTracer(context.Background(), st)
	ctx, s := Start(ctx, ScopeDriver, "build")
	Point(ctx, ScopeDriver, "state", "Parsed")
	s.End("done")
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome trace: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 3 || doc.TraceEvents[0]["ph"] != "B" || doc.TraceEvents[1]["ph"] != "i" {
		t.Fatalf("events = %v", doc.TraceEvents)
	}
}

func TestFormatAutoFromPath(t *testing.T) {
	cases := map[string]Format{
		"out.ndjson": FormatNDJSON,
		"out.json":   FormatChrome,
		"out.txt":    FormatText,
		"-":          FormatText,
	}
	for path, want := range cases {
		if got := formatFor(FormatAuto, path); got != want {
			t.Errorf("formatFor(%q) = %s, want %s", path, got, want)
		}
	}
	if formatFor(FormatNDJSON, "x.json") != FormatNDJSON {
		t.Error("explicit format must win")
	}
}

func TestTextFormatSortsExtra(t *testing.T) {
	ev := &Event{Kind: KindSpanEnd, Name: "pass", Detail: "ok", Extra: map[string]string{"b": "2", "a": "1"}}
	line := string(FormatEvent(ev, FormatText))
	if !strings.Contains(line, "← pass (ok) {a=1, b=2}") {
		t.Fatalf("line = %q", line)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if RingOf(tr) == nil {
		t.Fatal("both mode must expose its ring")
	}
}
