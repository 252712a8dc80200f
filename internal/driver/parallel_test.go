package driver

import (
	"context"
	"strings"
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func TestCompileAllKeepsInputOrder(t *testing.T) {
	te := newTestEnv(t)
	sink := &recordingSink{}
	te.Progress = sink
	paths := []string{
		writeSource(t, "a.py", "alpha = 1\n"),
		writeSource(t, "b.py", "beta = $\n"),
		writeSource(t, "c.py", "gamma = 3\n"),
	}
	opts := testOptions()
	opts.Jobs = 4

	code := CompileAll(context.Background(), te.Env, paths, opts, Entry(EmitTokens))
	if code != ExitLex {
		t.Fatalf("exit = %d", code)
	}
	out := te.out.String()
	a, b, c := strings.Index(out, `"alpha"`), strings.Index(out, `"beta"`), strings.Index(out, `"gamma"`)
	if a < 0 || b < a || c < b {
		t.Fatalf("output out of order:\n%s", out)
	}
	if !strings.Contains(te.errs.String(), "b.py") {
		t.Errorf("stderr = %s", te.errs)
	}

	final := map[string]Status{}
	for _, ev := range sink.events {
		final[ev.File] = ev.Status
	}
	if final[paths[0]] != StatusDone || final[paths[1]] != StatusError || final[paths[2]] != StatusDone {
		t.Errorf("final statuses = %v", final)
	}
}

func TestCompileAllSequential(t *testing.T) {
	te := newTestEnv(t)
	paths := []string{writeSource(t, "a.py", hello), writeSource(t, "b.py", hello)}
	if code := CompileAll(context.Background(), te.Env, paths, testOptions(), Entry(EmitIR)); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, te.errs)
	}
	if n := strings.Count(te.out.String(), "(Module"); n != 2 {
		t.Errorf("modules printed = %d\n%s", n, te.out)
	}
}

func TestCompileAllRejectsBadOptions(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	opts.Jobs = -1
	opts.Backend = "nope"
	if code := CompileAll(context.Background(), te.Env, []string{"x.py"}, opts, Entry(EmitAST)); code != ExitConfig {
		t.Fatalf("exit = %d", code)
	}
}
