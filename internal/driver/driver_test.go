package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"viper/internal/config"
	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/modfile"
	"viper/internal/trace"
)

// fakeRunner records every command; fail decides the exit status.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fail  func(argv []string) int
}

func (r *fakeRunner) Run(_ context.Context, argv []string) (int, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, slices.Clone(argv))
	if r.fail != nil {
		if code := r.fail(argv); code != 0 {
			return code, "boom: " + argv[0] + " failed", nil
		}
	}
	return 0, "", nil
}

func (r *fakeRunner) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

type testEnv struct {
	*Env
	out, errs *bytes.Buffer
	runner    *fakeRunner
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	var out, errs bytes.Buffer
	r := &fakeRunner{}
	env := &Env{
		Platform:      "test/amd64",
		DefaultTarget: "x86_64-pc-linux-gnu",
		CC:            "cc",
		RuntimeDir:    filepath.Join(t.TempDir(), "rt"),
		Runner:        r,
		Stdout:        &out,
		Stderr:        &errs,
		Ring:          trace.NewRingTracer(64, trace.LevelPhase),
	}
	return testEnv{Env: env, out: &out, errs: &errs, runner: r}
}

func writeSource(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testOptions() config.Options {
	opts := config.Default()
	opts.Target = "x86_64-pc-linux-gnu"
	return opts
}

const hello = `def main() -> None:
    x: i32 = 6
    print(x * 7)

main()
`

func TestEmptyFile(t *testing.T) {
	te := newTestEnv(t)
	path := writeSource(t, "empty.py", "")
	ctx := context.Background()
	for name, entry := range map[string]func(context.Context, *Env, string, config.Options, io.Writer) ExitCode{
		"tokens": EmitTokens,
		"ast":    EmitAST,
		"ir":     EmitIR,
		"c":      EmitBackendSource,
	} {
		te.errs.Reset()
		opts := testOptions()
		opts.Backend = "c"
		if code := entry(ctx, te.Env, path, opts, &bytes.Buffer{}); code != ExitOK {
			t.Errorf("%s: exit %d, stderr:\n%s", name, code, te.errs)
		}
		if te.errs.Len() != 0 {
			t.Errorf("%s: unexpected diagnostics:\n%s", name, te.errs)
		}
	}
}

func TestUndeclaredName(t *testing.T) {
	te := newTestEnv(t)
	path := writeSource(t, "undeclared.py", "def main() -> None:\n    print(y)\n\nmain()\n")
	opts := testOptions()
	opts.Backend = "c"

	u := NewUnit(te.Env, path, opts)
	ctx := context.Background()
	if u.Load(ctx, nil) && u.Parse(ctx) && u.Lower(ctx) {
		t.Fatal("lowering must fail")
	}
	if u.Exit() != ExitSemantic || u.Bag.ErrorCount() != 1 {
		t.Fatalf("exit %d, errors %v", u.Exit(), u.Bag.Items())
	}
	d := u.Bag.Items()[0]
	if d.Code != diag.SemaUndefinedName {
		t.Errorf("code = %s", d.Code.ID())
	}
	src := string(u.File.Content)
	if got := src[d.Primary.Start:d.Primary.End]; got != "y" {
		t.Errorf("span covers %q, want y", got)
	}
	for _, tr := range u.History {
		if tr.To == StatePassed || tr.To == StateGenerated {
			t.Errorf("no pass or backend may run after a semantic error: %v", u.History)
		}
	}

	var out bytes.Buffer
	if code := EmitBackendSource(ctx, te.Env, path, opts, &out); code != ExitSemantic {
		t.Fatalf("EmitBackendSource exit = %d", code)
	}
	if out.Len() != 0 {
		t.Errorf("no source may be written, got:\n%s", out.String())
	}
	if !strings.Contains(te.errs.String(), "SEM3001") {
		t.Errorf("stderr lacks the diagnostic:\n%s", te.errs)
	}
}

func TestJSONDiagnostics(t *testing.T) {
	te := newTestEnv(t)
	path := writeSource(t, "undeclared.py", "def main() -> None:\n    print(y)\n")
	opts := testOptions()
	opts.JSON = true
	if code := EmitIR(context.Background(), te.Env, path, opts, io.Discard); code != ExitSemantic {
		t.Fatalf("exit = %d", code)
	}
	var got struct {
		Errors      int `json:"errors"`
		Diagnostics []struct {
			Code  string `json:"code"`
			Class string `json:"class"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal(te.errs.Bytes(), &got); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, te.errs)
	}
	if got.Errors != 1 || len(got.Diagnostics) != 1 || got.Diagnostics[0].Code != "SEM3001" {
		t.Errorf("diagnostics = %+v", got)
	}
}

func TestLexErrorExitCode(t *testing.T) {
	te := newTestEnv(t)
	path := writeSource(t, "bad.py", "x = $\n")
	var out bytes.Buffer
	if code := EmitTokens(context.Background(), te.Env, path, testOptions(), &out); code != ExitLex {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out.String(), `"x"`) {
		t.Errorf("tokens before the error must still be printed:\n%s", out.String())
	}
}

func TestMissingFile(t *testing.T) {
	te := newTestEnv(t)
	code := EmitAST(context.Background(), te.Env, filepath.Join(t.TempDir(), "nope.py"), testOptions(), &bytes.Buffer{})
	if code != ExitIO {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(te.errs.String(), "cannot read") {
		t.Errorf("stderr = %s", te.errs)
	}
}

func TestUnknownBackendCreatesNothing(t *testing.T) {
	te := newTestEnv(t)
	path := writeSource(t, "hello.py", hello)
	opts := testOptions()
	opts.Backend = "wasm"
	opts.Output = filepath.Join(t.TempDir(), "hello.o")
	if code := CompileToObject(context.Background(), te.Env, path, opts, nil); code != ExitConfig {
		t.Fatalf("exit = %d", code)
	}
	if _, err := os.Stat(opts.Output); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output must not exist, stat: %v", err)
	}
	if len(te.runner.calls) != 0 {
		t.Errorf("no tool may run: %v", te.runner.calls)
	}
	if !strings.Contains(te.errs.String(), `invalid value "wasm" for backend`) {
		t.Errorf("stderr = %s", te.errs)
	}
}

func TestUnknownPass(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	opts.Pass = "constant_folding"
	if code := EmitIR(context.Background(), te.Env, writeSource(t, "a.py", hello), opts, &bytes.Buffer{}); code != ExitConfig {
		t.Fatalf("exit = %d", code)
	}
}

func TestSinglePassMode(t *testing.T) {
	te := newTestEnv(t)
	src := "def main() -> None:\n    for i in range(3):\n        print(i)\n\nmain()\n"
	opts := testOptions()
	opts.Pass = "loop_lowering"
	var out bytes.Buffer
	if code := EmitIR(context.Background(), te.Env, writeSource(t, "loop.py", src), opts, &out); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, te.errs)
	}
	if !strings.Contains(out.String(), "While") || strings.Contains(out.String(), "(For ") {
		t.Errorf("loop was not lowered:\n%s", out.String())
	}
}

func TestICEReport(t *testing.T) {
	for _, noBanner := range []bool{false, true} {
		te := newTestEnv(t)
		opts := testOptions()
		opts.NoErrorBanner = noBanner
		ctx := te.attach(context.Background())
		u := NewUnit(te.Env, "x.py", opts)
		u.stage(ctx, "explode", func(context.Context) bool { panic("boom") })
		if code := u.Finish(ctx); code != ExitICE {
			t.Fatalf("exit = %d", code)
		}
		report := te.errs.String()
		if strings.Contains(report, ICEBanner) == noBanner {
			t.Errorf("noBanner=%v:\n%s", noBanner, report)
		}
		if !strings.Contains(report, "InternalError: panic: boom") {
			t.Errorf("missing kind line:\n%s", report)
		}
		if !strings.Contains(report, "last trace events:") || !strings.Contains(report, "explode") {
			t.Errorf("ring dump missing:\n%s", report)
		}
	}
}

func TestICESymbolizedFrames(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	opts.ShowStacktrace = true
	u := NewUnit(te.Env, "x.py", opts)
	u.stage(context.Background(), "index", func(context.Context) bool {
		var s []int
		i := 2
		return s[i] == 0
	})
	u.Finish(context.Background())
	report := te.errs.String()
	if !strings.Contains(report, "RuntimeError:") || !strings.Contains(report, "driver_test.go") {
		t.Errorf("report:\n%s", report)
	}
}

func TestICEKinds(t *testing.T) {
	verr := &ir.VerifyError{Module: "m", Violations: []ir.Violation{{Msg: "dangling scope"}}}
	if k := newICE(verr, 0).Kind(); k != "VerificationError" {
		t.Errorf("kind = %s", k)
	}
	if k := newICE(errors.New("x"), 0).Kind(); k != "InternalError" {
		t.Errorf("kind = %s", k)
	}
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to State
		ok       bool
	}{
		{StateInit, StateTokenized, true},
		{StateVerified, StatePassed, true},
		{StatePassed, StatePassed, true},
		{StateParsed, StateTokenized, false},
		{StateTokenized, StateDone, true},
		{StateFailed, StateDone, false},
		{StateDone, StateFailed, false},
		{StateGenerated, StateFailed, true},
	}
	for _, tc := range cases {
		if got := canMove(tc.from, tc.to); got != tc.ok {
			t.Errorf("%s -> %s = %v", tc.from, tc.to, got)
		}
	}
}

func TestHistoryOfSuccessfulBuild(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	u := NewUnit(te.Env, writeSource(t, "hello.py", hello), opts)
	ctx := context.Background()
	if !u.generate(ctx, "c") {
		t.Fatalf("generate failed: %v", u.Bag.Items())
	}
	u.Finish(ctx)
	var states []State
	for _, tr := range u.History {
		states = append(states, tr.To)
	}
	want := []State{StateTokenized, StateParsed, StateLowered, StateVerified, StatePassed, StateGenerated, StateDone}
	if !slices.Equal(states, want) {
		t.Fatalf("history = %v, want %v", states, want)
	}
}

func TestTimeReport(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	opts.TimeReport = true
	if code := EmitAST(context.Background(), te.Env, writeSource(t, "a.py", hello), opts, &bytes.Buffer{}); code != ExitOK {
		t.Fatal(code)
	}
	if !strings.Contains(te.errs.String(), "timings:") || !strings.Contains(te.errs.String(), "parse") {
		t.Errorf("stderr = %s", te.errs)
	}
}

func TestSymtabOnlyWritesInterface(t *testing.T) {
	te := newTestEnv(t)
	path := writeSource(t, "geo.py", "def area(w: i32, h: i32) -> i32:\n    return w * h\n")
	opts := testOptions()
	opts.SymtabOnly = true
	if code := EmitIR(context.Background(), te.Env, path, opts, &bytes.Buffer{}); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, te.errs)
	}
	f, err := modfile.Load(modfile.PathFor(path))
	if err != nil {
		t.Fatal(err)
	}
	if f.Module != "geo" || len(f.Funcs) != 1 || f.Funcs[0].Name != "area" {
		t.Fatalf("interface = %+v", f)
	}
}

func TestDiagnoseBuffer(t *testing.T) {
	d := DiagnoseBuffer(context.Background(), "buf.py", "def f() -> i32:\n    return q\n", testOptions())
	if d.Exit != ExitSemantic || d.Bag.ErrorCount() != 1 {
		t.Fatalf("diagnosis = %+v %v", d, d.Bag.Items())
	}
	start, _ := d.FileSet.Resolve(d.Bag.Items()[0].Primary)
	if start.Line != 2 {
		t.Errorf("line = %d", start.Line)
	}
	if ok := DiagnoseBuffer(context.Background(), "ok.py", hello, testOptions()); ok.Exit != ExitOK || ok.Bag.Len() != 0 {
		t.Errorf("clean buffer: %v", ok.Bag.Items())
	}
}
