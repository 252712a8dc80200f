package driver

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestBuildExecutableLinks(t *testing.T) {
	te := newTestEnv(t)
	src := writeSource(t, "hello.py", hello)
	extra := filepath.Join(t.TempDir(), "helper.o")
	opts := testOptions()
	opts.Output = filepath.Join(t.TempDir(), "hello")

	if code := BuildExecutable(context.Background(), te.Env, []string{src, extra}, opts, nil); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, te.errs)
	}
	if got := te.runner.calls[0][0]; got != "llc" {
		t.Errorf("first command = %v, want llc", te.runner.calls[0])
	}
	link := te.runner.last()
	if link[0] != "cc" || !slices.Contains(link, "-lviper_runtime") || !slices.Contains(link, "-lm") {
		t.Fatalf("link = %v", link)
	}
	i := slices.Index(link, "-o")
	if i < 0 || link[i+1] != opts.Output {
		t.Fatalf("link output missing: %v", link)
	}
	if !slices.Contains(link, extra) {
		t.Errorf("non-source input not passed through: %v", link)
	}
	var archived bool
	for _, c := range te.runner.calls {
		if c[0] == "ar" {
			archived = true
		}
	}
	if !archived {
		t.Error("runtime archive was not built")
	}
}

func TestBuildExecutableStatic(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	opts.Static = true
	opts.OpenMP = true
	opts.Output = filepath.Join(t.TempDir(), "a")
	if code := BuildExecutable(context.Background(), te.Env, []string{writeSource(t, "a.py", hello)}, opts, nil); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, te.errs)
	}
	link := te.runner.last()
	for _, want := range []string{"-static", "-fopenmp", "-lviper_runtime_static"} {
		if !slices.Contains(link, want) {
			t.Errorf("link lacks %s: %v", want, link)
		}
	}
	for _, c := range te.runner.calls {
		if c[0] == "cc" && slices.Contains(c, "-c") && slices.Contains(c, "-fPIC") {
			t.Errorf("static runtime built with -fPIC: %v", c)
		}
	}
}

func TestBuildExecutableLinkFailure(t *testing.T) {
	te := newTestEnv(t)
	te.runner.fail = func(argv []string) int {
		if slices.Contains(argv, "-lm") {
			return 1
		}
		return 0
	}
	opts := testOptions()
	opts.Output = filepath.Join(t.TempDir(), "a")
	if code := BuildExecutable(context.Background(), te.Env, []string{writeSource(t, "a.py", hello)}, opts, nil); code != ExitExternalTool {
		t.Fatalf("exit = %d", code)
	}
	msg := te.errs.String()
	if !strings.Contains(msg, "command failed with exit status 1") || !strings.Contains(msg, "-lviper_runtime") {
		t.Errorf("stderr = %s", msg)
	}
}

func TestBuildExecutableStopsOnCompileError(t *testing.T) {
	te := newTestEnv(t)
	bad := writeSource(t, "bad.py", "def f() -> i32:\n    return undefined_thing\n")
	if code := BuildExecutable(context.Background(), te.Env, []string{bad}, testOptions(), nil); code != ExitSemantic {
		t.Fatalf("exit = %d", code)
	}
	if len(te.runner.calls) != 0 {
		t.Errorf("no tool may run: %v", te.runner.calls)
	}
}

func TestBuildExecutableNoInputs(t *testing.T) {
	te := newTestEnv(t)
	if code := BuildExecutable(context.Background(), te.Env, nil, testOptions(), nil); code != ExitConfig {
		t.Fatalf("exit = %d", code)
	}
}

func TestCSourceObjectUsesCC(t *testing.T) {
	te := newTestEnv(t)
	opts := testOptions()
	opts.Backend = "c"
	opts.CC = "gcc-13"
	opts.Output = filepath.Join(t.TempDir(), "x.o")
	if code := CompileToObject(context.Background(), te.Env, writeSource(t, "x.py", hello), opts, nil); code != ExitOK {
		t.Fatalf("exit = %d\n%s", code, te.errs)
	}
	cmd := te.runner.last()
	isC := func(a string) bool { return strings.HasSuffix(a, ".c") }
	if cmd[0] != "gcc-13" || !slices.ContainsFunc(cmd, isC) || !slices.Contains(cmd, "-std=c11") {
		t.Errorf("compile = %v", cmd)
	}
}

func TestOutputName(t *testing.T) {
	opts := testOptions()
	if got := OutputName("dir/geo.py", opts, ".o"); got != "geo.o" {
		t.Errorf("OutputName = %s", got)
	}
	opts.Output = "out/x.o"
	if got := OutputName("dir/geo.py", opts, ".o"); got != "out/x.o" {
		t.Errorf("OutputName = %s", got)
	}
}
