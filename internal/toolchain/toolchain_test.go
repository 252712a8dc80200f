package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// fakeRunner records command lines and fails the ones whose program name is
// listed in fail.
type fakeRunner struct {
	calls [][]string
	fail  map[string]int
}

func (f *fakeRunner) Run(_ context.Context, argv []string) (int, string, error) {
	f.calls = append(f.calls, slices.Clone(argv))
	if code, ok := f.fail[argv[0]]; ok {
		return code, argv[0] + ": boom", nil
	}
	return 0, "", nil
}

func TestLinkCommand(t *testing.T) {
	got := LinkCommand(LinkConfig{
		Output:     "a.out",
		Objects:    []string{"x.o", "y.o"},
		RuntimeDir: "/rt",
	})
	want := []string{"cc", "-o", "a.out", "x.o", "y.o", "-L/rt", "-Wl,-rpath,/rt", "-lviper_runtime", "-lm"}
	if !slices.Equal(got, want) {
		t.Fatalf("LinkCommand = %v\nwant %v", got, want)
	}
}

func TestLinkCommandStaticOpenMP(t *testing.T) {
	got := LinkCommand(LinkConfig{CC: "gcc", Output: "p", Objects: []string{"p.o"}, RuntimeDir: "rt", Static: true, OpenMP: true})
	want := []string{"gcc", "-static", "-fopenmp", "-o", "p", "p.o", "-Lrt", "-Wl,-rpath,rt", "-lviper_runtime_static", "-lm"}
	if !slices.Equal(got, want) {
		t.Fatalf("LinkCommand = %v\nwant %v", got, want)
	}
}

func TestLinkFailureCarriesCommandLine(t *testing.T) {
	r := &fakeRunner{fail: map[string]int{"cc": 1}}
	err := Link(context.Background(), r, LinkConfig{Output: "a.out", Objects: []string{"m.o"}, RuntimeDir: "rt"})
	var ext *ExternalToolError
	if !errors.As(err, &ext) {
		t.Fatalf("want *ExternalToolError, got %v", err)
	}
	if ext.Exit != 1 || !strings.Contains(err.Error(), "cc -o a.out m.o") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileIRFallsBackToClang(t *testing.T) {
	r := &fakeRunner{fail: map[string]int{"llc": 2}}
	if err := CompileIR(context.Background(), r, "m.ll", "m.o", "x86_64-pc-linux-gnu", true); err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 2 || r.calls[0][0] != "llc" || r.calls[1][0] != "clang" {
		t.Fatalf("calls = %v", r.calls)
	}
	if !slices.Contains(r.calls[0], "-O3") || !slices.Contains(r.calls[1], "--target=x86_64-pc-linux-gnu") {
		t.Errorf("flags missing: %v", r.calls)
	}
}

func TestCompileIRReportsLLCFailure(t *testing.T) {
	r := &fakeRunner{fail: map[string]int{"llc": 2, "clang": 1}}
	err := CompileIR(context.Background(), r, "m.ll", "m.o", "", false)
	var ext *ExternalToolError
	if !errors.As(err, &ext) || ext.Argv[0] != "llc" {
		t.Fatalf("want the llc failure, got %v", err)
	}
}

func TestCompileSource(t *testing.T) {
	r := &fakeRunner{}
	if err := CompileSource(context.Background(), r, "", "m.c", "m.o", false); err != nil {
		t.Fatal(err)
	}
	if err := CompileSource(context.Background(), r, "clang", "m.s", "m.o", true); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(r.calls[0], []string{"cc", "-c", "-std=c11", "m.c", "-o", "m.o"}) {
		t.Errorf("C compile = %v", r.calls[0])
	}
	if !slices.Equal(r.calls[1], []string{"clang", "-c", "-O3", "m.s", "-o", "m.o"}) {
		t.Errorf("asm compile = %v", r.calls[1])
	}
}

func TestEnsureRuntimeBuildsOnce(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{}
	lib, err := EnsureRuntime(context.Background(), r, dir, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if lib != filepath.Join(dir, "libviper_runtime.a") {
		t.Errorf("lib = %q", lib)
	}
	if _, err := os.Stat(filepath.Join(dir, "viper_runtime.c")); err != nil {
		t.Errorf("sources not extracted: %v", err)
	}
	last := r.calls[len(r.calls)-1]
	if last[0] != "ar" || last[1] != "rcs" || last[2] != lib {
		t.Errorf("archive step = %v", last)
	}
	if !slices.Contains(r.calls[0], "-fPIC") {
		t.Errorf("shared runtime objects must be position independent: %v", r.calls[0])
	}

	// the fake runner never creates the archive, so pretend ar did
	if err := os.WriteFile(lib, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	r.calls = nil
	if _, err := EnsureRuntime(context.Background(), r, dir, "", false); err != nil {
		t.Fatal(err)
	}
	if len(r.calls) != 0 {
		t.Errorf("existing archive rebuilt: %v", r.calls)
	}
}

func TestExecRunnerReportsExitStatus(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	var echo strings.Builder
	r := ExecRunner{Echo: &echo}
	exit, stderr, err := r.Run(context.Background(), []string{"/bin/sh", "-c", "echo oops >&2; exit 3"})
	if err != nil {
		t.Fatal(err)
	}
	if exit != 3 || strings.TrimSpace(stderr) != "oops" {
		t.Errorf("exit=%d stderr=%q", exit, stderr)
	}
	if !strings.HasPrefix(echo.String(), "/bin/sh -c") {
		t.Errorf("echo = %q", echo.String())
	}
}
