package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"viper/internal/diag"
	"viper/internal/passes"
)

func writeFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, `[build]
backend = "c"
passes = ["loop_lowering", "array_op"]
jobs = 4
time_report = true
`)
	sub := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	opts, path, err := Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(root, FileName) {
		t.Errorf("path = %q", path)
	}
	if opts.Backend != "c" || opts.Jobs != 4 || !opts.TimeReport || len(opts.Passes) != 2 {
		t.Errorf("opts = %+v", opts)
	}
	// untouched keys keep their defaults
	if opts.Target != Default().Target || !opts.Strict {
		t.Errorf("defaults lost: %+v", opts)
	}
	if !opts.Parallel() {
		t.Errorf("jobs=4 must be parallel")
	}
}

func TestLoadWithoutFile(t *testing.T) {
	opts, path, err := Load(t.TempDir())
	if err != nil || path != "" {
		t.Fatalf("Load = %q, %v", path, err)
	}
	if opts.Backend != Default().Backend {
		t.Errorf("opts = %+v", opts)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "[build]\nbackedn = \"c\"\n")
	if _, err := LoadFile(path, Default()); err == nil {
		t.Fatal("want an error for a misspelt key")
	}
}

func TestLoadFileRejectsBadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "[build\n")
	if _, err := LoadFile(path, Default()); err == nil {
		t.Fatal("want a parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		option string
	}{
		{"backend", func(o *Options) { o.Backend = "jvm" }, "backend"},
		{"target", func(o *Options) { o.Target = "pdp11" }, "target"},
		{"passes", func(o *Options) { o.Passes = []string{passes.LoopLowering, "fold"} }, "pass"},
		{"single pass", func(o *Options) { o.Pass = "nope" }, "pass"},
		{"jobs", func(o *Options) { o.Jobs = -2 }, "jobs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := Default()
			tc.mutate(&o)
			var cfg *diag.ConfigError
			if err := o.Validate(); !errors.As(err, &cfg) || cfg.Option != tc.option {
				t.Fatalf("Validate() = %v, want ConfigError for %s", err, tc.option)
			}
		})
	}
}

func TestValidateAcceptsAliases(t *testing.T) {
	o := Default()
	o.Backend = "cpp"
	o.Passes = []string{"do_loops", "arr_slice", "inlining"}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
}
