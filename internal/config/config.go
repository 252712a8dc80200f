// Package config holds the option bundle shared by every driver entry point
// and loads it from viper.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"viper/internal/backend"
	"viper/internal/diag"
	"viper/internal/passes"
)

// FileName is the project configuration file looked up by FindFile.
const FileName = "viper.toml"

// Options configures one compiler invocation.
type Options struct {
	Target  string   `toml:"target"`
	Backend string   `toml:"backend"`
	Passes  []string `toml:"passes"`
	Strict  bool     `toml:"strict"`
	Jobs    int      `toml:"jobs"`

	// Dumps.
	Tree            bool   `toml:"tree"`
	Color           bool   `toml:"color"`
	Indent          bool   `toml:"indent"`
	ShowLineNumbers bool   `toml:"show_line_numbers"`
	JSON            bool   `toml:"json"` // tokens and diagnostics as JSON
	SymtabOnly      bool   `toml:"-"`
	Pass            string `toml:"-"` // single-pass mode

	// Diagnostics.
	NoWarnings     bool `toml:"no_warnings"`
	NoErrorBanner  bool `toml:"no_error_banner"`
	ShowStacktrace bool `toml:"show_stacktrace"`
	TimeReport     bool `toml:"time_report"`
	MaxDiagnostics int  `toml:"max_diagnostics"`

	// Linking.
	Static     bool   `toml:"static"`
	OpenMP     bool   `toml:"openmp"`
	Fast       bool   `toml:"fast"`
	Output     string `toml:"-"`
	RuntimeDir string `toml:"runtime_dir"`
	CC         string `toml:"cc"`
}

// Default returns the options used when neither a file nor a flag sets them.
func Default() Options {
	return Options{
		Target:         backend.DefaultTriple,
		Backend:        "native",
		Strict:         true,
		Jobs:           1,
		MaxDiagnostics: 100,
	}
}

// Parallel reports whether units may be compiled concurrently.
func (o Options) Parallel() bool { return o.Jobs != 1 }

// FindFile walks up from startDir looking for viper.toml.
func FindFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// fileConfig mirrors the layout of viper.toml.
type fileConfig struct {
	Build Options `toml:"build"`
}

// LoadFile overlays the [build] table of path onto base. Keys absent from the
// file keep base's values.
func LoadFile(path string, base Options) (Options, error) {
	cfg := fileConfig{Build: base}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return base, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return base, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg.Build, nil
}

// Load returns Default overlaid with the nearest viper.toml above dir, and the
// path of that file ("" when there is none).
func Load(dir string) (Options, string, error) {
	opts := Default()
	path, ok, err := FindFile(dir)
	if err != nil || !ok {
		return opts, "", err
	}
	opts, err = LoadFile(path, opts)
	return opts, path, err
}

// Validate checks option values before any stage runs. Every failure is a
// *diag.ConfigError.
func (o Options) Validate() error {
	if _, err := backend.Select(o.Backend); err != nil {
		return err
	}
	if o.Target != "" && !slices.Contains(backend.Targets(), o.Target) {
		return &diag.ConfigError{Option: "target", Value: o.Target, Valid: backend.Targets()}
	}
	names := o.Passes
	if o.Pass != "" {
		names = append(slices.Clone(names), o.Pass)
	}
	for _, name := range names {
		if _, ok := passes.Lookup(name); !ok {
			return &diag.ConfigError{Option: "pass", Value: name, Valid: passes.Names()}
		}
	}
	if o.Jobs < 0 {
		return &diag.ConfigError{Option: "jobs", Value: fmt.Sprint(o.Jobs)}
	}
	if o.MaxDiagnostics < 0 {
		return &diag.ConfigError{Option: "max-diagnostics", Value: fmt.Sprint(o.MaxDiagnostics)}
	}
	return nil
}
