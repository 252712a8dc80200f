package toolchain

import (
	"context"
	"path/filepath"
	"strings"
)

// DefaultCC is used when neither VIPER_CC nor --cc names a compiler.
const DefaultCC = "cc"

// RuntimeLib is the name of the runtime archive, as passed to -l.
const RuntimeLib = "viper_runtime"

// LinkConfig describes one link step.
type LinkConfig struct {
	CC         string
	Output     string
	Objects    []string
	RuntimeDir string
	Static     bool
	OpenMP     bool
}

// LinkCommand builds the linker command line:
//
//	cc [-static] [-fopenmp] -o OUT OBJS... -L<rtdir> -Wl,-rpath,<rtdir> -lviper_runtime[_static] -lm
func LinkCommand(cfg LinkConfig) []string {
	cc := cfg.CC
	if cc == "" {
		cc = DefaultCC
	}
	argv := []string{cc}
	if cfg.Static {
		argv = append(argv, "-static")
	}
	if cfg.OpenMP {
		argv = append(argv, "-fopenmp")
	}
	argv = append(argv, "-o", cfg.Output)
	argv = append(argv, cfg.Objects...)
	lib := RuntimeLib
	if cfg.Static {
		lib += "_static"
	}
	argv = append(argv,
		"-L"+cfg.RuntimeDir,
		"-Wl,-rpath,"+cfg.RuntimeDir,
		"-l"+lib,
		"-lm",
	)
	return argv
}

// Link runs LinkCommand(cfg).
func Link(ctx context.Context, r Runner, cfg LinkConfig) error {
	return Run(ctx, r, LinkCommand(cfg))
}

// CompileIR turns LLVM IR text at llPath into an object file. llc is tried
// first; clang is the fallback.
func CompileIR(ctx context.Context, r Runner, llPath, objPath, triple string, fast bool) error {
	llc := []string{"llc", "-filetype=obj", "-relocation-model=pic"}
	if triple != "" {
		llc = append(llc, "-mtriple="+triple)
	}
	if fast {
		llc = append(llc, "-O3")
	}
	llc = append(llc, llPath, "-o", objPath)
	llcErr := Run(ctx, r, llc)
	if llcErr == nil {
		return nil
	}
	clang := []string{"clang", "-c", "-x", "ir"}
	if triple != "" {
		clang = append(clang, "--target="+triple)
	}
	if fast {
		clang = append(clang, "-O3")
	}
	clang = append(clang, llPath, "-o", objPath)
	if err := Run(ctx, r, clang); err != nil {
		// the llc failure is usually the more useful one
		return llcErr
	}
	return nil
}

// CompileSource compiles a C or assembly file with the C compiler driver.
func CompileSource(ctx context.Context, r Runner, cc, srcPath, objPath string, fast bool) error {
	if cc == "" {
		cc = DefaultCC
	}
	argv := []string{cc, "-c"}
	if strings.EqualFold(filepath.Ext(srcPath), ".c") {
		argv = append(argv, "-std=c11")
	}
	if fast {
		argv = append(argv, "-O3")
	}
	argv = append(argv, srcPath, "-o", objPath)
	return Run(ctx, r, argv)
}
