// Package driver sequences the compiler stages for one source file and
// exposes the stage-selection entry points used by cmd/viper.
//
// Every entry point has the shape
//
//	func(ctx, env, path, opts, out) ExitCode
//
// Artifacts go to out; diagnostics, configuration errors and internal
// compiler errors go to env.Stderr. Options are validated before any stage
// runs, so a bad --backend never leaves a half-written output behind.
package driver

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"viper/internal/backend"
	"viper/internal/toolchain"
	"viper/internal/trace"
	"viper/internal/version"
)

// Env is the process-wide context built once in main.
type Env struct {
	ExeDir        string
	RuntimeDir    string // where the runtime archive is built and linked from
	Platform      string
	DefaultTarget string
	CC            string // from VIPER_CC

	Runner   toolchain.Runner
	Stdout   io.Writer
	Stderr   io.Writer
	Ring     *trace.RingTracer // dumped after an internal compiler error
	Progress ProgressSink      // optional
}

// ringSize keeps the last few stages and passes of every unit.
const ringSize = 512

// NewEnv inspects the running executable and the environment.
// VIPER_RUNTIME_DIR and VIPER_CC override the defaults.
func NewEnv() *Env {
	env := &Env{
		Platform:      version.Platform(),
		DefaultTarget: HostTriple(),
		CC:            toolchain.DefaultCC,
		Runner:        toolchain.ExecRunner{Stdout: os.Stdout},
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Ring:          trace.NewRingTracer(ringSize, trace.LevelPhase),
	}
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		env.ExeDir = filepath.Dir(exe)
	}
	if cc := os.Getenv("VIPER_CC"); cc != "" {
		env.CC = cc
	}
	env.RuntimeDir = os.Getenv("VIPER_RUNTIME_DIR")
	if env.RuntimeDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(env.ExeDir, "..", "share")
		}
		env.RuntimeDir = filepath.Join(base, "viper", version.Version, "runtime")
	}
	return env
}

// HostTriple maps GOOS/GOARCH onto one of backend.Targets, falling back to
// backend.DefaultTriple.
func HostTriple() string {
	hosts := map[string]string{
		"linux/amd64":   "x86_64-pc-linux-gnu",
		"linux/arm64":   "aarch64-unknown-linux-gnu",
		"linux/riscv64": "riscv64-unknown-linux-gnu",
		"darwin/amd64":  "x86_64-apple-darwin",
		"darwin/arm64":  "aarch64-apple-darwin",
		"windows/amd64": "x86_64-pc-windows-msvc",
	}
	if t, ok := hosts[runtime.GOOS+"/"+runtime.GOARCH]; ok {
		return t
	}
	return backend.DefaultTriple
}

// cc returns the C compiler for opts: --cc, then VIPER_CC, then "cc".
func (env *Env) cc(ccOpt string) string {
	if ccOpt != "" {
		return ccOpt
	}
	if env.CC != "" {
		return env.CC
	}
	return toolchain.DefaultCC
}

func (env *Env) runtimeDir(dirOpt string) string {
	if dirOpt != "" {
		return dirOpt
	}
	return env.RuntimeDir
}

// withStreams returns a copy of env writing to other streams; CompileAll
// gives every unit its own buffers.
func (env *Env) withStreams(stdout, stderr io.Writer) *Env {
	cp := *env
	cp.Stdout, cp.Stderr = stdout, stderr
	return &cp
}
