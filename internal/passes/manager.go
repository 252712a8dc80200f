package passes

import (
	"context"
	"fmt"

	"viper/internal/diag"
	"viper/internal/ir"
	"viper/internal/trace"
)

// Options configures a Manager.
type Options struct {
	Reporter diag.Reporter
	// SkipApplied drops passes the module has already been through. The
	// driver uses it for a backend's prerequisite list.
	SkipApplied bool
}

// PassError is an internal failure inside a pass, or a module that no longer
// verifies after it.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %s: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }

// Manager runs an ordered list of passes.
type Manager struct {
	passes []Pass
	opts   Options
}

// NewManager resolves names (canonical or alias) in order. An unknown name
// is a *diag.ConfigError.
func NewManager(names []string, opts Options) (*Manager, error) {
	mgr := &Manager{opts: opts}
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			return nil, &diag.ConfigError{Option: "pass", Value: name, Valid: Names()}
		}
		mgr.passes = append(mgr.passes, p)
	}
	return mgr, nil
}

// Names returns the canonical names the manager will run.
func (mgr *Manager) Names() []string {
	out := make([]string, 0, len(mgr.passes))
	for _, p := range mgr.passes {
		out = append(out, p.Name())
	}
	return out
}

// Len returns the number of passes.
func (mgr *Manager) Len() int { return len(mgr.passes) }

// Run applies the passes to m in order and verifies m after each of them.
// The Result fails when a pass reported an error diagnostic; a *PassError is
// returned for internal failures and verification failures.
func (mgr *Manager) Run(ctx context.Context, m *ir.Module) (diag.Result[*ir.Module], error) {
	counter := &diag.CountingReporter{Next: mgr.opts.Reporter}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID
	for _, p := range mgr.passes {
		name := p.Name()
		if mgr.opts.SkipApplied && m.WasApplied(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return diag.Result[*ir.Module]{Value: m}, err
		}
		span := trace.Begin(tracer, trace.ScopePass, "pass "+name, parent)
		if err := p.Run(ctx, m, counter); err != nil {
			span.End("failed")
			return diag.Result[*ir.Module]{Value: m}, &PassError{Pass: name, Err: err}
		}
		if err := ir.Verify(m); err != nil {
			span.End("verify failed")
			return diag.Result[*ir.Module]{Value: m}, &PassError{Pass: name, Err: err}
		}
		m.Applied = append(m.Applied, name)
		span.End(fmt.Sprintf("funcs=%d", len(m.Funcs)))
		if counter.Errors > 0 {
			break
		}
	}
	return diag.FromCounter(counter, m), nil
}
