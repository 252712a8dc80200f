// Package passes holds the IR-to-IR transformations and the manager that
// runs them.
//
// A pass rewrites a verified *ir.Module in place. The manager runs the
// passes in exactly the order the caller listed them, re-verifies the module
// after each one and records the pass in Module.Applied. Passes are neither
// commutative nor confluent; see the registry for the canonical names.
package passes

import (
	"context"
	"slices"

	"viper/internal/diag"
	"viper/internal/ir"
)

// Pass is one IR-to-IR transformation. Run reports user-facing findings
// through rep; a returned error is an internal failure.
type Pass interface {
	Name() string
	Run(ctx context.Context, m *ir.Module, rep diag.Reporter) error
}

// Canonical pass names.
const (
	LoopLowering        = "loop_lowering"
	ArrayOp             = "array_op"
	ArraySlice          = "array_slice"
	ImpliedLoops        = "implied_loops"
	ClassConstructor    = "class_constructor"
	PrintArr            = "print_arr"
	UnusedFunctions     = "unused_functions"
	InlineFunctionCalls = "inline_function_calls"
	GlobalStmts         = "global_stmts"
)

var registry = []Pass{
	loopLowering{},
	arrayOp{},
	arraySlice{},
	impliedLoops{},
	classConstructor{},
	printArr{},
	unusedFunctions{},
	inlineCalls{},
	globalStmts{},
}

var aliases = map[string]string{
	"do_loops":                  LoopLowering,
	"arr_slice":                 ArraySlice,
	"implied_do_loops":          ImpliedLoops,
	"dead_function_elimination": UnusedFunctions,
	"inlining":                  InlineFunctionCalls,
}

// Lookup finds a pass by canonical name or alias.
func Lookup(name string) (Pass, bool) {
	if canon, ok := aliases[name]; ok {
		name = canon
	}
	for _, p := range registry {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Names lists the canonical pass names in registration order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for _, p := range registry {
		out = append(out, p.Name())
	}
	return out
}

// Known reports whether name is a pass name or alias.
func Known(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// AllNames lists canonical names and aliases, sorted, for help output.
func AllNames() []string {
	out := Names()
	for alias := range aliases {
		out = append(out, alias)
	}
	slices.Sort(out)
	return out
}
