package llvm

import (
	llir "github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"
)

type builtinDecl struct {
	name   string
	ret    lltypes.Type
	params []lltypes.Type
}

// runtimeDecls lists the functions of the viper runtime library and the few
// libc/libm functions generated code calls.
func runtimeDecls() []builtinDecl {
	return []builtinDecl{
		{name: "viper_print_i64", ret: lltypes.Void, params: []lltypes.Type{lltypes.I64}},
		{name: "viper_print_f64", ret: lltypes.Void, params: []lltypes.Type{lltypes.Double}},
		{name: "viper_print_str", ret: lltypes.Void, params: []lltypes.Type{lltypes.I8Ptr}},
		{name: "viper_print_bool", ret: lltypes.Void, params: []lltypes.Type{lltypes.I32}},
		{name: "viper_str_concat", ret: lltypes.I8Ptr, params: []lltypes.Type{lltypes.I8Ptr, lltypes.I8Ptr}},
		{name: "viper_str_cmp", ret: lltypes.I32, params: []lltypes.Type{lltypes.I8Ptr, lltypes.I8Ptr}},
		{name: "viper_ipow", ret: lltypes.I64, params: []lltypes.Type{lltypes.I64, lltypes.I64}},
		{name: "viper_ifloordiv", ret: lltypes.I64, params: []lltypes.Type{lltypes.I64, lltypes.I64}},
		{name: "viper_imod", ret: lltypes.I64, params: []lltypes.Type{lltypes.I64, lltypes.I64}},
		{name: "viper_ffloordiv", ret: lltypes.Double, params: []lltypes.Type{lltypes.Double, lltypes.Double}},
		{name: "viper_fmod", ret: lltypes.Double, params: []lltypes.Type{lltypes.Double, lltypes.Double}},
		{name: "pow", ret: lltypes.Double, params: []lltypes.Type{lltypes.Double, lltypes.Double}},
	}
}

// runtime declares a runtime function on first use.
func (e *Emitter) runtime(name string) *llir.Func {
	if f, ok := e.runtimeFns[name]; ok {
		return f
	}
	for _, d := range runtimeDecls() {
		if d.name != name {
			continue
		}
		params := make([]*llir.Param, len(d.params))
		for i, p := range d.params {
			params[i] = llir.NewParam("", p)
		}
		f := e.mod.NewFunc(name, d.ret, params...)
		e.runtimeFns[name] = f
		return f
	}
	panic("llvm: unknown runtime function " + name)
}
