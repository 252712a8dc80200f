package llvm

import (
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	"viper/internal/types"
)

func (e *Emitter) llType(id types.TypeID) lltypes.Type {
	b := e.tys.Builtins()
	switch id {
	case b.None:
		return lltypes.Void
	case b.Bool:
		return lltypes.I1
	case b.I8:
		return lltypes.I8
	case b.I16:
		return lltypes.I16
	case b.I32:
		return lltypes.I32
	case b.I64:
		return lltypes.I64
	case b.F32:
		return lltypes.Float
	case b.F64:
		return lltypes.Double
	case b.String:
		return lltypes.I8Ptr
	}
	if t, ok := e.typeCache[id]; ok {
		return t
	}
	tt, ok := e.tys.Lookup(id)
	if !ok {
		return lltypes.I32
	}
	var t lltypes.Type = lltypes.I32
	switch tt.Kind {
	case types.KindArray:
		t = lltypes.NewArray(uint64(tt.Count), e.llType(tt.Elem))
	case types.KindClass:
		info, _ := e.tys.ClassInfo(id)
		fields := make([]lltypes.Type, len(info.Fields))
		for i, f := range info.Fields {
			fields[i] = e.llType(f.Type)
		}
		t = e.mod.NewTypeDef("class."+info.Name, lltypes.NewStruct(fields...))
	}
	e.typeCache[id] = t
	return t
}

// zeroValue is the value a fresh variable of type t holds. Strings start as
// "" rather than null.
func (e *Emitter) zeroValue(t lltypes.Type) constant.Constant {
	switch tt := t.(type) {
	case *lltypes.IntType:
		return constant.NewInt(tt, 0)
	case *lltypes.FloatType:
		return constant.NewFloat(tt, 0)
	case *lltypes.PointerType:
		if tt.Equal(lltypes.I8Ptr) {
			return e.str("")
		}
		return constant.NewNull(tt)
	}
	return constant.NewZeroInitializer(t)
}
