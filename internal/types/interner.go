package types

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Invalid TypeID
	None    TypeID
	Bool    TypeID
	I8      TypeID
	I16     TypeID
	I32     TypeID
	I64     TypeID
	F32     TypeID
	F64     TypeID
	String  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Classes and function types are nominal/side-table backed and never deduplicated
// by descriptor alone.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	names    map[string]TypeID
	classes  []ClassInfo
	fns      []FnInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
		names: make(map[string]TypeID, 16),
	}
	in.classes = append(in.classes, ClassInfo{}) // slot 0 reserved
	in.fns = append(in.fns, FnInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.None = in.Intern(Type{Kind: KindNone})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.I8 = in.Intern(MakeInt(Width8))
	in.builtins.I16 = in.Intern(MakeInt(Width16))
	in.builtins.I32 = in.Intern(MakeInt(Width32))
	in.builtins.I64 = in.Intern(MakeInt(Width64))
	in.builtins.F32 = in.Intern(MakeFloat(Width32))
	in.builtins.F64 = in.Intern(MakeFloat(Width64))
	in.builtins.String = in.Intern(Type{Kind: KindString})
	for name, id := range map[string]TypeID{
		"None": in.builtins.None,
		"bool": in.builtins.Bool,
		"i8":   in.builtins.I8,
		"i16":  in.builtins.I16,
		"i32":  in.builtins.I32,
		"i64":  in.builtins.I64,
		"f32":  in.builtins.F32,
		"f64":  in.builtins.F64,
		"str":  in.builtins.String,
	} {
		in.names[name] = id
	}
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Named looks up a primitive type by its source spelling ("i32", "f64", ...).
func (in *Interner) Named(name string) (TypeID, bool) {
	id, ok := in.names[name]
	return id, ok
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Kind returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) Kind(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

// Len reports the number of interned types including the invalid sentinel.
func (in *Interner) Len() int { return len(in.types) }

// String renders a type the way it is spelled in source: i32, f64[10], Point.
func (in *Interner) String(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindInt:
		return "i" + strconv.Itoa(int(tt.Width))
	case KindFloat:
		return "f" + strconv.Itoa(int(tt.Width))
	case KindArray:
		return in.String(tt.Elem) + "[" + strconv.FormatUint(uint64(tt.Count), 10) + "]"
	case KindClass:
		if info, ok := in.ClassInfo(id); ok {
			return info.Name
		}
	case KindFn:
		if info, ok := in.FnInfo(id); ok {
			s := "fn("
			for i, p := range info.Params {
				if i > 0 {
					s += ", "
				}
				s += in.String(p)
			}
			return s + ") -> " + in.String(info.Result)
		}
	}
	return tt.Kind.String()
}

type typeKey Type
