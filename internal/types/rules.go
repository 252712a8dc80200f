package types

import (
	"math"

	"viper/internal/ast"
)

// Typing rules shared by lowering and the IR verifier. Every function treats
// an Invalid operand as already diagnosed: it returns Invalid and ok=true, so
// callers never report a cascade.

// IsInvalid reports whether id is the Invalid type.
func IsInvalid(id TypeID) bool { return id == NoTypeID }

func (in *Interner) IsInt(id TypeID) bool     { return in.Kind(id) == KindInt }
func (in *Interner) IsFloat(id TypeID) bool   { return in.Kind(id) == KindFloat }
func (in *Interner) IsNumeric(id TypeID) bool { return in.Family(id)&FamilyNumeric != 0 }
func (in *Interner) IsArray(id TypeID) bool   { return in.Kind(id) == KindArray }
func (in *Interner) IsClass(id TypeID) bool   { return in.Kind(id) == KindClass }

// Elem returns the element type of an array, Invalid otherwise.
func (in *Interner) Elem(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindArray {
		return NoTypeID
	}
	return tt.Elem
}

// ArrayLen returns the fixed length of an array type.
func (in *Interner) ArrayLen(id TypeID) uint32 {
	tt, _ := in.Lookup(id)
	return tt.Count
}

// BinaryResult returns the type of `l op r`. Operands must already have
// the same type; arrays of equal shape combine element-wise, and an array may
// be combined with a scalar of its element type.
func (in *Interner) BinaryResult(op ast.BinaryOp, l, r TypeID) (TypeID, bool) {
	if IsInvalid(l) || IsInvalid(r) {
		return NoTypeID, true
	}
	if in.IsArray(l) || in.IsArray(r) {
		return in.arrayBinaryResult(op, l, r)
	}
	if l != r {
		return NoTypeID, false
	}
	fam := in.Family(l)
	for _, spec := range BinarySpecs(op) {
		if spec.Operands&fam == 0 {
			continue
		}
		switch spec.Result {
		case BinaryResultFloat:
			return in.builtins.F64, true
		default:
			return l, true
		}
	}
	return NoTypeID, false
}

func (in *Interner) arrayBinaryResult(op ast.BinaryOp, l, r TypeID) (TypeID, bool) {
	var elemL, elemR = l, r
	if in.IsArray(l) {
		elemL = in.Elem(l)
	}
	if in.IsArray(r) {
		elemR = in.Elem(r)
	}
	if in.IsArray(l) && in.IsArray(r) && in.ArrayLen(l) != in.ArrayLen(r) {
		return NoTypeID, false
	}
	if in.IsArray(elemL) || in.IsArray(elemR) {
		return NoTypeID, false
	}
	elem, ok := in.BinaryResult(op, elemL, elemR)
	if !ok || IsInvalid(elem) {
		return NoTypeID, false
	}
	n := in.ArrayLen(l)
	if !in.IsArray(l) {
		n = in.ArrayLen(r)
	}
	return in.Intern(MakeArray(elem, n)), true
}

// UnaryResult returns the type of `op x`.
func (in *Interner) UnaryResult(op ast.UnaryOp, x TypeID) (TypeID, bool) {
	if IsInvalid(x) {
		return NoTypeID, true
	}
	if in.IsArray(x) {
		// поэлементно, кроме not
		elem := in.Elem(x)
		if op == ast.OpNot || in.IsArray(elem) {
			return NoTypeID, false
		}
		if _, ok := in.UnaryResult(op, elem); !ok {
			return NoTypeID, false
		}
		return x, true
	}
	spec, ok := UnarySpecFor(op)
	if !ok || spec.Operand&in.Family(x) == 0 {
		return NoTypeID, false
	}
	if spec.Bool {
		return in.builtins.Bool, true
	}
	return x, true
}

// Comparable reports whether `l op r` is a valid comparison.
// Numbers and strings are ordered; bools only support == and !=.
func (in *Interner) Comparable(op ast.CmpOp, l, r TypeID) bool {
	if IsInvalid(l) || IsInvalid(r) {
		return true
	}
	if l != r {
		return false
	}
	switch in.Family(l) {
	case FamilyInt, FamilyFloat, FamilyString:
		return true
	case FamilyBool:
		return op == ast.CmpEq || op == ast.CmpNotEq
	}
	return false
}

// Coercion classifies how a value of type src reaches type dst.
type Coercion uint8

const (
	CoerceNone     Coercion = iota // not assignable
	CoerceIdentity                 // same type
	CoerceWiden                    // implicit widening, relaxed mode only
)

// Assignable decides whether src may be stored into dst. In strict mode only
// identical types are accepted; relaxed mode adds integer widening and
// int->float, which the caller materializes as an explicit cast.
func (in *Interner) Assignable(dst, src TypeID, strict bool) Coercion {
	if IsInvalid(dst) || IsInvalid(src) || dst == src {
		return CoerceIdentity
	}
	if strict {
		return CoerceNone
	}
	d, _ := in.Lookup(dst)
	s, _ := in.Lookup(src)
	switch {
	case d.Kind == KindInt && s.Kind == KindInt && d.Width > s.Width:
		return CoerceWiden
	case d.Kind == KindFloat && s.Kind == KindFloat && d.Width > s.Width:
		return CoerceWiden
	case d.Kind == KindFloat && s.Kind == KindInt:
		return CoerceWiden
	}
	return CoerceNone
}

// CastAllowed reports whether an explicit conversion T(x) is valid.
func (in *Interner) CastAllowed(to, from TypeID) bool {
	if IsInvalid(to) || IsInvalid(from) || to == from {
		return true
	}
	scalar := FamilyNumeric | FamilyBool
	return in.Family(to)&scalar != 0 && in.Family(from)&scalar != 0
}

// FitsInt reports whether v is representable in the integer type id.
func (in *Interner) FitsInt(id TypeID, v int64) bool {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindInt {
		return false
	}
	switch tt.Width {
	case Width8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case Width16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case Width32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	}
	return true
}
