package types

import (
	"testing"

	"viper/internal/ast"
	"viper/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.None == NoTypeID || b.Bool == NoTypeID || b.I32 == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if b.Invalid != NoTypeID {
		t.Fatalf("invalid type must be the zero id")
	}
	for _, name := range []string{"i8", "i16", "i32", "i64", "f32", "f64", "bool", "str", "None"} {
		id, ok := in.Named(name)
		if !ok {
			t.Fatalf("missing builtin %s", name)
		}
		if got := in.String(id); got != name {
			t.Errorf("String(%s) = %s", name, got)
		}
	}
}

func TestInternerDeduplicatesArrays(t *testing.T) {
	in := NewInterner()
	a := in.Intern(MakeArray(in.Builtins().I32, 10))
	b := in.Intern(MakeArray(in.Builtins().I32, 10))
	c := in.Intern(MakeArray(in.Builtins().I32, 11))
	if a != b {
		t.Fatalf("equal arrays must share an id")
	}
	if a == c {
		t.Fatalf("arrays of different length must differ")
	}
	if got := in.String(a); got != "i32[10]" {
		t.Fatalf("String = %s", got)
	}
}

func TestClassesAreNominal(t *testing.T) {
	in := NewInterner()
	p := in.RegisterClass("P", source.Span{})
	q := in.RegisterClass("Q", source.Span{})
	if p == q {
		t.Fatalf("classes with equal shape must differ")
	}
	in.SetClassFields(p, []Field{{Name: "x", Type: in.Builtins().I32}, {Name: "y", Type: in.Builtins().F64}})
	idx, ft, ok := in.FieldIndex(p, "y")
	if !ok || idx != 1 || ft != in.Builtins().F64 {
		t.Fatalf("FieldIndex = %d %d %v", idx, ft, ok)
	}
	if _, _, ok := in.FieldIndex(q, "x"); ok {
		t.Fatalf("Q has no fields")
	}
	if in.String(p) != "P" {
		t.Fatalf("String = %s", in.String(p))
	}
}

func TestRegisterFnDeduplicates(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	f1 := in.RegisterFn([]TypeID{b.I32, b.I32}, b.I64)
	f2 := in.RegisterFn([]TypeID{b.I32, b.I32}, b.I64)
	if f1 != f2 {
		t.Fatalf("equal signatures must share an id")
	}
	if got := in.String(f1); got != "fn(i32, i32) -> i64" {
		t.Fatalf("String = %s", got)
	}
}

func TestBinaryResult(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	arr := in.Intern(MakeArray(b.F64, 4))
	cases := []struct {
		name string
		op   ast.BinaryOp
		l, r TypeID
		want TypeID
		ok   bool
	}{
		{"int add", ast.OpAdd, b.I32, b.I32, b.I32, true},
		{"int div is float", ast.OpDiv, b.I64, b.I64, b.F64, true},
		{"float div", ast.OpDiv, b.F32, b.F32, b.F32, true},
		{"mixed widths", ast.OpAdd, b.I32, b.I64, NoTypeID, false},
		{"string concat", ast.OpAdd, b.String, b.String, b.String, true},
		{"string sub", ast.OpSub, b.String, b.String, NoTypeID, false},
		{"float shift", ast.OpShl, b.F64, b.F64, NoTypeID, false},
		{"invalid operand", ast.OpAdd, NoTypeID, b.I32, NoTypeID, true},
		{"array op", ast.OpMul, arr, arr, arr, true},
		{"array scalar", ast.OpAdd, arr, b.F64, arr, true},
		{"array wrong scalar", ast.OpAdd, arr, b.I32, NoTypeID, false},
	}
	for _, tc := range cases {
		got, ok := in.BinaryResult(tc.op, tc.l, tc.r)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: got (%s, %v), want (%s, %v)", tc.name, in.String(got), ok, in.String(tc.want), tc.ok)
		}
	}
}

func TestUnaryAndCompare(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if got, ok := in.UnaryResult(ast.OpNot, b.Bool); !ok || got != b.Bool {
		t.Fatalf("not bool")
	}
	if _, ok := in.UnaryResult(ast.OpInvert, b.F64); ok {
		t.Fatalf("~ on float must fail")
	}
	if !in.Comparable(ast.CmpLt, b.I32, b.I32) || in.Comparable(ast.CmpLt, b.Bool, b.Bool) {
		t.Fatalf("bool ordering must be rejected")
	}
	if !in.Comparable(ast.CmpEq, b.Bool, b.Bool) {
		t.Fatalf("bool equality must be accepted")
	}

	ints := in.Intern(MakeArray(b.I32, 4))
	if got, ok := in.UnaryResult(ast.OpNeg, ints); !ok || got != ints {
		t.Fatalf("-array must be element-wise")
	}
	if _, ok := in.UnaryResult(ast.OpNot, in.Intern(MakeArray(b.Bool, 4))); ok {
		t.Fatalf("not on arrays must fail")
	}
	if _, ok := in.UnaryResult(ast.OpInvert, in.Intern(MakeArray(b.F64, 4))); ok {
		t.Fatalf("~ on float arrays must fail")
	}
}

func TestAssignable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if in.Assignable(b.I64, b.I32, true) != CoerceNone {
		t.Fatalf("strict mode must reject widening")
	}
	if in.Assignable(b.I64, b.I32, false) != CoerceWiden {
		t.Fatalf("relaxed mode must widen i32 to i64")
	}
	if in.Assignable(b.I32, b.I64, false) != CoerceNone {
		t.Fatalf("narrowing is never implicit")
	}
	if in.Assignable(b.F64, b.I32, false) != CoerceWiden {
		t.Fatalf("int to float widens in relaxed mode")
	}
	if in.Assignable(b.I32, b.I32, true) != CoerceIdentity {
		t.Fatalf("identity")
	}
}

func TestFitsInt(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if !in.FitsInt(b.I8, 127) || in.FitsInt(b.I8, 128) {
		t.Fatalf("i8 bounds")
	}
	if in.FitsInt(b.I32, 1<<31) || !in.FitsInt(b.I64, 1<<31) {
		t.Fatalf("i32 bounds")
	}
	if in.FitsInt(b.F64, 1) {
		t.Fatalf("float is not an int type")
	}
}
