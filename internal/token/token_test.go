package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	for word, want := range map[string]Kind{"def": KwDef, "None": KwNone, "elif": KwElif} {
		got, ok := LookupKeyword(word)
		if !ok || got != want {
			t.Errorf("LookupKeyword(%q) = %v,%v", word, got, ok)
		}
	}
	for _, word := range []string{"Def", "none", "print", "i32"} {
		if _, ok := LookupKeyword(word); ok {
			t.Errorf("%q must not be a keyword", word)
		}
	}
}

func TestEveryKindHasName(t *testing.T) {
	for k := Invalid; k < kindCount; k++ {
		if k.String() == "UNKNOWN" {
			t.Errorf("kind %d has no name", k)
		}
	}
}

func TestKindClass(t *testing.T) {
	cases := map[Kind]Class{
		Indent:   ClassLayout,
		Ident:    ClassName,
		FloatLit: ClassLiteral,
		KwGlobal: ClassKeyword,
		Arrow:    ClassOperator,
		Plus:     ClassOperator,
	}
	for k, want := range cases {
		if got := k.Class(); got != want {
			t.Errorf("%s: class %d, want %d", k, got, want)
		}
	}
}

func TestAugOperator(t *testing.T) {
	tok := Token{Kind: FloorAssign}
	if !tok.IsAugAssign() || AugOperator(tok.Kind) != SlashSlash {
		t.Fatalf("FloorAssign must map to //")
	}
	if AugOperator(Assign) != Invalid {
		t.Fatalf("plain assign is not augmented")
	}
}
