package lexer_test

import (
	"reflect"
	"testing"

	"viper/internal/diag"
	"viper/internal/lexer"
	"viper/internal/source"
	"viper/internal/token"
)

// testReporter собирает все диагностики, полученные от лексера
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev, Code: code, Message: msg, Primary: primary, Notes: notes,
	})
}

func (r *testReporter) errors() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range r.diagnostics {
		if d.Severity == diag.SevError {
			out = append(out, d)
		}
	}
	return out
}

func lexAll(t *testing.T, input string) ([]token.Token, *testReporter) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.py", []byte(input)))
	rep := &testReporter{}
	lx := lexer.New(file, lexer.Options{Reporter: rep})
	var toks []token.Token
	for i := 0; i < 10000; i++ {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, rep
		}
	}
	t.Fatalf("lexer did not reach EOF")
	return nil, nil
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func expectKinds(t *testing.T, input string, want ...token.Kind) {
	t.Helper()
	toks, rep := lexAll(t, input)
	if errs := rep.errors(); len(errs) > 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if got := kinds(toks); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds mismatch\n got: %v\nwant: %v", got, want)
	}
}

func TestEmptyInputYieldsOnlyEOF(t *testing.T) {
	expectKinds(t, "", token.EOF)
	expectKinds(t, "\n\n   \n# just a comment\n", token.EOF)
}

func TestFunctionLayout(t *testing.T) {
	src := "def f(x: i32) -> i32:\n    return x + 1\n\nf(2)\n"
	expectKinds(t, src,
		token.KwDef, token.Ident, token.LParen, token.Ident, token.Colon, token.Ident, token.RParen,
		token.Arrow, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwReturn, token.Ident, token.Plus, token.IntLit, token.Newline,
		token.Dedent, token.Ident, token.LParen, token.IntLit, token.RParen, token.Newline,
		token.EOF,
	)
}

func TestNestedDedentsAtEOFWithoutTrailingNewline(t *testing.T) {
	src := "if a:\n    if b:\n        pass"
	expectKinds(t, src,
		token.KwIf, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwIf, token.Ident, token.Colon, token.Newline,
		token.Indent, token.KwPass, token.Newline,
		token.Dedent, token.Dedent, token.EOF,
	)
}

func TestBracketsSuppressLayout(t *testing.T) {
	src := "x = [1,\n     2]\n"
	expectKinds(t, src,
		token.Ident, token.Assign, token.LBracket, token.IntLit, token.Comma,
		token.IntLit, token.RBracket, token.Newline, token.EOF,
	)
}

func TestOperatorsAreGreedy(t *testing.T) {
	expectKinds(t, "a //= b ** c // d\n",
		token.Ident, token.FloorAssign, token.Ident, token.StarStar, token.Ident,
		token.SlashSlash, token.Ident, token.Newline, token.EOF)
}

func TestUnknownCharacterSpanIsExact(t *testing.T) {
	src := "x = 1 $ 2\n"
	toks, rep := lexAll(t, src)
	errs := rep.errors()
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %+v", errs)
	}
	if errs[0].Code != diag.LexUnknownChar {
		t.Fatalf("code = %s", errs[0].Code.ID())
	}
	if sp := errs[0].Primary; sp.Start != 6 || sp.End != 7 {
		t.Fatalf("span = [%d,%d), want [6,7)", sp.Start, sp.End)
	}
	// the offending character is skipped, the rest of the line survives
	want := []token.Kind{token.Ident, token.Assign, token.IntLit, token.IntLit, token.Newline, token.EOF}
	if got := kinds(toks); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v", got)
	}
}

func TestUnknownMultibyteCharacterSpan(t *testing.T) {
	src := "a = €\n"
	_, rep := lexAll(t, src)
	errs := rep.errors()
	if len(errs) != 1 || errs[0].Primary.Start != 4 || errs[0].Primary.End != 7 {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestBadNumberCoversWholeRun(t *testing.T) {
	_, rep := lexAll(t, "y = 12ab\n")
	errs := rep.errors()
	if len(errs) != 1 || errs[0].Code != diag.LexBadNumber {
		t.Fatalf("errors = %+v", errs)
	}
	if sp := errs[0].Primary; sp.Start != 4 || sp.End != 8 {
		t.Fatalf("span = %v", sp)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, rep := lexAll(t, "s = 'abc\nt = 1\n")
	errs := rep.errors()
	if len(errs) != 1 || errs[0].Code != diag.LexUnterminatedString {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestBadDedent(t *testing.T) {
	_, rep := lexAll(t, "if a:\n        x = 1\n    y = 2\n")
	errs := rep.errors()
	if len(errs) != 1 || errs[0].Code != diag.LexBadIndent {
		t.Fatalf("errors = %+v", errs)
	}
}

func TestNumbers(t *testing.T) {
	toks, rep := lexAll(t, "1 1_000 0x1F 0b101 1.5 .5 1e3 2.5e-2\n")
	if len(rep.errors()) != 0 {
		t.Fatalf("errors = %+v", rep.errors())
	}
	want := []token.Kind{token.IntLit, token.IntLit, token.IntLit, token.IntLit,
		token.FloatLit, token.FloatLit, token.FloatLit, token.FloatLit, token.Newline, token.EOF}
	if got := kinds(toks); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v", got)
	}
}

func TestIdentifiersAreNFKCNormalized(t *testing.T) {
	// U+FB01 LATIN SMALL LIGATURE FI normalizes to "fi"
	toks, _ := lexAll(t, "\ufb01x = 1\n")
	if toks[0].Kind != token.Ident || toks[0].Text != "fix" {
		t.Fatalf("tok = %+v", toks[0])
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	src := "def g(a, /, *b, c, **d):\n    pass\n\ntest(x, y = 1, z = '123')\n"
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.py", []byte(src)))
	first := lexer.Tokenize(file, diag.NewBag(0))
	second := lexer.Tokenize(file, diag.NewBag(0))
	if !first.OK || !second.OK {
		t.Fatalf("tokenize failed")
	}
	if !reflect.DeepEqual(first.Value, second.Value) {
		t.Fatalf("token streams differ")
	}
}

func TestTokenizeFailureKeepsPartialTokens(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.py", []byte("a ? b\n")))
	bag := diag.NewBag(0)
	res := lexer.Tokenize(file, bag)
	if res.OK {
		t.Fatalf("expected failure")
	}
	if !bag.HasErrors() || len(res.Value) != 4 {
		t.Fatalf("partial = %v", kinds(res.Value))
	}
}

func TestUnquote(t *testing.T) {
	cases := map[string]string{
		`'abc'`:       "abc",
		`"a\nb"`:      "a\nb",
		`'it\'s'`:     "it's",
		`"""multi"""`: "multi",
		`"\x41"`:      "A",
		`"\q"`:        `\q`,
	}
	for in, want := range cases {
		got, err := lexer.Unquote(in)
		if err != nil || got != want {
			t.Errorf("Unquote(%s) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestCursorAcceptAndRunes(t *testing.T) {
	fs := source.NewFileSet()
	c := lexer.NewCursor(fs.Get(fs.AddVirtual("c.py", []byte("//=é"))))
	if c.Accept('/', '=') {
		t.Fatal("Accept matched a wrong prefix")
	}
	if !c.Accept('/', '/', '=') || c.Off != 3 {
		t.Fatalf("Accept: off = %d", c.Off)
	}
	if r, size := c.PeekRune(); r != 'é' || size != 2 {
		t.Fatalf("PeekRune = %q, %d", r, size)
	}
	c.BumpRune()
	if !c.EOF() || c.PeekAt(1) != 0 || c.Accept('x') {
		t.Error("reads past the end")
	}
}
