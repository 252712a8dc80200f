package diagfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"viper/internal/ast"
	"viper/internal/diag"
	"viper/internal/lexer"
	"viper/internal/parser"
	"viper/internal/source"
)

func singleDiag(fs *source.FileSet, file source.FileID, start, end uint32) *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaUndefinedName,
		Message:  "undefined name 'y'",
		Primary:  source.Span{File: file, Start: start, End: end},
		Notes:    []diag.Note{{Span: source.Span{File: file, Start: 0, End: 1}, Msg: "x declared here"}},
	})
	return bag
}

func TestPrettyRendersSnippetAndUnderline(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("test.py", []byte("x = 1\nprint(y)\n"))
	bag := singleDiag(fs, file, 12, 13)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1})
	want := "error[SEM3001]: undefined name 'y'\n" +
		" --> test.py:2:7\n" +
		"  |\n" +
		"2 | print(y)\n" +
		"  |       ^\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyNotesAndNoContext(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("test.py", []byte("x = 1\nprint(y)\n"))
	bag := singleDiag(fs, file, 12, 13)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 0, ShowNotes: true})
	out := buf.String()
	if strings.Contains(out, "print(y)") {
		t.Fatalf("context 0 must not print source lines:\n%s", out)
	}
	if !strings.Contains(out, "note: x declared here\n --> test.py:1:1") {
		t.Fatalf("note missing:\n%s", out)
	}
}

func TestPrettyColorOnlyAddsEscapes(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("test.py", []byte("x = 1\nprint(y)\n"))
	bag := singleDiag(fs, file, 12, 13)

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{Context: 1})
	Pretty(&colored, bag, fs, PrettyOpts{Context: 1, Color: true})
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("expected ANSI escapes in colored output")
	}
	stripped := stripANSI(colored.String())
	if stripped != plain.String() {
		t.Fatalf("color changed the text:\n%q\n%q", stripped, plain.String())
	}
}

func stripANSI(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func TestUnderlineUsesDisplayWidth(t *testing.T) {
	line := "日本 y"
	lead, width := underline(line, 8, 9)
	if lead != 5 || width != 1 {
		t.Fatalf("underline = (%d, %d), want (5, 1)", lead, width)
	}
	lead, width = underline("\tz", 2, 2)
	if lead != tabWidth || width != 1 {
		t.Fatalf("tab underline = (%d, %d)", lead, width)
	}
}

func TestJSONOutput(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("dir/test.py", []byte("x = 1\nprint(y)\n"))
	bag := singleDiag(fs, file, 12, 13)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3001" || d.Severity != "error" || d.Location.File != "test.py" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 7 || len(d.Notes) != 1 {
		t.Fatalf("unexpected location/notes: %+v", d)
	}
}

func tokensOf(t *testing.T, src string) *source.File {
	t.Helper()
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("t.py", []byte(src)))
}

func TestFormatTokens(t *testing.T) {
	f := tokensOf(t, "x = 12\n")
	res := lexer.Tokenize(f, diag.NewBag(10))
	if !res.OK {
		t.Fatalf("tokenize failed")
	}
	var buf bytes.Buffer
	if err := FormatTokens(&buf, res.Value, TokenOpts{Offsets: true}); err != nil {
		t.Fatal(err)
	}
	want := "NAME \"x\" 0:0\n= 2:2\nINTEGER \"12\" 4:5\nNEWLINE 6:6\n"
	if buf.String() != want {
		t.Fatalf("token dump:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	_ = FormatTokens(&buf, res.Value, TokenOpts{})
	if strings.Contains(buf.String(), "0:0") {
		t.Fatalf("offsets printed without the option")
	}
}

func TestFormatTokensEmptyFile(t *testing.T) {
	res := lexer.Tokenize(tokensOf(t, ""), diag.NewBag(10))
	var buf bytes.Buffer
	if err := FormatTokens(&buf, res.Value, TokenOpts{Offsets: true}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("empty file must dump nothing, got %q", buf.String())
	}
}

func parseForDump(t *testing.T, src string) (*ast.Builder, ast.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("t.py", []byte(src)))
	bag := diag.NewBag(10)
	lx := lexer.New(f, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(context.Background(), fs, lx, b, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if !res.OK() || bag.HasErrors() {
		t.Fatalf("parse failed: %v", bag.Items())
	}
	return b, res.File
}

func TestPickleASTStyles(t *testing.T) {
	b, file := parseForDump(t, "def f(a: i32) -> i32:\n    return a + 1\n")
	n := ASTNode(b, file)

	flat := PickleString(n, PickleOpts{Style: PickleFlat})
	want := "(Module (FunctionDef f (args (arg a (Name i32) ())) (body (Return (BinOp Add (Name a) (ConstantInt 1)))) (decorators) (Name i32)))\n"
	if flat != want {
		t.Fatalf("flat dump:\n%s\nwant:\n%s", flat, want)
	}

	indented := PickleString(n, PickleOpts{Style: PickleIndent, Indent: 2})
	if !strings.HasPrefix(indented, "(Module\n  (FunctionDef f\n    (args\n") {
		t.Fatalf("indented dump:\n%s", indented)
	}

	tree := PickleString(n, PickleOpts{Style: PickleTree})
	if !strings.Contains(tree, "FunctionDef f") || !strings.Contains(tree, "ConstantInt 1") {
		t.Fatalf("tree dump:\n%s", tree)
	}
}

func TestPickleIsDeterministic(t *testing.T) {
	src := "x: i32 = 3\nif x > 1:\n    print(x, 'big')\nelse:\n    pass\n"
	b1, f1 := parseForDump(t, src)
	b2, f2 := parseForDump(t, src)
	for _, style := range []PickleStyle{PickleFlat, PickleIndent, PickleTree} {
		a := PickleString(ASTNode(b1, f1), PickleOpts{Style: style, Color: true})
		b := PickleString(ASTNode(b2, f2), PickleOpts{Style: style, Color: true})
		if a != b {
			t.Fatalf("style %d differs between runs", style)
		}
	}
}

func TestPickleEmptyModule(t *testing.T) {
	b, file := parseForDump(t, "")
	if got := PickleString(ASTNode(b, file), PickleOpts{}); got != "(Module)\n" {
		t.Fatalf("empty module dump = %q", got)
	}
}
