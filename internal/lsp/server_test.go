package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"viper/internal/config"
)

func frame(t *testing.T, buf *bytes.Buffer, msg map[string]any) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := writeMessage(buf, payload); err != nil {
		t.Fatal(err)
	}
}

func readAll(t *testing.T, out *bytes.Buffer) []rpcMessage {
	t.Helper()
	r := bufio.NewReader(out)
	var msgs []rpcMessage
	for {
		payload, err := readMessage(r)
		if errors.Is(err, io.EOF) {
			return msgs
		}
		if err != nil {
			t.Fatal(err)
		}
		var m rpcMessage
		if err := json.Unmarshal(payload, &m); err != nil {
			t.Fatal(err)
		}
		msgs = append(msgs, m)
	}
}

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("Content-Type: application/vscode-jsonrpc\r\ncontent-length: 2\r\n\r\n{}")
	got, err := readMessage(bufio.NewReader(&buf))
	if err != nil || string(got) != "{}" {
		t.Fatalf("readMessage = %q, %v", got, err)
	}
	if _, err := readMessage(bufio.NewReader(strings.NewReader("X: 1\r\n\r\n"))); err == nil {
		t.Fatal("want an error without Content-Length")
	}
}

func TestSessionPublishesDiagnostics(t *testing.T) {
	uri := pathToURI(filepath.Join(t.TempDir(), "m.py"))
	var in bytes.Buffer
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "id": 1, "method": "initialize", "params": map[string]any{}})
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "method": "textDocument/didOpen", "params": map[string]any{
		"textDocument": map[string]any{"uri": uri, "languageId": "python", "version": 1,
			"text": "def f(a: i32) -> i32:\n    return zz\n"},
	}})
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "method": "textDocument/didChange", "params": map[string]any{
		"textDocument": map[string]any{"uri": uri, "version": 2},
		"contentChanges": []map[string]any{{
			"range": map[string]any{"start": map[string]int{"line": 1, "character": 11}, "end": map[string]int{"line": 1, "character": 13}},
			"text":  "a",
		}},
	}})
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "id": 2, "method": "textDocument/hover", "params": map[string]any{}})
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "id": 3, "method": "shutdown"})
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "method": "exit"})

	var out bytes.Buffer
	s := NewServer(&in, &out, Options{Compile: config.Default()})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	msgs := readAll(t, &out)
	if len(msgs) != 5 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if string(msgs[0].ID) != "1" || !strings.Contains(string(msgs[0].Result), `"textDocumentSync"`) {
		t.Errorf("initialize reply = %+v", msgs[0])
	}

	var first publishDiagnosticsParams
	if err := json.Unmarshal(msgs[1].Params, &first); err != nil {
		t.Fatal(err)
	}
	if len(first.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v", first.Diagnostics)
	}
	d := first.Diagnostics[0]
	want := lspRange{Start: position{Line: 1, Character: 11}, End: position{Line: 1, Character: 13}}
	if d.Code != "SEM3001" || d.Severity != severityError || d.Range != want {
		t.Errorf("diagnostic = %+v", d)
	}

	var second publishDiagnosticsParams
	if err := json.Unmarshal(msgs[2].Params, &second); err != nil {
		t.Fatal(err)
	}
	if len(second.Diagnostics) != 0 || second.Version == nil || *second.Version != 2 {
		t.Errorf("after the fix = %+v", second)
	}
	if msgs[3].Error == nil || msgs[3].Error.Code != codeMethodNotFound {
		t.Errorf("hover reply = %+v", msgs[3])
	}
	if string(msgs[4].ID) != "3" {
		t.Errorf("shutdown reply = %+v", msgs[4])
	}
}

func TestExitWithoutShutdown(t *testing.T) {
	var in, out bytes.Buffer
	frame(t, &in, map[string]any{"jsonrpc": "2.0", "method": "exit"})
	err := NewServer(&in, &out, Options{Compile: config.Default()}).Run(context.Background())
	if !errors.Is(err, ErrExitWithoutShutdown) {
		t.Fatalf("Run = %v", err)
	}
}

func TestPositionForOffset(t *testing.T) {
	text := []byte("ab\nπ𝄞x\n")
	cases := map[int]position{
		0:  {0, 0},
		3:  {1, 0},
		5:  {1, 1}, // after π (2 bytes)
		9:  {1, 3}, // after 𝄞 (4 bytes, 2 UTF-16 units)
		99: {2, 0},
	}
	for off, want := range cases {
		if got := positionForOffset(text, off); got != want {
			t.Errorf("positionForOffset(%d) = %+v, want %+v", off, got, want)
		}
	}
	if off := offsetForPosition(string(text), position{Line: 1, Character: 3}); off != 9 {
		t.Errorf("offsetForPosition = %d", off)
	}
}
