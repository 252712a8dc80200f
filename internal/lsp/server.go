// Package lsp is a small language server: it keeps the open buffers and
// publishes the front end's diagnostics for them over stdio JSON-RPC.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"viper/internal/config"
	"viper/internal/trace"
	"viper/internal/version"
)

var (
	// ErrExitWithoutShutdown is returned by Run for an "exit" that was not
	// preceded by "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")

	errExit = errors.New("lsp exit")
)

// Options configures a Server.
type Options struct {
	// Compile is used for every analysis; NoWarnings and Strict apply.
	Compile config.Options
	// Log receives protocol errors. Nil discards them.
	Log io.Writer
}

type document struct {
	text      string
	version   int
	published bool
}

// Server handles one client connection.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	sendMu sync.Mutex

	mu       sync.Mutex
	docs     map[string]*document
	shutdown bool
	opts     Options
}

func NewServer(in io.Reader, out io.Writer, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	return &Server{
		in:   bufio.NewReader(in),
		out:  bufio.NewWriter(out),
		docs: make(map[string]*document),
		opts: opts,
	}
}

// Run serves messages until the client exits or closes the stream. A clean
// "shutdown" + "exit" and EOF both return nil.
func (s *Server) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := s.Handle(ctx, payload); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

// Handle processes one payload. Malformed params are answered with a
// JSON-RPC error when the message is a request and logged otherwise.
func (s *Server) Handle(ctx context.Context, payload []byte) error {
	var msg rpcMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.logf("failed to parse message: %v", err)
		return nil
	}
	if msg.Method == "" {
		// ответы клиента на наши запросы не нужны
		return nil
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "lsp "+msg.Method)
	defer span.End("")

	s.mu.Lock()
	down := s.shutdown
	s.mu.Unlock()
	if down && msg.Method != "exit" {
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeInvalidRequest, "server is shutting down")
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.sendResponse(msg.ID, initializeResult{
			Capabilities: serverCapabilities{
				TextDocumentSync: textDocumentSyncOptions{
					OpenClose: true,
					Change:    2, // incremental
					Save:      saveOptions{IncludeText: true},
				},
			},
			ServerInfo: serverInfo{Name: "viper", Version: version.Version},
		})
	case "initialized":
		return nil
	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return s.sendResponse(msg.ID, nil)
	case "exit":
		if down {
			return errExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		var p didOpenTextDocumentParams
		if !s.decode(msg, &p) {
			return nil
		}
		s.mu.Lock()
		s.docs[p.TextDocument.URI] = &document{text: p.TextDocument.Text, version: p.TextDocument.Version}
		s.mu.Unlock()
		return s.publish(ctx, p.TextDocument.URI)
	case "textDocument/didChange":
		var p didChangeTextDocumentParams
		if !s.decode(msg, &p) {
			return nil
		}
		s.mu.Lock()
		doc, ok := s.docs[p.TextDocument.URI]
		if ok {
			doc.text = applyChanges(doc.text, p.ContentChanges)
			doc.version = p.TextDocument.Version
		}
		s.mu.Unlock()
		if !ok {
			s.logf("didChange for unopened %s", p.TextDocument.URI)
			return nil
		}
		return s.publish(ctx, p.TextDocument.URI)
	case "textDocument/didSave":
		var p didSaveTextDocumentParams
		if !s.decode(msg, &p) {
			return nil
		}
		s.mu.Lock()
		doc, ok := s.docs[p.TextDocument.URI]
		if ok && p.Text != nil {
			doc.text = *p.Text
		}
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return s.publish(ctx, p.TextDocument.URI)
	case "textDocument/didClose":
		var p didCloseTextDocumentParams
		if !s.decode(msg, &p) {
			return nil
		}
		s.mu.Lock()
		doc, ok := s.docs[p.TextDocument.URI]
		delete(s.docs, p.TextDocument.URI)
		s.mu.Unlock()
		if ok && doc.published {
			return s.sendPublish(p.TextDocument.URI, nil, nil)
		}
		return nil
	}
	if len(msg.ID) > 0 {
		return s.sendError(msg.ID, codeMethodNotFound, "method not found: "+msg.Method)
	}
	return nil
}

func (s *Server) decode(msg rpcMessage, v any) bool {
	if err := json.Unmarshal(msg.Params, v); err != nil {
		if len(msg.ID) > 0 {
			_ = s.sendError(msg.ID, codeInvalidParams, err.Error()) //nolint:errcheck
		}
		s.logf("%s: invalid params: %v", msg.Method, err)
		return false
	}
	return true
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   rpcError{Code: code, Message: message},
	})
}

func (s *Server) sendPublish(uri string, ver *int, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params":  publishDiagnosticsParams{URI: uri, Version: ver, Diagnostics: list},
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.opts.Log, "lsp: "+format+"\n", args...)
}
