// Package lsp provides a Language Server Protocol server that reports the
// matches of a rule set in open JavaScript documents and offers the rewrites
// as quick fixes.
package lsp

import (
	"fmt"
	"log/slog"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
	"github.com/Sumatoshi-tech/jsmorph/pkg/version"
)

const (
	serverName = "jsmorph"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
)

// ServerDeps holds injectable dependencies for the LSP server.
type ServerDeps struct {
	// Engine runs the rules. Nil creates one with Logger.
	Engine *rewrite.Engine

	// Rules are reported in open documents. Nil reports syntax errors only.
	Rules *ruleset.Compiled

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger
}

// Server implements the jsmorph LSP server.
type Server struct {
	store   *DocumentStore
	handler protocol.Handler
	engine  *rewrite.Engine
	rules   *ruleset.Compiled
	logger  *slog.Logger
}

// NewServer creates a new LSP server with default handlers.
func NewServer(deps ServerDeps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := deps.Engine
	if engine == nil {
		var err error

		engine, err = rewrite.NewEngine(rewrite.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create engine: %w", err)
		}
	}

	rules := deps.Rules
	if rules == nil {
		rules = &ruleset.Compiled{}
	}

	srv := &Server{
		store:  NewDocumentStore(),
		engine: engine,
		rules:  rules,
		logger: logger,
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentHover:      srv.hover,
		TextDocumentCodeAction: srv.codeAction,
	}

	return srv, nil
}

// Run starts the LSP server on stdio. It blocks until the client exits.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	serverVersion := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	srv.logger.Info("lsp: client initialized", "rules", len(srv.rules.Rules))

	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil
	}

	changed := false

	for _, change := range params.ContentChanges {
		next, applied := applyChange(text, change)
		if applied {
			text = next
			changed = true
		}
	}

	if changed {
		srv.store.Set(uri, text)
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil // LSP protocol expects nil hover when no document found.
	}

	hits := srv.findingsAt(text, func(rng protocol.Range) bool {
		return contains(rng, params.Position)
	})
	if len(hits) == 0 {
		return nil, nil // LSP protocol expects nil hover when no rule matches.
	}

	hit := narrowest(hits)

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: hoverText(hit),
		},
		Range: &hit.rng,
	}, nil
}

func (srv *Server) codeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	uri := params.TextDocument.URI

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil, nil
	}

	hits := srv.findingsAt(text, func(rng protocol.Range) bool {
		return overlaps(rng, params.Range)
	})

	actions := make([]protocol.CodeAction, 0, len(hits)+1)

	for _, hit := range hits {
		if hit.fix == nil {
			continue
		}

		actions = append(actions, quickFix(uri, hit))
	}

	if fixAll, ok := srv.fixAll(uri, text); ok {
		actions = append(actions, fixAll)
	}

	return actions, nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: srv.diagnose(text),
	})
}
