package lsp

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

const (
	testURI    = "file:///app.js"
	testSource = "if (x == null) {\n  eval(s);\n}\n"
	testRules  = `
rules:
  - name: strict-null
    rule: "a == null -> a === null"
  - name: no-eval
    rule: "eval(a)"
    description: eval is forbidden
`
)

// recorder captures notifications sent to the client.
type recorder struct {
	mu     sync.Mutex
	params []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method != methodPublishDiagnostics {
				return
			}

			published, ok := params.(*protocol.PublishDiagnosticsParams)
			if !ok {
				return
			}

			r.mu.Lock()
			defer r.mu.Unlock()

			r.params = append(r.params, published)
		},
	}
}

func (r *recorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.params)

	return r.params[len(r.params)-1]
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	engine, err := rewrite.NewEngine()
	require.NoError(t, err)

	rs, err := ruleset.Parse([]byte(testRules))
	require.NoError(t, err)

	compiled, err := rs.Compile(context.Background(), engine, nil)
	require.NoError(t, err)

	srv, err := NewServer(ServerDeps{Engine: engine, Rules: compiled})
	require.NoError(t, err)

	return srv
}

func open(t *testing.T, srv *Server, rec *recorder, text string) {
	t.Helper()

	err := srv.didOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, LanguageID: "javascript", Text: text},
	})
	require.NoError(t, err)
}

func pos(line, character uint32) protocol.Position {
	return protocol.Position{Line: line, Character: character}
}

func TestDocumentStore(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()

	_, ok := store.Get(testURI)
	assert.False(t, ok)

	store.Set(testURI, "a")
	store.Set(testURI, "b")

	got, ok := store.Get(testURI)
	require.True(t, ok)
	assert.Equal(t, "b", got)

	store.Delete(testURI)

	_, ok = store.Get(testURI)
	assert.False(t, ok)
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			store.Set(testURI, "x")
			store.Get(testURI)

			if i%2 == 0 {
				store.Delete(testURI)
			}
		}()
	}

	wg.Wait()
}

func TestPositions(t *testing.T) {
	t.Parallel()

	text := "ab\né = 1;\n😀x\n"

	tests := []struct {
		name   string
		offset uint
		want   protocol.Position
	}{
		{name: "start", offset: 0, want: pos(0, 0)},
		{name: "end of first line", offset: 2, want: pos(0, 2)},
		{name: "second line", offset: 3, want: pos(1, 0)},
		{name: "after two-byte rune", offset: 5, want: pos(1, 1)},
		{name: "after surrogate pair", offset: 15, want: pos(2, 2)},
		{name: "clamped", offset: 100, want: pos(3, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := positionAt(text, tt.offset)
			assert.Equal(t, tt.want, got)

			if tt.offset <= uint(len(text)) {
				assert.Equal(t, int(tt.offset), offsetAt(text, got))
			}
		})
	}

	assert.Equal(t, 2, offsetAt(text, pos(0, 40)))
	assert.Equal(t, len(text), offsetAt(text, pos(9, 0)))
}

func TestApplyChange(t *testing.T) {
	t.Parallel()

	ranged := protocol.Range{Start: pos(0, 8), End: pos(0, 9)}

	tests := []struct {
		name   string
		change any
		want   string
		ok     bool
	}{
		{name: "whole", change: protocol.TextDocumentContentChangeEventWhole{Text: "y;"}, want: "y;", ok: true},
		{name: "ranged", change: protocol.TextDocumentContentChangeEvent{Range: &ranged, Text: "42"}, want: "let x = 42;", ok: true},
		{name: "event without range", change: protocol.TextDocumentContentChangeEvent{Text: "z;"}, want: "z;", ok: true},
		{name: "raw map", change: map[string]any{"text": "w;"}, want: "w;", ok: true},
		{name: "unknown", change: 42, want: "let x = 1;", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := applyChange("let x = 1;", tt.change)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDidOpen_PublishesFindings(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := &recorder{}

	open(t, srv, rec, testSource)

	published := rec.last(t)
	assert.Equal(t, testURI, published.URI)
	require.Len(t, published.Diagnostics, 2)

	strict := published.Diagnostics[0]
	assert.Equal(t, protocol.Range{Start: pos(0, 4), End: pos(0, 13)}, strict.Range)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *strict.Severity)
	assert.Equal(t, "strict-null", strict.Code.Value)
	assert.Equal(t, "a == null -> a === null", strict.Message)
	assert.Equal(t, diagnosticSource, *strict.Source)

	eval := published.Diagnostics[1]
	assert.Equal(t, protocol.Range{Start: pos(1, 2), End: pos(1, 9)}, eval.Range)
	assert.Equal(t, protocol.DiagnosticSeverityInformation, *eval.Severity)
	assert.Equal(t, "eval is forbidden", eval.Message)
}

func TestDidOpen_SyntaxError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := &recorder{}

	open(t, srv, rec, "let ok = 1;\nf(\n")

	published := rec.last(t)
	require.Len(t, published.Diagnostics, 1)

	diagnostic := published.Diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, *diagnostic.Severity)
	assert.Contains(t, diagnostic.Message, "syntax error")
	assert.GreaterOrEqual(t, diagnostic.Range.Start.Line, uint32(1))
}

func TestDidChangeAndClose(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := &recorder{}

	open(t, srv, rec, testSource)

	err := srv.didChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "run();\n"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, rec.last(t).Diagnostics)

	text, ok := srv.store.Get(testURI)
	require.True(t, ok)
	assert.Equal(t, "run();\n", text)

	err = srv.didClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	_, ok = srv.store.Get(testURI)
	assert.False(t, ok)
	assert.Empty(t, rec.last(t).Diagnostics)
}

func TestHover(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := &recorder{}

	open(t, srv, rec, testSource)

	hover, err := srv.hover(rec.context(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     pos(0, 6),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)

	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, content.Value, "**strict-null**")
	assert.Contains(t, content.Value, "- `a` = `x`")
	assert.Contains(t, content.Value, "Rewrites `x == null` to `x === null`")

	hover, err = srv.hover(rec.context(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     pos(2, 0),
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestCodeAction(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := &recorder{}

	open(t, srv, rec, testSource)

	result, err := srv.codeAction(rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Range:        protocol.Range{Start: pos(0, 5), End: pos(0, 5)},
	})
	require.NoError(t, err)

	actions, ok := result.([]protocol.CodeAction)
	require.True(t, ok)
	require.Len(t, actions, 2)

	fix := actions[0]
	assert.Equal(t, protocol.CodeActionKindQuickFix, *fix.Kind)
	assert.Equal(t, "strict-null: rewrite to x === null", fix.Title)
	assert.Equal(t, []protocol.TextEdit{{
		Range:   protocol.Range{Start: pos(0, 4), End: pos(0, 13)},
		NewText: "x === null",
	}}, fix.Edit.Changes[testURI])

	all := actions[1]
	assert.Equal(t, protocol.CodeActionKindSourceFixAll, *all.Kind)
	assert.Equal(t, "if (x === null) {\n  eval(s);\n}\n", all.Edit.Changes[testURI][0].NewText)
}

func TestCodeAction_SameTextRuleOffersNoFix(t *testing.T) {
	t.Parallel()

	engine, err := rewrite.NewEngine()
	require.NoError(t, err)

	rs, err := ruleset.Parse([]byte("rules:\n  - name: same\n    rule: \"a + b -> a + b\"\n"))
	require.NoError(t, err)

	compiled, err := rs.Compile(context.Background(), engine, nil)
	require.NoError(t, err)

	srv, err := NewServer(ServerDeps{Engine: engine, Rules: compiled})
	require.NoError(t, err)

	rec := &recorder{}

	open(t, srv, rec, "v = 1 + 2;\n")
	assert.Len(t, rec.last(t).Diagnostics, 1)

	result, err := srv.codeAction(rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Range:        protocol.Range{Start: pos(0, 5), End: pos(0, 5)},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestServerWithoutRules(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(ServerDeps{})
	require.NoError(t, err)

	rec := &recorder{}

	open(t, srv, rec, testSource)
	assert.Empty(t, rec.last(t).Diagnostics)

	result, err := srv.codeAction(rec.context(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestInitialize(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	result, err := srv.initialize(&glsp.Context{}, &protocol.InitializeParams{})
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
	assert.NotNil(t, initResult.Capabilities.HoverProvider)
	assert.NotNil(t, initResult.Capabilities.CodeActionProvider)
}
