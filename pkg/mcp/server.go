// Package mcp implements a Model Context Protocol server exposing jsmorph
// rule search and rewriting as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "jsmorph"

	// toolCount is the expected number of registered tools.
	toolCount = 4
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Engine runs the rules. Nil creates one with Logger and Tracer.
	Engine *rewrite.Engine

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Rules is an optional rule activity recorder.
	Rules *observability.RuleMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with jsmorph tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	engine  *rewrite.Engine
	logger  *slog.Logger
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	rules   *observability.RuleMetrics
	tracer  trace.Tracer
}

// NewServer creates a new MCP server with all jsmorph tools registered.
func NewServer(deps ServerDeps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := deps.Engine
	if engine == nil {
		opts := []rewrite.Option{rewrite.WithLogger(logger)}
		if deps.Tracer != nil {
			opts = append(opts, rewrite.WithTracer(deps.Tracer))
		}

		var err error

		engine, err = rewrite.NewEngine(opts...)
		if err != nil {
			return nil, fmt.Errorf("create engine: %w", err)
		}
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner:   inner,
		engine:  engine,
		logger:  logger,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		rules:   deps.Rules,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv, nil
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameSearch, searchToolDescription, s.handleSearch)
	addTool(s, ToolNameRewrite, rewriteToolDescription, s.handleRewrite)
	addTool(s, ToolNameApply, applyToolDescription, s.handleApply)
	addTool(s, ToolNameParse, parseToolDescription, s.handleParse)
}

func addTool[Input any](
	s *Server,
	name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, withMetrics(s.metrics, name, withTracing(s.tracer, name, handler)))

	s.trackTool(name)
}

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](
	tracer trace.Tracer,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](
	metrics *observability.REDMetrics,
	toolName string,
	handler func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, mcpSpanPrefix+toolName)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, mcpSpanPrefix+toolName, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) recordRules(ctx context.Context, toolName string, stats observability.RuleStats) {
	if s.rules == nil {
		return
	}

	s.rules.Record(ctx, mcpSpanPrefix+toolName, stats)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	searchToolDescription = "Search JavaScript code for a structural pattern. " +
		"Single-letter identifiers in the pattern are wildcards; a wildcard used twice " +
		"must match equal code. Returns each match with its position and bindings."

	rewriteToolDescription = "Rewrite JavaScript code with a rule of the form " +
		"'pattern -> replacement'. Wildcards bound by the pattern are substituted " +
		"into the replacement. Code outside the matches is preserved byte for byte."

	applyToolDescription = "Apply a YAML rule set (a 'rules' list of name/rule entries) " +
		"to JavaScript code, each rule running on the output of the previous one."

	parseToolDescription = "Parse JavaScript code into its ESTree-shaped syntax tree. " +
		"Returns a JSON representation, optionally filtered to one node kind."
)
