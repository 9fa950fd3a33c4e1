package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
	"github.com/Sumatoshi-tech/jsmorph/pkg/version"
)

const shutdownTimeout = 10 * time.Second

// Request validation errors.
var (
	ErrEmptyCode  = errors.New("code is required")
	ErrEmptyRule  = errors.New("rule is required")
	ErrNoRulesSet = errors.New("rules are required: none configured on the server")
)

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Code string `json:"code"`
	Rule string `json:"rule"`
}

// SearchResponse is the reply of POST /api/search.
type SearchResponse struct {
	Matches     []report.MatchView   `json:"matches"`
	Diagnostics []rewrite.Diagnostic `json:"diagnostics,omitempty"`
}

// RewriteRequest is the body of POST /api/rewrite.
type RewriteRequest struct {
	Code string `json:"code"`
	Rule string `json:"rule"`
	Diff bool   `json:"diff,omitempty"`
}

// RewriteResponse is the reply of POST /api/rewrite.
type RewriteResponse struct {
	Output      string               `json:"output"`
	Changed     bool                 `json:"changed"`
	Edits       int                  `json:"edits"`
	Diff        string               `json:"diff,omitempty"`
	Diagnostics []rewrite.Diagnostic `json:"diagnostics,omitempty"`
}

// ApplyRequest is the body of POST /api/apply. Rules holds a YAML rule set;
// when empty the rule set the server was started with is used.
type ApplyRequest struct {
	Code  string `json:"code"`
	Rules string `json:"rules,omitempty"`
}

// ParseRequest is the body of POST /api/parse.
type ParseRequest struct {
	Code string `json:"code"`
	Kind string `json:"kind,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// serverDeps holds what the HTTP API needs.
type serverDeps struct {
	engine  *rewrite.Engine
	rules   *ruleset.Compiled
	logger  *slog.Logger
	tracer  trace.Tracer
	red     *observability.REDMetrics
	stats   *observability.RuleMetrics
	metrics http.Handler
	maxBody int64
}

type apiServer struct {
	serverDeps
}

func serverCmd(flags *globalFlags) *cobra.Command {
	var (
		port      int
		host      string
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve search and rewrite over HTTP",
		Long: `Server exposes search, rewrite, apply and parse as a JSON API with
health, readiness and Prometheus metrics endpoints.

  POST /api/search   {"code": "...", "rule": "f(a)"}
  POST /api/rewrite  {"code": "...", "rule": "f(a) -> g(a)", "diff": true}
  POST /api/apply    {"code": "...", "rules": "<YAML rule set>"}
  POST /api/parse    {"code": "...", "kind": "CallExpression"}
  GET  /healthz  /readyz  /metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(flags, observability.ModeServe)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}

			deps, err := buildServerDeps(cmd.Context(), a, rulesPath)
			if err != nil {
				return err
			}

			return startServer(cmd.Context(), a, newServerMux(deps))
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default server.port from config)")
	cmd.Flags().StringVar(&host, "host", "", "host to bind (default server.host from config)")
	cmd.Flags().StringVarP(&rulesPath, "rules", "r", "", "rule set used by /api/apply when a request has none")

	return cmd
}

func buildServerDeps(ctx context.Context, a *app, rulesPath string) (serverDeps, error) {
	prom, err := observability.NewPrometheus()
	if err != nil {
		return serverDeps{}, err
	}

	red, err := observability.NewREDMetrics(prom.Meter)
	if err != nil {
		return serverDeps{}, err
	}

	stats, err := observability.NewRuleMetrics(prom.Meter)
	if err != nil {
		return serverDeps{}, err
	}

	maxBody, err := a.cfg.Server.MaxBodyBytes()
	if err != nil {
		return serverDeps{}, err
	}

	deps := serverDeps{
		engine:  a.engine,
		logger:  a.logger,
		tracer:  a.providers.Tracer,
		red:     red,
		stats:   stats,
		metrics: prom.Handler,
		maxBody: int64(min(maxBody, uint64(1<<62))),
	}

	if rulesPath != "" || a.cfg.Rules.File != "" {
		deps.rules, err = a.loadRules(ctx, rulesPath)
		if err != nil {
			return serverDeps{}, err
		}
	}

	return deps, nil
}

// newServerMux creates the HTTP mux with the API routes wrapped in tracing
// and RED metrics middleware.
func newServerMux(deps serverDeps) http.Handler {
	if deps.logger == nil {
		deps.logger = slog.Default()
	}

	if deps.tracer == nil {
		deps.tracer = otel.Tracer("jsmorph.server")
	}

	srv := &apiServer{serverDeps: deps}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/search", srv.handleSearch)
	api.HandleFunc("POST /api/rewrite", srv.handleRewrite)
	api.HandleFunc("POST /api/apply", srv.handleApply)
	api.HandleFunc("POST /api/parse", srv.handleParse)

	mux := http.NewServeMux()
	mux.Handle("/api/", observability.HTTPMiddleware(deps.tracer, deps.red, api))
	mux.Handle("GET /healthz", observability.HealthHandler(version.Version))
	mux.Handle("GET /readyz", observability.ReadyHandler(srv.ready))

	if deps.metrics != nil {
		mux.Handle("GET /metrics", deps.metrics)
	}

	return mux
}

func startServer(ctx context.Context, a *app, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("jsmorph server starting", "addr", "http://"+server.Addr)

		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("jsmorph server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// ready checks that the engine parses a trivial program.
func (s *apiServer) ready(ctx context.Context) error {
	_, err := s.engine.Parser().ParseString(ctx, "0;")

	return err
}

func (s *apiServer) handleSearch(rw http.ResponseWriter, hr *http.Request) {
	var req SearchRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	if !s.require(rw, hr, req.Code, ErrEmptyCode) || !s.require(rw, hr, req.Rule, ErrEmptyRule) {
		return
	}

	source := []byte(req.Code)

	result, err := s.engine.Search(hr.Context(), source, req.Rule)
	if err != nil {
		s.fail(rw, hr, http.StatusBadRequest, err)

		return
	}

	s.record(hr.Context(), "search", observability.RuleStats{
		Matches:     len(result.Matches),
		Diagnostics: len(result.Diagnostics),
	})

	writeJSONResponse(hr.Context(), rw, http.StatusOK, SearchResponse{
		Matches:     report.MatchViews("", source, result.Matches),
		Diagnostics: result.Diagnostics,
	})
}

func (s *apiServer) handleRewrite(rw http.ResponseWriter, hr *http.Request) {
	var req RewriteRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	if !s.require(rw, hr, req.Code, ErrEmptyCode) || !s.require(rw, hr, req.Rule, ErrEmptyRule) {
		return
	}

	result, err := s.engine.Rewrite(hr.Context(), []byte(req.Code), req.Rule)
	if err != nil {
		s.fail(rw, hr, http.StatusBadRequest, err)

		return
	}

	s.record(hr.Context(), "rewrite", observability.RuleStats{
		Matches:     len(result.Matches),
		Edits:       len(result.Edits),
		Diagnostics: len(result.Diagnostics),
	})

	resp := RewriteResponse{
		Output:      result.Output,
		Changed:     result.Changed(),
		Edits:       len(result.Edits),
		Diagnostics: result.Diagnostics,
	}

	if req.Diff {
		resp.Diff = report.UnifiedDiff("input.js", req.Code, result.Output, report.DiffOptions{})
	}

	writeJSONResponse(hr.Context(), rw, http.StatusOK, resp)
}

func (s *apiServer) handleApply(rw http.ResponseWriter, hr *http.Request) {
	var req ApplyRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	if !s.require(rw, hr, req.Code, ErrEmptyCode) {
		return
	}

	rules := s.rules

	if req.Rules != "" {
		rs, err := ruleset.Parse([]byte(req.Rules))
		if err != nil {
			s.fail(rw, hr, http.StatusBadRequest, err)

			return
		}

		rules, err = rs.Compile(hr.Context(), s.engine, s.logger)
		if err != nil {
			s.fail(rw, hr, http.StatusBadRequest, err)

			return
		}
	}

	if rules == nil {
		s.fail(rw, hr, http.StatusBadRequest, ErrNoRulesSet)

		return
	}

	result, err := rules.Apply(hr.Context(), s.engine, []byte(req.Code))
	if err != nil {
		s.fail(rw, hr, http.StatusBadRequest, err)

		return
	}

	edits := 0
	for _, applied := range result.Applied {
		edits += applied.Edits
	}

	s.record(hr.Context(), "apply", observability.RuleStats{Edits: edits, Diagnostics: len(result.Diagnostics)})

	writeJSONResponse(hr.Context(), rw, http.StatusOK, result)
}

func (s *apiServer) handleParse(rw http.ResponseWriter, hr *http.Request) {
	var req ParseRequest
	if !s.decode(rw, hr, &req) {
		return
	}

	if !s.require(rw, hr, req.Code, ErrEmptyCode) {
		return
	}

	root, err := s.engine.Parser().ParseString(hr.Context(), req.Code)
	if err != nil {
		s.fail(rw, hr, http.StatusBadRequest, err)

		return
	}

	if req.Kind == "" {
		writeJSONResponse(hr.Context(), rw, http.StatusOK, root.ToMap())

		return
	}

	nodes := []map[string]any{}

	for _, n := range root.Find(func(n *node.Node) bool { return string(n.Kind) == req.Kind }) {
		nodes = append(nodes, n.ToMap())
	}

	writeJSONResponse(hr.Context(), rw, http.StatusOK, nodes)
}

func (s *apiServer) decode(rw http.ResponseWriter, hr *http.Request, dst any) bool {
	body := hr.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(rw, hr.Body, s.maxBody)
	}

	err := json.NewDecoder(body).Decode(dst)
	if err != nil {
		code := http.StatusBadRequest

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			code = http.StatusRequestEntityTooLarge
		}

		s.fail(rw, hr, code, fmt.Errorf("invalid request body: %w", err))

		return false
	}

	return true
}

func (s *apiServer) require(rw http.ResponseWriter, hr *http.Request, value string, missing error) bool {
	if value != "" {
		return true
	}

	s.fail(rw, hr, http.StatusBadRequest, missing)

	return false
}

func (s *apiServer) fail(rw http.ResponseWriter, hr *http.Request, code int, err error) {
	s.logger.DebugContext(hr.Context(), "api request failed", "path", hr.URL.Path, "error", err)
	writeJSONResponse(hr.Context(), rw, code, errorResponse{Error: err.Error()})
}

func (s *apiServer) record(ctx context.Context, op string, stats observability.RuleStats) {
	if s.stats != nil {
		s.stats.Record(ctx, op, stats)
	}
}

// writeJSONResponse encodes value as the JSON response body.
func writeJSONResponse(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		slog.Default().ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
