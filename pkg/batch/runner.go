// Package batch runs searches and rewrites over many JavaScript files with
// a pool of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/safeconv"
)

const tracerName = "jsmorph.batch"

// ErrFileTooLarge marks a file skipped for exceeding the size limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Options configures a Runner.
type Options struct {
	// Workers is the pool size; 0 means one per CPU.
	Workers int
	// MaxFileSize skips larger files; 0 disables the limit.
	MaxFileSize uint64
	// IncludeVendored keeps files enry classifies as vendored.
	IncludeVendored bool
	// Extensions lists the file extensions walked directories keep.
	Extensions []string
	// Write stores changed output back to the file.
	Write bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Extensions: DefaultExtensions}
}

// Outcome is what a Job reports for one file.
type Outcome struct {
	Matches []report.MatchView
	Output  string
	Changed bool
}

// Job processes the source of one file.
type Job func(ctx context.Context, path string, source []byte) (*Outcome, error)

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string             `json:"path"`
	Bytes   int                `json:"bytes"`
	Matches []report.MatchView `json:"matches,omitempty"`
	Changed bool               `json:"changed,omitempty"`
	Written bool               `json:"written,omitempty"`
	Skipped bool               `json:"skipped,omitempty"`
	Error   string             `json:"error,omitempty"`

	// Source and Output hold the text before and after a rewrite.
	Source []byte `json:"-"`
	Output string `json:"-"`
	Err    error  `json:"-"`
}

// Result holds per-file results in input order and their totals.
type Result struct {
	Files   []FileResult   `json:"files"`
	Summary report.Summary `json:"summary"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// Runner fans a Job out over files.
type Runner struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

// NewRunner creates a Runner.
func NewRunner(opts Options, options ...Option) *Runner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}

	r := &Runner{
		opts:   opts,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

type indexedFile struct {
	index int
	path  string
}

// Run processes files concurrently. Per-file failures are recorded in the
// result and do not stop the run; cancelling ctx does.
func (r *Runner) Run(ctx context.Context, files []string, job Job) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "jsmorph.batch.run",
		trace.WithAttributes(attribute.Int("jsmorph.batch.files", len(files))))
	defer span.End()

	start := time.Now()

	workers := r.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = max(min(workers, len(files)), 1)

	results := make([]FileResult, len(files))
	fileCh := make(chan indexedFile, workers)

	var (
		completed atomic.Int64
		wg        sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for item := range fileCh {
				results[item.index] = r.process(ctx, item.path, job)
				completed.Add(1)
			}
		}()
	}

feed:
	for i, path := range files {
		select {
		case <-ctx.Done():
			break feed
		case fileCh <- indexedFile{index: i, path: path}:
		}
	}

	close(fileCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("batch cancelled after %d files: %w", completed.Load(), err)
	}

	result := &Result{Files: results, Summary: summarize(results)}
	result.Summary.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("jsmorph.batch.matches", result.Summary.Matches),
		attribute.Int("jsmorph.batch.changed", result.Summary.Changed),
		attribute.Int("jsmorph.batch.failed", result.Summary.Failed),
	)

	r.logger.Debug("batch: done", "files", len(files), "workers", workers, "duration", result.Summary.Duration)

	return result, nil
}

func (r *Runner) process(ctx context.Context, path string, job Job) FileResult {
	ctx, span := r.tracer.Start(ctx, observability.SpanBatchFile)
	defer span.End()

	ctx = observability.WithLogAttrs(ctx, slog.String(observability.AttrFile, path))

	result := FileResult{Path: path}

	source, mode, err := r.read(path)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			r.logger.DebugContext(ctx, "batch: skipped file", "error", err)

			result.Skipped = true

			return result
		}

		return failed(result, err)
	}

	result.Bytes = len(source)
	result.Source = source

	outcome, err := job(ctx, path, source)
	if err != nil {
		r.logger.WarnContext(ctx, "batch: file failed", "error", err)

		return failed(result, err)
	}

	result.Matches = outcome.Matches
	result.Changed = outcome.Changed && outcome.Output != string(source)
	result.Output = outcome.Output

	if r.opts.Write && result.Changed {
		err = os.WriteFile(path, []byte(outcome.Output), mode.Perm())
		if err != nil {
			return failed(result, fmt.Errorf("write %s: %w", path, err))
		}

		result.Written = true

		r.logger.InfoContext(ctx, "batch: rewrote file")
	}

	return result
}

func (r *Runner) read(path string) ([]byte, os.FileMode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}

	if r.opts.MaxFileSize > 0 && info.Size() > 0 && uint64(info.Size()) > r.opts.MaxFileSize {
		return nil, 0, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}

	source, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}

	return source, info.Mode(), nil
}

func failed(result FileResult, err error) FileResult {
	result.Err = err
	result.Error = err.Error()

	return result
}

func summarize(results []FileResult) report.Summary {
	var s report.Summary

	for _, res := range results {
		switch {
		case res.Skipped:
			s.Skipped++
		case res.Err != nil:
			s.Failed++
		default:
			s.Files++
			s.Matches += len(res.Matches)
			s.Bytes += uint64(safeconv.MustIntToUint(res.Bytes))

			if res.Changed {
				s.Changed++
			}
		}
	}

	return s
}
