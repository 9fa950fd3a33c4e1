package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/jsmorph/pkg/observability"
	"github.com/Sumatoshi-tech/jsmorph/pkg/report"
	"github.com/Sumatoshi-tech/jsmorph/pkg/rewrite"
)

const (
	replPrompt  = "jsmorph> "
	historyFile = ".jsmorph_history"
	replHelp    = `Type a rule to try it on the current source:
  f(a, b)               search
  f(a, b) -> f(b, a)    rewrite (preview)

Commands:
  :source CODE   replace the current source
  :load FILE     load the current source from a file
  :show          print the current source
  :accept        make the last rewrite the current source
  :parse         print the syntax tree of the current source
  :help          show this help
  :quit          leave`
)

func replCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl [file]",
		Short: "Try rules interactively",
		Long: `Repl loads a source (a file, or an empty program) and evaluates each
entered rule against it, showing matches and bindings for patterns and a
diff for rewrite rules.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer a.close()

			session := &replSession{engine: a.engine}

			if len(args) == 1 {
				err = session.load(args[0])
				if err != nil {
					return err
				}
			}

			return runREPL(cmd.Context(), session, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runREPL(ctx context.Context, session *replSession, w io.Writer) error {
	fmt.Fprintln(w, "jsmorph repl. Type :help for commands.")

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
	}

	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)

	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := ln.Prompt(replPrompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(w)

			break
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}

		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		ln.AppendHistory(line)

		if session.eval(ctx, w, line) {
			break
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}

	return nil
}

// replSession is the state of one interactive session.
type replSession struct {
	engine  *rewrite.Engine
	source  string
	pending string
}

func (s *replSession) load(path string) error {
	content, _, err := safeReadFile(path)
	if err != nil {
		return err
	}

	s.source = string(content)
	s.pending = ""

	return nil
}

// eval runs one line of input and reports whether the session should end.
func (s *replSession) eval(ctx context.Context, w io.Writer, line string) bool {
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, ":") {
		s.try(ctx, w, line)

		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(w, replHelp)
	case ":source":
		s.source = arg
		s.pending = ""
	case ":load":
		err := s.load(arg)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	case ":show":
		fmt.Fprintln(w, s.source)
	case ":accept":
		if s.pending == "" {
			fmt.Fprintln(w, "nothing to accept")

			break
		}

		s.source = s.pending
		s.pending = ""
	case ":parse":
		root, err := s.engine.Parser().ParseString(ctx, s.source)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)

			break
		}

		_ = writeJSON(w, root.ToMap())
	default:
		fmt.Fprintf(w, "unknown command %s, try :help\n", sanitizeForTerminal(command))
	}

	return false
}

// try searches for, or previews the rewrite of, rule over the current source.
func (s *replSession) try(ctx context.Context, w io.Writer, rule string) {
	source := []byte(s.source)

	if !rewrite.IsRewriteRule(rule) {
		result, err := s.engine.Search(ctx, source, rule)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)

			return
		}

		writeDiagnostics(w, result.Diagnostics)

		for _, view := range report.MatchViews("", source, result.Matches) {
			fmt.Fprintf(w, "%d:%d  %s  %s\n", view.Line, view.Column, report.Snippet(view.Text), bindingsOf(view))
		}

		fmt.Fprintf(w, "%d match(es)\n", len(result.Matches))

		return
	}

	compiled, err := s.engine.Compile(ctx, rule)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)

		return
	}

	result, err := s.engine.RewriteRule(ctx, source, compiled)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)

		return
	}

	writeDiagnostics(w, result.Diagnostics)

	if !result.Changed() {
		fmt.Fprintln(w, "no change")

		return
	}

	s.pending = result.Output

	fmt.Fprint(w, report.UnifiedDiff("source.js", s.source, result.Output, report.DiffOptions{}))
	fmt.Fprintf(w, "%d edit(s), :accept to keep\n", len(result.Edits))
}

func bindingsOf(view report.MatchView) string {
	if len(view.Bindings) == 0 {
		return ""
	}

	parts := make([]string, 0, len(view.Bindings))

	for _, name := range slices.Sorted(maps.Keys(view.Bindings)) {
		parts = append(parts, name+"="+report.Snippet(view.Bindings[name]))
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
