package mcp

import (
	"context"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := NewServer(ServerDeps{})
	require.NoError(t, err)

	return srv
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestHandleSearch(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	result, output, err := srv.handleSearch(context.Background(), nil, SearchInput{
		Code: "f(1, 2);\nf(3, 4);\n",
		Rule: "f(a, b)",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	found, ok := output.Data.(SearchOutput)
	require.True(t, ok)
	require.Len(t, found.Matches, 2)

	assert.Equal(t, "f(1, 2)", found.Matches[0].Text)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "f": "f"}, found.Matches[0].Bindings)
	assert.Equal(t, uint(2), found.Matches[1].Line)
	assert.Contains(t, resultText(t, result), `"matches"`)
}

func TestHandleSearch_NoMatches(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	result, output, err := srv.handleSearch(context.Background(), nil, SearchInput{
		Code: "g(1);",
		Rule: "foo(a)",
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	found, ok := output.Data.(SearchOutput)
	require.True(t, ok)
	assert.Empty(t, found.Matches)
	assert.Contains(t, resultText(t, result), `"matches": []`)
}

func TestHandleRewrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   RewriteInput
		output  string
		changed bool
		diff    string
	}{
		{
			name:    "swap",
			input:   RewriteInput{Code: "x = 1 + 2;\n", Rule: "a + b -> b + a"},
			output:  "x = 2 + 1;\n",
			changed: true,
		},
		{
			name:    "with diff",
			input:   RewriteInput{Code: "x = 1 + 2;\n", Rule: "a + b -> b + a", Diff: true},
			output:  "x = 2 + 1;\n",
			changed: true,
			diff:    "+x = 2 + 1;",
		},
		{
			name:   "no separator leaves code unchanged",
			input:  RewriteInput{Code: "x = 1 + 2;\n", Rule: "a + b"},
			output: "x = 1 + 2;\n",
		},
		{
			name:   "no match",
			input:  RewriteInput{Code: "x = 1 - 2;\n", Rule: "a + b -> b + a"},
			output: "x = 1 - 2;\n",
		},
	}

	srv := newTestServer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, output, err := srv.handleRewrite(context.Background(), nil, tt.input)
			require.NoError(t, err)
			require.False(t, result.IsError, resultText(t, result))

			rewritten, ok := output.Data.(RewriteOutput)
			require.True(t, ok)
			assert.Equal(t, tt.output, rewritten.Output)
			assert.Equal(t, tt.changed, rewritten.Changed)

			if tt.diff == "" {
				assert.Empty(t, rewritten.Diff)
			} else {
				assert.Contains(t, rewritten.Diff, tt.diff)
			}
		})
	}
}

func TestHandleApply(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rules := "rules:\n" +
		"  - name: swap\n" +
		"    rule: a + b -> b + a\n" +
		"  - name: rename\n" +
		"    rule: foo(x) -> bar(x)\n"

	result, output, err := srv.handleApply(context.Background(), nil, ApplyInput{
		Code:  "foo(1 + 2);\n",
		Rules: rules,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	applied, ok := output.Data.(*ruleset.Result)
	require.True(t, ok)
	assert.Equal(t, "bar(2 + 1);\n", applied.Output)
	assert.Len(t, applied.Applied, 2)
}

func TestHandleParse(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	result, output, err := srv.handleParse(context.Background(), nil, ParseInput{Code: "f(g(1));"})
	require.NoError(t, err)
	require.False(t, result.IsError)

	tree, ok := output.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Program", tree["kind"])

	_, output, err = srv.handleParse(context.Background(), nil, ParseInput{Code: "f(g(1));", Kind: "CallExpression"})
	require.NoError(t, err)

	filtered, ok := output.Data.(ParseOutput)
	require.True(t, ok)
	assert.Len(t, filtered.Nodes, 2)
}

func TestHandlers_InvalidInput(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*mcpsdk.CallToolResult, ToolOutput, error)
		want string
	}{
		{
			name: "search empty code",
			call: func() (*mcpsdk.CallToolResult, ToolOutput, error) {
				return srv.handleSearch(ctx, nil, SearchInput{Rule: "f(a)"})
			},
			want: ErrEmptyCode.Error(),
		},
		{
			name: "search empty rule",
			call: func() (*mcpsdk.CallToolResult, ToolOutput, error) {
				return srv.handleSearch(ctx, nil, SearchInput{Code: "f(1);"})
			},
			want: ErrEmptyRule.Error(),
		},
		{
			name: "rewrite syntax error",
			call: func() (*mcpsdk.CallToolResult, ToolOutput, error) {
				return srv.handleRewrite(ctx, nil, RewriteInput{Code: "f(", Rule: "f(a) -> g(a)"})
			},
			want: "rewrite",
		},
		{
			name: "apply empty rules",
			call: func() (*mcpsdk.CallToolResult, ToolOutput, error) {
				return srv.handleApply(ctx, nil, ApplyInput{Code: "f(1);"})
			},
			want: ErrEmptyRuleSet.Error(),
		},
		{
			name: "apply invalid rule set",
			call: func() (*mcpsdk.CallToolResult, ToolOutput, error) {
				return srv.handleApply(ctx, nil, ApplyInput{Code: "f(1);", Rules: "rules: 3"})
			},
			want: "invalid rule set",
		},
		{
			name: "parse too large",
			call: func() (*mcpsdk.CallToolResult, ToolOutput, error) {
				return srv.handleParse(ctx, nil, ParseInput{Code: string(make([]byte, MaxCodeInputBytes+1))})
			},
			want: "exceeds maximum size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, _, err := tt.call()
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}
