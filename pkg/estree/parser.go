// Package estree parses JavaScript into the node model using tree-sitter.
package estree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/javascript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/jsmorph/pkg/estree/node"
)

// Sentinel errors for parser operations.
var (
	// ErrSyntax is wrapped by every SyntaxError.
	ErrSyntax = errors.New("syntax error")

	errLanguageNotAvailable = errors.New("tree-sitter javascript language not available")
	errNoRootNode           = errors.New("parser: no root node")
	errPoolType             = errors.New("parser: pool returned unexpected type")
)

// treeSitterError is the node type tree-sitter uses for unparseable input.
const treeSitterError = "ERROR"

// nearLen is how much source text a SyntaxError quotes.
const nearLen = 24

// SyntaxError reports the first invalid region of the input.
type SyntaxError struct {
	Near   string
	Line   uint
	Column uint
	// Offset is the byte offset of the invalid region.
	Offset uint
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d:%d near %q", ErrSyntax, e.Line, e.Column, e.Near)
}

// Unwrap makes errors.Is(err, ErrSyntax) hold.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

var (
	languageOnce sync.Once
	language     *sitter.Language
)

// Language returns the tree-sitter JavaScript grammar.
func Language() *sitter.Language {
	languageOnce.Do(func() {
		ptr := javascript.GetLanguage()
		if ptr != nil {
			language = sitter.NewLanguage(ptr)
		}
	})

	return language
}

// Parser turns JavaScript source into a node tree. It is safe for concurrent use.
type Parser struct {
	tsParserPool sync.Pool
}

// NewParser creates a Parser backed by a pool of tree-sitter parsers.
func NewParser() (*Parser, error) {
	lang := Language()
	if lang == nil {
		return nil, errLanguageNotAvailable
	}

	return &Parser{
		tsParserPool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}, nil
}

// Parse parses a complete program. Syntactically invalid input yields a
// *SyntaxError.
func (p *Parser) Parse(ctx context.Context, source []byte) (*node.Node, error) {
	tsParser, ok := p.tsParserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.tsParserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parser: failed to parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	if bad, found := firstInvalid(root, true); found {
		return nil, syntaxErrorAt(bad, source)
	}

	lw := &lowerer{source: source}

	return lw.lower(root), nil
}

// ParseString is Parse for string input.
func (p *Parser) ParseString(ctx context.Context, source string) (*node.Node, error) {
	return p.Parse(ctx, []byte(source))
}

// firstInvalid finds the first ERROR node or zero-width leaf (a token the
// parser had to insert) in document order. Inserted semicolons are legal.
func firstInvalid(ts sitter.Node, isRoot bool) (sitter.Node, bool) {
	if ts.Type() == treeSitterError {
		return ts, true
	}

	if !isRoot && ts.ChildCount() == 0 && ts.StartByte() == ts.EndByte() && ts.Type() != ";" {
		return ts, true
	}

	for i := range ts.ChildCount() {
		if bad, found := firstInvalid(ts.Child(i), false); found {
			return bad, true
		}
	}

	return sitter.Node{}, false
}

func syntaxErrorAt(ts sitter.Node, source []byte) *SyntaxError {
	start := ts.StartPoint()

	from := ts.StartByte()
	to := min(from+nearLen, uint(len(source)))

	near := ""
	if from < to {
		near = strings.TrimSpace(string(source[from:to]))
	}

	return &SyntaxError{
		Line:   start.Row + 1,
		Column: start.Column + 1,
		Offset: from,
		Near:   near,
	}
}
