package lsp

import (
	"strings"
	"sync"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/jsmorph/pkg/safeconv"
)

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// applyChange applies one content change to text. A change without a range
// replaces the whole document.
func applyChange(text string, change any) (string, bool) {
	switch change := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return change.Text, true
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			return change.Text, true
		}

		start := offsetAt(text, change.Range.Start)
		end := max(offsetAt(text, change.Range.End), start)

		return text[:start] + change.Text + text[end:], true
	case map[string]any:
		whole, ok := change["text"].(string)

		return whole, ok
	default:
		return text, false
	}
}

// positionAt converts a byte offset of text to an LSP position. Characters
// count UTF-16 code units.
func positionAt(text string, offset uint) protocol.Position {
	offset = min(offset, uint(len(text)))
	prefix := text[:offset]
	lineStart := strings.LastIndexByte(prefix, '\n') + 1

	return protocol.Position{
		Line:      safeconv.ClampUintToUint32(safeconv.MustIntToUint(strings.Count(prefix, "\n"))),
		Character: utf16Len(prefix[lineStart:]),
	}
}

// rangeOf converts the byte span [start, end) of text to an LSP range.
func rangeOf(text string, start, end uint) protocol.Range {
	return protocol.Range{Start: positionAt(text, start), End: positionAt(text, end)}
}

// offsetAt converts an LSP position to a byte offset of text, clamping
// positions past the end of a line or of the document.
func offsetAt(text string, pos protocol.Position) int {
	offset := 0

	for range pos.Line {
		next := strings.IndexByte(text[offset:], '\n')
		if next < 0 {
			return len(text)
		}

		offset += next + 1
	}

	var units uint32

	for i, r := range text[offset:] {
		if r == '\n' || units >= pos.Character {
			return offset + i
		}

		units += runeUnits(r)
	}

	return len(text)
}

func utf16Len(s string) uint32 {
	var units uint32

	for _, r := range s {
		units += runeUnits(r)
	}

	return units
}

func runeUnits(r rune) uint32 {
	if utf16.RuneLen(r) == 2 {
		return 2
	}

	return 1
}

// contains reports whether pos lies within rng, both ends inclusive.
func contains(rng protocol.Range, pos protocol.Position) bool {
	return !before(pos, rng.Start) && !before(rng.End, pos)
}

// overlaps reports whether two ranges share at least one position.
func overlaps(a, b protocol.Range) bool {
	return !before(a.End, b.Start) && !before(b.End, a.Start)
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}
