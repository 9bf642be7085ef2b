// Package buffer abstracts the live document a session edits. The engine
// only ever sees this capability; rendering, decorations and scrolling stay
// with the host.
package buffer

import (
	"context"
	"strings"
)

// Position is a 0-indexed line/column pair.
type Position struct {
	Line int
	Col  int
}

// TextBuffer is the minimal capability a document session needs.
type TextBuffer interface {
	// Read returns the full current text.
	Read(ctx context.Context) (string, error)
	// Write replaces the entire text transactionally.
	Write(ctx context.Context, content string) error
	// Persist writes the current text to durable storage.
	Persist(ctx context.Context) error
	// Revert discards the current text in favor of the given snapshot and
	// persists it.
	Revert(ctx context.Context, snapshot string) error
}

// PositionAt maps an absolute character offset into content to a
// line/column position. Offsets past the end clamp to the last position.
func PositionAt(content string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	prefix := content[:offset]
	line := strings.Count(prefix, "\n")
	col := offset
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		col = offset - i - 1
	}
	return Position{Line: line, Col: col}
}
