// Package session tracks one open document while streamed edit blocks are
// applied to it: the original snapshot, the live rebuilt content, and the
// commit/revert protocol against the host's text buffer.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Jedanoski/claude-coder/internal/buffer"
	"github.com/Jedanoski/claude-coder/internal/diff"
	"github.com/Jedanoski/claude-coder/internal/logging"
)

var (
	ErrSessionClosed = errors.New("document session is closed")

	log = logging.Get()
)

// Status is the lifecycle state of one tracked edit block. Transitions
// only move forward: pending -> streaming -> final.
type Status int

const (
	StatusPending Status = iota
	StatusStreaming
	StatusFinal
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusStreaming:
		return "streaming"
	case StatusFinal:
		return "final"
	}
	return "unknown"
}

// BlockResult is the per-block outcome of the most recent rebuild.
type BlockResult struct {
	ID      string
	Search  string
	Replace string
	Applied bool
	Reason  string
}

type tracked struct {
	block  *diff.EditBlock
	status Status
	seq    int // insertion order, breaks position ties
}

// Options configures a session.
type Options struct {
	// Preview renders not-yet-final blocks with merge markers.
	Preview bool
	// CoalesceInterval is the minimum time between rebuilds triggered by
	// partial updates. Faster updates are coalesced, latest wins.
	CoalesceInterval time.Duration
}

// Session owns one open document. All mutating operations are serialized;
// the content is always rebuilt from the original snapshot, never patched
// incrementally.
type Session struct {
	mu  sync.Mutex
	doc string
	buf buffer.TextBuffer

	original string
	current  string
	blocks   map[string]*tracked
	nextSeq  int
	results  []BlockResult

	opts        Options
	lastRebuild time.Time
	flushTimer  *time.Timer
	dirty       bool
	closed      bool
}

// New opens a session for the document in buf, capturing the original
// snapshot.
func New(ctx context.Context, doc string, buf buffer.TextBuffer, opts Options) (*Session, error) {
	original, err := buf.Read(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("session open: %s (%d bytes)", doc, len(original))
	return &Session{
		doc:      doc,
		buf:      buf,
		original: original,
		current:  original,
		blocks:   make(map[string]*tracked),
		opts:     opts,
	}, nil
}

// Document returns the target document identity.
func (s *Session) Document() string { return s.doc }

// Original returns the immutable snapshot captured at open time.
func (s *Session) Original() string { return s.original }

// Current returns the most recently rebuilt content.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Results returns the per-block outcomes of the last rebuild.
func (s *Session) Results() []BlockResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BlockResult, len(s.results))
	copy(out, s.results)
	return out
}

// Status returns the lifecycle state of a tracked block.
func (s *Session) Status(id string) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.blocks[id]
	if !ok {
		return 0, false
	}
	return tr.status, true
}

// Open begins tracking one block in pending state without rebuilding.
func (s *Session) Open(id, searchText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.upsert(id, searchText, "", StatusPending)
	return nil
}

// ApplyStream upserts a block with a partial replacement and rebuilds the
// content. Rapid calls are coalesced: the latest replacement wins and
// intermediate rebuilds are dropped.
func (s *Session) ApplyStream(ctx context.Context, id, searchText, partialReplacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.upsert(id, searchText, partialReplacement, StatusStreaming)

	if s.opts.CoalesceInterval > 0 {
		if since := time.Since(s.lastRebuild); since < s.opts.CoalesceInterval {
			s.dirty = true
			if s.flushTimer == nil {
				s.flushTimer = time.AfterFunc(s.opts.CoalesceInterval-since, s.flushDeferred)
			}
			return nil
		}
	}
	return s.rebuildLocked(ctx)
}

// ApplyFinal upserts a block with its terminal replacement, marks it
// final, and rebuilds immediately.
func (s *Session) ApplyFinal(ctx context.Context, id, searchText, finalReplacement string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.upsert(id, searchText, finalReplacement, StatusFinal)
	s.stopTimerLocked()
	return s.rebuildLocked(ctx)
}

// ForceFinalizeAll marks every given block final in one pass and rebuilds
// once.
func (s *Session) ForceFinalizeAll(ctx context.Context, blocks []diff.EditBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	for _, b := range blocks {
		s.upsert(b.ID, b.Search, b.Replace, StatusFinal)
	}
	s.stopTimerLocked()
	return s.rebuildLocked(ctx)
}

// Save strips any preview markers from the live content, persists it, and
// disposes the session. Returns the final content and the last per-block
// results.
func (s *Session) Save(ctx context.Context) (string, []BlockResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", nil, ErrSessionClosed
	}
	// A coalesced update may still be waiting on its timer; its
	// replacement is already in the block, so rebuild before persisting.
	pending := s.dirty
	s.stopTimerLocked()
	if pending {
		if err := s.rebuildLocked(ctx); err != nil {
			return "", nil, err
		}
	}

	final := diff.StripPreviewMarkers(s.current)
	if err := s.buf.Write(ctx, final); err != nil {
		return "", nil, err
	}
	if err := s.buf.Persist(ctx); err != nil {
		return "", nil, err
	}

	s.current = final
	s.closed = true
	log.Info("session save: %s (%d blocks)", s.doc, len(s.blocks))
	return final, s.results, nil
}

// Reject discards all blocks, restores the original snapshot as the
// persisted content, and disposes the session.
func (s *Session) Reject(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.stopTimerLocked()
	if err := s.buf.Revert(ctx, s.original); err != nil {
		return err
	}
	s.blocks = make(map[string]*tracked)
	s.results = nil
	s.current = s.original
	s.closed = true
	log.Info("session reject: %s", s.doc)
	return nil
}

// upsert creates or updates a tracked block. A final block never leaves
// final state and keeps its terminal replacement.
func (s *Session) upsert(id, searchText, replacement string, status Status) {
	if id == "" {
		id = diff.BlockID(searchText)
	}
	tr, ok := s.blocks[id]
	if !ok {
		tr = &tracked{
			block: &diff.EditBlock{ID: id, Search: searchText, Replace: replacement},
			seq:   s.nextSeq,
		}
		s.nextSeq++
		tr.status = status
		s.blocks[id] = tr
		return
	}
	if tr.status == StatusFinal {
		return
	}
	tr.block.Replace = replacement
	if status > tr.status {
		tr.status = status
	}
}

func (s *Session) stopTimerLocked() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	s.dirty = false
}

// flushDeferred runs a coalesced rebuild after the minimum interval.
func (s *Session) flushDeferred() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushTimer = nil
	if s.closed || !s.dirty {
		return
	}
	if err := s.rebuildLocked(context.Background()); err != nil {
		log.Error("deferred rebuild of %s failed: %v", s.doc, err)
	}
}

// placed pairs a block with where it matched in the original snapshot.
type placed struct {
	tr  *tracked
	res diff.MatchResult
}

// rebuildLocked recomputes the content by replaying every known block's
// replacement against the original snapshot, in ascending match position,
// ties broken by insertion order. The caller holds the lock.
func (s *Session) rebuildLocked(ctx context.Context) error {
	s.dirty = false
	s.lastRebuild = time.Now()

	ordered := make([]placed, 0, len(s.blocks))
	for _, tr := range s.blocks {
		ordered = append(ordered, placed{tr: tr, res: diff.Match(s.original, tr.block)})
	}
	sort.Slice(ordered, func(a, b int) bool {
		pa, pb := ordered[a], ordered[b]
		if pa.res.Found != pb.res.Found {
			return pa.res.Found
		}
		if pa.res.Found && pa.res.StartLine != pb.res.StartLine {
			return pa.res.StartLine < pb.res.StartLine
		}
		return pa.tr.seq < pb.tr.seq
	})

	// Reject blocks whose matched regions overlap an earlier block's.
	// Which block should win is genuinely ambiguous after content drift;
	// first match in position order wins and the loser is surfaced.
	results := make([]BlockResult, 0, len(ordered))
	apply := make([]placed, 0, len(ordered))
	prevEnd := -1
	prevID := ""
	for _, pl := range ordered {
		r := BlockResult{
			ID:      pl.tr.block.ID,
			Search:  pl.tr.block.Search,
			Replace: pl.tr.block.Replace,
			Applied: pl.res.Found,
			Reason:  pl.res.Reason,
		}
		if pl.res.Found {
			if pl.res.StartLine <= prevEnd {
				r.Applied = false
				r.Reason = "matched region overlaps block " + prevID
			} else {
				apply = append(apply, pl)
				prevEnd = pl.res.EndLine
				prevID = pl.tr.block.ID
			}
		}
		results = append(results, r)
	}
	s.results = results

	// Splice bottom-to-top so earlier line numbers stay valid.
	content := s.original
	for i := len(apply) - 1; i >= 0; i-- {
		pl := apply[i]
		mode := diff.ModeFinal
		if s.opts.Preview && pl.tr.status != StatusFinal {
			mode = diff.ModePreview
		}
		content = diff.Apply(content, pl.res, pl.tr.block.Replace, mode)
	}

	s.current = content
	return s.buf.Write(ctx, content)
}
