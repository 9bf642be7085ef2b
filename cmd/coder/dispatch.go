package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Jedanoski/claude-coder/internal/buffer"
	"github.com/Jedanoski/claude-coder/internal/config"
	"github.com/Jedanoski/claude-coder/internal/diff"
	"github.com/Jedanoski/claude-coder/internal/session"
	"github.com/Jedanoski/claude-coder/internal/stream"
)

// dispatcher routes parser events to edit sessions, one per file path.
type dispatcher struct {
	ctx      context.Context
	opts     session.Options
	nvimAddr string
	reject   bool

	sessions map[string]*session.Session
	closers  []func()
}

func newDispatcher(ctx context.Context, cfg *config.Config, f *flags) *dispatcher {
	return &dispatcher{
		ctx:      ctx,
		nvimAddr: f.nvimAddr,
		reject:   f.reject,
		opts: session.Options{
			Preview:          *cfg.Preview,
			CoalesceInterval: time.Duration(*cfg.CoalesceIntervalMS) * time.Millisecond,
		},
		sessions: make(map[string]*session.Session),
	}
}

func (d *dispatcher) handle(e stream.Event) {
	switch e.Type {
	case stream.EventText:
		fmt.Print(e.Text)
	case stream.EventUpdate:
		d.onUpdate(e)
	case stream.EventEnd:
		d.onEnd(e)
	case stream.EventError:
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", e.Tool, e.Err)
		log.Error("invocation %s (%s): %v", e.ID, e.Tool, e.Err)
	}
}

func (d *dispatcher) onUpdate(e stream.Event) {
	switch e.Tool {
	case "edit_file":
		path, diffText := e.Params["path"], e.Params["diff"]
		if path == "" || diffText == "" {
			return
		}
		s, err := d.sessionFor(path)
		if err != nil {
			log.Error("open %s: %v", path, err)
			return
		}
		for _, b := range diff.ParseBlocks(diffText) {
			if b.Final {
				err = s.ApplyFinal(d.ctx, b.ID, b.Search, b.Replace)
			} else {
				err = s.ApplyStream(d.ctx, b.ID, b.Search, b.Replace)
			}
			if err != nil {
				log.Error("apply %s: %v", path, err)
			}
		}
	case "write_to_file":
		// Whole-file writes land once, on the end event.
	}
}

func (d *dispatcher) onEnd(e stream.Event) {
	log.ToolCall(e.Tool, paramSummary(e.Params))
	switch e.Tool {
	case "edit_file":
		path, diffText := e.Params["path"], e.Params["diff"]
		s, err := d.sessionFor(path)
		if err != nil {
			log.Error("open %s: %v", path, err)
			return
		}
		if err := s.ForceFinalizeAll(d.ctx, diff.ParseBlocks(diffText)); err != nil {
			log.Error("finalize %s: %v", path, err)
		}
		d.closeSession(path, s)
	case "write_to_file":
		path, content := e.Params["path"], e.Params["content"]
		buf, err := d.openBuffer(path)
		if err != nil {
			log.Error("open %s: %v", path, err)
			return
		}
		if err := buf.Write(d.ctx, content); err != nil {
			log.Error("write %s: %v", path, err)
			return
		}
		if err := buf.Persist(d.ctx); err != nil {
			log.Error("persist %s: %v", path, err)
			return
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", path, len(content))
	case "attempt_completion":
		fmt.Fprintf(os.Stderr, "\ncompletion: %s\n", e.Params["result"])
	case "ask_followup_question":
		fmt.Fprintf(os.Stderr, "\nquestion: %s\n", e.Params["question"])
	default:
		// Tools the host does not execute (commands, reads, searches)
		// are surfaced for the caller to act on.
		fmt.Fprintf(os.Stderr, "tool requested: %s %v\n", e.Tool, e.Params)
	}
}

// closeSession saves or rejects a finished session and drops it.
func (d *dispatcher) closeSession(path string, s *session.Session) {
	if d.reject {
		if err := s.Reject(d.ctx); err != nil {
			log.Error("reject %s: %v", path, err)
		}
		fmt.Fprintf(os.Stderr, "rejected edits to %s\n", path)
	} else {
		_, results, err := s.Save(d.ctx)
		if err != nil {
			log.Error("save %s: %v", path, err)
		}
		for _, r := range results {
			if r.Applied {
				fmt.Fprintf(os.Stderr, "applied %s block %s\n", path, r.ID)
			} else {
				fmt.Fprintf(os.Stderr, "failed %s block %s: %s\n", path, r.ID, r.Reason)
			}
		}
	}
	delete(d.sessions, path)
}

func (d *dispatcher) sessionFor(path string) (*session.Session, error) {
	if s, ok := d.sessions[path]; ok {
		return s, nil
	}
	buf, err := d.openBuffer(path)
	if err != nil {
		return nil, err
	}
	s, err := session.New(d.ctx, path, buf, d.opts)
	if err != nil {
		return nil, err
	}
	d.sessions[path] = s
	return s, nil
}

func (d *dispatcher) openBuffer(path string) (buffer.TextBuffer, error) {
	if d.nvimAddr != "" {
		n, err := buffer.DialNvim(d.nvimAddr, path)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, n.Close)
		return n, nil
	}
	return buffer.OpenFile(path)
}

// finish rejects sessions left open by a truncated stream.
func (d *dispatcher) finish() error {
	var firstErr error
	for path, s := range d.sessions {
		fmt.Fprintf(os.Stderr, "discarding incomplete edits to %s\n", path)
		if err := s.Reject(d.ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(d.sessions, path)
	}
	return firstErr
}

func (d *dispatcher) close() {
	for _, c := range d.closers {
		c()
	}
}

func paramSummary(params map[string]string) string {
	out := ""
	for k, v := range params {
		if len(v) > 80 {
			v = v[:80] + "..."
		}
		out += fmt.Sprintf("%s=%q ", k, v)
	}
	return out
}
