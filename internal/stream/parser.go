package stream

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Jedanoski/claude-coder/internal/logging"
	"github.com/Jedanoski/claude-coder/internal/tools"
)

var (
	ErrUnclosedTag = errors.New("stream ended with an unclosed tool tag")

	log = logging.Get()
)

// DefaultUpdateThreshold is the minimum number of buffered characters
// between two throttled update events for the same parameter.
const DefaultUpdateThreshold = 64

// invocation tracks one in-flight tool call.
type invocation struct {
	id           string
	tool         string
	params       map[string]string
	currentParam string
	paramBuf     strings.Builder
	paramDepth   int            // nesting of tags equal to currentParam
	lastEmit     map[string]int // buffered length at last throttled update
	nestedTools  map[string]int // stray tool tags opened inside this tool
}

// Parser is a character-level state machine that recognizes tool
// invocations embedded in a model's output stream. Input may arrive in
// chunks split at any byte boundary; the event sequence is invariant
// under chunking.
//
// Exactly one invocation can be open at a time. Text outside a recognized
// tool tag is passed through unchanged as text events.
type Parser struct {
	reg       *tools.Registry
	threshold int

	inTag  bool
	tagBuf strings.Builder // partial <...> contents, without the brackets
	text   strings.Builder // pending pass-through
	inv    *invocation
	events []Event
}

// NewParser creates a parser over the given tool registry.
// updateThreshold <= 0 emits an update on every parameter append.
func NewParser(reg *tools.Registry, updateThreshold int) *Parser {
	return &Parser{reg: reg, threshold: updateThreshold}
}

// Feed consumes one chunk and returns the events it produced, in order.
func (p *Parser) Feed(chunk string) []Event {
	for i := 0; i < len(chunk); i++ {
		p.consume(chunk[i])
	}
	p.flushText()
	events := p.events
	p.events = nil
	return events
}

// End signals end of input. If an invocation is still open, a single
// error event is produced and no end event is emitted for it.
func (p *Parser) End() []Event {
	if p.inTag {
		// A dangling "<..." is literal content.
		p.literal("<" + p.tagBuf.String())
		p.inTag = false
		p.tagBuf.Reset()
	}
	p.flushText()
	if p.inv != nil {
		log.Error("stream ended with unclosed tool %q", p.inv.tool)
		p.events = append(p.events, Event{
			Type:   EventError,
			ID:     p.inv.id,
			Tool:   p.inv.tool,
			Params: snapshot(p.inv.params),
			Err:    ErrUnclosedTag,
		})
		p.inv = nil
	}
	events := p.events
	p.events = nil
	return events
}

// Reset clears all parser state without emitting events.
func (p *Parser) Reset() {
	p.inTag = false
	p.tagBuf.Reset()
	p.text.Reset()
	p.inv = nil
	p.events = nil
}

func (p *Parser) consume(c byte) {
	if p.inTag {
		switch c {
		case '>':
			inner := p.tagBuf.String()
			p.inTag = false
			p.tagBuf.Reset()
			p.completeTag(inner)
		case '<':
			// Previous '<' never closed: it was literal text.
			p.literal("<" + p.tagBuf.String())
			p.tagBuf.Reset()
		default:
			p.tagBuf.WriteByte(c)
		}
		return
	}

	if c == '<' {
		p.inTag = true
		return
	}
	p.literalByte(c)
}

// completeTag handles a full <inner> tag. inner excludes the brackets.
func (p *Parser) completeTag(inner string) {
	closing := strings.HasPrefix(inner, "/")
	name := strings.TrimPrefix(inner, "/")
	if name == "" || strings.ContainsAny(name, " \t\n/") {
		// Not a simple tag; treat as literal content.
		p.literal("<" + inner + ">")
		return
	}

	switch {
	case p.inv == nil:
		p.topLevelTag(inner, name, closing)
	case p.inv.currentParam != "":
		p.paramTag(inner, name, closing)
	default:
		p.toolTag(name, closing)
	}
}

// topLevelTag handles a tag seen outside any invocation.
func (p *Parser) topLevelTag(inner, name string, closing bool) {
	if closing || !p.reg.Has(name) {
		p.literal("<" + inner + ">")
		return
	}

	p.flushText()
	p.inv = &invocation{
		id:          uuid.NewString(),
		tool:        name,
		params:      make(map[string]string),
		lastEmit:    make(map[string]int),
		nestedTools: make(map[string]int),
	}
	log.Stream("tool_start", name)
	p.emitUpdate()
}

// toolTag handles a tag seen inside a tool but outside any parameter.
func (p *Parser) toolTag(name string, closing bool) {
	if !closing {
		if p.reg.Has(name) {
			// A tool tag nested where a parameter should open is model
			// error; count it so its closing tag doesn't end us early.
			p.inv.nestedTools[name]++
			return
		}
		p.inv.currentParam = name
		p.inv.paramDepth = 1
		p.inv.paramBuf.Reset()
		p.inv.paramBuf.WriteString(p.inv.params[name])
		return
	}

	if p.inv.nestedTools[name] > 0 {
		p.inv.nestedTools[name]--
		return
	}
	if name == p.inv.tool {
		p.finalize()
	}
	// Any other stray closing tag here is dropped.
}

// paramTag handles a tag seen while a parameter is accumulating.
func (p *Parser) paramTag(inner, name string, closing bool) {
	inv := p.inv
	if name != inv.currentParam {
		inv.paramBuf.WriteString("<" + inner + ">")
		p.maybeEmitParam()
		return
	}

	if !closing {
		// Identical nested tag: literal content, but track depth so it
		// doesn't eat our closing delimiter.
		inv.paramDepth++
		inv.paramBuf.WriteString("<" + inner + ">")
		p.maybeEmitParam()
		return
	}

	inv.paramDepth--
	if inv.paramDepth > 0 {
		inv.paramBuf.WriteString("<" + inner + ">")
		p.maybeEmitParam()
		return
	}

	inv.params[inv.currentParam] = inv.paramBuf.String()
	inv.lastEmit[inv.currentParam] = inv.paramBuf.Len()
	inv.currentParam = ""
	inv.paramBuf.Reset()
	p.emitUpdate()
}

// finalize closes the open invocation: flush buffers, validate, emit.
func (p *Parser) finalize() {
	inv := p.inv
	if inv.currentParam != "" {
		inv.params[inv.currentParam] = inv.paramBuf.String()
		inv.currentParam = ""
		inv.paramBuf.Reset()
	}
	p.inv = nil

	if err := p.reg.Validate(inv.tool, inv.params); err != nil {
		log.Error("tool %q failed validation: %v", inv.tool, err)
		p.events = append(p.events, Event{
			Type:   EventError,
			ID:     inv.id,
			Tool:   inv.tool,
			Params: snapshot(inv.params),
			Err:    err,
		})
		return
	}

	log.ToolCall(inv.tool, paramSummary(inv.params))
	p.events = append(p.events, Event{
		Type:   EventEnd,
		ID:     inv.id,
		Tool:   inv.tool,
		Params: snapshot(inv.params),
	})
}

// literal routes literal text to the right destination: the open
// parameter, the void (inside a tool, between parameters), or the
// pass-through buffer.
func (p *Parser) literal(s string) {
	if p.inv != nil {
		if p.inv.currentParam != "" {
			p.inv.paramBuf.WriteString(s)
			p.maybeEmitParam()
		}
		return
	}
	p.text.WriteString(s)
}

func (p *Parser) literalByte(c byte) {
	if p.inv != nil {
		if p.inv.currentParam != "" {
			p.inv.paramBuf.WriteByte(c)
			p.maybeEmitParam()
		}
		return
	}
	p.text.WriteByte(c)
}

// maybeEmitParam emits a throttled update for the accumulating parameter.
func (p *Parser) maybeEmitParam() {
	inv := p.inv
	if p.threshold > 0 && inv.paramBuf.Len()-inv.lastEmit[inv.currentParam] < p.threshold {
		return
	}
	inv.lastEmit[inv.currentParam] = inv.paramBuf.Len()
	p.emitUpdate()
}

// emitUpdate emits an update event with the full current parameter map,
// including the in-flight parameter's partial value.
func (p *Parser) emitUpdate() {
	inv := p.inv
	params := snapshot(inv.params)
	if inv.currentParam != "" {
		params[inv.currentParam] = inv.paramBuf.String()
	}
	p.events = append(p.events, Event{
		Type:   EventUpdate,
		ID:     inv.id,
		Tool:   inv.tool,
		Params: params,
	})
}

func (p *Parser) flushText() {
	if p.text.Len() == 0 {
		return
	}
	p.events = append(p.events, Event{Type: EventText, Text: p.text.String()})
	p.text.Reset()
}

func snapshot(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}

func paramSummary(params map[string]string) string {
	var b strings.Builder
	for k, v := range params {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(k)
		b.WriteString("=")
		if len(v) > 40 {
			v = v[:40] + "..."
		}
		b.WriteString(v)
	}
	return b.String()
}
