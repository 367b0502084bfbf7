package stream

import (
	"errors"

	"github.com/rhogenson/ccljson"
)

// ErrNeedMore is returned by NextEvent when no further event can be
// produced from the bytes seen so far. The caller should Feed more input
// (or call Flush, if there is no more) and call NextEvent again.
var ErrNeedMore = errors.New("stream: more input needed")

// EventKind identifies which alternative of Event is populated, per
// spec.md §4.7's event sum type.
type EventKind int

const (
	EventStartObject EventKind = iota
	EventEndObject
	EventStartArray
	EventEndArray
	EventKey
	EventValue
	EventEndOfInput
)

func (k EventKind) String() string {
	switch k {
	case EventStartObject:
		return "StartObject"
	case EventEndObject:
		return "EndObject"
	case EventStartArray:
		return "StartArray"
	case EventEndArray:
		return "EndArray"
	case EventKey:
		return "Key"
	case EventValue:
		return "Value"
	case EventEndOfInput:
		return "EndOfInput"
	default:
		return "EventKind(?)"
	}
}

// Event is one step of a parsed document, delivered in document order.
// Key is populated only for EventKey; Value only for EventValue (always
// a scalar: Null, Bool, Number or String — containers are announced by
// Start/End pairs rather than a single Value event).
type Event struct {
	Kind  EventKind
	Span  ccljson.Span
	Key   string
	Value ccljson.Value
}

type containerKind int

const (
	containerObject containerKind = iota
	containerArray
)

// frameState tracks one open container's position in spec §4.3's
// per-container grammar. Object frames additionally pass through
// fsExpectColon/fsExpectValue, between emitting a Key event and reading
// the value that follows it, so the two can be surfaced as separate
// Events; array frames go straight from fsExpectFirstOrEnd/fsExpectEntry
// to reading a value.
type frameState int

const (
	fsExpectFirstOrEnd frameState = iota
	fsExpectEntry
	fsExpectColon
	fsExpectValue
	fsExpectSep
)

// frame is one open container on the parse stack. implicit is true only
// for the single top-level container (if any) that has no surrounding
// brace/bracket of its own and closes on Eof instead of '}'/']'.
type frame struct {
	kind     containerKind
	implicit bool
	state    frameState
}

// topAfterKind records, for the lone top-level value parsed while
// ImplicitTopLevel allows more to follow, whether trailing data after it
// should be rejected (topStrict) or tried as further sequence elements
// (topMaybeSequence).
type topAfterKind int

const (
	topStrict topAfterKind = iota
	topMaybeSequence
)

// parserMode governs step's behavior once the frame stack is empty
// (before the first frame is pushed, after the last one closes, or for a
// bare top-level scalar that never pushed one).
type parserMode int

const (
	modeAwaitEOF parserMode = iota
	modeCheckSequence
	modeSequence
)

// Parser turns a chunk-fed byte stream into a pull-based sequence of
// Events, grounded on creachadair-jtree's Handler/Stream shape
// (BeginObject/EndObject/BeginMember/Value/EndOfInput) but inverted from
// a push callback interface into a pull NextEvent() iterator, per
// spec.md §4.7's "consumers pull events" backpressure requirement: events
// are produced only when NextEvent is called. Lexing is not deferred the
// same way: Feed tokenizes each chunk as soon as it arrives and queues the
// resulting tokens for NextEvent.
//
// Repair is not available on this front end: by the time a syntax
// problem is detected, earlier events for the same document may already
// have been delivered to the caller, so there is nothing for a
// transparent fix to apply to, unlike the non-streaming Parser.
//
// Top-level sequences of implicitly-separated values (spec §4.3's
// implicit array, reached here only through the "unambiguous first
// token" and "ambiguous token not followed by ':'" cases) are not
// wrapped in their own StartArray/EndArray events: each sibling is
// delivered as its own top-level Start/End or Value event, and
// EventEndOfInput marks the end of the whole sequence. CollectIntoValue
// still reassembles them into a single ArrayValue, matching the
// non-streaming parser's result exactly; only the streamed event shape
// differs, documented as a scope simplification for this front end.
type Parser struct {
	lex   *Lexer
	opts  ccljson.Options
	queue []ccljson.Token
	buf   []byte
	final bool

	stack []frame
	depth int

	started  bool
	done     bool
	mode     parserMode
	seqState frameState
	afterTop topAfterKind

	terminalErr error
}

// NewParser returns a Parser for opts, ready to receive bytes via Feed.
func NewParser(opts ccljson.Options) *Parser {
	return &Parser{lex: NewLexer(opts), opts: opts}
}

// Feed appends chunk to the input and makes its tokens available to
// NextEvent.
func (p *Parser) Feed(chunk []byte) error {
	p.buf = append(p.buf, chunk...)
	toks, _, err := p.lex.Feed(chunk)
	if err != nil {
		return err
	}
	p.enqueue(toks)
	return nil
}

// Flush signals end of input; after Flush, NextEvent will never again
// return ErrNeedMore.
func (p *Parser) Flush() error {
	toks, err := p.lex.Flush()
	if err != nil {
		return err
	}
	p.enqueue(toks)
	p.final = true
	return nil
}

func (p *Parser) enqueue(toks []ccljson.Token) {
	for _, t := range toks {
		if isCommentToken(t.Kind) {
			continue
		}
		p.queue = append(p.queue, t)
	}
}

func isCommentToken(k ccljson.TokenKind) bool {
	return k == ccljson.TokenSingleLineComment || k == ccljson.TokenMultiLineComment
}

func (p *Parser) peekAt(n int) (ccljson.Token, bool) {
	if n >= len(p.queue) {
		return ccljson.Token{}, false
	}
	return p.queue[n], true
}

func (p *Parser) popFront() ccljson.Token {
	tok := p.queue[0]
	p.queue = p.queue[1:]
	return tok
}

func (p *Parser) sliceSpan(sp ccljson.Span) []byte {
	return p.buf[sp.Start:sp.End]
}

// NextEvent returns the next Event in document order, or ErrNeedMore if
// none can be produced yet. Once a syntax error has been returned, every
// subsequent call returns that same error. Once EventEndOfInput has been
// returned, every subsequent call returns it again.
func (p *Parser) NextEvent() (Event, error) {
	if p.terminalErr != nil {
		return Event{}, p.terminalErr
	}
	for {
		ev, needMore, err := p.step()
		if err != nil {
			p.terminalErr = err
			return Event{}, err
		}
		if needMore {
			return Event{}, ErrNeedMore
		}
		if ev != nil {
			return *ev, nil
		}
	}
}

// step attempts to make one unit of progress: either it returns an Event
// to deliver, signals that more input is needed, returns a fatal error,
// or makes silent progress (e.g. consuming a separator or a ':') and
// returns (nil, false, nil) so NextEvent's loop tries again immediately.
func (p *Parser) step() (*Event, bool, error) {
	if !p.started {
		return p.startDocument()
	}
	if p.done {
		return &Event{Kind: EventEndOfInput}, false, nil
	}
	if len(p.stack) > 0 {
		return p.stepFrameTop()
	}
	switch p.mode {
	case modeAwaitEOF:
		return p.stepAwaitEOF()
	case modeCheckSequence:
		return p.stepCheckSequence()
	default:
		return p.stepSequence()
	}
}

// startDocument resolves spec §4.3's top-level dispatch: a single value
// if the first significant token starts one unambiguously; else, under
// ImplicitTopLevel, an implicit object if a key token is followed by
// ':', else exactly one value with the sequence-vs-single decision
// deferred to stepCheckSequence once that value (and everything nested
// in it) has closed.
func (p *Parser) startDocument() (*Event, bool, error) {
	tok, ok := p.peekAt(0)
	if !ok {
		return nil, true, nil
	}

	if !p.opts.ImplicitTopLevel {
		p.started = true
		return p.beginTopValue(tok, false)
	}

	if tok.Kind == ccljson.TokenEOF {
		p.started = true
		p.stack = append(p.stack, frame{kind: containerObject, implicit: true, state: fsExpectFirstOrEnd})
		return &Event{Kind: EventStartObject, Span: tok.Span}, false, nil
	}

	if tok.Kind == ccljson.TokenString || tok.Kind == ccljson.TokenNumber || tok.Kind == ccljson.TokenUnquotedString {
		next, ok := p.peekAt(1)
		if !ok {
			return nil, true, nil
		}
		p.started = true
		if next.Kind == ccljson.TokenColon {
			p.stack = append(p.stack, frame{kind: containerObject, implicit: true, state: fsExpectFirstOrEnd})
			return &Event{Kind: EventStartObject, Span: ccljson.Span{Start: tok.Span.Start, End: tok.Span.Start}}, false, nil
		}
		return p.beginTopValue(tok, true)
	}

	p.started = true
	return p.beginTopValue(tok, true)
}

// beginTopValue consumes tok as the start of one top-level value: a
// container (pushes a non-implicit frame) or a scalar (emitted directly,
// no frame). maybeSequence carries through to what happens once this
// value is fully closed: topStrict rejects anything after it but Eof;
// topMaybeSequence rechecks for a following separator and, if found,
// continues reading more top-level values the same way.
func (p *Parser) beginTopValue(tok ccljson.Token, maybeSequence bool) (*Event, bool, error) {
	after := topStrict
	if maybeSequence {
		after = topMaybeSequence
	}
	switch tok.Kind {
	case ccljson.TokenLeftBrace:
		p.popFront()
		if err := p.enterExplicit(tok.Span.Start); err != nil {
			return nil, false, err
		}
		p.stack = append(p.stack, frame{kind: containerObject, state: fsExpectFirstOrEnd})
		p.afterTop = after
		return &Event{Kind: EventStartObject, Span: tok.Span}, false, nil
	case ccljson.TokenLeftBracket:
		p.popFront()
		if err := p.enterExplicit(tok.Span.Start); err != nil {
			return nil, false, err
		}
		p.stack = append(p.stack, frame{kind: containerArray, state: fsExpectFirstOrEnd})
		p.afterTop = after
		return &Event{Kind: EventStartArray, Span: tok.Span}, false, nil
	default:
		p.popFront()
		ev, err := p.scalarEvent(tok)
		if err != nil {
			return nil, false, err
		}
		if maybeSequence {
			p.mode = modeCheckSequence
		} else {
			p.mode = modeAwaitEOF
		}
		return ev, false, nil
	}
}

func (p *Parser) stepAwaitEOF() (*Event, bool, error) {
	tok, ok := p.peekAt(0)
	if !ok {
		return nil, true, nil
	}
	if tok.Kind != ccljson.TokenEOF {
		return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "unexpected trailing data after value"}
	}
	p.popFront()
	p.done = true
	return &Event{Kind: EventEndOfInput, Span: tok.Span}, false, nil
}

func (p *Parser) stepCheckSequence() (*Event, bool, error) {
	tok, ok := p.peekAt(0)
	if !ok {
		return nil, true, nil
	}
	if tok.Kind == ccljson.TokenEOF {
		p.mode = modeAwaitEOF
		return nil, false, nil
	}
	p.mode = modeSequence
	p.seqState = fsExpectSep
	return nil, false, nil
}

func (p *Parser) stepSequence() (*Event, bool, error) {
	tok, ok := p.peekAt(0)
	if !ok {
		return nil, true, nil
	}
	switch p.seqState {
	case fsExpectEntry:
		return p.beginTopValue(tok, true)
	default: // fsExpectSep
		if tok.Kind == ccljson.TokenEOF {
			p.mode = modeAwaitEOF
			return nil, false, nil
		}
		applied, err := p.consumeSeparator(tok)
		if err != nil {
			return nil, false, err
		}
		if !applied {
			return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "expected separator"}
		}
		p.seqState = fsExpectEntry
		return nil, false, nil
	}
}

// stepFrameTop advances the container currently on top of the stack.
func (p *Parser) stepFrameTop() (*Event, bool, error) {
	tok, ok := p.peekAt(0)
	if !ok {
		return nil, true, nil
	}
	f := &p.stack[len(p.stack)-1]
	if tok.Kind == ccljson.TokenEOF {
		if !f.implicit {
			return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "unexpected eof inside container"}
		}
		p.popFront()
		return p.closeFrame(tok.Span)
	}
	if f.kind == containerObject {
		return p.stepObject(f, tok)
	}
	return p.stepArray(f, tok)
}

func (p *Parser) stepObject(f *frame, tok ccljson.Token) (*Event, bool, error) {
	switch f.state {
	case fsExpectFirstOrEnd:
		if !f.implicit && tok.Kind == ccljson.TokenRightBrace {
			p.popFront()
			return p.closeFrame(tok.Span)
		}
		return p.readObjectKey(f, tok)
	case fsExpectColon:
		if tok.Kind != ccljson.TokenColon {
			return nil, false, &ccljson.Error{Kind: ccljson.ErrExpectedColon, Offset: tok.Span.Start, Message: "expected ':'"}
		}
		p.popFront()
		f.state = fsExpectValue
		return nil, false, nil
	case fsExpectValue:
		return p.readValueInto(f, tok)
	case fsExpectEntry:
		if !f.implicit && tok.Kind == ccljson.TokenRightBrace {
			if p.opts.AllowTrailingCommas {
				p.popFront()
				return p.closeFrame(tok.Span)
			}
			return nil, false, &ccljson.Error{Kind: ccljson.ErrTrailingComma, Offset: tok.Span.Start, Message: "trailing comma not allowed"}
		}
		return p.readObjectKey(f, tok)
	default: // fsExpectSep
		if !f.implicit && tok.Kind == ccljson.TokenRightBrace {
			p.popFront()
			return p.closeFrame(tok.Span)
		}
		applied, err := p.consumeSeparator(tok)
		if err != nil {
			return nil, false, err
		}
		if !applied {
			return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "expected ',' or '}'"}
		}
		f.state = fsExpectEntry
		return nil, false, nil
	}
}

func (p *Parser) stepArray(f *frame, tok ccljson.Token) (*Event, bool, error) {
	switch f.state {
	case fsExpectFirstOrEnd:
		if !f.implicit && tok.Kind == ccljson.TokenRightBracket {
			p.popFront()
			return p.closeFrame(tok.Span)
		}
		return p.readValueInto(f, tok)
	case fsExpectEntry:
		if !f.implicit && tok.Kind == ccljson.TokenRightBracket {
			if p.opts.AllowTrailingCommas {
				p.popFront()
				return p.closeFrame(tok.Span)
			}
			return nil, false, &ccljson.Error{Kind: ccljson.ErrTrailingComma, Offset: tok.Span.Start, Message: "trailing comma not allowed"}
		}
		return p.readValueInto(f, tok)
	default: // fsExpectSep
		if !f.implicit && tok.Kind == ccljson.TokenRightBracket {
			p.popFront()
			return p.closeFrame(tok.Span)
		}
		applied, err := p.consumeSeparator(tok)
		if err != nil {
			return nil, false, err
		}
		if !applied {
			return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "expected ',' or ']'"}
		}
		f.state = fsExpectEntry
		return nil, false, nil
	}
}

// readObjectKey consumes tok as a key, emits its Key event, and advances
// f to fsExpectColon. Called only while f is still the current top frame
// (no push has happened yet), so writing through f is safe.
func (p *Parser) readObjectKey(f *frame, tok ccljson.Token) (*Event, bool, error) {
	switch tok.Kind {
	case ccljson.TokenString, ccljson.TokenNumber, ccljson.TokenUnquotedString:
		p.popFront()
		key, err := ccljson.DecodeKeyLiteral(tok.Kind, p.sliceSpan(tok.Span), tok.Span.Start)
		if err != nil {
			return nil, false, err
		}
		f.state = fsExpectColon
		return &Event{Kind: EventKey, Span: tok.Span, Key: key}, false, nil
	default:
		return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "expected key, got " + tok.Kind.String()}
	}
}

// readValueInto consumes tok as a container-entry value: a container
// opener pushes a new frame (and does not touch f again afterward); a
// scalar is emitted directly and advances f to fsExpectSep.
func (p *Parser) readValueInto(f *frame, tok ccljson.Token) (*Event, bool, error) {
	switch tok.Kind {
	case ccljson.TokenLeftBrace:
		p.popFront()
		if err := p.enterExplicit(tok.Span.Start); err != nil {
			return nil, false, err
		}
		p.stack = append(p.stack, frame{kind: containerObject, state: fsExpectFirstOrEnd})
		return &Event{Kind: EventStartObject, Span: tok.Span}, false, nil
	case ccljson.TokenLeftBracket:
		p.popFront()
		if err := p.enterExplicit(tok.Span.Start); err != nil {
			return nil, false, err
		}
		p.stack = append(p.stack, frame{kind: containerArray, state: fsExpectFirstOrEnd})
		return &Event{Kind: EventStartArray, Span: tok.Span}, false, nil
	case ccljson.TokenRightBrace, ccljson.TokenRightBracket:
		return nil, false, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "unexpected " + tok.Kind.String()}
	default:
		p.popFront()
		ev, err := p.scalarEvent(tok)
		if err != nil {
			return nil, false, err
		}
		f.state = fsExpectSep
		return ev, false, nil
	}
}

// closeFrame pops the top frame, having already consumed its closing
// token (an explicit '}'/']' or, for the lone implicit frame, Eof), and
// reports what should happen next: an enclosing frame resumes at
// fsExpectSep; an empty stack means either the whole document is done
// (the popped frame was implicit, so only Eof could have closed it) or
// afterTop decides whether to await Eof strictly or check for more
// sequence elements.
func (p *Parser) closeFrame(span ccljson.Span) (*Event, bool, error) {
	popped := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	if !popped.implicit {
		p.depth--
	}
	kind := EventEndObject
	if popped.kind == containerArray {
		kind = EventEndArray
	}
	if len(p.stack) == 0 {
		if popped.implicit {
			p.done = true
		} else if p.afterTop == topMaybeSequence {
			p.mode = modeCheckSequence
		} else {
			p.mode = modeAwaitEOF
		}
	} else {
		p.stack[len(p.stack)-1].state = fsExpectSep
	}
	return &Event{Kind: kind, Span: span}, false, nil
}

// enterExplicit mirrors Options.depthLimited: MaxDepth of zero disables
// the check (depthLimited is unexported, so this re-implements its exact
// condition rather than calling it).
func (p *Parser) enterExplicit(offset int) error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		return &ccljson.Error{Kind: ccljson.ErrDepthExceeded, Offset: offset, Message: "max depth exceeded"}
	}
	return nil
}

func (p *Parser) consumeSeparator(tok ccljson.Token) (bool, error) {
	switch {
	case tok.Kind == ccljson.TokenComma:
		p.popFront()
		p.drainNewlines()
		return true, nil
	case p.opts.NewlineAsComma && tok.Kind == ccljson.TokenNewline:
		p.popFront()
		p.drainNewlines()
		return true, nil
	default:
		return false, nil
	}
}

func (p *Parser) drainNewlines() {
	for {
		tok, ok := p.peekAt(0)
		if !ok || tok.Kind != ccljson.TokenNewline {
			return
		}
		p.popFront()
	}
}

func (p *Parser) scalarEvent(tok ccljson.Token) (*Event, error) {
	switch tok.Kind {
	case ccljson.TokenTrue:
		return &Event{Kind: EventValue, Span: tok.Span, Value: ccljson.BoolValue(true)}, nil
	case ccljson.TokenFalse:
		return &Event{Kind: EventValue, Span: tok.Span, Value: ccljson.BoolValue(false)}, nil
	case ccljson.TokenNull:
		return &Event{Kind: EventValue, Span: tok.Span, Value: ccljson.NullValue()}, nil
	case ccljson.TokenNumber:
		n, err := ccljson.DecodeNumberLiteral(p.sliceSpan(tok.Span), tok.Span.Start)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: EventValue, Span: tok.Span, Value: ccljson.NumberValue(n)}, nil
	case ccljson.TokenString:
		s, err := ccljson.DecodeStringLiteral(p.sliceSpan(tok.Span), tok.Span.Start)
		if err != nil {
			return nil, err
		}
		return &Event{Kind: EventValue, Span: tok.Span, Value: ccljson.StringValue(s)}, nil
	case ccljson.TokenUnquotedString:
		if !p.opts.AllowUnquotedKeys {
			return nil, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "unexpected bareword " + string(p.sliceSpan(tok.Span))}
		}
		return &Event{Kind: EventValue, Span: tok.Span, Value: ccljson.StringValue(string(p.sliceSpan(tok.Span)))}, nil
	default:
		return nil, &ccljson.Error{Kind: ccljson.ErrUnexpectedToken, Offset: tok.Span.Start, Message: "unexpected token " + tok.Kind.String()}
	}
}

// valueBuilder accumulates one open container's contents while
// CollectIntoValue replays events back into a Value tree.
type valueBuilder struct {
	kind       containerKind
	obj        *ccljson.Object
	elems      []ccljson.Value
	pendingKey string
}

func attachValue(stack []valueBuilder, tops []ccljson.Value, v ccljson.Value) []ccljson.Value {
	if len(stack) == 0 {
		return append(tops, v)
	}
	top := &stack[len(stack)-1]
	if top.kind == containerObject {
		top.obj.Set(top.pendingKey, v)
	} else {
		top.elems = append(top.elems, v)
	}
	return tops
}

// collectEvents drives next until EventEndOfInput, reassembling a Value
// tree. Shared by Parser.CollectIntoValue and ReaderParser's equivalent
// so the tree-building logic exists exactly once.
func collectEvents(next func() (Event, error)) (ccljson.Value, error) {
	var stack []valueBuilder
	var tops []ccljson.Value
	for {
		ev, err := next()
		if err != nil {
			return ccljson.Value{}, err
		}
		switch ev.Kind {
		case EventEndOfInput:
			if len(tops) == 1 {
				return tops[0], nil
			}
			return ccljson.ArrayValue(tops), nil
		case EventStartObject:
			stack = append(stack, valueBuilder{kind: containerObject, obj: ccljson.NewObject()})
		case EventEndObject:
			v := ccljson.ObjectValue(stack[len(stack)-1].obj)
			stack = stack[:len(stack)-1]
			tops = attachValue(stack, tops, v)
		case EventStartArray:
			stack = append(stack, valueBuilder{kind: containerArray})
		case EventEndArray:
			v := ccljson.ArrayValue(stack[len(stack)-1].elems)
			stack = stack[:len(stack)-1]
			tops = attachValue(stack, tops, v)
		case EventKey:
			stack[len(stack)-1].pendingKey = ev.Key
		case EventValue:
			tops = attachValue(stack, tops, ev.Value)
		}
	}
}

// CollectIntoValue drains NextEvent until EventEndOfInput and reassembles
// the full value tree; the caller must have already Fed and Flushed
// everything, otherwise it stops and returns ErrNeedMore.
func (p *Parser) CollectIntoValue() (ccljson.Value, error) {
	return collectEvents(p.NextEvent)
}
