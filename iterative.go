package ccljson

import "unicode/utf8"

// ParseIterative parses input under DefaultOptions using an explicit-stack
// parser instead of recursion. It is required to produce a value tree
// equal (per Value.Equal) to Parse for the same input and options — spec
// §4.4's "recursive and iterative variants must be bit-identical" property
// — since both share rawNext/peek/next, parseValueFromToken,
// parseEntryValueInto, tokenAsKey, unescapeString and parseNumberLiteral
// with the recursive Parser.
//
// The entries of an implicit top-level object are parsed through the
// recursive Parser's parseEntryValueInto/parseEntryInto, so containers
// nested under such an entry still use the Go call stack. Explicit
// documents and implicit top-level arrays are parsed without recursion.
func ParseIterative(input []byte) (Value, error) {
	v, _, err := parseIter(input, DefaultOptions())
	return v, err
}

// ParseIterativeWithOptions is the Options-parameterized form of ParseIterative.
func ParseIterativeWithOptions(input []byte, opts Options) (Value, error) {
	v, _, err := parseIter(input, opts)
	return v, err
}

func parseIter(input []byte, opts Options) (Value, []RepairRecord, error) {
	if !utf8.Valid(input) {
		return Value{}, nil, newError(ErrInvalidUTF8, firstInvalidUTF8Offset(input), "input is not valid UTF-8")
	}
	p := newParser(input, opts)
	ip := &iterativeParser{Parser: p}
	v, err := ip.parseDocument()
	if err != nil {
		return Value{}, nil, err
	}
	var repairs []RepairRecord
	if p.repair != nil {
		repairs = p.repair.records
	}
	return v, repairs, nil
}

// frame is one entry of the iterativeParser's explicit container stack,
// replacing the recursive parser's Go call stack.
type frame struct {
	kind  containerKind
	state containerState

	openOffset int
	obj        *Object
	elems      []Value

	// pendingKey holds an object frame's key once read, while its value
	// is still being built on top of the stack.
	pendingKey string
}

// iterativeParser embeds Parser to reuse every token-stream and
// value-construction helper (parseValueFromToken's scalar cases,
// tokenAsKey, unescapeString, parseNumberLiteral); it only replaces the
// control flow that decides when to push/pop a container frame.
type iterativeParser struct {
	*Parser
	stack         []frame
	lastCompleted Value
}

func (ip *iterativeParser) push(f frame) error {
	if err := ip.enterContainerAt(f.openOffset); err != nil {
		return err
	}
	ip.stack = append(ip.stack, f)
	return nil
}

func (ip *iterativeParser) pop() frame {
	ip.exitContainer()
	top := ip.stack[len(ip.stack)-1]
	ip.stack = ip.stack[:len(ip.stack)-1]
	return top
}

func (ip *iterativeParser) top() *frame {
	return &ip.stack[len(ip.stack)-1]
}

// parseDocument mirrors Parser.parseDocument's top-level dispatch, then
// drives the container stack with an explicit loop instead of recursion
// for the object/array bodies.
func (ip *iterativeParser) parseDocument() (Value, error) {
	if !ip.opts.ImplicitTopLevel {
		v, err := ip.parseValueIter()
		if err != nil {
			return Value{}, err
		}
		return v, ip.expectEOF()
	}

	tok, err := ip.peek()
	if err != nil {
		return Value{}, err
	}
	if tok.Kind == TokenEOF {
		return ObjectValue(NewObject()), nil
	}

	if tok.Kind == TokenString || tok.Kind == TokenNumber || tok.Kind == TokenUnquotedString {
		keyTok, err := ip.next()
		if err != nil {
			return Value{}, err
		}
		next, err := ip.peek()
		if err != nil {
			return Value{}, err
		}
		if next.Kind == TokenColon {
			obj := NewObject()
			if err := ip.parseEntryValueInto(obj, keyTok); err != nil {
				return Value{}, err
			}
			v, err := ip.implicitObjectTailIter(obj)
			if err != nil {
				return Value{}, err
			}
			return v, ip.expectEOF()
		}
		firstVal, err := ip.parseValueFromToken(keyTok)
		if err != nil {
			return Value{}, err
		}
		return ip.continueTopLevelIter(firstVal)
	}

	firstVal, err := ip.parseValueIter()
	if err != nil {
		return Value{}, err
	}
	return ip.continueTopLevelIter(firstVal)
}

func (ip *iterativeParser) continueTopLevelIter(firstVal Value) (Value, error) {
	tok, err := ip.peek()
	if err != nil {
		return Value{}, err
	}
	if tok.Kind == TokenEOF {
		return firstVal, nil
	}
	v, err := ip.implicitArrayTailIter(firstVal)
	if err != nil {
		return Value{}, err
	}
	return v, ip.expectEOF()
}

func (ip *iterativeParser) implicitObjectTailIter(obj *Object) (Value, error) {
	state := stateExpectSep
	for {
		tok, err := ip.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			return ObjectValue(obj), nil
		}
		switch state {
		case stateExpectSep:
			applied, err := ip.consumeSep()
			if err != nil {
				return Value{}, err
			}
			if !applied {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "expected separator")
			}
			state = stateExpectEntry
		case stateExpectEntry:
			if err := ip.parseEntryInto(obj); err != nil {
				return Value{}, err
			}
			state = stateExpectSep
		}
	}
}

func (ip *iterativeParser) implicitArrayTailIter(firstVal Value) (Value, error) {
	elems := []Value{firstVal}
	state := stateExpectSep
	for {
		tok, err := ip.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			return ArrayValue(elems), nil
		}
		switch state {
		case stateExpectSep:
			applied, err := ip.consumeSep()
			if err != nil {
				return Value{}, err
			}
			if !applied {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "expected separator")
			}
			state = stateExpectEntry
		case stateExpectEntry:
			v, err := ip.parseValueIter()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
			state = stateExpectSep
		}
	}
}

// parseValueIter is the explicit-stack analogue of Parser.parseValue: it
// never recurses into itself for nested containers. Instead it pushes a
// frame and returns control to the driving loop below, which keeps
// popping completed containers and folding them into their parent frame
// until the whole value has been built.
func (ip *iterativeParser) parseValueIter() (Value, error) {
	tok, err := ip.next()
	if err != nil {
		return Value{}, err
	}
	return ip.driveFromToken(tok)
}

// driveFromToken dispatches a single already-fetched token. Scalars
// resolve immediately via the shared parseValueFromToken. A container
// opener starts the explicit-stack loop and does not return until that
// whole container (and anything it contains) is fully parsed.
func (ip *iterativeParser) driveFromToken(tok Token) (Value, error) {
	switch tok.Kind {
	case TokenLeftBrace:
		if err := ip.push(frame{kind: containerObject, state: stateExpectFirstOrEnd, openOffset: tok.Span.Start, obj: NewObject()}); err != nil {
			return Value{}, err
		}
		return ip.driveStack()
	case TokenLeftBracket:
		if err := ip.push(frame{kind: containerArray, state: stateExpectFirstOrEnd, openOffset: tok.Span.Start}); err != nil {
			return Value{}, err
		}
		return ip.driveStack()
	default:
		return ip.parseValueFromToken(tok)
	}
}

// driveStack runs the explicit-stack loop until the frame pushed just
// before calling it (and everything nested inside it) has been popped,
// returning that frame's completed Value.
func (ip *iterativeParser) driveStack() (Value, error) {
	baseDepth := len(ip.stack) - 1
	for len(ip.stack) > baseDepth {
		f := ip.top()
		tok, err := ip.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			kind := RepairMissingClose
			if !ip.repair.apply(kind, tok.Span.Start, "closed unterminated container at eof") {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "unexpected eof inside container")
			}
			if err := ip.closeTop(); err != nil {
				return Value{}, err
			}
			continue
		}

		switch f.kind {
		case containerObject:
			if err := ip.stepObject(tok); err != nil {
				return Value{}, err
			}
		case containerArray:
			if err := ip.stepArray(tok); err != nil {
				return Value{}, err
			}
		}
	}
	return ip.lastCompleted, nil
}

// setCompleted relays the value produced by closeTop back to driveStack
// once the stack has unwound past baseDepth, since closeTop itself has no
// return path out of the loop above.
func (ip *iterativeParser) setCompleted(v Value) { ip.lastCompleted = v }

func (ip *iterativeParser) stepObject(tok Token) error {
	f := ip.top()
	switch f.state {
	case stateExpectFirstOrEnd:
		if tok.Kind == TokenRightBrace {
			ip.next()
			return ip.closeTop()
		}
		return ip.readKey(f)
	case stateExpectSep:
		if tok.Kind == TokenRightBrace {
			ip.next()
			return ip.closeTop()
		}
		applied, err := ip.consumeSep()
		if err != nil {
			return err
		}
		if !applied {
			return newError(ErrUnexpectedToken, tok.Span.Start, "expected ',' or '}'")
		}
		f.state = stateExpectEntry
		return nil
	case stateExpectEntry:
		if tok.Kind == TokenRightBrace {
			if ip.opts.AllowTrailingCommas {
				ip.next()
				return ip.closeTop()
			}
			return newError(ErrTrailingComma, tok.Span.Start, "trailing comma not allowed")
		}
		return ip.readKey(f)
	}
	return nil
}

// readKey reads a key token and its ':' for the top object frame, then
// records the key as pending so the following value (scalar or nested
// container) is attached to it once produced.
func (ip *iterativeParser) readKey(f *frame) error {
	keyTok, err := ip.next()
	if err != nil {
		return err
	}
	key, err := ip.tokenAsKey(keyTok)
	if err != nil {
		return err
	}
	colonTok, err := ip.peek()
	if err != nil {
		return err
	}
	if colonTok.Kind == TokenColon {
		ip.next()
	} else if !ip.repair.apply(RepairMissingColon, colonTok.Span.Start, "inserted missing ':'") {
		return newError(ErrExpectedColon, colonTok.Span.Start, "expected ':'")
	}
	f.pendingKey = key

	valTok, err := ip.next()
	if err != nil {
		return err
	}
	switch valTok.Kind {
	case TokenLeftBrace:
		return ip.push(frame{kind: containerObject, state: stateExpectFirstOrEnd, openOffset: valTok.Span.Start, obj: NewObject()})
	case TokenLeftBracket:
		return ip.push(frame{kind: containerArray, state: stateExpectFirstOrEnd, openOffset: valTok.Span.Start})
	default:
		v, err := ip.parseValueFromToken(valTok)
		if err != nil {
			return err
		}
		f.obj.Set(f.pendingKey, v)
		f.state = stateExpectSep
		return nil
	}
}

func (ip *iterativeParser) stepArray(tok Token) error {
	f := ip.top()
	switch f.state {
	case stateExpectFirstOrEnd:
		if tok.Kind == TokenRightBracket {
			ip.next()
			return ip.closeTop()
		}
		return ip.readElement(f)
	case stateExpectSep:
		if tok.Kind == TokenRightBracket {
			ip.next()
			return ip.closeTop()
		}
		applied, err := ip.consumeSep()
		if err != nil {
			return err
		}
		if !applied {
			return newError(ErrUnexpectedToken, tok.Span.Start, "expected ',' or ']'")
		}
		f.state = stateExpectEntry
		return nil
	case stateExpectEntry:
		if tok.Kind == TokenRightBracket {
			if ip.opts.AllowTrailingCommas {
				ip.next()
				return ip.closeTop()
			}
			return newError(ErrTrailingComma, tok.Span.Start, "trailing comma not allowed")
		}
		return ip.readElement(f)
	}
	return nil
}

func (ip *iterativeParser) readElement(f *frame) error {
	valTok, err := ip.next()
	if err != nil {
		return err
	}
	switch valTok.Kind {
	case TokenLeftBrace:
		return ip.push(frame{kind: containerObject, state: stateExpectFirstOrEnd, openOffset: valTok.Span.Start, obj: NewObject()})
	case TokenLeftBracket:
		return ip.push(frame{kind: containerArray, state: stateExpectFirstOrEnd, openOffset: valTok.Span.Start})
	default:
		v, err := ip.parseValueFromToken(valTok)
		if err != nil {
			return err
		}
		f.elems = append(f.elems, v)
		f.state = stateExpectSep
		return nil
	}
}

// closeTop pops the finished top frame, builds its Value, and either
// hands that Value to its parent frame (attaching it to the parent's
// pending key or element list, then advancing the parent's state) or, if
// the stack has been fully unwound, stashes it for driveStack to return.
// closeTop assumes driveStack is only ever entered with an empty stack
// (parseValueIter's only callers - the top-level dispatch and the
// implicit-array tail loop - never call it from inside a
// container body), so an empty stack after popping always means the
// value driveStack was asked for is done, never a sibling frame.
func (ip *iterativeParser) closeTop() error {
	closed := ip.pop()
	var v Value
	switch closed.kind {
	case containerObject:
		v = ObjectValue(closed.obj)
	case containerArray:
		v = ArrayValue(closed.elems)
	}

	if len(ip.stack) == 0 {
		ip.setCompleted(v)
		return nil
	}

	parent := ip.top()
	switch parent.kind {
	case containerObject:
		parent.obj.Set(parent.pendingKey, v)
	case containerArray:
		parent.elems = append(parent.elems, v)
	}
	parent.state = stateExpectSep
	return nil
}
