package ccljson

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// Parse parses input under DefaultOptions.
func Parse(input []byte) (Value, error) {
	v, _, err := parse(input, DefaultOptions())
	return v, err
}

// ParseWithOptions parses input under the given Options.
func ParseWithOptions(input []byte, opts Options) (Value, error) {
	v, _, err := parse(input, opts)
	return v, err
}

// ParseWithRepairs parses input and, when opts.ReportRepairs is set,
// additionally returns the ordered list of repairs that were applied.
func ParseWithRepairs(input []byte, opts Options) (Value, []RepairRecord, error) {
	return parse(input, opts)
}

func parse(input []byte, opts Options) (Value, []RepairRecord, error) {
	if !utf8.Valid(input) {
		return Value{}, nil, newError(ErrInvalidUTF8, firstInvalidUTF8Offset(input), "input is not valid UTF-8")
	}
	p := newParser(input, opts)
	v, err := p.parseDocument()
	if err != nil {
		return Value{}, nil, err
	}
	var repairs []RepairRecord
	if p.repair != nil {
		repairs = p.repair.records
	}
	return v, repairs, nil
}

func firstInvalidUTF8Offset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// containerKind distinguishes object from array containers, shared by
// both the recursive and iterative parser variants.
type containerKind int

const (
	containerObject containerKind = iota
	containerArray
)

// containerState implements spec §4.3's per-container state machine:
// ExpectFirstOrEnd, ExpectEntry, ExpectSep, End.
type containerState int

const (
	stateExpectFirstOrEnd containerState = iota
	stateExpectEntry
	stateExpectSep
	stateEnd
)

// Parser implements the recursive-descent grammar of spec §4.3. Both this
// type and iterativeParser (iterative.go) share the lexer, the
// token-stream plumbing (rawNext/peek/next), and the value-construction
// helpers below, so they cannot silently diverge on number/string
// semantics — the structural half of spec §4.4's "must produce
// bit-identical results" requirement.
type Parser struct {
	lex    *Lexer
	data   []byte
	opts   Options
	depth  int
	peeked *Token

	repair *repairState

	// unterminatedAt records the offset of a string literal repaired by
	// closing it at EOF (RepairUnterminatedString), since such a token's
	// span has no closing quote to strip when unescaping.
	unterminatedAt    int
	hasUnterminatedAt bool
}

func newParser(data []byte, opts Options) *Parser {
	p := &Parser{
		lex:  NewLexer(data, opts),
		data: data,
		opts: opts,
	}
	if opts.EnableRepair {
		p.repair = newRepairState(opts)
	}
	return p
}

// rawNext pulls the next non-comment token from the lexer, transparently
// repairing an EOF-truncated string literal when repair is enabled
// (spec §4.5: "Unterminated string at EOF | Close with current contents").
func (p *Parser) rawNext() (Token, error) {
	for {
		tok, err := p.lex.Next()
		if err != nil {
			if e, ok := err.(*Error); ok && e.Kind == ErrUnterminatedString {
				if p.repair.apply(RepairUnterminatedString, e.Offset, "closed unterminated string at eof") {
					p.unterminatedAt = e.Offset
					p.hasUnterminatedAt = true
					return Token{Kind: TokenString, Span: Span{e.Offset, len(p.data)}}, nil
				}
			}
			return Token{}, err
		}
		if tok.Kind.isComment() {
			continue
		}
		return tok, nil
	}
}

func (p *Parser) peek() (Token, error) {
	if p.peeked != nil {
		return *p.peeked, nil
	}
	tok, err := p.rawNext()
	if err != nil {
		return Token{}, err
	}
	p.peeked = &tok
	return tok, nil
}

func (p *Parser) next() (Token, error) {
	tok, err := p.peek()
	if err != nil {
		return Token{}, err
	}
	p.peeked = nil
	return tok, nil
}

func (p *Parser) enterContainerAt(offset int) error {
	p.depth++
	if p.opts.depthLimited(p.depth) {
		return newError(ErrDepthExceeded, offset, "max depth %d exceeded", p.opts.MaxDepth)
	}
	return nil
}

func (p *Parser) exitContainer() { p.depth-- }

// consumeSeparatorTail collapses any run of additional newline tokens
// immediately following a separator, so blank lines between entries don't
// read as empty entries (grammar: sep := ',' | NEWLINE | ',' NEWLINE).
func (p *Parser) consumeSeparatorTail() error {
	for p.opts.NewlineAsComma {
		tok, err := p.peek()
		if err != nil {
			return err
		}
		if tok.Kind != TokenNewline {
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) expectEOF() error {
	tok, err := p.peek()
	if err != nil {
		return err
	}
	if tok.Kind != TokenEOF {
		return newError(ErrUnexpectedToken, tok.Span.Start, "unexpected trailing data after value")
	}
	return nil
}

// parseDocument implements spec §4.3's top-level dispatch: a single value
// if the first token starts one unambiguously; else, if implicit top
// level is enabled and a key token is followed by ':', an implicit
// object; else an implicit array of comma/newline-separated values.
func (p *Parser) parseDocument() (Value, error) {
	if !p.opts.ImplicitTopLevel {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		return v, p.expectEOF()
	}

	tok, err := p.peek()
	if err != nil {
		return Value{}, err
	}
	if tok.Kind == TokenEOF {
		return ObjectValue(NewObject()), nil
	}

	if tok.Kind == TokenString || tok.Kind == TokenNumber || tok.Kind == TokenUnquotedString {
		keyTok, err := p.next()
		if err != nil {
			return Value{}, err
		}
		next, err := p.peek()
		if err != nil {
			return Value{}, err
		}
		if next.Kind == TokenColon {
			obj := NewObject()
			if err := p.parseEntryValueInto(obj, keyTok); err != nil {
				return Value{}, err
			}
			v, err := p.parseImplicitObjectTail(obj)
			if err != nil {
				return Value{}, err
			}
			return v, p.expectEOF()
		}
		firstVal, err := p.parseValueFromToken(keyTok)
		if err != nil {
			return Value{}, err
		}
		return p.continueTopLevel(firstVal)
	}

	firstVal, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	return p.continueTopLevel(firstVal)
}

func (p *Parser) continueTopLevel(firstVal Value) (Value, error) {
	tok, err := p.peek()
	if err != nil {
		return Value{}, err
	}
	if tok.Kind == TokenEOF {
		return firstVal, nil
	}
	v, err := p.parseImplicitArrayTail(firstVal)
	if err != nil {
		return Value{}, err
	}
	return v, p.expectEOF()
}

// parseImplicitObjectTail drives ExpectSep/ExpectEntry for a top-level
// implicit object whose first entry has already been parsed into obj.
func (p *Parser) parseImplicitObjectTail(obj *Object) (Value, error) {
	state := stateExpectSep
	for {
		tok, err := p.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			return ObjectValue(obj), nil
		}
		switch state {
		case stateExpectSep:
			applied, err := p.consumeSep()
			if err != nil {
				return Value{}, err
			}
			if !applied {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "expected separator")
			}
			state = stateExpectEntry
		case stateExpectEntry:
			if err := p.parseEntryInto(obj); err != nil {
				return Value{}, err
			}
			state = stateExpectSep
		}
	}
}

func (p *Parser) parseImplicitArrayTail(firstVal Value) (Value, error) {
	elems := []Value{firstVal}
	state := stateExpectSep
	for {
		tok, err := p.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			return ArrayValue(elems), nil
		}
		switch state {
		case stateExpectSep:
			applied, err := p.consumeSep()
			if err != nil {
				return Value{}, err
			}
			if !applied {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "expected separator")
			}
			state = stateExpectEntry
		case stateExpectEntry:
			v, err := p.parseValue()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
			state = stateExpectSep
		}
	}
}

// consumeSep consumes one comma and/or newline separator (plus any
// trailing run of newlines), reporting whether a separator was found. If
// none was found but repair is enabled, it still reports true (without
// consuming anything) and records a RepairMissingSeparator.
func (p *Parser) consumeSep() (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	switch {
	case tok.Kind == TokenComma:
		if _, err := p.next(); err != nil {
			return false, err
		}
		return true, p.consumeSeparatorTail()
	case p.opts.NewlineAsComma && tok.Kind == TokenNewline:
		if _, err := p.next(); err != nil {
			return false, err
		}
		return true, p.consumeSeparatorTail()
	default:
		if p.repair.apply(RepairMissingSeparator, tok.Span.Start, "inserted missing separator") {
			return true, nil
		}
		return false, nil
	}
}

// parseValue consumes and parses the next value.
func (p *Parser) parseValue() (Value, error) {
	tok, err := p.next()
	if err != nil {
		return Value{}, err
	}
	return p.parseValueFromToken(tok)
}

func (p *Parser) parseValueFromToken(tok Token) (Value, error) {
	switch tok.Kind {
	case TokenLeftBrace:
		return p.parseObject(tok)
	case TokenLeftBracket:
		return p.parseArray(tok)
	case TokenString:
		s, err := p.unescapeString(tok.Span)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case TokenNumber:
		n, err := parseNumberLiteral(tok.Span.Slice(p.data), tok.Span.Start)
		if err != nil {
			return Value{}, err
		}
		return NumberValue(n), nil
	case TokenTrue:
		return BoolValue(true), nil
	case TokenFalse:
		return BoolValue(false), nil
	case TokenNull:
		return NullValue(), nil
	case TokenUnquotedString:
		if p.opts.AllowUnquotedKeys {
			return StringValue(string(tok.Span.Slice(p.data))), nil
		}
		// The lexer only emits this token without AllowUnquotedKeys when
		// ImplicitTopLevel allowed it for top-level key-vs-value lookahead.
		if p.repair.apply(RepairBarewordAsValue, tok.Span.Start, "treated bareword as string value") {
			return StringValue(string(tok.Span.Slice(p.data))), nil
		}
		return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "unexpected bareword %q", tok.Span.Slice(p.data))
	case TokenRightBrace, TokenRightBracket:
		if p.repair.apply(RepairStrayClosingBracket, tok.Span.Start, "dropped stray closing bracket") {
			next, err := p.next()
			if err != nil {
				return Value{}, err
			}
			return p.parseValueFromToken(next)
		}
		return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "unexpected token %s", tok.Kind)
	default:
		return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "unexpected token %s", tok.Kind)
	}
}

// parseObject parses the body of an explicit '{ ... }' container; openTok
// is the already-consumed '{'.
func (p *Parser) parseObject(openTok Token) (Value, error) {
	if err := p.enterContainerAt(openTok.Span.Start); err != nil {
		return Value{}, err
	}
	defer p.exitContainer()

	obj := NewObject()
	state := stateExpectFirstOrEnd
	for {
		tok, err := p.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			if p.repair.apply(RepairMissingClose, tok.Span.Start, "closed unterminated object at eof") {
				return ObjectValue(obj), nil
			}
			return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "unexpected eof inside object")
		}
		switch state {
		case stateExpectFirstOrEnd:
			if tok.Kind == TokenRightBrace {
				p.next()
				return ObjectValue(obj), nil
			}
			if err := p.parseEntryInto(obj); err != nil {
				return Value{}, err
			}
			state = stateExpectSep
		case stateExpectSep:
			if tok.Kind == TokenRightBrace {
				p.next()
				return ObjectValue(obj), nil
			}
			applied, err := p.consumeSep()
			if err != nil {
				return Value{}, err
			}
			if !applied {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "expected ',' or '}'")
			}
			state = stateExpectEntry
		case stateExpectEntry:
			if tok.Kind == TokenRightBrace {
				if p.opts.AllowTrailingCommas {
					p.next()
					return ObjectValue(obj), nil
				}
				return Value{}, newError(ErrTrailingComma, tok.Span.Start, "trailing comma not allowed")
			}
			if err := p.parseEntryInto(obj); err != nil {
				return Value{}, err
			}
			state = stateExpectSep
		}
	}
}

// parseArray parses the body of an explicit '[ ... ]' container; openTok
// is the already-consumed '['.
func (p *Parser) parseArray(openTok Token) (Value, error) {
	if err := p.enterContainerAt(openTok.Span.Start); err != nil {
		return Value{}, err
	}
	defer p.exitContainer()

	var elems []Value
	state := stateExpectFirstOrEnd
	for {
		tok, err := p.peek()
		if err != nil {
			return Value{}, err
		}
		if tok.Kind == TokenEOF {
			if p.repair.apply(RepairMissingClose, tok.Span.Start, "closed unterminated array at eof") {
				return ArrayValue(elems), nil
			}
			return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "unexpected eof inside array")
		}
		switch state {
		case stateExpectFirstOrEnd:
			if tok.Kind == TokenRightBracket {
				p.next()
				return ArrayValue(elems), nil
			}
			v, err := p.parseValue()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
			state = stateExpectSep
		case stateExpectSep:
			if tok.Kind == TokenRightBracket {
				p.next()
				return ArrayValue(elems), nil
			}
			applied, err := p.consumeSep()
			if err != nil {
				return Value{}, err
			}
			if !applied {
				return Value{}, newError(ErrUnexpectedToken, tok.Span.Start, "expected ',' or ']'")
			}
			state = stateExpectEntry
		case stateExpectEntry:
			if tok.Kind == TokenRightBracket {
				if p.opts.AllowTrailingCommas {
					p.next()
					return ArrayValue(elems), nil
				}
				return Value{}, newError(ErrTrailingComma, tok.Span.Start, "trailing comma not allowed")
			}
			v, err := p.parseValue()
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
			state = stateExpectSep
		}
	}
}

// parseEntryInto fetches a key token and then delegates to
// parseEntryValueInto.
func (p *Parser) parseEntryInto(obj *Object) error {
	keyTok, err := p.next()
	if err != nil {
		return err
	}
	return p.parseEntryValueInto(obj, keyTok)
}

// parseEntryValueInto parses "':' value" given an already-fetched key
// token and sets the resulting entry into obj (last-wins, spec §3).
func (p *Parser) parseEntryValueInto(obj *Object, keyTok Token) error {
	key, err := p.tokenAsKey(keyTok)
	if err != nil {
		return err
	}
	colonTok, err := p.peek()
	if err != nil {
		return err
	}
	if colonTok.Kind == TokenColon {
		p.next()
	} else if !p.repair.apply(RepairMissingColon, colonTok.Span.Start, "inserted missing ':'") {
		return newError(ErrExpectedColon, colonTok.Span.Start, "expected ':'")
	}
	val, err := p.parseValue()
	if err != nil {
		return err
	}
	obj.Set(key, val)
	return nil
}

// tokenAsKey stringifies a key token: key := string | unquoted | number-as-identifier.
func (p *Parser) tokenAsKey(tok Token) (string, error) {
	switch tok.Kind {
	case TokenString:
		return p.unescapeString(tok.Span)
	case TokenUnquotedString:
		return string(tok.Span.Slice(p.data)), nil
	case TokenNumber:
		return string(tok.Span.Slice(p.data)), nil
	case TokenRightBrace, TokenRightBracket:
		if p.repair.apply(RepairStrayClosingBracket, tok.Span.Start, "dropped stray closing bracket before key") {
			next, err := p.next()
			if err != nil {
				return "", err
			}
			return p.tokenAsKey(next)
		}
		return "", newError(ErrUnexpectedToken, tok.Span.Start, "expected key, got %s", tok.Kind)
	default:
		return "", newError(ErrUnexpectedToken, tok.Span.Start, "expected key, got %s", tok.Kind)
	}
}

// unescapeString decodes the content of a string token, stripping its
// delimiting quotes (or, for a repair-closed unterminated string, just
// the opening quote).
func (p *Parser) unescapeString(span Span) (string, error) {
	raw := span.Slice(p.data)
	var content []byte
	if p.hasUnterminatedAt && span.Start == p.unterminatedAt {
		content = raw[1:]
	} else {
		if len(raw) < 2 {
			return "", newError(ErrUnterminatedString, span.Start, "unterminated string")
		}
		content = raw[1 : len(raw)-1]
	}
	return unescapeBytes(content, span.Start+1)
}

// unescapeBytes decodes escape sequences already validated for syntactic
// shape by the lexer (Lexer.lexString); it additionally resolves \u
// surrogate pairs and verifies the decoded result is valid UTF-8. A
// string closed by RepairUnterminatedString can end in a lone '\', which
// is reported as ErrInvalidEscape.
func unescapeBytes(content []byte, offset int) (string, error) {
	if !bytes.ContainsRune(content, '\\') {
		if !utf8.Valid(content) {
			return "", newError(ErrInvalidUTF8, offset, "string is not valid UTF-8")
		}
		return string(content), nil
	}

	buf := make([]byte, 0, len(content))
	for i := 0; i < len(content); {
		b := content[i]
		if b != '\\' {
			j := i
			for j < len(content) && content[j] != '\\' {
				j++
			}
			buf = append(buf, content[i:j]...)
			i = j
			continue
		}
		if i+1 >= len(content) {
			return "", newError(ErrInvalidEscape, offset+i, "truncated escape")
		}
		esc := content[i+1]
		switch esc {
		case '"':
			buf = append(buf, '"')
			i += 2
		case '\'':
			buf = append(buf, '\'')
			i += 2
		case '\\':
			buf = append(buf, '\\')
			i += 2
		case '/':
			buf = append(buf, '/')
			i += 2
		case 'b':
			buf = append(buf, '\b')
			i += 2
		case 'f':
			buf = append(buf, '\f')
			i += 2
		case 'n':
			buf = append(buf, '\n')
			i += 2
		case 'r':
			buf = append(buf, '\r')
			i += 2
		case 't':
			buf = append(buf, '\t')
			i += 2
		case 'u':
			r, consumed, err := decodeUnicodeEscape(content[i:], offset+i)
			if err != nil {
				return "", err
			}
			buf = utf8.AppendRune(buf, r)
			i += consumed
		default:
			return "", newError(ErrInvalidEscape, offset+i, "invalid escape '\\%c'", esc)
		}
	}
	if !utf8.Valid(buf) {
		return "", newError(ErrInvalidUTF8, offset, "string is not valid UTF-8")
	}
	return string(buf), nil
}

// decodeUnicodeEscape decodes a \uXXXX escape (and, if it is a UTF-16
// high surrogate, the following \uXXXX low surrogate) starting at
// escape[0] == '\\'. It returns the decoded rune and the number of bytes
// of escape consumed (6, or 12 for a surrogate pair).
func decodeUnicodeEscape(escape []byte, absOffset int) (rune, int, error) {
	if len(escape) < 6 {
		return 0, 0, newError(ErrInvalidUnicode, absOffset, "truncated unicode escape")
	}
	hi, err := strconv.ParseUint(string(escape[2:6]), 16, 32)
	if err != nil {
		return 0, 0, newError(ErrInvalidUnicode, absOffset, "invalid unicode escape")
	}
	r := rune(hi)
	if r >= 0xD800 && r <= 0xDBFF {
		if len(escape) < 12 || escape[6] != '\\' || escape[7] != 'u' {
			return 0, 0, newError(ErrInvalidUnicode, absOffset, "unpaired surrogate %U", r)
		}
		lo, err := strconv.ParseUint(string(escape[8:12]), 16, 32)
		if err != nil {
			return 0, 0, newError(ErrInvalidUnicode, absOffset, "invalid unicode escape")
		}
		lr := rune(lo)
		if lr < 0xDC00 || lr > 0xDFFF {
			return 0, 0, newError(ErrInvalidUnicode, absOffset, "unpaired surrogate %U", r)
		}
		combined := ((r - 0xD800) << 10) | (lr - 0xDC00) + 0x10000
		return combined, 12, nil
	}
	if r >= 0xDC00 && r <= 0xDFFF {
		return 0, 0, newError(ErrInvalidUnicode, absOffset, "unpaired surrogate %U", r)
	}
	return r, 6, nil
}

func isRadixMarker(b byte) bool {
	switch b {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	default:
		return false
	}
}

func radixBase(b byte) int {
	switch b {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	default:
		return 2
	}
}

func stripUnderscores(b []byte) []byte {
	if !bytes.ContainsRune(b, '_') {
		return b
	}
	return bytes.ReplaceAll(b, []byte("_"), nil)
}

// parseNumberLiteral converts a number token's raw lexeme into a Number,
// per spec §3: Integer if it has no fractional part, no exponent, and
// fits int64; Float otherwise. offset is used only for error reporting.
func parseNumberLiteral(raw []byte, offset int) (Number, error) {
	neg := len(raw) > 0 && raw[0] == '-'
	body := raw
	if len(raw) > 0 && (raw[0] == '-' || raw[0] == '+') {
		body = raw[1:]
	}

	if len(body) >= 2 && body[0] == '0' && isRadixMarker(body[1]) {
		digits := stripUnderscores(body[2:])
		u, err := strconv.ParseUint(string(digits), radixBase(body[1]), 64)
		if err != nil {
			return Number{}, newError(ErrInvalidNumber, offset, "invalid radix number %q", raw)
		}
		if u > 1<<63-1 && !(neg && u == 1<<63) {
			f := float64(u)
			if neg {
				f = -f
			}
			return FloatNumber(f), nil
		}
		i := int64(u)
		if neg {
			i = -i
		}
		return IntNumber(i), nil
	}

	clean := stripUnderscores(body)
	isFloatLiteral := bytes.ContainsAny(clean, ".eE")
	sign := ""
	if neg {
		sign = "-"
	}
	literal := sign + string(clean)

	if !isFloatLiteral {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return IntNumber(i), nil
		}
		// Doesn't fit int64: per spec §3/§9, falls back to Float with
		// whatever precision binary64 provides.
	}
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return Number{}, newError(ErrInvalidNumber, offset, "invalid number %q", raw)
	}
	return FloatNumber(f), nil
}
