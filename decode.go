package ccljson

// This file exposes the scalar-decoding helpers the non-streaming Parser
// uses internally, so the stream subpackage's event-based front end (which
// produces Events, not a Value tree, and therefore cannot reuse Parser
// itself) can still share the exact same number/string/key semantics
// instead of re-implementing them — preserving the same equivalence
// guarantee between front ends that parser.go/iterative.go already share
// with each other.

// DecodeNumberLiteral converts a number token's raw lexeme (as sliced by
// its Span) into a Number. offset positions any returned error.
func DecodeNumberLiteral(raw []byte, offset int) (Number, error) {
	return parseNumberLiteral(raw, offset)
}

// DecodeStringLiteral decodes a complete, properly closed quoted string
// token's raw lexeme (delimiting quotes included) into its string value.
// offset is the absolute byte position of raw[0] in the source.
func DecodeStringLiteral(raw []byte, offset int) (string, error) {
	if len(raw) < 2 || raw[len(raw)-1] != raw[0] {
		return "", newError(ErrUnterminatedString, offset, "unterminated string")
	}
	return unescapeBytes(raw[1:len(raw)-1], offset+1)
}

// DecodeKeyLiteral stringifies a key token's raw lexeme per kind: String
// tokens are unescaped, UnquotedString and Number tokens are taken
// verbatim (number-as-identifier, spec §3's key grammar).
func DecodeKeyLiteral(kind TokenKind, raw []byte, offset int) (string, error) {
	switch kind {
	case TokenString:
		return DecodeStringLiteral(raw, offset)
	case TokenUnquotedString, TokenNumber:
		return string(raw), nil
	default:
		return "", newError(ErrUnexpectedToken, offset, "expected key, got %s", kind)
	}
}
