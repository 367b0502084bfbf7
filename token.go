package ccljson

import "fmt"

// TokenKind enumerates the lexical categories the lexer can produce.
type TokenKind int

const (
	TokenLeftBrace TokenKind = iota
	TokenRightBrace
	TokenLeftBracket
	TokenRightBracket
	TokenColon
	TokenComma
	// TokenNewline is only ever emitted when Options.NewlineAsComma is on.
	TokenNewline
	TokenString
	TokenNumber
	TokenTrue
	TokenFalse
	TokenNull
	TokenUnquotedString
	TokenSingleLineComment
	TokenMultiLineComment
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenLeftBrace:
		return "LeftBrace"
	case TokenRightBrace:
		return "RightBrace"
	case TokenLeftBracket:
		return "LeftBracket"
	case TokenRightBracket:
		return "RightBracket"
	case TokenColon:
		return "Colon"
	case TokenComma:
		return "Comma"
	case TokenNewline:
		return "Newline"
	case TokenString:
		return "String"
	case TokenNumber:
		return "Number"
	case TokenTrue:
		return "True"
	case TokenFalse:
		return "False"
	case TokenNull:
		return "Null"
	case TokenUnquotedString:
		return "UnquotedString"
	case TokenSingleLineComment:
		return "SingleLineComment"
	case TokenMultiLineComment:
		return "MultiLineComment"
	case TokenEOF:
		return "Eof"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// isComment reports whether k is one of the two comment token kinds.
func (k TokenKind) isComment() bool {
	return k == TokenSingleLineComment || k == TokenMultiLineComment
}

// Token is a single lexical unit with its source span. The span is
// half-open and covers the whole lexeme, quotes included for strings.
type Token struct {
	Kind TokenKind
	Span Span
}
