package ccljson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAllTokens(t *testing.T, input string, opts Options) []Token {
	t.Helper()
	lex := NewLexer([]byte(input), opts)
	var toks []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokenEOF {
			return toks
		}
	}
}

func tokKinds(toks []Token) []TokenKind {
	ks := make([]TokenKind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestLexerPunctuationAndLiterals(t *testing.T) {
	t.Parallel()

	toks := lexAllTokens(t, `{ } [ ] : , true false null`, Strict())
	require.Equal(t, []TokenKind{
		TokenLeftBrace, TokenRightBrace, TokenLeftBracket, TokenRightBracket,
		TokenColon, TokenComma, TokenTrue, TokenFalse, TokenNull, TokenEOF,
	}, tokKinds(toks))
}

func TestLexerNextIdempotentAtEOF(t *testing.T) {
	t.Parallel()

	lex := NewLexer([]byte(`1`), Strict())
	_, err := lex.Next()
	require.NoError(t, err)
	tok, err := lex.Next()
	require.NoError(t, err)
	require.Equal(t, TokenEOF, tok.Kind)
	tok2, err := lex.Next()
	require.NoError(t, err)
	require.Equal(t, tok, tok2)
}

func TestLexerString(t *testing.T) {
	t.Parallel()

	toks := lexAllTokens(t, `"hello\nworld"`, Strict())
	require.Equal(t, TokenString, toks[0].Kind)
	require.Equal(t, `"hello\nworld"`, string(toks[0].Span.Slice([]byte(`"hello\nworld"`))))
}

func TestLexerSingleQuoteRequiresOption(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`'hi'`), Strict()).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnexpectedChar, perr.Kind)

	opts := Strict()
	opts.AllowSingleQuotes = true
	toks := lexAllTokens(t, `'hi'`, opts)
	require.Equal(t, TokenString, toks[0].Kind)
}

func TestLexerUnterminatedString(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`"abc`), Strict()).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnterminatedString, perr.Kind)
}

func TestLexerInvalidEscape(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`"\q"`), Strict()).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrInvalidEscape, perr.Kind)
}

func TestLexerInvalidUnicodeEscape(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`"\u12zz"`), Strict()).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrInvalidUnicode, perr.Kind)
}

func TestLexerCommentsRequireOption(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`// hi`), Strict()).Next()
	require.Error(t, err)

	opts := Strict()
	opts.AllowComments = true
	toks := lexAllTokens(t, "// hi\n#again\n/* block */ true", opts)
	require.Equal(t, []TokenKind{
		TokenSingleLineComment, TokenSingleLineComment, TokenMultiLineComment, TokenTrue, TokenEOF,
	}, tokKinds(toks))
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.AllowComments = true
	_, err := NewLexer([]byte(`/* never closes`), opts).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnterminatedComment, perr.Kind)
}

func TestLexerNewlineAsComma(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.NewlineAsComma = true
	toks := lexAllTokens(t, "1\n2", opts)
	require.Equal(t, []TokenKind{TokenNumber, TokenNewline, TokenNumber, TokenEOF}, tokKinds(toks))
}

func TestLexerNewlineNotSignificantByDefault(t *testing.T) {
	t.Parallel()

	toks := lexAllTokens(t, "1\n2", Strict())
	require.Equal(t, []TokenKind{TokenNumber, TokenNumber, TokenEOF}, tokKinds(toks))
}

func TestLexerUnquotedIdentifier(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`fooBar`), Strict()).Next()
	require.Error(t, err)

	opts := Strict()
	opts.AllowUnquotedKeys = true
	toks := lexAllTokens(t, `fooBar`, opts)
	require.Equal(t, TokenUnquotedString, toks[0].Kind)
}

func TestLexerExtendedNumbers(t *testing.T) {
	t.Parallel()

	opts := Strict()
	opts.AllowExtendedNumbers = true

	cases := []string{"0x1F", "0o17", "0b101", "+5", ".5", "5.", "1_000", "0x1_F"}
	for _, in := range cases {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			toks := lexAllTokens(t, in, opts)
			require.Equal(t, TokenNumber, toks[0].Kind, "input %q", in)
			require.Equal(t, len(in), toks[0].Span.End)
		})
	}
}

func TestLexerLeadingZeroRejected(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`012`), Strict()).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrInvalidNumber, perr.Kind)
}

func TestLexerNumberWithExponent(t *testing.T) {
	t.Parallel()

	toks := lexAllTokens(t, `1.5e+10`, Strict())
	require.Equal(t, TokenNumber, toks[0].Kind)
	require.Equal(t, 7, toks[0].Span.Len())
}

func TestLexerIncompleteNumberAtTrueEOF(t *testing.T) {
	t.Parallel()

	extended := Strict()
	extended.AllowExtendedNumbers = true

	cases := []struct {
		in   string
		opts Options
	}{
		{"0x", extended},
		{"0o", extended},
		{"0b", extended},
		{"1e", extended},
		{"1e+", extended},
		{"-", extended},
		{"1.", Strict()}, // a trailing '.' with no fraction digit is only ambiguous under strict numbers
	}
	for _, c := range cases {
		c := c
		t.Run(c.in, func(t *testing.T) {
			t.Parallel()
			_, err := NewLexer([]byte(c.in), c.opts).Next()
			require.Error(t, err, "input %q", c.in)
			var perr *Error
			require.ErrorAs(t, err, &perr)
			require.Equal(t, ErrIncompleteNumber, perr.Kind, "input %q", c.in)
		})
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	t.Parallel()

	_, err := NewLexer([]byte(`@`), Strict()).Next()
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, ErrUnexpectedChar, perr.Kind)
}
