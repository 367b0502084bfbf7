// Package stream implements the chunk-fed streaming front end: a lexer
// that accepts input as a sequence of byte chunks instead of one
// complete buffer, and a pull-based event parser layered on top of it.
//
// Grounded on original_source/crates/core/src/streaming/buffered/buffer.rs's
// fill_buffers (read a chunk, feed the lexer, flush on EOF) translated
// from a pull-from-io.Read loop into a Go push API (Feed/Flush), per
// spec.md §4.6's "accepts input as a sequence of byte chunks" contract.
// An io.Reader-driven convenience wrapper sits on top in reader.go,
// grounded on creachadair-jtree's NewStream(io.Reader) over its
// lower-level Scanner.
package stream

import (
	"unicode/utf8"

	"github.com/rhogenson/ccljson"
)

// Lexer is a chunk-fed tokenizer: Feed appends a chunk and returns every
// token that can be produced with certainty from the bytes seen so far,
// Flush signals end of input and returns the rest, including a final
// Eof token.
//
// Implementation note: each call re-lexes the buffered remainder from
// byte 0 with a fresh ccljson.Lexer rather than resuming a suspended
// scan. This keeps the chunk boundary logic in one place (a token is
// held back whenever it reaches exactly the end of the currently
// buffered bytes, since only then can it still be extended by the next
// chunk) at the cost of rescanning already-buffered-but-not-yet-emitted
// bytes on every Feed call: a simplicity/throughput tradeoff,
// acceptable since the buffered remainder is
// normally just the tail of one in-progress token.
type Lexer struct {
	opts    ccljson.Options
	pending []byte
	base    int // stream offset of pending[0]
}

// NewLexer returns a Lexer scanning a stream under opts.
func NewLexer(opts ccljson.Options) *Lexer {
	return &Lexer{opts: opts}
}

// Pos returns the absolute stream offset of the first byte not yet
// resolved into an emitted token.
func (l *Lexer) Pos() int { return l.base }

// Feed appends chunk to the pending buffer and returns every token that
// can be produced with certainty. needsMore reports whether unresolved
// bytes remain buffered, awaiting either more input or Flush.
func (l *Lexer) Feed(chunk []byte) (tokens []ccljson.Token, needsMore bool, err error) {
	l.pending = append(l.pending, chunk...)
	return l.drain(false)
}

// Flush signals that no further input will ever be fed, and returns any
// remaining tokens (including a final TokenEOF). Calling Feed after
// Flush is a caller error; Flush itself is idempotent.
func (l *Lexer) Flush() ([]ccljson.Token, error) {
	tokens, _, err := l.drain(true)
	return tokens, err
}

func (l *Lexer) drain(final bool) (tokens []ccljson.Token, needsMore bool, err error) {
	if offset, bad := firstInvalidUTF8(l.pending, final); bad {
		return nil, false, &ccljson.Error{Kind: ccljson.ErrInvalidUTF8, Offset: l.base + offset, Message: "input is not valid UTF-8"}
	}

	lex := ccljson.NewLexer(l.pending, l.opts)
	consumed := 0
	for {
		tok, lexErr := lex.Next()
		if lexErr != nil {
			if !final && incompleteAtEOF(lexErr) {
				break
			}
			return tokens, false, rebase(lexErr, l.base)
		}
		if !final && tok.Span.End >= len(l.pending) {
			// Reached exactly the end of buffered bytes: this token (or
			// the implicit Eof) might still extend with more input.
			break
		}
		tokens = append(tokens, rebaseToken(tok, l.base))
		consumed = tok.Span.End
		if tok.Kind == ccljson.TokenEOF {
			break
		}
	}
	l.pending = l.pending[consumed:]
	l.base += consumed
	return tokens, len(l.pending) > 0, nil
}

// incompleteAtEOF reports whether err is a lex error that can only have
// occurred because the scan ran off the end of the currently buffered
// bytes (an unterminated string, an unterminated block comment, or a
// number literal cut off at a digit lookahead point), as opposed to a
// genuine syntax error that more input cannot fix.
func incompleteAtEOF(err error) bool {
	e, ok := err.(*ccljson.Error)
	if !ok {
		return false
	}
	switch e.Kind {
	case ccljson.ErrUnterminatedString, ccljson.ErrUnterminatedComment, ccljson.ErrIncompleteNumber:
		return true
	}
	return false
}

func rebaseToken(tok ccljson.Token, base int) ccljson.Token {
	tok.Span.Start += base
	tok.Span.End += base
	return tok
}

func rebase(err error, base int) error {
	e, ok := err.(*ccljson.Error)
	if !ok {
		return err
	}
	return &ccljson.Error{Kind: e.Kind, Offset: e.Offset + base, Message: e.Message}
}

// firstInvalidUTF8 reports the offset of the first genuinely invalid
// UTF-8 byte in data, if any. A trailing byte sequence that is merely
// incomplete (a chunk boundary split a multi-byte rune) is not reported
// unless final is true, since utf8.FullRune distinguishes "invalid" from
// "not enough bytes yet" where DecodeRune alone cannot.
func firstInvalidUTF8(data []byte, final bool) (offset int, bad bool) {
	i := 0
	for i < len(data) {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			if !final && !utf8.FullRune(data[i:]) {
				return 0, false
			}
			return i, true
		}
		i += size
	}
	return 0, false
}
