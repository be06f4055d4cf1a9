package wgsl

import (
	"errors"
	"fmt"
)

var (
	// ErrLex is matched by every error produced while tokenizing.
	ErrLex = errors.New("wgsl: lex error")

	// ErrParse is matched by every error produced while parsing a token stream.
	ErrParse = errors.New("wgsl: parse error")
)

// LexError reports source text that no token rule accepts.
type LexError struct {
	Line    int
	Text    string
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("wgsl: line %d: %s at %q", e.Line, e.Message, e.Text)
}

func (e *LexError) Unwrap() error {
	return ErrLex
}

// ParseError reports the first token the parser could not accept, along with a
// description of the construct it expected.
type ParseError struct {
	Token   Token
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("wgsl: line %d: %s, found %s", e.Token.Line, e.Message, e.Token)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}
