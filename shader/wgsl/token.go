// Package wgsl implements the WGSL front-end used by the reflection pipeline: a
// longest-match lexer and a recursive-descent parser that produces an ordered list
// of top-level declarations.
package wgsl

import (
	"fmt"
	"strings"
)

// TokenKind identifies the lexical category of a Token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Literals and names
	TokenIdent
	TokenDecimalFloat
	TokenHexFloat
	TokenIntLiteral
	TokenUintLiteral

	// Operators and punctuation
	TokenAnd              // &
	TokenAndAnd           // &&
	TokenArrow            // ->
	TokenAttr             // @
	TokenForwardSlash     // /
	TokenBang             // !
	TokenBracketLeft      // [
	TokenBracketRight     // ]
	TokenBraceLeft        // {
	TokenBraceRight       // }
	TokenColon            // :
	TokenComma            // ,
	TokenEqual            // =
	TokenEqualEqual       // ==
	TokenNotEqual         // !=
	TokenGreaterThan      // >
	TokenGreaterThanEqual // >=
	TokenShiftRight       // >>
	TokenLessThan         // <
	TokenLessThanEqual    // <=
	TokenShiftLeft        // <<
	TokenModulo           // %
	TokenMinus            // -
	TokenMinusMinus       // --
	TokenPeriod           // .
	TokenPlus             // +
	TokenPlusPlus         // ++
	TokenOr               // |
	TokenOrOr             // ||
	TokenParenLeft        // (
	TokenParenRight       // )
	TokenSemicolon        // ;
	TokenStar             // *
	TokenTilde            // ~
	TokenUnderscore       // _
	TokenXor              // ^
	TokenPlusEqual        // +=
	TokenMinusEqual       // -=
	TokenTimesEqual       // *=
	TokenDivisionEqual    // /=
	TokenModuloEqual      // %=
	TokenAndEqual         // &=
	TokenOrEqual          // |=
	TokenXorEqual         // ^=
	TokenShiftRightEqual  // >>=
	TokenShiftLeftEqual   // <<=

	// Keywords
	TokenAlias
	TokenBitcast
	TokenBreak
	TokenCase
	TokenConst
	TokenConstAssert
	TokenContinue
	TokenContinuing
	TokenDefault
	TokenDiagnostic
	TokenDiscard
	TokenElse
	TokenElseIf
	TokenEnable
	TokenFalse
	TokenFallthrough
	TokenFn
	TokenFor
	TokenIf
	TokenLet
	TokenLoop
	TokenOverride
	TokenRequires
	TokenReturn
	TokenStruct
	TokenSwitch
	TokenTrue
	TokenType
	TokenVar
	TokenWhile

	tokenKindCount
)

// tokenNames holds the display name of every TokenKind, indexed by kind.
var tokenNames = [tokenKindCount]string{
	TokenEOF:              "EOF",
	TokenIdent:            "identifier",
	TokenDecimalFloat:     "decimal float literal",
	TokenHexFloat:         "hex float literal",
	TokenIntLiteral:       "int literal",
	TokenUintLiteral:      "uint literal",
	TokenAnd:              "&",
	TokenAndAnd:           "&&",
	TokenArrow:            "->",
	TokenAttr:             "@",
	TokenForwardSlash:     "/",
	TokenBang:             "!",
	TokenBracketLeft:      "[",
	TokenBracketRight:     "]",
	TokenBraceLeft:        "{",
	TokenBraceRight:       "}",
	TokenColon:            ":",
	TokenComma:            ",",
	TokenEqual:            "=",
	TokenEqualEqual:       "==",
	TokenNotEqual:         "!=",
	TokenGreaterThan:      ">",
	TokenGreaterThanEqual: ">=",
	TokenShiftRight:       ">>",
	TokenLessThan:         "<",
	TokenLessThanEqual:    "<=",
	TokenShiftLeft:        "<<",
	TokenModulo:           "%",
	TokenMinus:            "-",
	TokenMinusMinus:       "--",
	TokenPeriod:           ".",
	TokenPlus:             "+",
	TokenPlusPlus:         "++",
	TokenOr:               "|",
	TokenOrOr:             "||",
	TokenParenLeft:        "(",
	TokenParenRight:       ")",
	TokenSemicolon:        ";",
	TokenStar:             "*",
	TokenTilde:            "~",
	TokenUnderscore:       "_",
	TokenXor:              "^",
	TokenPlusEqual:        "+=",
	TokenMinusEqual:       "-=",
	TokenTimesEqual:       "*=",
	TokenDivisionEqual:    "/=",
	TokenModuloEqual:      "%=",
	TokenAndEqual:         "&=",
	TokenOrEqual:          "|=",
	TokenXorEqual:         "^=",
	TokenShiftRightEqual:  ">>=",
	TokenShiftLeftEqual:   "<<=",
	TokenAlias:            "alias",
	TokenBitcast:          "bitcast",
	TokenBreak:            "break",
	TokenCase:             "case",
	TokenConst:            "const",
	TokenConstAssert:      "const_assert",
	TokenContinue:         "continue",
	TokenContinuing:       "continuing",
	TokenDefault:          "default",
	TokenDiagnostic:       "diagnostic",
	TokenDiscard:          "discard",
	TokenElse:             "else",
	TokenElseIf:           "elseif",
	TokenEnable:           "enable",
	TokenFalse:            "false",
	TokenFallthrough:      "fallthrough",
	TokenFn:               "fn",
	TokenFor:              "for",
	TokenIf:               "if",
	TokenLet:              "let",
	TokenLoop:             "loop",
	TokenOverride:         "override",
	TokenRequires:         "requires",
	TokenReturn:           "return",
	TokenStruct:           "struct",
	TokenSwitch:           "switch",
	TokenTrue:             "true",
	TokenType:             "type",
	TokenVar:              "var",
	TokenWhile:            "while",
}

// String returns the display name of the kind, which is the literal spelling for
// operators and keywords.
func (k TokenKind) String() string {
	if k < tokenKindCount {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", uint8(k))
}

// fixedTokens maps every operator and punctuation spelling to its kind.
var fixedTokens = func() map[string]TokenKind {
	m := make(map[string]TokenKind, int(TokenShiftLeftEqual-TokenAnd)+1)
	for k := TokenAnd; k <= TokenShiftLeftEqual; k++ {
		m[tokenNames[k]] = k
	}
	return m
}()

// keywords maps reserved words to their kind.
var keywords = func() map[string]TokenKind {
	m := make(map[string]TokenKind, int(TokenWhile-TokenAlias)+1)
	for k := TokenAlias; k <= TokenWhile; k++ {
		m[tokenNames[k]] = k
	}
	return m
}()

// Token is a single lexeme produced by the Lexer.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
}

// String formats the token for diagnostics.
func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

// IsLiteral reports whether the token is a numeric or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case TokenDecimalFloat, TokenHexFloat, TokenIntLiteral, TokenUintLiteral, TokenTrue, TokenFalse:
		return true
	}
	return false
}

// IsTemplateType reports whether name is a type generator that takes a template
// argument list, such as array, vec4 or texture_2d. The lexer uses this to decide
// whether a '>' closes a template list and the parser uses it to tell a template
// list from a less-than comparison.
func IsTemplateType(name string) bool {
	switch name {
	case "array", "atomic", "ptr", "bitcast",
		"vec2", "vec3", "vec4",
		"mat2x2", "mat2x3", "mat2x4",
		"mat3x2", "mat3x3", "mat3x4",
		"mat4x2", "mat4x3", "mat4x4":
		return true
	}
	return strings.HasPrefix(name, "texture_") && name != "texture_external" && !strings.HasPrefix(name, "texture_depth_")
}

// IsSamplerType reports whether name spells a sampler or texture type.
func IsSamplerType(name string) bool {
	return name == "sampler" || name == "sampler_comparison" || strings.HasPrefix(name, "texture_")
}
