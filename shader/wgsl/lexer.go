package wgsl

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// literalRules are the regex-defined token forms, tried in order after the fixed
// operator table. Every pattern is anchored so a rule only matches a whole lexeme.
var literalRules = []struct {
	kind TokenKind
	re   *regexp.Regexp
}{
	{TokenHexFloat, regexp.MustCompile(`^0[xX](?:[0-9a-fA-F]*\.[0-9a-fA-F]+|[0-9a-fA-F]+\.[0-9a-fA-F]*)(?:[pP][+-]?[0-9]+[fh]?)?$|^0[xX][0-9a-fA-F]+[pP][+-]?[0-9]+[fh]?$`)},
	{TokenDecimalFloat, regexp.MustCompile(`^(?:[0-9]*\.[0-9]+|[0-9]+\.[0-9]*)(?:[eE][+-]?[0-9]+)?[fh]?$|^[0-9]+[eE][+-]?[0-9]+[fh]?$|^(?:0|[1-9][0-9]*)[fh]$`)},
	{TokenUintLiteral, regexp.MustCompile(`^(?:0[xX][0-9a-fA-F]+|0|[1-9][0-9]*)u$`)},
	{TokenIntLiteral, regexp.MustCompile(`^(?:0[xX][0-9a-fA-F]+|0|[1-9][0-9]*)i?$`)},
	{TokenIdent, regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)},
}

// templateLookback is how many already-emitted tokens are searched for an unclosed
// template '<' when a '>' is immediately followed by another '>'. Template lists
// closed inside the window are skipped, so the window must cover nested lists such
// as ptr<storage, array<u32>, read_write>.
const templateLookback = 16

// maxLookahead bounds the extra characters consumed to recover a lexeme that is
// not a valid prefix of any token, such as the "0x." in "0x.5".
const maxLookahead = 2

// Lexer converts WGSL source text into a flat token sequence.
type Lexer struct {
	source string
	pos    int
	line   int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
//
// Parameters:
//   - source: the WGSL source text to tokenize
//
// Returns:
//   - *Lexer: a lexer positioned at the start of the source
func NewLexer(source string) *Lexer {
	return &Lexer{
		source: source,
		line:   1,
		tokens: make([]Token, 0, max(16, len(source)/5)),
	}
}

// Tokenize scans the whole source and returns its tokens terminated by a TokenEOF.
// Whitespace, line comments and nested block comments are skipped.
//
// Returns:
//   - []Token: the token sequence
//   - error: a *LexError if no token rule matches at some position
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		if err := l.skipTrivia(); err != nil {
			return nil, err
		}
		if l.pos >= len(l.source) {
			break
		}
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Token{Kind: TokenEOF, Line: l.line})
	return l.tokens, nil
}

// skipTrivia advances past whitespace and comments, counting newlines.
func (l *Lexer) skipTrivia() error {
	for l.pos < len(l.source) {
		c := l.source[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f':
			l.pos++
		case strings.HasPrefix(l.source[l.pos:], "//"):
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
		case strings.HasPrefix(l.source[l.pos:], "/*"):
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// skipBlockComment consumes a block comment, honouring nesting.
func (l *Lexer) skipBlockComment() error {
	startLine := l.line
	depth := 0
	for l.pos < len(l.source) {
		switch {
		case strings.HasPrefix(l.source[l.pos:], "/*"):
			depth++
			l.pos += 2
		case strings.HasPrefix(l.source[l.pos:], "*/"):
			depth--
			l.pos += 2
			if depth == 0 {
				return nil
			}
		default:
			if l.source[l.pos] == '\n' {
				l.line++
			}
			l.pos++
		}
	}
	return &LexError{Line: startLine, Text: "/*", Message: "unterminated block comment"}
}

// scanToken grows a lexeme one character at a time for as long as it still names a
// token, then emits the longest match.
func (l *Lexer) scanToken() error {
	start := l.pos
	end := l.nextCharEnd(start)
	kind, ok := classify(l.source[start:end])
	if !ok {
		ext, extKind, found := l.lookahead(start, end)
		if !found {
			return &LexError{Line: l.line, Text: l.source[start:end], Message: "unrecognized token"}
		}
		end, kind = ext, extKind
	}

	for end < len(l.source) {
		if kind == TokenGreaterThan && l.source[end] == '>' && l.closesTemplate() {
			break
		}
		next := l.nextCharEnd(end)
		if nextKind, ok := classify(l.source[start:next]); ok {
			end, kind = next, nextKind
			continue
		}
		ext, extKind, found := l.lookahead(start, next)
		if !found {
			break
		}
		end, kind = ext, extKind
	}

	l.tokens = append(l.tokens, Token{Kind: kind, Lexeme: l.source[start:end], Line: l.line})
	l.pos = end
	return nil
}

// lookahead extends the candidate lexeme source[start:end] by up to maxLookahead
// characters and reports the first extension that names a token.
func (l *Lexer) lookahead(start, end int) (int, TokenKind, bool) {
	for range maxLookahead {
		if end >= len(l.source) || isSpace(l.source[end]) {
			return 0, 0, false
		}
		end = l.nextCharEnd(end)
		if kind, ok := classify(l.source[start:end]); ok {
			return end, kind, true
		}
	}
	return 0, 0, false
}

// closesTemplate reports whether a '>' about to be emitted closes a template list,
// in which case a following '>' must not be merged into a shift operator. It walks
// back through the current statement counting '>' tokens against template '<'
// tokens; a template '<' reached at depth zero is still open.
func (l *Lexer) closesTemplate() bool {
	depth := 0
	for i, n := len(l.tokens)-1, 0; i >= 0 && n < templateLookback; i, n = i-1, n+1 {
		switch l.tokens[i].Kind {
		case TokenSemicolon, TokenBraceLeft, TokenBraceRight:
			return false
		case TokenGreaterThan:
			depth++
		case TokenLessThan:
			if i == 0 || !opensTemplate(l.tokens[i-1]) {
				continue
			}
			if depth == 0 {
				return true
			}
			depth--
		}
	}
	return false
}

// opensTemplate reports whether a '<' following t starts a template list.
func opensTemplate(t Token) bool {
	return (t.Kind == TokenIdent || t.Kind == TokenBitcast) && IsTemplateType(t.Lexeme)
}

// nextCharEnd returns the byte offset just past the rune starting at pos.
func (l *Lexer) nextCharEnd(pos int) int {
	if pos >= len(l.source) {
		return pos
	}
	if c := l.source[pos]; c < utf8.RuneSelf {
		return pos + 1
	}
	_, size := utf8.DecodeRuneInString(l.source[pos:])
	return pos + size
}

// classify returns the kind named by an entire lexeme, if any.
func classify(lexeme string) (TokenKind, bool) {
	if kind, ok := fixedTokens[lexeme]; ok {
		return kind, true
	}
	for _, rule := range literalRules {
		if rule.re.MatchString(lexeme) {
			if rule.kind == TokenIdent {
				if kw, ok := keywords[lexeme]; ok {
					return kw, true
				}
			}
			return rule.kind, true
		}
	}
	return 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// Tokenize is shorthand for NewLexer(source).Tokenize().
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}
