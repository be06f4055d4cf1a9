package wgsl

import (
	"regexp"
)

// constructibleTypeRegex matches the short built-in type names that can be called
// as value constructors, such as f32(x), vec3f(0.0) or mat4x4h().
var constructibleTypeRegex = regexp.MustCompile(`^(?:f32|f16|i32|u32|bool|vec[234][fhiu]|mat[234]x[234][fh])$`)

// Parser is a recursive-descent parser over a WGSL token stream. It stops at the
// first syntax error; there is no statement-level recovery.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser creates a parser over tokens, which must end with a TokenEOF. The
// parser may rewrite a ">>" token in place when it closes two template lists.
//
// Parameters:
//   - tokens: the token sequence produced by the Lexer
//
// Returns:
//   - *Parser: a parser positioned at the first token
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		line := 1
		if len(tokens) > 0 {
			line = tokens[len(tokens)-1].Line
		}
		tokens = append(tokens, Token{Kind: TokenEOF, Line: line})
	}
	return &Parser{tokens: tokens}
}

// Parse tokenizes and parses WGSL source into its ordered top-level declarations.
//
// Parameters:
//   - source: the WGSL source text
//
// Returns:
//   - []Decl: the module-scope declarations in source order
//   - error: a *LexError or *ParseError describing the first problem found
func Parse(source string) ([]Decl, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// ParseExpression parses source holding exactly one expression, such as the text
// of an attribute argument.
//
// Parameters:
//   - source: the expression source text
//
// Returns:
//   - Expr: the parsed expression
//   - error: a *LexError or *ParseError, including for trailing tokens
func ParseExpression(source string) (Expr, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.isAtEnd() {
		return nil, p.errorf("unexpected token after expression")
	}
	return e, nil
}

// Parse parses the whole token stream.
//
// Returns:
//   - []Decl: the module-scope declarations in source order
//   - error: a *ParseError for the first unexpected token
func (p *Parser) Parse() ([]Decl, error) {
	var decls []Decl
	for !p.isAtEnd() {
		decl, err := p.declaration()
		if err != nil {
			return nil, err
		}
		if decl != nil {
			decls = append(decls, decl)
		}
	}
	return decls, nil
}

// ── Declarations ───────────────────────────────────────────────────────────────

func (p *Parser) declaration() (Decl, error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}

	switch p.peek().Kind {
	case TokenSemicolon:
		p.advance()
		return nil, nil
	case TokenVar:
		v, err := p.varDecl(attrs)
		if err != nil {
			return nil, err
		}
		return v, p.expect(TokenSemicolon, "expected ';' after var declaration")
	case TokenLet:
		l, err := p.letDecl(attrs)
		if err != nil {
			return nil, err
		}
		return l, p.expect(TokenSemicolon, "expected ';' after let declaration")
	case TokenConst:
		c, err := p.constDecl(attrs)
		if err != nil {
			return nil, err
		}
		return c, p.expect(TokenSemicolon, "expected ';' after const declaration")
	case TokenOverride:
		o, err := p.overrideDecl(attrs)
		if err != nil {
			return nil, err
		}
		return o, p.expect(TokenSemicolon, "expected ';' after override declaration")
	case TokenStruct:
		return p.structDecl(attrs)
	case TokenFn:
		return p.functionDecl(attrs)
	case TokenAlias, TokenType:
		return p.aliasDecl()
	case TokenEnable:
		p.advance()
		names, err := p.nameList()
		if err != nil {
			return nil, err
		}
		return &Enable{Extensions: names}, p.expect(TokenSemicolon, "expected ';' after enable directive")
	case TokenRequires:
		p.advance()
		names, err := p.nameList()
		if err != nil {
			return nil, err
		}
		return &Requires{Features: names}, p.expect(TokenSemicolon, "expected ';' after requires directive")
	case TokenDiagnostic:
		return p.diagnosticDecl()
	case TokenConstAssert:
		ca, err := p.constAssert()
		if err != nil {
			return nil, err
		}
		return ca, p.expect(TokenSemicolon, "expected ';' after const_assert")
	}
	return nil, p.errorf("expected declaration")
}

func (p *Parser) attributes() (Attributes, error) {
	var attrs Attributes
	for {
		switch {
		case p.check(TokenAttr):
			p.advance()
			attr, err := p.attribute()
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
		case p.check(TokenBracketLeft) && p.peekAt(1).Kind == TokenBracketLeft:
			p.advance()
			p.advance()
			for {
				attr, err := p.attribute()
				if err != nil {
					return nil, err
				}
				attrs = append(attrs, legacyAttribute(attr))
				if !p.match(TokenComma) {
					break
				}
			}
			if err := p.expect(TokenBracketRight, "expected ']]' to close attribute list"); err != nil {
				return nil, err
			}
			if err := p.expect(TokenBracketRight, "expected ']]' to close attribute list"); err != nil {
				return nil, err
			}
		default:
			return attrs, nil
		}
	}
}

// attribute parses the name and optional argument list following '@' or within a
// legacy [[...]] list.
func (p *Parser) attribute() (Attribute, error) {
	name, err := p.name("expected attribute name")
	if err != nil {
		return Attribute{}, err
	}
	attr := Attribute{Name: name}
	if !p.match(TokenParenLeft) {
		return attr, nil
	}
	for !p.check(TokenParenRight) {
		e, err := p.expression()
		if err != nil {
			return Attribute{}, err
		}
		attr.Values = append(attr.Values, ExprString(e))
		if !p.match(TokenComma) {
			break
		}
	}
	return attr, p.expect(TokenParenRight, "expected ')' after attribute arguments")
}

// legacyAttribute rewrites [[stage(x)]] into the current @x spelling.
func legacyAttribute(attr Attribute) Attribute {
	if attr.Name == "stage" && len(attr.Values) == 1 {
		return Attribute{Name: attr.Values[0]}
	}
	return attr
}

func (p *Parser) functionDecl(attrs Attributes) (*Function, error) {
	line := p.advance().Line
	name, err := p.ident("expected function name")
	if err != nil {
		return nil, err
	}
	fn := &Function{Name: name, Attributes: attrs, Line: line}

	if err := p.expect(TokenParenLeft, "expected '(' after function name"); err != nil {
		return nil, err
	}
	for !p.check(TokenParenRight) {
		param, err := p.parameter()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expect(TokenParenRight, "expected ')' after parameters"); err != nil {
		return nil, err
	}

	if p.match(TokenArrow) {
		if fn.ReturnAttributes, err = p.attributes(); err != nil {
			return nil, err
		}
		if fn.ReturnType, err = p.typeSpec(); err != nil {
			return nil, err
		}
	}

	if fn.Body, err = p.block(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *Parser) parameter() (*Param, error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	name, err := p.ident("expected parameter name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon, "expected ':' after parameter name"); err != nil {
		return nil, err
	}
	t, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &Param{Name: name, Type: t, Attributes: attrs}, nil
}

func (p *Parser) structDecl(attrs Attributes) (*Struct, error) {
	line := p.advance().Line
	name, err := p.ident("expected struct name")
	if err != nil {
		return nil, err
	}
	s := &Struct{Name: name, Attributes: attrs, Line: line}

	if err := p.expect(TokenBraceLeft, "expected '{' after struct name"); err != nil {
		return nil, err
	}
	for !p.check(TokenBraceRight) {
		m, err := p.structMember()
		if err != nil {
			return nil, err
		}
		s.Members = append(s.Members, m)
		if !p.match(TokenComma) && !p.match(TokenSemicolon) {
			break
		}
	}
	if err := p.expect(TokenBraceRight, "expected '}' to close struct body"); err != nil {
		return nil, err
	}
	p.match(TokenSemicolon)
	return s, nil
}

func (p *Parser) structMember() (*Member, error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	name, err := p.ident("expected struct member name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenColon, "expected ':' after struct member name"); err != nil {
		return nil, err
	}
	t, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &Member{Name: name, Type: t, Attributes: attrs}, nil
}

// varDecl parses "var[<space[, access]>] name[: type][= value]" without the
// trailing semicolon.
func (p *Parser) varDecl(attrs Attributes) (*Var, error) {
	line := p.advance().Line
	v := &Var{Attributes: attrs, Line: line}

	if p.match(TokenLessThan) {
		space, err := p.name("expected address space")
		if err != nil {
			return nil, err
		}
		v.AddressSpace = space
		if p.match(TokenComma) {
			if v.Access, err = p.name("expected access mode"); err != nil {
				return nil, err
			}
		}
		if err := p.templateEnd(); err != nil {
			return nil, err
		}
	}

	var err error
	if v.Name, err = p.ident("expected variable name"); err != nil {
		return nil, err
	}
	if v.Type, v.Value, err = p.typedInitializer(false); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Parser) letDecl(attrs Attributes) (*Let, error) {
	line := p.advance().Line
	name, err := p.ident("expected let name")
	if err != nil {
		return nil, err
	}
	t, value, err := p.typedInitializer(true)
	if err != nil {
		return nil, err
	}
	return &Let{Name: name, Type: t, Value: value, Attributes: attrs, Line: line}, nil
}

func (p *Parser) constDecl(attrs Attributes) (*Const, error) {
	line := p.advance().Line
	name, err := p.ident("expected const name")
	if err != nil {
		return nil, err
	}
	t, value, err := p.typedInitializer(true)
	if err != nil {
		return nil, err
	}
	return &Const{Name: name, Type: t, Value: value, Attributes: attrs, Line: line}, nil
}

func (p *Parser) overrideDecl(attrs Attributes) (*Override, error) {
	line := p.advance().Line
	name, err := p.ident("expected override name")
	if err != nil {
		return nil, err
	}
	t, value, err := p.typedInitializer(false)
	if err != nil {
		return nil, err
	}
	return &Override{Name: name, Type: t, Value: value, Attributes: attrs, Line: line}, nil
}

// typedInitializer parses the optional ": type" and "= value" parts shared by
// var, let, const and override declarations.
func (p *Parser) typedInitializer(valueRequired bool) (Type, Expr, error) {
	var (
		t     Type
		value Expr
		err   error
	)
	if p.match(TokenColon) {
		if t, err = p.typeSpec(); err != nil {
			return nil, nil, err
		}
	}
	if p.match(TokenEqual) {
		if value, err = p.expression(); err != nil {
			return nil, nil, err
		}
	} else if valueRequired {
		return nil, nil, p.errorf("expected '=' and initializer")
	}
	return t, value, nil
}

func (p *Parser) aliasDecl() (*Alias, error) {
	line := p.advance().Line
	name, err := p.ident("expected alias name")
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenEqual, "expected '=' after alias name"); err != nil {
		return nil, err
	}
	t, err := p.typeSpec()
	if err != nil {
		return nil, err
	}
	return &Alias{Name: name, Type: t, Line: line}, p.expect(TokenSemicolon, "expected ';' after alias declaration")
}

func (p *Parser) diagnosticDecl() (*Diagnostic, error) {
	p.advance()
	if err := p.expect(TokenParenLeft, "expected '(' after diagnostic"); err != nil {
		return nil, err
	}
	severity, err := p.name("expected diagnostic severity")
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenComma, "expected ',' after diagnostic severity"); err != nil {
		return nil, err
	}
	rule, err := p.name("expected diagnostic rule name")
	if err != nil {
		return nil, err
	}
	if p.match(TokenPeriod) {
		sub, err := p.name("expected diagnostic rule name")
		if err != nil {
			return nil, err
		}
		rule += "." + sub
	}
	p.match(TokenComma)
	if err := p.expect(TokenParenRight, "expected ')' after diagnostic rule"); err != nil {
		return nil, err
	}
	return &Diagnostic{Severity: severity, Rule: rule}, p.expect(TokenSemicolon, "expected ';' after diagnostic directive")
}

func (p *Parser) constAssert() (*ConstAssert, error) {
	p.advance()
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ConstAssert{Expr: e}, nil
}

func (p *Parser) nameList() ([]string, error) {
	var names []string
	for {
		n, err := p.name("expected name")
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		if !p.match(TokenComma) || p.check(TokenSemicolon) {
			return names, nil
		}
	}
}

// ── Types ──────────────────────────────────────────────────────────────────────

func (p *Parser) typeSpec() (Type, error) {
	attrs, err := p.attributes()
	if err != nil {
		return nil, err
	}
	name, err := p.ident("expected type")
	if err != nil {
		return nil, err
	}

	switch {
	case name == "array":
		return p.arrayType(attrs)
	case name == "ptr":
		return p.pointerType()
	case IsSamplerType(name):
		return p.samplerType(name)
	case IsTemplateType(name):
		tt := &TemplateType{Name: name, Attributes: attrs}
		if p.match(TokenLessThan) {
			if tt.Format, err = p.typeSpec(); err != nil {
				return nil, err
			}
			if err := p.templateEnd(); err != nil {
				return nil, err
			}
		}
		return tt, nil
	}
	return &NamedType{Name: name, Attributes: attrs}, nil
}

func (p *Parser) arrayType(attrs Attributes) (*ArrayType, error) {
	at := &ArrayType{Attributes: attrs}
	if !p.match(TokenLessThan) {
		return at, nil
	}
	var err error
	if at.Element, err = p.typeSpec(); err != nil {
		return nil, err
	}
	if p.match(TokenComma) && !p.check(TokenGreaterThan) {
		if at.Count, err = p.shift(); err != nil {
			return nil, err
		}
		p.match(TokenComma)
	}
	return at, p.templateEnd()
}

func (p *Parser) pointerType() (*PointerType, error) {
	pt := &PointerType{}
	if err := p.expect(TokenLessThan, "expected '<' after ptr"); err != nil {
		return nil, err
	}
	var err error
	if pt.AddressSpace, err = p.name("expected address space"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenComma, "expected ',' after pointer address space"); err != nil {
		return nil, err
	}
	if pt.Element, err = p.typeSpec(); err != nil {
		return nil, err
	}
	if p.match(TokenComma) {
		if pt.Access, err = p.name("expected access mode"); err != nil {
			return nil, err
		}
	}
	return pt, p.templateEnd()
}

func (p *Parser) samplerType(name string) (*SamplerType, error) {
	st := &SamplerType{Name: name}
	if !p.match(TokenLessThan) {
		return st, nil
	}
	var err error
	if st.Format, err = p.name("expected texture format"); err != nil {
		return nil, err
	}
	if p.match(TokenComma) {
		if st.Access, err = p.name("expected access mode"); err != nil {
			return nil, err
		}
	}
	return st, p.templateEnd()
}

// templateEnd consumes the '>' closing a template list. A '>>', '>=' or '>>='
// token is split so that its leading '>' closes this list and the rest remains
// for the enclosing construct.
func (p *Parser) templateEnd() error {
	tok := p.peek()
	switch tok.Kind {
	case TokenGreaterThan:
		p.advance()
		return nil
	case TokenShiftRight:
		p.tokens[p.current] = Token{Kind: TokenGreaterThan, Lexeme: ">", Line: tok.Line}
		return nil
	case TokenGreaterThanEqual:
		p.tokens[p.current] = Token{Kind: TokenEqual, Lexeme: "=", Line: tok.Line}
		return nil
	case TokenShiftRightEqual:
		p.tokens[p.current] = Token{Kind: TokenGreaterThanEqual, Lexeme: ">=", Line: tok.Line}
		return nil
	}
	return p.errorf("expected '>' to close template list")
}

// ── Statements ─────────────────────────────────────────────────────────────────

func (p *Parser) block() (*Block, error) {
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBraceLeft, "expected '{'"); err != nil {
		return nil, err
	}
	b := &Block{}
	for !p.check(TokenBraceRight) && !p.isAtEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			b.Body = append(b.Body, s)
		}
	}
	return b, p.expect(TokenBraceRight, "expected '}' to close block")
}

func (p *Parser) body() ([]Stmt, error) {
	b, err := p.block()
	if err != nil {
		return nil, err
	}
	return b.Body, nil
}

// statement parses one statement. A lone ';' yields a nil statement.
func (p *Parser) statement() (Stmt, error) {
	if _, err := p.attributes(); err != nil {
		return nil, err
	}

	switch p.peek().Kind {
	case TokenSemicolon:
		p.advance()
		return nil, nil
	case TokenBraceLeft:
		return p.block()
	case TokenIf:
		return p.ifStmt()
	case TokenSwitch:
		return p.switchStmt()
	case TokenLoop:
		return p.loopStmt()
	case TokenFor:
		return p.forStmt()
	case TokenWhile:
		return p.whileStmt()
	case TokenReturn:
		p.advance()
		r := &Return{}
		if !p.check(TokenSemicolon) {
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			r.Value = v
		}
		return r, p.expect(TokenSemicolon, "expected ';' after return")
	case TokenBreak:
		p.advance()
		if p.match(TokenIf) {
			cond, err := p.expression()
			if err != nil {
				return nil, err
			}
			return &BreakIf{Cond: cond}, p.expect(TokenSemicolon, "expected ';' after break if")
		}
		return &Break{}, p.expect(TokenSemicolon, "expected ';' after break")
	case TokenContinue:
		p.advance()
		return &Continue{}, p.expect(TokenSemicolon, "expected ';' after continue")
	case TokenDiscard:
		p.advance()
		return &Discard{}, p.expect(TokenSemicolon, "expected ';' after discard")
	case TokenFallthrough:
		p.advance()
		return &Fallthrough{}, p.expect(TokenSemicolon, "expected ';' after fallthrough")
	case TokenConstAssert:
		ca, err := p.constAssert()
		if err != nil {
			return nil, err
		}
		return ca, p.expect(TokenSemicolon, "expected ';' after const_assert")
	}

	s, err := p.simpleStatement()
	if err != nil {
		return nil, err
	}
	return s, p.expect(TokenSemicolon, "expected ';' after statement")
}

// simpleStatement parses the statements allowed in for-loop headers: variable
// declarations, assignments, increments and calls.
func (p *Parser) simpleStatement() (Stmt, error) {
	switch p.peek().Kind {
	case TokenVar:
		return p.varDecl(nil)
	case TokenLet:
		return p.letDecl(nil)
	case TokenConst:
		return p.constDecl(nil)
	case TokenUnderscore:
		p.advance()
		if err := p.expect(TokenEqual, "expected '=' after '_'"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{Op: "=", Target: &Ident{Name: "_"}, Value: v}, nil
	case TokenIdent:
		if p.peekAt(1).Kind == TokenParenLeft {
			name := p.advance().Lexeme
			args, err := p.argumentList()
			if err != nil {
				return nil, err
			}
			return &CallStmt{Call: &CallExpr{Name: name, Args: args}}, nil
		}
	}

	target, err := p.unary()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	switch tok.Kind {
	case TokenPlusPlus, TokenMinusMinus:
		p.advance()
		return &Increment{Op: tok.Lexeme, Target: target}, nil
	case TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenTimesEqual, TokenDivisionEqual,
		TokenModuloEqual, TokenAndEqual, TokenOrEqual, TokenXorEqual,
		TokenShiftRightEqual, TokenShiftLeftEqual:
		p.advance()
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{Op: tok.Lexeme, Target: target, Value: v}, nil
	}
	return nil, p.errorf("expected assignment or increment")
}

func (p *Parser) ifStmt() (*If, error) {
	p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.body()
	if err != nil {
		return nil, err
	}
	s := &If{Cond: cond, Body: body}

	for {
		switch {
		case p.match(TokenElseIf), p.check(TokenElse) && p.peekAt(1).Kind == TokenIf:
			if p.match(TokenElse) {
				p.advance()
			}
			c, err := p.expression()
			if err != nil {
				return nil, err
			}
			b, err := p.body()
			if err != nil {
				return nil, err
			}
			s.ElseIfs = append(s.ElseIfs, &ElseIf{Cond: c, Body: b})
		case p.match(TokenElse):
			if s.Else, err = p.body(); err != nil {
				return nil, err
			}
			return s, nil
		default:
			return s, nil
		}
	}
}

func (p *Parser) switchStmt() (*Switch, error) {
	p.advance()
	sel, err := p.expression()
	if err != nil {
		return nil, err
	}
	s := &Switch{Selector: sel}
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBraceLeft, "expected '{' after switch selector"); err != nil {
		return nil, err
	}
	for !p.check(TokenBraceRight) {
		clause, err := p.switchClause()
		if err != nil {
			return nil, err
		}
		s.Clauses = append(s.Clauses, clause)
	}
	return s, p.expect(TokenBraceRight, "expected '}' to close switch body")
}

func (p *Parser) switchClause() (SwitchClause, error) {
	switch {
	case p.match(TokenDefault):
		p.match(TokenColon)
		b, err := p.caseBody()
		if err != nil {
			return nil, err
		}
		return &Default{Body: b}, nil
	case p.match(TokenCase):
		c := &Case{}
		for !p.check(TokenColon) && !p.check(TokenBraceLeft) {
			if p.match(TokenDefault) {
				c.Default = true
			} else {
				e, err := p.expression()
				if err != nil {
					return nil, err
				}
				c.Selectors = append(c.Selectors, e)
			}
			if !p.match(TokenComma) {
				break
			}
		}
		p.match(TokenColon)
		b, err := p.caseBody()
		if err != nil {
			return nil, err
		}
		c.Body = b
		return c, nil
	}
	return nil, p.errorf("expected 'case' or 'default'")
}

// caseBody parses a braced clause body, or the legacy unbraced form which runs
// until a fallthrough, a closing brace or a token that cannot start a statement.
func (p *Parser) caseBody() ([]Stmt, error) {
	if p.check(TokenBraceLeft) {
		return p.body()
	}
	var stmts []Stmt
	for {
		switch p.peek().Kind {
		case TokenBraceRight, TokenCase, TokenDefault, TokenEOF:
			return stmts, nil
		case TokenFallthrough:
			p.advance()
			return append(stmts, &Fallthrough{}), p.expect(TokenSemicolon, "expected ';' after fallthrough")
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
}

func (p *Parser) loopStmt() (*Loop, error) {
	p.advance()
	if _, err := p.attributes(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenBraceLeft, "expected '{' after loop"); err != nil {
		return nil, err
	}
	l := &Loop{}
	for !p.check(TokenBraceRight) && !p.isAtEnd() {
		if p.match(TokenContinuing) {
			b, err := p.body()
			if err != nil {
				return nil, err
			}
			l.Continuing = &Continuing{Body: b}
			continue
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			l.Body = append(l.Body, s)
		}
	}
	return l, p.expect(TokenBraceRight, "expected '}' to close loop body")
}

func (p *Parser) forStmt() (*For, error) {
	p.advance()
	if err := p.expect(TokenParenLeft, "expected '(' after for"); err != nil {
		return nil, err
	}
	f := &For{}
	var err error
	if !p.check(TokenSemicolon) {
		if f.Init, err = p.simpleStatement(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenSemicolon, "expected ';' after for initializer"); err != nil {
		return nil, err
	}
	if !p.check(TokenSemicolon) {
		if f.Cond, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenSemicolon, "expected ';' after for condition"); err != nil {
		return nil, err
	}
	if !p.check(TokenParenRight) {
		if f.Update, err = p.simpleStatement(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenParenRight, "expected ')' after for header"); err != nil {
		return nil, err
	}
	if f.Body, err = p.body(); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *Parser) whileStmt() (*While, error) {
	p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	body, err := p.body()
	if err != nil {
		return nil, err
	}
	return &While{Cond: cond, Body: body}, nil
}

// ── Expressions ────────────────────────────────────────────────────────────────

func (p *Parser) expression() (Expr, error) {
	return p.logicalOr()
}

// binary parses a left-associative chain of operators from ops over operands
// produced by next.
func (p *Parser) binary(next func() (Expr, error), ops ...TokenKind) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		matched := false
		for _, op := range ops {
			if tok.Kind == op {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: tok.Lexeme, Left: left, Right: right}
	}
}

func (p *Parser) logicalOr() (Expr, error)  { return p.binary(p.logicalAnd, TokenOrOr) }
func (p *Parser) logicalAnd() (Expr, error) { return p.binary(p.bitwiseOr, TokenAndAnd) }
func (p *Parser) bitwiseOr() (Expr, error)  { return p.binary(p.bitwiseXor, TokenOr) }
func (p *Parser) bitwiseXor() (Expr, error) { return p.binary(p.bitwiseAnd, TokenXor) }
func (p *Parser) bitwiseAnd() (Expr, error) { return p.binary(p.equality, TokenAnd) }
func (p *Parser) equality() (Expr, error) {
	return p.binary(p.relational, TokenEqualEqual, TokenNotEqual)
}
func (p *Parser) relational() (Expr, error) {
	return p.binary(p.shift, TokenLessThan, TokenGreaterThan, TokenLessThanEqual, TokenGreaterThanEqual)
}
func (p *Parser) shift() (Expr, error) {
	return p.binary(p.additive, TokenShiftLeft, TokenShiftRight)
}
func (p *Parser) additive() (Expr, error) {
	return p.binary(p.multiplicative, TokenPlus, TokenMinus)
}
func (p *Parser) multiplicative() (Expr, error) {
	return p.binary(p.unary, TokenStar, TokenForwardSlash, TokenModulo)
}

func (p *Parser) unary() (Expr, error) {
	switch tok := p.peek(); tok.Kind {
	case TokenMinus, TokenBang, TokenTilde, TokenStar, TokenAnd:
		p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: tok.Lexeme, Operand: operand}, nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(TokenBracketLeft):
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(TokenBracketRight, "expected ']' after index"); err != nil {
				return nil, err
			}
			e = &IndexExpr{Base: e, Index: idx}
		case p.match(TokenPeriod):
			member, err := p.ident("expected member name after '.'")
			if err != nil {
				return nil, err
			}
			e = &MemberExpr{Base: e, Member: member}
		default:
			return e, nil
		}
	}
}

func (p *Parser) primary() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.IsLiteral():
		p.advance()
		return &Literal{Kind: tok.Kind, Value: tok.Lexeme}, nil
	case tok.Kind == TokenParenLeft:
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &GroupingExpr{Inner: inner}, p.expect(TokenParenRight, "expected ')' after expression")
	case tok.Kind == TokenBitcast:
		p.advance()
		if err := p.expect(TokenLessThan, "expected '<' after bitcast"); err != nil {
			return nil, err
		}
		t, err := p.typeSpec()
		if err != nil {
			return nil, err
		}
		if err := p.templateEnd(); err != nil {
			return nil, err
		}
		if err := p.expect(TokenParenLeft, "expected '(' after bitcast type"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &BitcastExpr{Type: t, Value: v}, p.expect(TokenParenRight, "expected ')' after bitcast argument")
	case tok.Kind == TokenIdent:
		next := p.peekAt(1).Kind
		if IsTemplateType(tok.Lexeme) && (next == TokenLessThan || next == TokenParenLeft) {
			t, err := p.typeSpec()
			if err != nil {
				return nil, err
			}
			args, err := p.argumentList()
			if err != nil {
				return nil, err
			}
			return &ConstructExpr{Type: t, Args: args}, nil
		}
		p.advance()
		if !p.check(TokenParenLeft) {
			return &Ident{Name: tok.Lexeme}, nil
		}
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		if constructibleTypeRegex.MatchString(tok.Lexeme) {
			return &ConstructExpr{Type: &NamedType{Name: tok.Lexeme}, Args: args}, nil
		}
		return &CallExpr{Name: tok.Lexeme, Args: args}, nil
	}
	return nil, p.errorf("expected expression")
}

func (p *Parser) argumentList() ([]Expr, error) {
	if err := p.expect(TokenParenLeft, "expected '(' before arguments"); err != nil {
		return nil, err
	}
	var args []Expr
	for !p.check(TokenParenRight) {
		a, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.match(TokenComma) {
			break
		}
	}
	return args, p.expect(TokenParenRight, "expected ')' after arguments")
}

// ── Token helpers ──────────────────────────────────────────────────────────────

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) isAtEnd() bool {
	return p.tokens[p.current].Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(kind TokenKind, message string) error {
	if p.match(kind) {
		return nil
	}
	return p.errorf(message)
}

// ident consumes an identifier token.
func (p *Parser) ident(message string) (string, error) {
	if !p.check(TokenIdent) {
		return "", p.errorf(message)
	}
	return p.advance().Lexeme, nil
}

// name consumes an identifier or a keyword used in a name position, such as the
// "diagnostic" attribute or the "default" enable extension.
func (p *Parser) name(message string) (string, error) {
	tok := p.peek()
	if tok.Kind == TokenIdent || (tok.Kind >= TokenAlias && tok.Kind <= TokenWhile) {
		p.advance()
		return tok.Lexeme, nil
	}
	return "", p.errorf(message)
}

func (p *Parser) errorf(message string) error {
	return &ParseError{Token: p.peek(), Message: message}
}
