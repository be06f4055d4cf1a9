package wgsl

import (
	"strconv"
	"strings"
)

// Node is implemented by every syntax tree node.
type Node interface {
	node()
}

// Decl is a module-scope declaration.
type Decl interface {
	Node
	decl()
}

// Stmt is a statement inside a function body.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression.
type Expr interface {
	Node
	expr()
}

// Type is a type reference as written in the source. Names are not resolved here;
// the reflection layer looks them up in its alias, struct and intrinsic tables.
type Type interface {
	Node
	typ()

	// TypeName returns the type spelled in canonical WGSL form, e.g. "vec3<f32>"
	// or "array<Light, 4>".
	TypeName() string
}

// Attribute is a single @name(args) or [[name(args)]] attribute. Values keeps the
// argument expressions as source text.
type Attribute struct {
	Name   string
	Values []string
}

// Attributes is an ordered attribute list.
type Attributes []Attribute

// Find returns the first attribute with the given name.
func (a Attributes) Find(name string) (Attribute, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// Has reports whether an attribute with the given name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.Find(name)
	return ok
}

// Value returns the first argument of the named attribute.
func (a Attributes) Value(name string) (string, bool) {
	attr, ok := a.Find(name)
	if !ok || len(attr.Values) == 0 {
		return "", false
	}
	return attr.Values[0], true
}

// Int returns the first argument of the named attribute parsed as an integer
// literal. Literal suffixes (i, u) and hex prefixes are accepted.
func (a Attributes) Int(name string) (int, bool) {
	v, ok := a.Value(name)
	if !ok {
		return 0, false
	}
	n, err := ParseIntLiteral(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseIntLiteral parses a WGSL integer literal such as "16", "4u" or "0x10i".
func ParseIntLiteral(lit string) (int, error) {
	lit = strings.TrimRight(strings.TrimSpace(lit), "iu")
	n, err := strconv.ParseInt(lit, 0, 64)
	return int(n), err
}

// ── Types ──────────────────────────────────────────────────────────────────────

// NamedType is a plain type name: a scalar, a short vector or matrix alias such as
// vec3f, a struct or a type alias.
type NamedType struct {
	Name       string
	Attributes Attributes
}

// TemplateType is a vector, matrix or atomic type with an explicit component type,
// e.g. vec3<f32>.
type TemplateType struct {
	Name       string
	Format     Type
	Attributes Attributes
}

// ArrayType is array<Element, Count> or the runtime-sized array<Element>.
type ArrayType struct {
	Element    Type
	Count      Expr
	Attributes Attributes
}

// PointerType is ptr<AddressSpace, Element[, Access]>.
type PointerType struct {
	AddressSpace string
	Element      Type
	Access       string
}

// SamplerType is a sampler or texture type. Format holds the sampled component type
// or the storage texel format, Access the storage texture access mode.
type SamplerType struct {
	Name   string
	Format string
	Access string
}

func (t *NamedType) TypeName() string { return t.Name }

func (t *TemplateType) TypeName() string {
	if t.Format == nil {
		return t.Name
	}
	return t.Name + "<" + t.Format.TypeName() + ">"
}

func (t *ArrayType) TypeName() string {
	if t.Element == nil {
		return "array"
	}
	if t.Count == nil {
		return "array<" + t.Element.TypeName() + ">"
	}
	return "array<" + t.Element.TypeName() + ", " + ExprString(t.Count) + ">"
}

func (t *PointerType) TypeName() string {
	var sb strings.Builder
	sb.WriteString("ptr<")
	sb.WriteString(t.AddressSpace)
	if t.Element != nil {
		sb.WriteString(", ")
		sb.WriteString(t.Element.TypeName())
	}
	if t.Access != "" {
		sb.WriteString(", ")
		sb.WriteString(t.Access)
	}
	sb.WriteString(">")
	return sb.String()
}

func (t *SamplerType) TypeName() string {
	switch {
	case t.Format == "":
		return t.Name
	case t.Access == "":
		return t.Name + "<" + t.Format + ">"
	default:
		return t.Name + "<" + t.Format + ", " + t.Access + ">"
	}
}

// ── Declarations ───────────────────────────────────────────────────────────────

// Struct is a struct declaration.
type Struct struct {
	Name       string
	Members    []*Member
	Attributes Attributes
	Line       int
}

// Member is a single struct member.
type Member struct {
	Name       string
	Type       Type
	Attributes Attributes
}

// Function is a function declaration. Entry points carry a @vertex, @fragment or
// @compute attribute.
type Function struct {
	Name             string
	Params           []*Param
	ReturnType       Type
	ReturnAttributes Attributes
	Body             *Block
	Attributes       Attributes
	Line             int
}

// Param is a function parameter.
type Param struct {
	Name       string
	Type       Type
	Attributes Attributes
}

// Var is a var declaration, either at module scope or inside a function.
type Var struct {
	Name         string
	AddressSpace string
	Access       string
	Type         Type
	Value        Expr
	Attributes   Attributes
	Line         int
}

// Let is a let declaration.
type Let struct {
	Name       string
	Type       Type
	Value      Expr
	Attributes Attributes
	Line       int
}

// Const is a const declaration.
type Const struct {
	Name       string
	Type       Type
	Value      Expr
	Attributes Attributes
	Line       int
}

// Override is a pipeline-overridable constant.
type Override struct {
	Name       string
	Type       Type
	Value      Expr
	Attributes Attributes
	Line       int
}

// Alias is a type alias, written "alias" or the legacy "type".
type Alias struct {
	Name string
	Type Type
	Line int
}

// Enable is an enable directive.
type Enable struct {
	Extensions []string
}

// Requires is a requires directive.
type Requires struct {
	Features []string
}

// Diagnostic is a module-scope diagnostic directive.
type Diagnostic struct {
	Severity string
	Rule     string
}

// ConstAssert is a const_assert, valid both at module scope and in function bodies.
type ConstAssert struct {
	Expr Expr
}

// ── Statements ─────────────────────────────────────────────────────────────────

// Block is a braced statement list.
type Block struct {
	Body []Stmt
}

// If is an if statement with its else-if chain and optional else body.
type If struct {
	Cond    Expr
	Body    []Stmt
	ElseIfs []*ElseIf
	Else    []Stmt
}

// ElseIf is one "else if" arm of an If.
type ElseIf struct {
	Cond Expr
	Body []Stmt
}

// Switch is a switch statement.
type Switch struct {
	Selector Expr
	Clauses  []SwitchClause
}

// SwitchClause is a *Case or a *Default.
type SwitchClause interface {
	Node
	clause()
}

// Case is a case clause. Default is set when the selector list contains the
// default keyword.
type Case struct {
	Selectors []Expr
	Default   bool
	Body      []Stmt
}

// Default is a default clause.
type Default struct {
	Body []Stmt
}

// Fallthrough is the legacy fallthrough statement.
type Fallthrough struct{}

// Loop is a loop statement with an optional continuing block.
type Loop struct {
	Body       []Stmt
	Continuing *Continuing
}

// Continuing is the continuing block of a Loop.
type Continuing struct {
	Body []Stmt
}

// For is a for statement. Init and Update may be nil.
type For struct {
	Init   Stmt
	Cond   Expr
	Update Stmt
	Body   []Stmt
}

// While is a while statement.
type While struct {
	Cond Expr
	Body []Stmt
}

// Return is a return statement; Value is nil for a bare return.
type Return struct {
	Value Expr
}

// Break is a break statement.
type Break struct{}

// BreakIf is the "break if" statement ending a continuing block.
type BreakIf struct {
	Cond Expr
}

// Continue is a continue statement.
type Continue struct{}

// Discard is a discard statement.
type Discard struct{}

// Assign is a plain or compound assignment. Op is the operator spelling, e.g. "="
// or "+=". Target is an *Ident named "_" for phony assignments.
type Assign struct {
	Op     string
	Target Expr
	Value  Expr
}

// Increment is an increment or decrement statement; Op is "++" or "--".
type Increment struct {
	Op     string
	Target Expr
}

// CallStmt is a function call evaluated for its side effects.
type CallStmt struct {
	Call *CallExpr
}

// ── Expressions ────────────────────────────────────────────────────────────────

// Literal is a numeric or boolean literal.
type Literal struct {
	Kind  TokenKind
	Value string
}

// Ident is a reference to a named value.
type Ident struct {
	Name string
}

// CallExpr is a function call, or a construction of a struct or type alias that
// the parser cannot tell apart from a call.
type CallExpr struct {
	Name string
	Args []Expr
}

// ConstructExpr constructs a value of a built-in type, e.g. vec3<f32>(1.0) or
// array<f32, 2>(a, b).
type ConstructExpr struct {
	Type Type
	Args []Expr
}

// BitcastExpr is bitcast<T>(value).
type BitcastExpr struct {
	Type  Type
	Value Expr
}

// UnaryExpr applies a prefix operator: -, !, ~, * (dereference) or & (address-of).
type UnaryExpr struct {
	Op      string
	Operand Expr
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

// GroupingExpr is a parenthesized expression.
type GroupingExpr struct {
	Inner Expr
}

// IndexExpr is base[index].
type IndexExpr struct {
	Base  Expr
	Index Expr
}

// MemberExpr is base.member, including vector swizzles.
type MemberExpr struct {
	Base   Expr
	Member string
}

// ExprString renders an expression back to source form. It is used for array
// counts in canonical type names and for diagnostics.
func ExprString(e Expr) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *Literal:
		return e.Value
	case *Ident:
		return e.Name
	case *CallExpr:
		return e.Name + "(" + joinExprs(e.Args) + ")"
	case *ConstructExpr:
		return e.Type.TypeName() + "(" + joinExprs(e.Args) + ")"
	case *BitcastExpr:
		return "bitcast<" + e.Type.TypeName() + ">(" + ExprString(e.Value) + ")"
	case *UnaryExpr:
		return e.Op + ExprString(e.Operand)
	case *BinaryExpr:
		return ExprString(e.Left) + " " + e.Op + " " + ExprString(e.Right)
	case *GroupingExpr:
		return "(" + ExprString(e.Inner) + ")"
	case *IndexExpr:
		return ExprString(e.Base) + "[" + ExprString(e.Index) + "]"
	case *MemberExpr:
		return ExprString(e.Base) + "." + e.Member
	}
	return ""
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func (*NamedType) node()     {}
func (*TemplateType) node()  {}
func (*ArrayType) node()     {}
func (*PointerType) node()   {}
func (*SamplerType) node()   {}
func (*Struct) node()        {}
func (*Member) node()        {}
func (*Function) node()      {}
func (*Param) node()         {}
func (*Var) node()           {}
func (*Let) node()           {}
func (*Const) node()         {}
func (*Override) node()      {}
func (*Alias) node()         {}
func (*Enable) node()        {}
func (*Requires) node()      {}
func (*Diagnostic) node()    {}
func (*ConstAssert) node()   {}
func (*Block) node()         {}
func (*If) node()            {}
func (*ElseIf) node()        {}
func (*Switch) node()        {}
func (*Case) node()          {}
func (*Default) node()       {}
func (*Fallthrough) node()   {}
func (*Loop) node()          {}
func (*Continuing) node()    {}
func (*For) node()           {}
func (*While) node()         {}
func (*Return) node()        {}
func (*Break) node()         {}
func (*BreakIf) node()       {}
func (*Continue) node()      {}
func (*Discard) node()       {}
func (*Assign) node()        {}
func (*Increment) node()     {}
func (*CallStmt) node()      {}
func (*Literal) node()       {}
func (*Ident) node()         {}
func (*CallExpr) node()      {}
func (*ConstructExpr) node() {}
func (*BitcastExpr) node()   {}
func (*UnaryExpr) node()     {}
func (*BinaryExpr) node()    {}
func (*GroupingExpr) node()  {}
func (*IndexExpr) node()     {}
func (*MemberExpr) node()    {}

func (*NamedType) typ()    {}
func (*TemplateType) typ() {}
func (*ArrayType) typ()    {}
func (*PointerType) typ()  {}
func (*SamplerType) typ()  {}

func (*Struct) decl()      {}
func (*Function) decl()    {}
func (*Var) decl()         {}
func (*Let) decl()         {}
func (*Const) decl()       {}
func (*Override) decl()    {}
func (*Alias) decl()       {}
func (*Enable) decl()      {}
func (*Requires) decl()    {}
func (*Diagnostic) decl()  {}
func (*ConstAssert) decl() {}

func (*Block) stmt()       {}
func (*If) stmt()          {}
func (*Switch) stmt()      {}
func (*Fallthrough) stmt() {}
func (*Loop) stmt()        {}
func (*For) stmt()         {}
func (*While) stmt()       {}
func (*Return) stmt()      {}
func (*Break) stmt()       {}
func (*BreakIf) stmt()     {}
func (*Continue) stmt()    {}
func (*Discard) stmt()     {}
func (*Assign) stmt()      {}
func (*Increment) stmt()   {}
func (*CallStmt) stmt()    {}
func (*Var) stmt()         {}
func (*Let) stmt()         {}
func (*Const) stmt()       {}
func (*ConstAssert) stmt() {}

func (*Case) clause()    {}
func (*Default) clause() {}

func (*Literal) expr()       {}
func (*Ident) expr()         {}
func (*CallExpr) expr()      {}
func (*ConstructExpr) expr() {}
func (*BitcastExpr) expr()   {}
func (*UnaryExpr) expr()     {}
func (*BinaryExpr) expr()    {}
func (*GroupingExpr) expr()  {}
func (*IndexExpr) expr()     {}
func (*MemberExpr) expr()    {}
