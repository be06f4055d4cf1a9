package reflection

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
)

// maxEvalDepth bounds constant folding through chains of named constants.
const maxEvalDepth = 32

// evalInt folds an integer constant expression: literals, module-scope const and
// override names, unary minus, grouping, i32/u32 conversions and the arithmetic
// and shift operators.
func (r *reflector) evalInt(e wgsl.Expr) (int64, bool) {
	return r.eval(e, 0)
}

func (r *reflector) eval(e wgsl.Expr, depth int) (int64, bool) {
	if depth > maxEvalDepth {
		return 0, false
	}
	switch e := e.(type) {
	case *wgsl.Literal:
		switch e.Kind {
		case wgsl.TokenIntLiteral, wgsl.TokenUintLiteral:
			n, err := wgsl.ParseIntLiteral(e.Value)
			return int64(n), err == nil
		}
	case *wgsl.Ident:
		if v, ok := r.constants[e.Name]; ok {
			return v, true
		}
		if init, ok := r.initializers[e.Name]; ok && init != nil {
			return r.eval(init, depth+1)
		}
	case *wgsl.GroupingExpr:
		return r.eval(e.Inner, depth+1)
	case *wgsl.UnaryExpr:
		if e.Op == "-" {
			v, ok := r.eval(e.Operand, depth+1)
			return -v, ok
		}
	case *wgsl.ConstructExpr:
		if name := e.Type.TypeName(); (name == "i32" || name == "u32") && len(e.Args) == 1 {
			return r.eval(e.Args[0], depth+1)
		}
	case *wgsl.BinaryExpr:
		left, ok := r.eval(e.Left, depth+1)
		if !ok {
			return 0, false
		}
		right, ok := r.eval(e.Right, depth+1)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case "+":
			return left + right, true
		case "-":
			return left - right, true
		case "*":
			return left * right, true
		case "/":
			if right == 0 {
				return 0, false
			}
			return left / right, true
		case "%":
			if right == 0 {
				return 0, false
			}
			return left % right, true
		case "<<":
			if right < 0 || right > 63 {
				return 0, false
			}
			return left << right, true
		case ">>":
			if right < 0 || right > 63 {
				return 0, false
			}
			return left >> right, true
		}
	}
	return 0, false
}

// attrInt evaluates the index'th argument of the named attribute. Arguments are
// kept as source text by the parser, so they are parsed again here to allow
// named constants such as @workgroup_size(TILE, TILE).
func (r *reflector) attrInt(attrs wgsl.Attributes, name string, index int) (int64, bool) {
	attr, ok := attrs.Find(name)
	if !ok || index >= len(attr.Values) {
		return 0, false
	}
	text := strings.TrimSpace(attr.Values[index])
	if n, err := wgsl.ParseIntLiteral(text); err == nil {
		return int64(n), true
	}
	e, err := wgsl.ParseExpression(text)
	if err != nil {
		return 0, false
	}
	return r.evalInt(e)
}
