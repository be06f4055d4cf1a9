package reflection

import (
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-wgsl/shader/wgsl"
	"github.com/cogentcore/webgpu/wgpu"
)

// InOutInfo is an entry point input or output. Location is -1 for builtins.
type InOutInfo struct {
	Name          string `json:"name" yaml:"name"`
	TypeName      string `json:"type" yaml:"type"`
	Location      int    `json:"location" yaml:"location"`
	Builtin       string `json:"builtin,omitempty" yaml:"builtin,omitempty"`
	Interpolation string `json:"interpolation,omitempty" yaml:"interpolation,omitempty"`
}

// FunctionInfo describes a function declaration. Stage is wgpu.ShaderStageNone for
// functions that are not entry points.
type FunctionInfo struct {
	Name          string
	Stage         wgpu.ShaderStage
	Inputs        []InOutInfo
	Outputs       []InOutInfo
	WorkgroupSize [3]uint32

	// Calls lists the module functions called directly, in first-call order.
	Calls []string

	// Resources lists the bound variables used by the function or any function
	// it calls, in declaration order.
	Resources []*VariableInfo

	Attributes wgsl.Attributes
	Line       int
}

// IsEntryPoint reports whether the function carries a stage attribute.
func (f *FunctionInfo) IsEntryPoint() bool {
	return f.Stage != wgpu.ShaderStageNone
}

func (r *reflector) function(fn *wgsl.Function, resources []*VariableInfo) *FunctionInfo {
	info := &FunctionInfo{
		Name:          fn.Name,
		Stage:         functionStage(fn.Attributes),
		WorkgroupSize: [3]uint32{1, 1, 1},
		Attributes:    fn.Attributes,
		Line:          fn.Line,
	}

	if info.Stage == wgpu.ShaderStageCompute {
		for i := range info.WorkgroupSize {
			if v, ok := r.attrInt(fn.Attributes, "workgroup_size", i); ok && v > 0 {
				info.WorkgroupSize[i] = uint32(v)
			}
		}
	}

	for _, p := range fn.Params {
		info.Inputs = append(info.Inputs, r.inOuts(p.Name, p.Type, p.Attributes)...)
	}
	if fn.ReturnType != nil {
		info.Outputs = r.inOuts("return", fn.ReturnType, fn.ReturnAttributes)
	}

	u := newUsage(fn)
	info.Calls = u.calls

	used := r.reachableNames(fn)
	for _, v := range resources {
		if used[v.Name] {
			info.Resources = append(info.Resources, v)
		}
	}
	return info
}

func functionStage(attrs wgsl.Attributes) wgpu.ShaderStage {
	switch {
	case attrs.Has("vertex"):
		return wgpu.ShaderStageVertex
	case attrs.Has("fragment"):
		return wgpu.ShaderStageFragment
	case attrs.Has("compute"):
		return wgpu.ShaderStageCompute
	}
	return wgpu.ShaderStageNone
}

// inOuts expands a parameter or return value into its pipeline inputs or outputs.
// Struct-typed values contribute one entry per member.
func (r *reflector) inOuts(name string, t wgsl.Type, attrs wgsl.Attributes) []InOutInfo {
	if named, ok := t.(*wgsl.NamedType); ok {
		if decl, ok := r.structDecl(named.Name); ok {
			out := make([]InOutInfo, 0, len(decl.Members))
			for _, m := range decl.Members {
				out = append(out, r.inOut(m.Name, m.Type, m.Attributes))
			}
			return out
		}
	}
	return []InOutInfo{r.inOut(name, t, attrs)}
}

// structDecl finds the struct named directly or through aliases.
func (r *reflector) structDecl(name string) (*wgsl.Struct, bool) {
	for range maxEvalDepth {
		if decl, ok := r.structs[name]; ok {
			return decl, true
		}
		alias, ok := r.aliases[name]
		if !ok {
			return nil, false
		}
		named, ok := alias.Type.(*wgsl.NamedType)
		if !ok {
			return nil, false
		}
		name = named.Name
	}
	return nil, false
}

func (r *reflector) inOut(name string, t wgsl.Type, attrs wgsl.Attributes) InOutInfo {
	io := InOutInfo{Name: name, TypeName: t.TypeName(), Location: -1}
	if loc, ok := r.attrInt(attrs, "location", 0); ok && loc >= 0 {
		io.Location = int(loc)
	}
	if builtin, ok := attrs.Value("builtin"); ok {
		io.Builtin = builtin
	}
	if interp, ok := attrs.Find("interpolate"); ok {
		io.Interpolation = strings.Join(interp.Values, ", ")
	}
	return io
}

// reachableNames returns the free identifiers referenced by fn and every module
// function it calls, directly or transitively.
func (r *reflector) reachableNames(fn *wgsl.Function) map[string]bool {
	names := make(map[string]bool)
	visited := map[string]bool{fn.Name: true}
	queue := []*wgsl.Function{fn}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		u := newUsage(current)
		for name := range u.refs {
			names[name] = true
		}
		for _, callee := range u.calls {
			if visited[callee] {
				continue
			}
			visited[callee] = true
			if decl, ok := r.functions[callee]; ok {
				queue = append(queue, decl)
			}
		}
	}
	return names
}

// usage collects the free identifiers and called function names of one function
// body. Parameters and local declarations shadow module-scope names from the point
// of declaration to the end of the enclosing block.
type usage struct {
	refs   map[string]bool
	calls  []string
	scopes []map[string]bool
}

func newUsage(fn *wgsl.Function) *usage {
	u := &usage{refs: make(map[string]bool)}
	params := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		params[p.Name] = true
	}
	u.scopes = append(u.scopes, params)
	if fn.Body != nil {
		u.stmts(fn.Body.Body)
	}
	return u
}

func (u *usage) push() { u.scopes = append(u.scopes, make(map[string]bool)) }
func (u *usage) pop()  { u.scopes = u.scopes[:len(u.scopes)-1] }

func (u *usage) declare(name string) {
	u.scopes[len(u.scopes)-1][name] = true
}

func (u *usage) local(name string) bool {
	for i := len(u.scopes) - 1; i >= 0; i-- {
		if u.scopes[i][name] {
			return true
		}
	}
	return false
}

func (u *usage) call(name string) {
	if !u.local(name) && !slices.Contains(u.calls, name) {
		u.calls = append(u.calls, name)
	}
}

func (u *usage) block(stmts []wgsl.Stmt) {
	u.push()
	u.stmts(stmts)
	u.pop()
}

func (u *usage) stmts(stmts []wgsl.Stmt) {
	for _, s := range stmts {
		u.stmt(s)
	}
}

func (u *usage) stmt(s wgsl.Stmt) {
	switch s := s.(type) {
	case *wgsl.Block:
		u.block(s.Body)
	case *wgsl.Var:
		u.expr(s.Value)
		u.declare(s.Name)
	case *wgsl.Let:
		u.expr(s.Value)
		u.declare(s.Name)
	case *wgsl.Const:
		u.expr(s.Value)
		u.declare(s.Name)
	case *wgsl.ConstAssert:
		u.expr(s.Expr)
	case *wgsl.If:
		u.expr(s.Cond)
		u.block(s.Body)
		for _, ei := range s.ElseIfs {
			u.expr(ei.Cond)
			u.block(ei.Body)
		}
		u.block(s.Else)
	case *wgsl.Switch:
		u.expr(s.Selector)
		for _, c := range s.Clauses {
			switch c := c.(type) {
			case *wgsl.Case:
				for _, sel := range c.Selectors {
					u.expr(sel)
				}
				u.block(c.Body)
			case *wgsl.Default:
				u.block(c.Body)
			}
		}
	case *wgsl.Loop:
		u.push()
		u.stmts(s.Body)
		if s.Continuing != nil {
			u.block(s.Continuing.Body)
		}
		u.pop()
	case *wgsl.For:
		u.push()
		if s.Init != nil {
			u.stmt(s.Init)
		}
		u.expr(s.Cond)
		if s.Update != nil {
			u.stmt(s.Update)
		}
		u.block(s.Body)
		u.pop()
	case *wgsl.While:
		u.expr(s.Cond)
		u.block(s.Body)
	case *wgsl.Return:
		u.expr(s.Value)
	case *wgsl.BreakIf:
		u.expr(s.Cond)
	case *wgsl.Assign:
		u.expr(s.Target)
		u.expr(s.Value)
	case *wgsl.Increment:
		u.expr(s.Target)
	case *wgsl.CallStmt:
		u.expr(s.Call)
	}
}

func (u *usage) expr(e wgsl.Expr) {
	switch e := e.(type) {
	case *wgsl.Ident:
		if !u.local(e.Name) {
			u.refs[e.Name] = true
		}
	case *wgsl.CallExpr:
		u.call(e.Name)
		for _, a := range e.Args {
			u.expr(a)
		}
	case *wgsl.ConstructExpr:
		for _, a := range e.Args {
			u.expr(a)
		}
	case *wgsl.BitcastExpr:
		u.expr(e.Value)
	case *wgsl.UnaryExpr:
		u.expr(e.Operand)
	case *wgsl.BinaryExpr:
		u.expr(e.Left)
		u.expr(e.Right)
	case *wgsl.GroupingExpr:
		u.expr(e.Inner)
	case *wgsl.IndexExpr:
		u.expr(e.Base)
		u.expr(e.Index)
	case *wgsl.MemberExpr:
		u.expr(e.Base)
	}
}
