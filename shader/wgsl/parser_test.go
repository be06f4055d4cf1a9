package wgsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStruct(t *testing.T) {
	decls, err := Parse(`
struct S {
  foo: u32,
  @align(16) bar: f32,
  moo: vec3<f32>,
  lights: array<Light, 4>,
  rest: array<vec4<f32>>,
};`)
	require.NoError(t, err)
	require.Len(t, decls, 1)

	s, ok := decls[0].(*Struct)
	require.True(t, ok)
	assert.Equal(t, "S", s.Name)
	require.Len(t, s.Members, 5)

	assert.Equal(t, "foo", s.Members[0].Name)
	assert.Equal(t, "u32", s.Members[0].Type.TypeName())

	align, ok := s.Members[1].Attributes.Int("align")
	assert.True(t, ok)
	assert.Equal(t, 16, align)

	assert.Equal(t, "vec3<f32>", s.Members[2].Type.TypeName())

	arr, ok := s.Members[3].Type.(*ArrayType)
	require.True(t, ok)
	assert.Equal(t, "Light", arr.Element.TypeName())
	assert.Equal(t, "4", ExprString(arr.Count))

	rest, ok := s.Members[4].Type.(*ArrayType)
	require.True(t, ok)
	assert.Nil(t, rest.Count)
	assert.Equal(t, "array<vec4<f32>>", rest.TypeName())
}

func TestParseGlobalVariables(t *testing.T) {
	decls, err := Parse(`
@group(4) @binding(1) var<uniform> uni1: f32;
@group(0) @binding(2) var<storage, read_write> data: array<u32>;
@group(1) @binding(0) var tex: texture_2d<f32>;
@group(1) @binding(1) var smp: sampler;
@group(1) @binding(2) var img: texture_storage_2d<rgba8unorm, write>;
var<private> counter: i32 = 0;
`)
	require.NoError(t, err)
	require.Len(t, decls, 6)

	uni := decls[0].(*Var)
	assert.Equal(t, "uni1", uni.Name)
	assert.Equal(t, "uniform", uni.AddressSpace)
	group, _ := uni.Attributes.Int("group")
	binding, _ := uni.Attributes.Int("binding")
	assert.Equal(t, 4, group)
	assert.Equal(t, 1, binding)

	data := decls[1].(*Var)
	assert.Equal(t, "storage", data.AddressSpace)
	assert.Equal(t, "read_write", data.Access)

	tex := decls[2].(*Var)
	st, ok := tex.Type.(*SamplerType)
	require.True(t, ok)
	assert.Equal(t, "texture_2d", st.Name)
	assert.Equal(t, "f32", st.Format)

	img := decls[4].(*Var).Type.(*SamplerType)
	assert.Equal(t, "rgba8unorm", img.Format)
	assert.Equal(t, "write", img.Access)

	counter := decls[5].(*Var)
	assert.Equal(t, "private", counter.AddressSpace)
	assert.NotNil(t, counter.Value)
}

func TestParseNestedTemplates(t *testing.T) {
	decls, err := Parse(`alias A = array<vec4<f32>>;
alias B = array<array<vec4<f32>, 4>, 2>;
alias C = ptr<function, array<f32, 4>>;`)
	require.NoError(t, err)
	require.Len(t, decls, 3)
	assert.Equal(t, "array<vec4<f32>>", decls[0].(*Alias).Type.TypeName())
	assert.Equal(t, "array<array<vec4<f32>, 4>, 2>", decls[1].(*Alias).Type.TypeName())
	assert.Equal(t, "ptr<function, array<f32, 4>>", decls[2].(*Alias).Type.TypeName())
}

func TestParseShiftAfterTemplateConstructor(t *testing.T) {
	decls, err := Parse("fn f(x: i32) -> vec2<i32> { return vec2<i32>(x >> 1, 0); }")
	require.NoError(t, err)
	require.Len(t, decls, 1)

	ret := decls[0].(*Function).Body.Body[0].(*Return)
	call := ret.Value.(*ConstructExpr)
	shift := call.Args[0].(*BinaryExpr)
	assert.Equal(t, ">>", shift.Op)
}

func TestParseDeprecatedAttributes(t *testing.T) {
	decls, err := Parse(`
[[block]] struct U {
  [[offset(0)]] m: [[stride(16)]] array<f32, 4>;
};
[[group(0), binding(3)]] var<uniform> u: U;
[[stage(vertex)]] fn main() -> [[builtin(position)]] vec4<f32> {
  return vec4<f32>(0.0);
}`)
	require.NoError(t, err)
	require.Len(t, decls, 3)

	s := decls[0].(*Struct)
	assert.True(t, s.Attributes.Has("block"))
	arr := s.Members[0].Type.(*ArrayType)
	stride, ok := arr.Attributes.Int("stride")
	assert.True(t, ok)
	assert.Equal(t, 16, stride)

	binding, ok := decls[1].(*Var).Attributes.Int("binding")
	assert.True(t, ok)
	assert.Equal(t, 3, binding)

	fn := decls[2].(*Function)
	assert.True(t, fn.Attributes.Has("vertex"))
	builtin, _ := fn.ReturnAttributes.Value("builtin")
	assert.Equal(t, "position", builtin)
}

func TestParseFunctionBody(t *testing.T) {
	decls, err := Parse(`
const N = 4u;
override scale: f32 = 1.0;
@compute @workgroup_size(8, 8, 1)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
  var total = 0u;
  let p = &total;
  for (var i = 0u; i < N; i++) {
    if (i == 2u) {
      continue;
    } else if i > 3u {
      break;
    } else {
      total += i << 1u;
    }
  }
  switch id.x {
    case 0u, 1u: {
      total = 1u;
    }
    case 2u, default {
      total = 2u;
    }
  }
  loop {
    total--;
    continuing {
      break if total == 0u;
    }
  }
  while total < 10u {
    total = bitcast<u32>(f32(total) * scale);
  }
  _ = helper(total);
  *p = data[id.x].value;
}`)
	require.NoError(t, err)
	require.Len(t, decls, 3)

	fn, ok := decls[2].(*Function)
	require.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	wg, ok := fn.Attributes.Find("workgroup_size")
	require.True(t, ok)
	assert.Equal(t, []string{"8", "8", "1"}, wg.Values)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "vec3<u32>", fn.Params[0].Type.TypeName())

	body := fn.Body.Body
	require.Len(t, body, 8)
	assert.IsType(t, &Var{}, body[0])
	assert.IsType(t, &Let{}, body[1])

	forStmt := body[2].(*For)
	assert.IsType(t, &Var{}, forStmt.Init)
	assert.IsType(t, &Increment{}, forStmt.Update)
	ifStmt := forStmt.Body[0].(*If)
	assert.Len(t, ifStmt.ElseIfs, 1)
	assert.Len(t, ifStmt.Else, 1)

	sw := body[3].(*Switch)
	require.Len(t, sw.Clauses, 2)
	assert.Len(t, sw.Clauses[0].(*Case).Selectors, 2)
	assert.True(t, sw.Clauses[1].(*Case).Default)

	loop := body[4].(*Loop)
	require.NotNil(t, loop.Continuing)
	assert.IsType(t, &BreakIf{}, loop.Continuing.Body[0])

	while := body[5].(*While)
	assign := while.Body[0].(*Assign)
	assert.IsType(t, &BitcastExpr{}, assign.Value)

	phony := body[6].(*Assign)
	assert.Equal(t, "_", phony.Target.(*Ident).Name)
	assert.IsType(t, &CallExpr{}, phony.Value)

	deref := body[7].(*Assign)
	assert.Equal(t, "*", deref.Target.(*UnaryExpr).Op)
	assert.Equal(t, "data[id.x].value", ExprString(deref.Value))
}

func TestParseLegacyCaseBody(t *testing.T) {
	decls, err := Parse(`
fn f(x: i32) -> i32 {
  var r = 0;
  switch x {
    case 1: r = 1; fallthrough;
    case 2: r = r + 2;
    default: r = 3;
  }
  return r;
}`)
	require.NoError(t, err)
	sw := decls[0].(*Function).Body.Body[1].(*Switch)
	require.Len(t, sw.Clauses, 3)
	first := sw.Clauses[0].(*Case)
	require.Len(t, first.Body, 2)
	assert.IsType(t, &Fallthrough{}, first.Body[1])
	assert.IsType(t, &Default{}, sw.Clauses[2])
}

func TestParseExpressionPrecedence(t *testing.T) {
	decls, err := Parse(`const x = 1 + 2 * 3 << 1 < 4 && true || false;`)
	require.NoError(t, err)
	c := decls[0].(*Const)

	or := c.Value.(*BinaryExpr)
	assert.Equal(t, "||", or.Op)
	and := or.Left.(*BinaryExpr)
	assert.Equal(t, "&&", and.Op)
	lt := and.Left.(*BinaryExpr)
	assert.Equal(t, "<", lt.Op)
	shl := lt.Left.(*BinaryExpr)
	assert.Equal(t, "<<", shl.Op)
	add := shl.Left.(*BinaryExpr)
	assert.Equal(t, "+", add.Op)
	assert.Equal(t, "*", add.Right.(*BinaryExpr).Op)
}

func TestParseDirectives(t *testing.T) {
	decls, err := Parse(`enable f16;
requires readonly_and_readwrite_storage_textures;
diagnostic(off, derivative_uniformity);
const_assert 1 < 2;`)
	require.NoError(t, err)
	require.Len(t, decls, 4)
	assert.Equal(t, []string{"f16"}, decls[0].(*Enable).Extensions)
	assert.Equal(t, []string{"readonly_and_readwrite_storage_textures"}, decls[1].(*Requires).Features)
	assert.Equal(t, "derivative_uniformity", decls[2].(*Diagnostic).Rule)
	assert.IsType(t, &ConstAssert{}, decls[3])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
	}{
		{"missing semicolon", "var<private> a: f32\nvar<private> b: f32;", 2},
		{"unclosed struct", "struct S {\n  a: f32,\n", 3},
		{"bad statement", "fn f() {\n  1 + 2;\n}", 2},
		{"bad declaration", "return 1;", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.line, parseErr.Token.Line)
		})
	}
}
