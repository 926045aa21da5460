package typeChecker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/symbols"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
)

var tok = token.Token{Type: token.Ident, Value: "f"}

func intArg(v string) *ast.Node { return ast.NewIntLit(tok, v, nil, types.Int) }

func varArg(name string, t types.Type) *ast.Node { return ast.NewVarRef(tok, name, false, t) }

func testFunctions() *symbols.Functions {
	fns := symbols.NewContext().Functions
	fns.Add("add", symbols.FuncSig{Name: "add", Return: types.Int, Params: []ast.Param{
		{Name: "a", Type: types.Int},
		{Name: "b", Type: types.Int},
	}}, "math.imp")
	fns.Add("id", symbols.FuncSig{Name: "id", Generic: true, Return: types.Generic{Name: "T"}, Params: []ast.Param{
		{Name: "T", Type: types.Generic{Name: "T"}},
		{Name: "v", Type: types.Generic{Name: "T"}},
	}}, "generic.imp")
	fns.Add("first", symbols.FuncSig{Name: "first", Generic: true, Return: types.Generic{Name: "T"}, Params: []ast.Param{
		{Name: "v", Type: types.Generic{Name: "T"}},
		{Name: "T", Type: types.Generic{Name: "T"}},
	}}, "generic.imp")
	fns.Add("twice", symbols.FuncSig{Name: "twice", Generic: true, Return: types.Void, Params: []ast.Param{
		{Name: "a", Type: types.Generic{Name: "U"}},
		{Name: "b", Type: types.Generic{Name: "U"}},
	}}, "generic.imp")
	return fns
}

func kindOf(t *testing.T, err error) ErrorKind {
	t.Helper()
	var ae *ArgError
	require.True(t, errors.As(err, &ae), "expected *ArgError, got %v", err)
	return ae.Kind
}

func TestWrongArgLength(t *testing.T) {
	err := Check([]*ast.Node{intArg("1"), intArg("2"), intArg("3")}, "add", testFunctions())
	var ae *ArgError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, WrongArgLength, ae.Kind)
	require.Equal(t, 3, ae.Got)
	require.Equal(t, 2, ae.Want)
}

func TestWrongType(t *testing.T) {
	err := Check([]*ast.Node{intArg("1"), ast.NewBoolLit(tok, true)}, "add", testFunctions())
	require.Equal(t, WrongType, kindOf(t, err))
	require.Contains(t, err.Error(), "argument 2 of 'add'")
}

func TestUnknownFunction(t *testing.T) {
	require.Equal(t, UnknownFunction, kindOf(t, Check(nil, "nope", testFunctions())))
}

func TestVariadicAcceptsAnything(t *testing.T) {
	args := []*ast.Node{intArg("1"), ast.NewStrLit(tok, "x"), ast.NewBoolLit(tok, false)}
	require.NoError(t, Check(args, "println", testFunctions()))
}

func TestGenericBinding(t *testing.T) {
	fns := testFunctions()
	b, err := Resolve([]*ast.Node{ast.NewTypeIDLit(tok, types.Int), intArg("4")}, "id", fns)
	require.NoError(t, err)
	require.True(t, types.Equal(types.Int, b["T"]))

	err = Check([]*ast.Node{ast.NewTypeIDLit(tok, types.Int), ast.NewBoolLit(tok, true)}, "id", fns)
	require.Equal(t, WrongType, kindOf(t, err))

	err = Check([]*ast.Node{intArg("4"), intArg("4")}, "id", fns)
	require.Equal(t, WrongType, kindOf(t, err), "first argument must be a typeid")
}

func TestGenericNotExist(t *testing.T) {
	err := Check([]*ast.Node{intArg("1"), ast.NewTypeIDLit(tok, types.Int)}, "first", testFunctions())
	var ae *ArgError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, GenericNotExist, ae.Kind)
	require.Equal(t, "T", ae.Generic)
	require.Equal(t, 1, ae.Pos)
}

func TestInferredPlaceholder(t *testing.T) {
	fns := testFunctions()
	b, err := Resolve([]*ast.Node{varArg("c", types.Char), varArg("d", types.Char)}, "twice", fns)
	require.NoError(t, err)
	require.True(t, types.Equal(types.Char, b["U"]))

	err = Check([]*ast.Node{varArg("c", types.Char), varArg("s", types.Str)}, "twice", fns)
	require.Equal(t, WrongType, kindOf(t, err))
}

func TestAssignable(t *testing.T) {
	charPtr := types.Pointer{Elem: types.Char}
	tests := []struct {
		name  string
		want  types.Type
		value *ast.Node
		ok    bool
	}{
		{"int literal to int", types.Int, intArg("1"), true},
		{"int literal to pointer", charPtr, intArg("0"), true},
		{"int literal to bool", types.Bool, intArg("1"), false},
		{"string literal to ^char", charPtr, ast.NewStrLit(tok, "hi"), true},
		{"string literal to string", types.Str, ast.NewStrLit(tok, "hi"), true},
		{"c embed to anything", types.Bool, ast.NewCEmbed(tok, "1"), true},
		{"bool to int", types.Int, varArg("b", types.Bool), false},
		{"typeid literal", types.TypeId, ast.NewTypeIDLit(tok, types.Char), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.ok, Assignable(tt.want, tt.value))
		})
	}
}

func TestCompatible(t *testing.T) {
	point := types.Named{Name: "Point"}
	tests := []struct {
		name string
		a, b types.Type
		ok   bool
	}{
		{"numeric family", types.Int, types.Prim{P: types.F64}, true},
		{"any", types.Any, point, true},
		{"generic", types.Generic{Name: "T"}, types.Bool, true},
		{"void pointer", types.Pointer{Elem: types.Void}, types.Pointer{Elem: point}, true},
		{"pointer from array", types.Pointer{Elem: types.Int}, types.Array{Elem: types.Int, Length: "3"}, true},
		{"pointer mismatch", types.Pointer{Elem: types.Int}, types.Pointer{Elem: types.Bool}, false},
		{"named arity", types.Named{Name: "Option", Generics: []types.Type{types.Int}}, types.Named{Name: "Option"}, false},
		{"named same", point, point, true},
		{"bool vs char", types.Bool, types.Char, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.ok, Compatible(tt.a, tt.b))
		})
	}
}
