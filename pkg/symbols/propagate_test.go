package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/types"
)

func newTestContext() *Context {
	c := NewContext()
	c.Structs.Add("Point", StructDef{Name: "Point", Fields: []ast.Param{
		{Name: "x", Type: types.Int},
		{Name: "y", Type: types.Int},
	}}, "geo.imp")
	c.Structs.Add("Line", StructDef{Name: "Line", Fields: []ast.Param{
		{Name: "start", Type: types.Named{Name: "Point"}},
		{Name: "end", Type: types.Pointer{Elem: types.Named{Name: "Point"}}},
	}}, "geo.imp")
	c.Structs.Add("Node", StructDef{Name: "Node", Fields: []ast.Param{
		{Name: "value", Type: types.Int},
		{Name: "next", Type: types.Pointer{Elem: types.Named{Name: "Node"}}},
	}}, "list.imp")
	c.Structs.Add("Option", StructDef{Name: "Option", Generics: []string{"T"}, Fields: []ast.Param{
		{Name: "value", Type: types.Generic{Name: "T"}},
		{Name: "ok", Type: types.Bool},
	}}, "base/builtin.imp")
	c.Enums.Add("Color", EnumDef{Name: "Color", Fields: []string{"Red", "Green"}}, "color.imp")
	return c
}

func declaredNames(s *ScopeStack) []string {
	var out []string
	for _, v := range s.Top().Declared() {
		out = append(out, v.Name)
	}
	return out
}

func TestPropagateFlat(t *testing.T) {
	c := newTestContext()
	s := NewScopeStack()
	require.NoError(t, c.Propagate(s, "p", types.Named{Name: "Point"}, false, false))
	require.Equal(t, []string{"p.x", "p.y"}, declaredNames(s))

	v, ok := s.Lookup("p.x")
	require.True(t, ok)
	require.True(t, types.Equal(types.Int, v.Type))
}

func TestPropagateNestedAndPointer(t *testing.T) {
	c := newTestContext()
	s := NewScopeStack()
	require.NoError(t, c.Propagate(s, "l", types.Named{Name: "Line"}, false, false))
	require.Equal(t, []string{
		"l.start", "l.start.x", "l.start.y",
		"l.end", "l.end->x", "l.end->y",
	}, declaredNames(s))

	s = NewScopeStack()
	require.NoError(t, c.Propagate(s, "q", types.Named{Name: "Point"}, true, false))
	require.Equal(t, []string{"q->x", "q->y"}, declaredNames(s))
}

func TestPropagateSelfReferenceTerminates(t *testing.T) {
	c := newTestContext()
	s := NewScopeStack()
	require.NoError(t, c.Propagate(s, "n", types.Named{Name: "Node"}, false, false))
	require.Equal(t, []string{"n.value", "n.next"}, declaredNames(s))
}

func TestPropagateGenericAndConst(t *testing.T) {
	c := newTestContext()
	s := NewScopeStack()
	opt := types.Named{Name: "Option", Generics: []types.Type{types.Char}}
	require.NoError(t, c.Propagate(s, "o", opt, false, true))

	v, ok := s.Lookup("o.value")
	require.True(t, ok)
	require.True(t, types.Equal(types.Char, v.Type))
	require.True(t, v.Const, "fields of a constant are constant")
}

func TestPropagateEnumIsNoop(t *testing.T) {
	c := newTestContext()
	s := NewScopeStack()
	require.NoError(t, c.Propagate(s, "c", types.Named{Name: "Color"}, false, false))
	require.Empty(t, declaredNames(s))
}

func TestPropagateUnknown(t *testing.T) {
	c := newTestContext()
	err := c.Propagate(NewScopeStack(), "z", types.Named{Name: "Nope"}, false, false)
	require.ErrorIs(t, err, ErrUnexpectedPropagation)

	var perr *PropagationError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "z", perr.Base)
}

func TestPropagateCollision(t *testing.T) {
	c := newTestContext()
	s := NewScopeStack()
	_, err := s.Declare(Var{Name: "p.x", Type: types.Int})
	require.NoError(t, err)
	require.ErrorIs(t, c.Propagate(s, "p", types.Named{Name: "Point"}, false, false), ErrRedeclared)
}
