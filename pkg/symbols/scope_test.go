package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/types"
)

func TestScopeCopyDown(t *testing.T) {
	s := NewScopeStack()
	_, err := s.Declare(Var{Name: "g", Type: types.Int})
	require.NoError(t, err)

	s.Push(FuncFrame)
	_, err = s.Declare(Var{Name: "a", Type: types.Bool})
	require.NoError(t, err)

	s.Push(BlockFrame)
	require.Equal(t, 2, s.Depth())
	for _, name := range []string{"g", "a"} {
		_, ok := s.Lookup(name)
		require.True(t, ok, "%s should be copied down", name)
	}
	require.False(t, s.Top().own["a"])

	_, err = s.Declare(Var{Name: "b", Type: types.Char})
	require.NoError(t, err)
	s.Pop()

	_, ok := s.Lookup("b")
	require.False(t, ok, "b must not outlive its block")
	_, ok = s.Lookup("a")
	require.True(t, ok)
}

func TestScopeRedeclareAndShadow(t *testing.T) {
	s := NewScopeStack()
	s.Push(FuncFrame)
	shadowed, err := s.Declare(Var{Name: "x", Type: types.Int})
	require.NoError(t, err)
	require.False(t, shadowed)

	_, err = s.Declare(Var{Name: "x", Type: types.Bool})
	require.ErrorIs(t, err, ErrRedeclared)

	s.Push(BlockFrame)
	shadowed, err = s.Declare(Var{Name: "x", Type: types.Bool})
	require.NoError(t, err)
	require.True(t, shadowed)

	s.Push(BlockFrame)
	v, ok := s.Lookup("x")
	require.True(t, ok)
	require.True(t, types.Equal(types.Bool, v.Type), "nearest declaration wins")

	s.Pop()
	s.Pop()
	v, _ = s.Lookup("x")
	require.True(t, types.Equal(types.Int, v.Type))
}

func TestScopeDeclaredOrder(t *testing.T) {
	s := NewScopeStack()
	for _, n := range []string{"c", "a", "b"} {
		_, err := s.Declare(Var{Name: n, Type: types.Int})
		require.NoError(t, err)
	}
	var names []string
	for _, v := range s.Top().Declared() {
		names = append(names, v.Name)
	}
	require.Equal(t, []string{"c", "a", "b"}, names)
}

func TestPopGlobalPanics(t *testing.T) {
	require.Panics(t, func() { NewScopeStack().Pop() })
}

func TestCanonical(t *testing.T) {
	vars := map[string]Var{
		"p":       {Name: "p", Type: types.Named{Name: "Point"}},
		"q":       {Name: "q", Type: types.Pointer{Elem: types.Named{Name: "Point"}}},
		"l":       {Name: "l", Type: types.Named{Name: "Line"}},
		"l.start": {Name: "l.start", Type: types.Pointer{Elem: types.Named{Name: "Point"}}},
	}
	lookup := func(n string) (Var, bool) { v, ok := vars[n]; return v, ok }

	require.Equal(t, "x", Canonical("x", lookup))
	require.Equal(t, "p.x", Canonical("p.x", lookup))
	require.Equal(t, "q->x", Canonical("q.x", lookup))
	require.Equal(t, "l.start->x", Canonical("l.start.x", lookup))
	require.Equal(t, "nope.x", Canonical("nope.x", lookup))
}
