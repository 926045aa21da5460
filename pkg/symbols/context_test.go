package symbols

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/types"
)

func TestBuiltinsRegistered(t *testing.T) {
	c := NewContext()
	for _, name := range []string{"print", "println"} {
		sig, ok := c.Functions.Get(name)
		require.True(t, ok)
		require.True(t, sig.Variadic)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	c := newTestContext()
	snap := c.Snapshot()
	snap.Functions.Add("area", FuncSig{Name: "area", Return: types.Int}, "shapes.imp")
	require.False(t, c.Functions.Has("area"))
	require.True(t, snap.Structs.Has("Point"))
}

func TestMergeKeepsDiscoveryOrder(t *testing.T) {
	c := NewContext()
	child := c.Snapshot()
	child.Functions.Add("b", FuncSig{Name: "b"}, "lib.imp")
	child.Functions.Add("a", FuncSig{Name: "a"}, "lib.imp")
	child.Globals.Add("Color.Red", Var{Name: "Color.Red", Const: true, Flat: true}, "lib.imp")
	child.MarkImported(42, "lib.imp")

	require.NoError(t, c.Merge(child))
	want := []string{"print", "println", "b", "a"}
	if diff := cmp.Diff(want, c.Functions.keys); diff != "" {
		t.Fatalf("function order mismatch (-want +got):\n%s", diff)
	}
	require.False(t, c.MarkImported(42, "lib.imp"), "merged keys count as imported")
	_, ok := c.Resolve(NewScopeStack(), "Color.Red")
	require.True(t, ok)
}

func TestMergeRejectsDuplicates(t *testing.T) {
	c := NewContext()
	c.Structs.Add("Point", StructDef{Name: "Point"}, "a.imp")
	child := NewContext()
	child.Structs.Add("Point", StructDef{Name: "Point"}, "b.imp")

	err := c.Merge(child)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "Point", dup.Name)
	require.Equal(t, "a.imp", dup.Have)
	require.Contains(t, err.Error(), "already defined in a.imp")
}

func TestMarkImported(t *testing.T) {
	c := NewContext()
	require.True(t, c.MarkImported(7, "x.imp"))
	require.False(t, c.MarkImported(7, "x.imp"))
}

func TestDefinedIn(t *testing.T) {
	c := newTestContext()
	origin, ok := c.DefinedIn("Line")
	require.True(t, ok)
	require.Equal(t, "geo.imp", origin)
	origin, ok = c.DefinedIn("Color")
	require.True(t, ok)
	require.Equal(t, "color.imp", origin)
	_, ok = c.DefinedIn("Circle")
	require.False(t, ok)
}

func TestResolvePrefersScope(t *testing.T) {
	c := NewContext()
	c.Globals.Add("n", Var{Name: "n", Type: types.Int}, "main.imp")
	s := NewScopeStack()
	s.Push(FuncFrame)
	_, err := s.Declare(Var{Name: "n", Type: types.Bool})
	require.NoError(t, err)

	v, ok := c.Resolve(s, "n")
	require.True(t, ok)
	require.True(t, types.Equal(types.Bool, v.Type))
}

func TestStructBindings(t *testing.T) {
	c := newTestContext()
	def, _ := c.Structs.Get("Option")
	b := def.Bindings(types.Named{Name: "Option", Generics: []types.Type{types.Int}})
	require.True(t, types.Equal(types.Int, b["T"]))

	ft, ok := def.Field("ok")
	require.True(t, ok)
	require.True(t, types.Equal(types.Bool, ft))
}
