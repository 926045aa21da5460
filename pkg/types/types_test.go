package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"u8", "i64", "int", "usize", "f32", "bool", "char", "void", "any", "typeid"} {
		typ, ok := Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, name, typ.String())
		require.True(t, IsKeyword(name), name)
	}

	s, ok := Lookup("string")
	require.True(t, ok)
	require.True(t, Equal(s, Str))
	require.False(t, IsKeyword("string"), "string is a struct, not a keyword")

	_, ok = Lookup("none")
	require.False(t, ok)
	_, ok = Lookup("Point")
	require.False(t, ok)
}

func TestString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Int, "int"},
		{PointerTo(Char, 2), "^^char"},
		{Array{Elem: Int, Length: "4"}, "int[4]"},
		{Named{Name: "Option", Generics: []Type{Int}}, "Option(int)"},
		{Named{Name: "Pair", Generics: []Type{Generic{"K"}, Pointer{Generic{"V"}}}}, "Pair($K ^$V)"},
		{ArrayIndex{Base: Array{Elem: Int, Length: "3"}, Index: "i"}, "int[3]|i|"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.typ.String())
	}
}

func TestNumericFamily(t *testing.T) {
	require.True(t, IsNumeric(Prim{U8}))
	require.True(t, IsNumeric(Prim{F64}))
	require.True(t, IsNumeric(Char))
	require.False(t, IsNumeric(Bool))
	require.False(t, IsNumeric(Pointer{Int}))
	require.False(t, IsNumeric(Named{Name: "Point"}))

	require.True(t, IsInteger(USize))
	require.False(t, IsInteger(Prim{F32}))
	require.False(t, IsInteger(Char))
}

func TestEqual(t *testing.T) {
	opt := func(g Type) Type { return Named{Name: "Option", Generics: []Type{g}} }
	require.True(t, Equal(opt(Int), opt(Int)))
	require.False(t, Equal(opt(Int), opt(Bool)))
	require.False(t, Equal(Named{Name: "Option"}, opt(Int)))
	require.True(t, Equal(Pointer{Int}, Pointer{Int}))
	require.False(t, Equal(Pointer{Int}, Int))
	require.False(t, Equal(Array{Elem: Int, Length: "3"}, Array{Elem: Int, Length: "4"}))
	require.True(t, Equal(Generic{"T"}, Generic{"T"}))
}

func TestSubstitute(t *testing.T) {
	bindings := map[string]Type{"T": Int}
	got := Substitute(Pointer{Named{Name: "dynam", Generics: []Type{Generic{"T"}}}}, bindings)
	require.True(t, Equal(Pointer{Named{Name: "dynam", Generics: []Type{Int}}}, got), got.String())

	// Unbound placeholders survive.
	got = Substitute(Array{Elem: Generic{"U"}, Length: "2"}, bindings)
	require.True(t, HasGeneric(got))

	require.False(t, HasGeneric(Substitute(Generic{"T"}, bindings)))
}

func TestElem(t *testing.T) {
	tests := []struct {
		typ  Type
		want Type
	}{
		{Array{Elem: Bool, Length: "2"}, Bool},
		{Pointer{Int}, Int},
		{Str, Char},
		{Named{Name: "dynam", Generics: []Type{Prim{F32}}}, Prim{F32}},
		{Named{Name: "array", Generics: []Type{Int}}, Int},
	}
	for _, tt := range tests {
		got, ok := Elem(tt.typ)
		require.True(t, ok, tt.typ.String())
		require.True(t, Equal(tt.want, got), tt.typ.String())
	}

	_, ok := Elem(Bool)
	require.False(t, ok)
	_, ok = Elem(Named{Name: "Point"})
	require.False(t, ok)
}

func TestResolvedArrayIndex(t *testing.T) {
	base := Array{Elem: Pointer{Char}, Length: "8"}
	idx := ArrayIndex{Base: base, Index: "2"}
	require.True(t, Equal(Pointer{Char}, Resolved(idx)))
	require.True(t, Equal(Int, Resolved(Int)))
}

func TestUnwrap(t *testing.T) {
	require.True(t, Equal(Char, Unwrap(PointerTo(Char, 3))))
	require.True(t, IsPointer(PointerTo(Int, 1)))
	require.False(t, IsPointer(Int))
}
