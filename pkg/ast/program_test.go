package ast

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
)

func at(line int) token.Token { return token.Token{Type: token.Ident, Line: line, Column: 1} }

func TestFormat(t *testing.T) {
	tok := at(1)
	x := NewVarRef(tok, "x", false, types.Int)
	tests := []struct {
		node *Node
		want string
	}{
		{NewBinaryOp(tok, '+', x, NewIntLit(tok, "1", nil, types.Int), types.Int), "(x + 1)"},
		{NewArrayIndex(tok, NewVarRef(tok, "a", false, types.Array{Elem: types.Int, Length: "3"}), x, types.Int), "a|x|"},
		{NewDeref(tok, NewVarRef(tok, "p", false, types.Pointer{Elem: types.Int}), types.Int), "p^"},
		{NewAddressOf(tok, x), "&x"},
		{NewFuncCall(tok, "Point.len", []*Node{x, NewStrLit(tok, "s")}, types.Int), `Point.len(x, "s")`},
		{NewVarDecl(tok, VarDeclNode{Name: "N", Type: types.Int, Value: NewIntLit(tok, "4", nil, types.Int), Const: true}), "ConstDecl N: int = 4"},
		{NewBranch(tok, If, []*Node{x, NewCondOp(tok, token.Gt), NewIntLit(tok, "0", nil, types.Int)}, "", nil), "If (x > 0)"},
		{NewBranch(tok, Else, nil, "", nil), "Else"},
		{NewCase(tok, nil, false, true), "Default"},
		{NewLoop(tok, nil, "i", []*Node{x}, LoopInc), "Loop (x) [+]"},
		{NewIter(tok, "c", "i", types.Char, NewVarRef(tok, "s", false, types.Str)), "Iter c: char, i: usize in s"},
		{NewStructDef(tok, "Box", []string{"T"}, []Param{{Name: "v", Type: types.Generic{Name: "T"}}}), "GenericStructDef Box($T) {v: $T}"},
		{NewReturn(tok, nil), "Return"},
		{NewCEmbed(tok, "exit(1);"), `@c "exit(1);"`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Format(tt.node))
	}
}

func TestNodeTypes(t *testing.T) {
	tok := at(1)
	require.Equal(t, MacroFuncDef, NewFuncDef(tok, FuncDefNode{Name: "id", Generic: true}).Type)
	require.Equal(t, FuncDef, NewFuncDef(tok, FuncDefNode{Name: "main"}).Type)
	require.Equal(t, StructDef, NewStructDef(tok, "P", nil, nil).Type)
	require.True(t, types.Equal(types.Void, NewReturn(tok, nil).Typ))
	require.True(t, types.Equal(types.Pointer{Elem: types.Int}, NewAddressOf(tok, NewVarRef(tok, "x", false, types.Int)).Typ))
	require.Equal(t, "Unknown", NodeType(999).String())
}

func TestSanitize(t *testing.T) {
	tok := at(3)
	var p Program
	call := NewFuncCall(tok, "Point.len", []*Node{NewVarRef(tok, "Color.Red", true, types.Int), NewVarRef(tok, "p.x", false, types.Int)}, types.Int)
	p.Append(NewFuncDef(tok, FuncDefNode{Name: "Point.len", Return: types.Int}), "geo.imp")
	p.Append(NewVarDecl(tok, VarDeclNode{Name: "r", Type: types.Int, Value: call}), "geo.imp")
	p.Append(NewVarDecl(tok, VarDeclNode{Name: "Color.field_count", Type: types.Int, Const: true, Flat: true}), "geo.imp")
	p.Sanitize()

	var got []string
	for _, e := range p.Entries {
		got = append(got, Format(e.Node))
	}
	want := []string{
		"FuncDef Point__len(): int",
		"VarDecl r: int = Point__len(Color__Red, p.x)",
		"ConstDecl Color__field_count: int",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sanitized program mismatch (-want +got):\n%s", diff)
	}
}

func TestSanitizeLiteralText(t *testing.T) {
	tok := at(2)
	sum := NewBinaryOp(tok, '+', NewVarRef(tok, "Color.Red", true, types.Int), NewIntLit(tok, "1", nil, types.Int), types.Int)
	lit := NewIntLit(tok, Format(sum), sum, types.Int)
	plain := NewIntLit(tok, "7", nil, types.Int)

	var p Program
	p.Append(NewVarDecl(tok, VarDeclNode{Name: "n", Type: types.Int, Value: lit}), "main.imp")
	p.Append(NewVarDecl(tok, VarDeclNode{Name: "m", Type: types.Int, Value: plain}), "main.imp")
	p.Sanitize()

	require.Equal(t, "(Color__Red + 1)", lit.Data.(IntLitNode).Value)
	require.Equal(t, "VarDecl n: int = (Color__Red + 1)", Format(p.Entries[0].Node))
	require.Equal(t, "7", plain.Data.(IntLitNode).Value)
}

func TestDumpIndents(t *testing.T) {
	var p Program
	p.Append(NewFuncDef(at(1), FuncDefNode{Name: "main", Return: types.Void}), "main.imp")
	p.Append(NewReturn(at(2), nil), "main.imp")
	p.Append(NewEndBlock(at(3)), "main.imp")
	require.Equal(t, 3, p.Len())

	var buf bytes.Buffer
	require.NoError(t, p.Dump(&buf))
	want := "main.imp:1\tFuncDef main(): void\n" +
		"main.imp:2\t  Return\n" +
		"main.imp:3\tEndBlock\n"
	require.Equal(t, want, buf.String())
}

func TestWalkVisitsNested(t *testing.T) {
	tok := at(1)
	inner := NewIntLit(tok, "2", nil, types.Int)
	n := NewReturn(tok, NewBinaryOp(tok, '*', NewVarRef(tok, "x", false, types.Int), inner, types.Int))
	count := 0
	Walk(n, func(*Node) { count++ })
	require.Equal(t, 4, count)
}
