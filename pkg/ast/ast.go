// Package ast defines the nodes the parser emits into the Program
package ast

import (
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Expressions
	IntLit NodeType = iota
	CharLit
	StrLit
	BoolLit
	TypeIDLit
	VarRef
	ArrayLit
	ArrayIndex
	Deref
	AddressOf
	FuncCall
	BinaryOp
	CondOp
	CEmbed

	// Statements
	FuncDef
	MacroFuncDef
	VarDecl
	Reassign
	If
	OrIf
	Else
	Switch
	Case
	Loop
	Iter
	StructName
	StructDef
	GenericStructDef
	EndStruct
	EnumName
	EnumDef
	EndEnum
	CImport
	Import
	Return
	Break
	Continue
	BlockStart
	EndBlock
)

var nodeNames = [...]string{
	IntLit: "IntLit", CharLit: "CharLit", StrLit: "StrLit", BoolLit: "BoolLit",
	TypeIDLit: "TypeIDLit", VarRef: "VarRef", ArrayLit: "ArrayLit", ArrayIndex: "ArrayIndex",
	Deref: "Deref", AddressOf: "AddressOf", FuncCall: "FuncCall", BinaryOp: "BinaryOp",
	CondOp: "CondOp", CEmbed: "CEmbed", FuncDef: "FuncDef", MacroFuncDef: "MacroFuncDef",
	VarDecl: "VarDecl", Reassign: "Reassign", If: "If", OrIf: "OrIf", Else: "Else",
	Switch: "Switch", Case: "Case", Loop: "Loop", Iter: "Iter", StructName: "StructName",
	StructDef: "StructDef", GenericStructDef: "GenericStructDef", EndStruct: "EndStruct",
	EnumName: "EnumName", EnumDef: "EnumDef", EndEnum: "EndEnum", CImport: "CImport",
	Import: "Import", Return: "Return", Break: "Break", Continue: "Continue",
	BlockStart: "BlockStart", EndBlock: "EndBlock",
}

func (t NodeType) String() string {
	if int(t) < len(nodeNames) {
		return nodeNames[t]
	}
	return "Unknown"
}

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
	Typ  types.Type // Expression type, set by the parser
}

// LoopMod is the step applied after each iteration of a bounded loop.
type LoopMod int

const (
	LoopNop LoopMod = iota
	LoopInc
	LoopDec
)

// Param is a function parameter or a struct field.
type Param struct {
	Name string
	Type types.Type
}

// --- Node Data Structs ---

// IntLitNode holds a numeric literal. Value is the canonical text (folded when
// possible); Expr keeps the reduced arithmetic when it could not be folded.
type IntLitNode struct {
	Value string
	Expr  *Node
}
type CharLitNode struct{ Value string }
type StrLitNode struct{ Value string }
type BoolLitNode struct{ Value bool }
type TypeIDLitNode struct{ Type types.Type }

// VarRefNode names a variable. Flat marks names that live in a namespace
// (enum constants) and are sanitized for emission.
type VarRefNode struct {
	Name string
	Flat bool
}
type ArrayLitNode struct{ Elems []*Node }
type ArrayIndexNode struct{ Array, Index *Node }
type DerefNode struct{ Expr *Node }
type AddressOfNode struct{ Expr *Node }
type FuncCallNode struct {
	Name string
	Args []*Node
}
type BinaryOpNode struct {
	Op          rune
	Left, Right *Node
}

// CondOpNode is one operator of a condition token sequence.
type CondOpNode struct{ Op token.Type }
type CEmbedNode struct{ Code string }

type FuncDefNode struct {
	Name    string
	Params  []Param
	Return  types.Type
	Inline  bool
	Shared  bool
	Generic bool
	Method  string // owning struct for namespaced methods
}
type VarDeclNode struct {
	Name   string
	Type   types.Type
	Value  *Node
	Const  bool
	Global bool
	Flat   bool
}
type ReassignNode struct{ Target, Value *Node }

// BranchNode backs If, OrIf and Else. Else has no condition.
type BranchNode struct {
	Cond        []*Node
	Capture     string
	CaptureType types.Type
}
type SwitchNode struct{ Value *Node }
type CaseNode struct {
	Values      []*Node
	Fallthrough bool
	Default     bool
}
// LoopNode is a bounded loop. Init, when set, declares the counter the
// condition introduced; it runs once before the loop is entered.
type LoopNode struct {
	Init    *Node
	Counter string
	Cond    []*Node
	Mod     LoopMod
}
type IterNode struct {
	Elem     string
	Index    string
	ElemType types.Type
	Source   *Node
}
type StructNameNode struct{ Name string }
type StructDefNode struct {
	Name     string
	Generics []string
	Fields   []Param
}
type EndStructNode struct{ Name string }
type EnumNameNode struct{ Name string }
type EnumDefNode struct {
	Name   string
	Fields []string
}
type EndEnumNode struct{ Name string }
type CImportNode struct{ Path string }
type ImportNode struct{ Path string }
type ReturnNode struct{ Value *Node }
type BreakNode struct{}
type ContinueNode struct{}
type BlockStartNode struct{}
type EndBlockNode struct{}

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}, typ types.Type) *Node {
	return &Node{Type: nodeType, Tok: tok, Data: data, Typ: typ}
}

func NewIntLit(tok token.Token, value string, expr *Node, typ types.Type) *Node {
	return newNode(tok, IntLit, IntLitNode{Value: value, Expr: expr}, typ)
}
func NewCharLit(tok token.Token, value string) *Node {
	return newNode(tok, CharLit, CharLitNode{Value: value}, types.Char)
}
func NewStrLit(tok token.Token, value string) *Node {
	return newNode(tok, StrLit, StrLitNode{Value: value}, types.Str)
}
func NewBoolLit(tok token.Token, value bool) *Node {
	return newNode(tok, BoolLit, BoolLitNode{Value: value}, types.Bool)
}
func NewTypeIDLit(tok token.Token, t types.Type) *Node {
	return newNode(tok, TypeIDLit, TypeIDLitNode{Type: t}, types.TypeId)
}
func NewVarRef(tok token.Token, name string, flat bool, typ types.Type) *Node {
	return newNode(tok, VarRef, VarRefNode{Name: name, Flat: flat}, typ)
}
func NewArrayLit(tok token.Token, elems []*Node, typ types.Type) *Node {
	return newNode(tok, ArrayLit, ArrayLitNode{Elems: elems}, typ)
}
func NewArrayIndex(tok token.Token, array, index *Node, typ types.Type) *Node {
	return newNode(tok, ArrayIndex, ArrayIndexNode{Array: array, Index: index}, typ)
}
func NewDeref(tok token.Token, expr *Node, typ types.Type) *Node {
	return newNode(tok, Deref, DerefNode{Expr: expr}, typ)
}
func NewAddressOf(tok token.Token, expr *Node) *Node {
	return newNode(tok, AddressOf, AddressOfNode{Expr: expr}, types.Pointer{Elem: expr.Typ})
}
func NewFuncCall(tok token.Token, name string, args []*Node, ret types.Type) *Node {
	return newNode(tok, FuncCall, FuncCallNode{Name: name, Args: args}, ret)
}
func NewBinaryOp(tok token.Token, op rune, left, right *Node, typ types.Type) *Node {
	return newNode(tok, BinaryOp, BinaryOpNode{Op: op, Left: left, Right: right}, typ)
}
func NewCondOp(tok token.Token, op token.Type) *Node {
	return newNode(tok, CondOp, CondOpNode{Op: op}, nil)
}
func NewCEmbed(tok token.Token, code string) *Node {
	return newNode(tok, CEmbed, CEmbedNode{Code: code}, types.Any)
}
func NewFuncDef(tok token.Token, def FuncDefNode) *Node {
	kind := FuncDef
	if def.Generic {
		kind = MacroFuncDef
	}
	return newNode(tok, kind, def, def.Return)
}
func NewVarDecl(tok token.Token, decl VarDeclNode) *Node {
	return newNode(tok, VarDecl, decl, decl.Type)
}
func NewReassign(tok token.Token, target, value *Node) *Node {
	return newNode(tok, Reassign, ReassignNode{Target: target, Value: value}, target.Typ)
}
func NewBranch(tok token.Token, kind NodeType, cond []*Node, capture string, captureType types.Type) *Node {
	return newNode(tok, kind, BranchNode{Cond: cond, Capture: capture, CaptureType: captureType}, nil)
}
func NewSwitch(tok token.Token, value *Node) *Node {
	return newNode(tok, Switch, SwitchNode{Value: value}, nil)
}
func NewCase(tok token.Token, values []*Node, isFallthrough, isDefault bool) *Node {
	return newNode(tok, Case, CaseNode{Values: values, Fallthrough: isFallthrough, Default: isDefault}, nil)
}
func NewLoop(tok token.Token, init *Node, counter string, cond []*Node, mod LoopMod) *Node {
	return newNode(tok, Loop, LoopNode{Init: init, Counter: counter, Cond: cond, Mod: mod}, nil)
}
func NewIter(tok token.Token, elem, index string, elemType types.Type, source *Node) *Node {
	return newNode(tok, Iter, IterNode{Elem: elem, Index: index, ElemType: elemType, Source: source}, nil)
}
func NewStructName(tok token.Token, name string) *Node {
	return newNode(tok, StructName, StructNameNode{Name: name}, nil)
}
func NewStructDef(tok token.Token, name string, generics []string, fields []Param) *Node {
	kind := StructDef
	if len(generics) > 0 {
		kind = GenericStructDef
	}
	return newNode(tok, kind, StructDefNode{Name: name, Generics: generics, Fields: fields}, nil)
}
func NewEndStruct(tok token.Token, name string) *Node {
	return newNode(tok, EndStruct, EndStructNode{Name: name}, nil)
}
func NewEnumName(tok token.Token, name string) *Node {
	return newNode(tok, EnumName, EnumNameNode{Name: name}, nil)
}
func NewEnumDef(tok token.Token, name string, fields []string) *Node {
	return newNode(tok, EnumDef, EnumDefNode{Name: name, Fields: fields}, nil)
}
func NewEndEnum(tok token.Token, name string) *Node {
	return newNode(tok, EndEnum, EndEnumNode{Name: name}, nil)
}
func NewCImport(tok token.Token, path string) *Node {
	return newNode(tok, CImport, CImportNode{Path: path}, nil)
}
func NewImport(tok token.Token, path string) *Node {
	return newNode(tok, Import, ImportNode{Path: path}, nil)
}
func NewReturn(tok token.Token, value *Node) *Node {
	var typ types.Type = types.Void
	if value != nil {
		typ = value.Typ
	}
	return newNode(tok, Return, ReturnNode{Value: value}, typ)
}
func NewBreak(tok token.Token) *Node      { return newNode(tok, Break, BreakNode{}, nil) }
func NewContinue(tok token.Token) *Node   { return newNode(tok, Continue, ContinueNode{}, nil) }
func NewBlockStart(tok token.Token) *Node { return newNode(tok, BlockStart, BlockStartNode{}, nil) }
func NewEndBlock(tok token.Token) *Node   { return newNode(tok, EndBlock, EndBlockNode{}, nil) }

// Children returns the expression nodes directly referenced by n.
func Children(n *Node) []*Node {
	var out []*Node
	add := func(ns ...*Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch d := n.Data.(type) {
	case IntLitNode:
		add(d.Expr)
	case ArrayLitNode:
		add(d.Elems...)
	case ArrayIndexNode:
		add(d.Array, d.Index)
	case DerefNode:
		add(d.Expr)
	case AddressOfNode:
		add(d.Expr)
	case FuncCallNode:
		add(d.Args...)
	case BinaryOpNode:
		add(d.Left, d.Right)
	case VarDeclNode:
		add(d.Value)
	case ReassignNode:
		add(d.Target, d.Value)
	case BranchNode:
		add(d.Cond...)
	case SwitchNode:
		add(d.Value)
	case CaseNode:
		add(d.Values...)
	case LoopNode:
		add(d.Init)
		add(d.Cond...)
	case IterNode:
		add(d.Source)
	case ReturnNode:
		add(d.Value)
	}
	return out
}

// Walk visits n and every node reachable through Children, depth first.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
