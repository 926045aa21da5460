package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
)

// Entry is one emitted node together with where it came from.
type Entry struct {
	Node *Node
	File string
	Line int
}

// Program is the ordered output of a parse. It only grows while parsing.
type Program struct {
	Entries []Entry
}

func (p *Program) Append(n *Node, file string) {
	p.Entries = append(p.Entries, Entry{Node: n, File: file, Line: n.Tok.Line})
}

func (p *Program) Len() int { return len(p.Entries) }

// SanitizeName flattens a namespaced name: Point.len becomes Point__len.
func SanitizeName(name string) string { return strings.ReplaceAll(name, ".", "__") }

// Sanitize rewrites namespaced function and enum constant names into flat C
// identifiers. Field paths (p.x, q->x) are left alone.
func (p *Program) Sanitize() {
	for _, e := range p.Entries {
		sanitizeTree(e.Node)
	}
}

// sanitizeTree rewrites children first so a literal can re-derive its text
// from an already sanitized expression.
func sanitizeTree(n *Node) {
	if n == nil {
		return
	}
	for _, c := range Children(n) {
		sanitizeTree(c)
	}
	sanitizeNode(n)
}

func sanitizeNode(n *Node) {
	switch d := n.Data.(type) {
	case IntLitNode:
		if d.Expr != nil {
			d.Value = Format(d.Expr)
			n.Data = d
		}
	case FuncDefNode:
		d.Name = SanitizeName(d.Name)
		n.Data = d
	case FuncCallNode:
		d.Name = SanitizeName(d.Name)
		n.Data = d
	case VarRefNode:
		if d.Flat {
			d.Name = SanitizeName(d.Name)
			n.Data = d
		}
	case VarDeclNode:
		if d.Flat {
			d.Name = SanitizeName(d.Name)
			n.Data = d
		}
	}
}

// Dump writes one line per entry, indented by block depth.
func (p *Program) Dump(w io.Writer) error {
	depth := 0
	for _, e := range p.Entries {
		switch e.Node.Type {
		case EndBlock, EndStruct, EndEnum:
			if depth > 0 {
				depth--
			}
		}
		if _, err := fmt.Fprintf(w, "%s:%d\t%s%s\n", e.File, e.Line, strings.Repeat("  ", depth), Format(e.Node)); err != nil {
			return err
		}
		switch e.Node.Type {
		case FuncDef, MacroFuncDef, If, OrIf, Else, Switch, Case, Loop, Iter, BlockStart, StructName, EnumName:
			depth++
		}
	}
	return nil
}

func typeString(t types.Type) string {
	if t == nil {
		return "none"
	}
	return t.String()
}

func formatList(ns []*Node, sep string) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = Format(n)
	}
	return strings.Join(parts, sep)
}

func formatParams(ps []Param) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.Name + ": " + typeString(p.Type)
	}
	return strings.Join(parts, ", ")
}

var condOps = map[token.Type]string{
	token.Eq: "=", token.Lt: "<", token.Gt: ">", token.Bang: "!",
	token.And: "and", token.Or: "or", token.LParen: "(", token.RParen: ")",
}

// Format renders a node as a single line of impulse-like text.
func Format(n *Node) string {
	if n == nil {
		return ""
	}
	switch d := n.Data.(type) {
	case IntLitNode:
		return d.Value
	case CharLitNode:
		return "'" + d.Value + "'"
	case StrLitNode:
		return fmt.Sprintf("%q", d.Value)
	case BoolLitNode:
		return fmt.Sprint(d.Value)
	case TypeIDLitNode:
		return typeString(d.Type)
	case VarRefNode:
		return d.Name
	case ArrayLitNode:
		return "[" + formatList(d.Elems, ", ") + "]"
	case ArrayIndexNode:
		return Format(d.Array) + "|" + Format(d.Index) + "|"
	case DerefNode:
		return Format(d.Expr) + "^"
	case AddressOfNode:
		return "&" + Format(d.Expr)
	case FuncCallNode:
		return d.Name + "(" + formatList(d.Args, ", ") + ")"
	case BinaryOpNode:
		return "(" + Format(d.Left) + " " + string(d.Op) + " " + Format(d.Right) + ")"
	case CondOpNode:
		return condOps[d.Op]
	case CEmbedNode:
		return "@c " + fmt.Sprintf("%q", d.Code)
	case FuncDefNode:
		var attrs string
		if d.Inline {
			attrs += "@inline "
		}
		if d.Shared {
			attrs += "@shared "
		}
		return fmt.Sprintf("%s%s %s(%s): %s", attrs, n.Type, d.Name, formatParams(d.Params), typeString(d.Return))
	case VarDeclNode:
		kind := "VarDecl"
		if d.Const {
			kind = "ConstDecl"
		}
		s := fmt.Sprintf("%s %s: %s", kind, d.Name, typeString(d.Type))
		if d.Value != nil {
			s += " = " + Format(d.Value)
		}
		return s
	case ReassignNode:
		return "Reassign " + Format(d.Target) + " = " + Format(d.Value)
	case BranchNode:
		s := n.Type.String()
		if n.Type != Else {
			s += " (" + formatList(d.Cond, " ") + ")"
		}
		if d.Capture != "" {
			s += " |" + d.Capture + ": " + typeString(d.CaptureType) + "|"
		}
		return s
	case SwitchNode:
		return "Switch (" + Format(d.Value) + ")"
	case CaseNode:
		switch {
		case d.Default:
			return "Default"
		case d.Fallthrough:
			return "Fallthrough (" + formatList(d.Values, ", ") + ")"
		}
		return "Case (" + formatList(d.Values, ", ") + ")"
	case LoopNode:
		mods := [...]string{LoopNop: "_", LoopInc: "+", LoopDec: "-"}
		s := "Loop (" + formatList(d.Cond, " ") + ") [" + mods[d.Mod] + "]"
		if d.Init != nil {
			s += " init " + Format(d.Init)
		}
		return s
	case IterNode:
		s := "Iter " + d.Elem + ": " + typeString(d.ElemType)
		if d.Index != "" {
			s += ", " + d.Index + ": usize"
		}
		return s + " in " + Format(d.Source)
	case StructNameNode:
		return "StructName " + d.Name
	case StructDefNode:
		s := n.Type.String() + " " + d.Name
		if len(d.Generics) > 0 {
			s += "($" + strings.Join(d.Generics, " $") + ")"
		}
		return s + " {" + formatParams(d.Fields) + "}"
	case EndStructNode:
		return "EndStruct " + d.Name
	case EnumNameNode:
		return "EnumName " + d.Name
	case EnumDefNode:
		return "EnumDef " + d.Name + " {" + strings.Join(d.Fields, ", ") + "}"
	case EndEnumNode:
		return "EndEnum " + d.Name
	case CImportNode:
		return "CImport " + d.Path
	case ImportNode:
		return "Import " + d.Path
	case ReturnNode:
		if d.Value == nil {
			return "Return"
		}
		return "Return " + Format(d.Value)
	case BreakNode:
		return "Break"
	case ContinueNode:
		return "Continue"
	case BlockStartNode:
		return "BlockStart"
	case EndBlockNode:
		return "EndBlock"
	}
	return n.Type.String()
}
