package types

import (
	"strings"
)

type Kind int

const (
	PrimKind Kind = iota
	PointerKind
	ArrayKind
	NamedKind
	GenericKind
	ArrayIndexKind
)

// Type is the interface for all types of the language. The set of variants is
// closed: only this package can add one.
type Type interface {
	String() string
	Kind() Kind
	sealed()
}

type Primitive int

const (
	None Primitive = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	Uint
	IntP
	Usize
	F32
	F64
	BoolP
	CharP
	VoidP
	AnyP
	TypeID
)

var primNames = [...]string{
	None: "none", U8: "u8", I8: "i8", U16: "u16", I16: "i16", U32: "u32", I32: "i32",
	U64: "u64", I64: "i64", Uint: "uint", IntP: "int", Usize: "usize", F32: "f32",
	F64: "f64", BoolP: "bool", CharP: "char", VoidP: "void", AnyP: "any", TypeID: "typeid",
}

func (p Primitive) String() string { return primNames[p] }

// Common types, comparable by value.
var (
	Unset  Type = Prim{None}
	Int    Type = Prim{IntP}
	USize  Type = Prim{Usize}
	Bool   Type = Prim{BoolP}
	Char   Type = Prim{CharP}
	Void   Type = Prim{VoidP}
	Any    Type = Prim{AnyP}
	TypeId Type = Prim{TypeID}
	Str    Type = Named{Name: "string"}
)

// Prim is a keyword type: sized and unsized integers, floats, bool, char,
// void, any, typeid and the unset marker none.
type Prim struct {
	P Primitive
}

func (p Prim) String() string { return p.P.String() }
func (p Prim) Kind() Kind     { return PrimKind }
func (Prim) sealed()          {}

type Pointer struct {
	Elem Type
}

func (p Pointer) String() string { return "^" + p.Elem.String() }
func (p Pointer) Kind() Kind     { return PointerKind }
func (Pointer) sealed()          {}

// Array is a fixed array. Length is kept as written; it may name a constant.
type Array struct {
	Elem   Type
	Length string
}

func (a Array) String() string { return a.Elem.String() + "[" + a.Length + "]" }
func (a Array) Kind() Kind     { return ArrayKind }
func (Array) sealed()          {}

// Named is a struct or enum, optionally instantiated with generic arguments.
type Named struct {
	Name     string
	Generics []Type
}

func (n Named) String() string {
	if len(n.Generics) == 0 {
		return n.Name
	}
	return n.Name + "(" + Join(n.Generics, " ") + ")"
}
func (n Named) Kind() Kind { return NamedKind }
func (Named) sealed()      {}

// Generic is an unbound placeholder such as $T.
type Generic struct {
	Name string
}

func (g Generic) String() string { return "$" + g.Name }
func (g Generic) Kind() Kind     { return GenericKind }
func (Generic) sealed()          {}

// ArrayIndex is the transient type of base|index|.
type ArrayIndex struct {
	Base  Type
	Index string
}

func (a ArrayIndex) String() string { return a.Base.String() + "|" + a.Index + "|" }
func (a ArrayIndex) Kind() Kind     { return ArrayIndexKind }
func (ArrayIndex) sealed()          {}

var keywords = map[string]Primitive{}

func init() {
	for p, name := range primNames {
		if Primitive(p) != None {
			keywords[name] = Primitive(p)
		}
	}
}

// Lookup maps a type keyword to its type. "string" is the builtin string struct.
func Lookup(name string) (Type, bool) {
	if p, ok := keywords[name]; ok {
		return Prim{p}, true
	}
	if name == "string" {
		return Str, true
	}
	return nil, false
}

// IsKeyword reports whether name is reserved as a primitive type name.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

func Join(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

// IsNumeric reports membership in the integer/float/char family.
func IsNumeric(t Type) bool {
	p, ok := t.(Prim)
	if !ok {
		return false
	}
	return p.P >= U8 && p.P <= F64 || p.P == CharP
}

func IsInteger(t Type) bool {
	p, ok := t.(Prim)
	return ok && p.P >= U8 && p.P <= Usize
}

// Unwrap strips every pointer level.
func Unwrap(t Type) Type {
	for {
		p, ok := t.(Pointer)
		if !ok {
			return t
		}
		t = p.Elem
	}
}

// PointerTo wraps t in n pointer levels.
func PointerTo(t Type, n int) Type {
	for i := 0; i < n; i++ {
		t = Pointer{Elem: t}
	}
	return t
}

func IsPointer(t Type) bool {
	_, ok := t.(Pointer)
	return ok
}

// Equal is structural equality.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case Prim:
		y, ok := b.(Prim)
		return ok && x.P == y.P
	case Pointer:
		y, ok := b.(Pointer)
		return ok && Equal(x.Elem, y.Elem)
	case Array:
		y, ok := b.(Array)
		return ok && x.Length == y.Length && Equal(x.Elem, y.Elem)
	case Named:
		y, ok := b.(Named)
		if !ok || x.Name != y.Name || len(x.Generics) != len(y.Generics) {
			return false
		}
		for i := range x.Generics {
			if !Equal(x.Generics[i], y.Generics[i]) {
				return false
			}
		}
		return true
	case Generic:
		y, ok := b.(Generic)
		return ok && x.Name == y.Name
	case ArrayIndex:
		y, ok := b.(ArrayIndex)
		return ok && x.Index == y.Index && Equal(x.Base, y.Base)
	}
	return false
}

// Substitute replaces generic placeholders that have a binding.
func Substitute(t Type, bindings map[string]Type) Type {
	if len(bindings) == 0 {
		return t
	}
	switch x := t.(type) {
	case Generic:
		if b, ok := bindings[x.Name]; ok {
			return b
		}
		return x
	case Pointer:
		return Pointer{Elem: Substitute(x.Elem, bindings)}
	case Array:
		return Array{Elem: Substitute(x.Elem, bindings), Length: x.Length}
	case Named:
		if len(x.Generics) == 0 {
			return x
		}
		gs := make([]Type, len(x.Generics))
		for i, g := range x.Generics {
			gs[i] = Substitute(g, bindings)
		}
		return Named{Name: x.Name, Generics: gs}
	case ArrayIndex:
		return ArrayIndex{Base: Substitute(x.Base, bindings), Index: x.Index}
	}
	return t
}

// HasGeneric reports whether an unbound placeholder occurs anywhere in t.
func HasGeneric(t Type) bool {
	switch x := t.(type) {
	case Generic:
		return true
	case Pointer:
		return HasGeneric(x.Elem)
	case Array:
		return HasGeneric(x.Elem)
	case Named:
		for _, g := range x.Generics {
			if HasGeneric(g) {
				return true
			}
		}
	case ArrayIndex:
		return HasGeneric(x.Base)
	}
	return false
}

// Containers lists the builtin generic structs that can be indexed and iterated.
var Containers = map[string]bool{"array": true, "dynam": true}

// Elem returns the element type produced by indexing or iterating t.
func Elem(t Type) (Type, bool) {
	switch x := t.(type) {
	case Array:
		return x.Elem, true
	case Pointer:
		return x.Elem, true
	case Named:
		if x.Name == "string" && len(x.Generics) == 0 {
			return Char, true
		}
		if Containers[x.Name] && len(x.Generics) == 1 {
			return x.Generics[0], true
		}
	case ArrayIndex:
		return Elem(x.Base)
	}
	return nil, false
}

// Resolved collapses an ArrayIndex view to the type of the indexed element.
func Resolved(t Type) Type {
	if ai, ok := t.(ArrayIndex); ok {
		if e, ok := Elem(ai.Base); ok {
			return e
		}
	}
	return t
}
