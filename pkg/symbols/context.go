package symbols

import (
	"fmt"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/types"
)

type FuncSig struct {
	Name     string
	Return   types.Type
	Params   []ast.Param
	Generic  bool
	Inline   bool
	Shared   bool
	Variadic bool
	Method   string
}

type StructDef struct {
	Name     string
	Fields   []ast.Param
	Generics []string
	Methods  []string
}

// Field returns the declared type of a field.
func (s StructDef) Field(name string) (types.Type, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Bindings maps the struct's generic parameters to the arguments of t.
func (s StructDef) Bindings(t types.Named) map[string]types.Type {
	if len(s.Generics) == 0 {
		return nil
	}
	b := make(map[string]types.Type, len(s.Generics))
	for i, g := range s.Generics {
		if i < len(t.Generics) {
			b[g] = t.Generics[i]
		}
	}
	return b
}

type EnumDef struct {
	Name   string
	Fields []string
}

type (
	Functions = Table[FuncSig]
	Structs   = Table[StructDef]
	Enums     = Table[EnumDef]
	Globals   = Table[Var]
)

// Context is everything one compilation unit knows. Nested parses of imported
// files work on a Snapshot and are merged back afterwards.
type Context struct {
	Functions *Functions
	Structs   *Structs
	Enums     *Enums
	Globals   *Globals
	imported  map[uint64]string
}

// Builtins are callable without a declaration.
var Builtins = []FuncSig{
	{Name: "print", Return: types.Void, Variadic: true},
	{Name: "println", Return: types.Void, Variadic: true},
}

func NewContext() *Context {
	c := &Context{
		Functions: NewTable[FuncSig](),
		Structs:   NewTable[StructDef](),
		Enums:     NewTable[EnumDef](),
		Globals:   NewTable[Var](),
		imported:  make(map[uint64]string),
	}
	for _, b := range Builtins {
		c.Functions.Add(b.Name, b, "<builtin>")
	}
	return c
}

// Snapshot returns an independent copy for a nested parse.
func (c *Context) Snapshot() *Context {
	s := &Context{
		Functions: c.Functions.clone(),
		Structs:   c.Structs.clone(),
		Enums:     c.Enums.clone(),
		Globals:   c.Globals.clone(),
		imported:  make(map[uint64]string, len(c.imported)),
	}
	for k, v := range c.imported {
		s.imported[k] = v
	}
	return s
}

// DuplicateError reports one name defined by two different files.
type DuplicateError struct {
	Kind, Name, Have, Got string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s '%s' already defined in %s (redefined in %s)", e.Kind, e.Name, e.Have, e.Got)
}

// Merge brings back the entries a nested parse discovered, keyed by name and
// in discovery order.
func (c *Context) Merge(child *Context) error {
	conflict := func(kind string) func(name, have, got string) error {
		return func(name, have, got string) error {
			return &DuplicateError{Kind: kind, Name: name, Have: have, Got: got}
		}
	}
	if err := c.Structs.mergeFrom(child.Structs, conflict("struct")); err != nil {
		return err
	}
	if err := c.Enums.mergeFrom(child.Enums, conflict("enum")); err != nil {
		return err
	}
	if err := c.Functions.mergeFrom(child.Functions, conflict("function")); err != nil {
		return err
	}
	if err := c.Globals.mergeFrom(child.Globals, conflict("global")); err != nil {
		return err
	}
	for k, v := range child.imported {
		c.imported[k] = v
	}
	return nil
}

// MarkImported records a source key. It returns false if the key was seen before.
func (c *Context) MarkImported(key uint64, path string) bool {
	if _, ok := c.imported[key]; ok {
		return false
	}
	c.imported[key] = path
	return true
}

// DefinedIn names the file that defined a struct, enum or function, if any.
func (c *Context) DefinedIn(name string) (string, bool) {
	switch {
	case c.Structs.Has(name):
		return c.Structs.Origin(name), true
	case c.Enums.Has(name):
		return c.Enums.Origin(name), true
	case c.Functions.Has(name):
		return c.Functions.Origin(name), true
	}
	return "", false
}

// Resolve looks name up in the active frame first, then among globals and
// enum constants.
func (c *Context) Resolve(scope *ScopeStack, name string) (Var, bool) {
	if v, ok := scope.Lookup(name); ok {
		return v, true
	}
	return c.Globals.Get(name)
}

// Canonical is symbols.Canonical over Resolve.
func (c *Context) Canonical(scope *ScopeStack, name string) string {
	return Canonical(name, func(n string) (Var, bool) { return c.Resolve(scope, n) })
}
