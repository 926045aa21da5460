package typeChecker

import (
	"fmt"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/symbols"
	"github.com/xplshn/impc/pkg/types"
)

type ErrorKind int

const (
	WrongArgLength ErrorKind = iota
	WrongType
	GenericNotExist
	UnknownFunction
)

func (k ErrorKind) String() string {
	switch k {
	case WrongArgLength:
		return "WrongArgLength"
	case WrongType:
		return "WrongType"
	case GenericNotExist:
		return "GenericNotExist"
	case UnknownFunction:
		return "UnknownFunction"
	}
	return "Unknown"
}

// ArgError is a recoverable call-site mismatch. Pos is 1-based; for
// WrongArgLength, Got and Want are the argument and parameter counts.
type ArgError struct {
	Kind     ErrorKind
	Callee   string
	Pos      int
	Got      int
	Want     int
	GotType  types.Type
	WantType types.Type
	Generic  string
}

func (e *ArgError) Error() string {
	switch e.Kind {
	case WrongArgLength:
		return fmt.Sprintf("wrong number of arguments to '%s': got %d, want %d", e.Callee, e.Got, e.Want)
	case WrongType:
		return fmt.Sprintf("argument %d of '%s' has type '%s', want '%s'", e.Pos, e.Callee, typeName(e.GotType), typeName(e.WantType))
	case GenericNotExist:
		return fmt.Sprintf("argument %d of '%s' uses generic '$%s' before it is bound", e.Pos, e.Callee, e.Generic)
	case UnknownFunction:
		return fmt.Sprintf("call to undefined function '%s'", e.Callee)
	}
	return "argument error"
}

func typeName(t types.Type) string {
	if t == nil {
		return "none"
	}
	return t.String()
}

// Check reports whether args fit the parameters of callee.
func Check(args []*ast.Node, callee string, fns *symbols.Functions) error {
	_, err := Resolve(args, callee, fns)
	return err
}

// Resolve checks a call like Check and also returns the generic bindings the
// call established, keyed by placeholder name.
func Resolve(args []*ast.Node, callee string, fns *symbols.Functions) (map[string]types.Type, error) {
	sig, ok := fns.Get(callee)
	if !ok {
		return nil, &ArgError{Kind: UnknownFunction, Callee: callee}
	}
	if sig.Variadic {
		return nil, nil
	}
	if len(args) != len(sig.Params) {
		return nil, &ArgError{Kind: WrongArgLength, Callee: callee, Got: len(args), Want: len(sig.Params)}
	}

	declared := typeidParams(sig.Params)
	bindings := make(map[string]types.Type)
	for i, p := range sig.Params {
		arg := args[i]
		if g, ok := p.Type.(types.Generic); ok {
			if declared[g.Name] && p.Name == g.Name {
				bound, ok := typeidValue(arg)
				if !ok {
					return nil, &ArgError{Kind: WrongType, Callee: callee, Pos: i + 1, GotType: arg.Typ, WantType: types.TypeId}
				}
				bindings[g.Name] = bound
				continue
			}
		}

		want, missing := bind(p.Type, bindings, declared)
		if missing != "" {
			return nil, &ArgError{Kind: GenericNotExist, Callee: callee, Pos: i + 1, Generic: missing}
		}
		if g, ok := want.(types.Generic); ok && !declared[g.Name] {
			// Placeholders without a typeid parameter are inferred from their first use.
			bindings[g.Name] = types.Resolved(arg.Typ)
			continue
		}
		if !Assignable(want, arg) {
			return nil, &ArgError{Kind: WrongType, Callee: callee, Pos: i + 1, GotType: arg.Typ, WantType: want}
		}
	}
	return bindings, nil
}

// typeidParams collects the placeholders introduced by "$T: typeid" parameters.
func typeidParams(params []ast.Param) map[string]bool {
	out := make(map[string]bool)
	for _, p := range params {
		if g, ok := p.Type.(types.Generic); ok && p.Name == g.Name {
			out[g.Name] = true
		}
	}
	return out
}

// bind substitutes known bindings into t. A declared placeholder that is not
// bound yet is returned as missing.
func bind(t types.Type, bindings map[string]types.Type, declared map[string]bool) (types.Type, string) {
	missing := ""
	var walk func(types.Type)
	walk = func(t types.Type) {
		switch x := t.(type) {
		case types.Generic:
			if _, ok := bindings[x.Name]; !ok && declared[x.Name] && missing == "" {
				missing = x.Name
			}
		case types.Pointer:
			walk(x.Elem)
		case types.Array:
			walk(x.Elem)
		case types.Named:
			for _, g := range x.Generics {
				walk(g)
			}
		case types.ArrayIndex:
			walk(x.Base)
		}
	}
	walk(t)
	return types.Substitute(t, bindings), missing
}

// typeidValue is the type named by a typeid argument. A typeid variable, as
// found inside another generic function, binds to its own placeholder.
func typeidValue(arg *ast.Node) (types.Type, bool) {
	switch d := arg.Data.(type) {
	case ast.TypeIDLitNode:
		return d.Type, true
	case ast.VarRefNode:
		if t, ok := arg.Typ.(types.Prim); ok && t.P == types.TypeID {
			return types.Generic{Name: d.Name}, true
		}
	}
	return nil, false
}

// Assignable reports whether value can be passed or assigned where want is
// expected.
func Assignable(want types.Type, value *ast.Node) bool {
	want = types.Resolved(want)
	if p, ok := want.(types.Prim); ok && p.P == types.TypeID {
		_, ok := typeidValue(value)
		return ok || Compatible(want, value.Typ)
	}
	switch value.Type {
	case ast.CEmbed:
		return true
	case ast.StrLit:
		// String literals also initialize C strings.
		if p, ok := want.(types.Pointer); ok && types.Equal(p.Elem, types.Char) {
			return true
		}
	case ast.IntLit:
		switch want.(type) {
		case types.Pointer, types.Generic:
			return true
		}
		return types.IsNumeric(want) || isAny(want)
	}
	if value.Typ == nil {
		return false
	}
	return Compatible(want, value.Typ)
}

// Compatible is the structural compatibility relation between two types.
func Compatible(a, b types.Type) bool {
	a, b = types.Resolved(a), types.Resolved(b)
	if isAny(a) || isAny(b) {
		return true
	}
	if _, ok := a.(types.Generic); ok {
		return true
	}
	if _, ok := b.(types.Generic); ok {
		return true
	}
	if types.IsNumeric(a) && types.IsNumeric(b) {
		return true
	}

	switch x := a.(type) {
	case types.Pointer:
		switch y := b.(type) {
		case types.Pointer:
			return pointeesCompatible(types.Unwrap(x), types.Unwrap(y))
		case types.Array:
			return pointeesCompatible(types.Unwrap(x.Elem), types.Unwrap(y.Elem))
		}
		return false
	case types.Array:
		if y, ok := b.(types.Array); ok {
			return Compatible(x.Elem, y.Elem)
		}
		return false
	case types.Named:
		y, ok := b.(types.Named)
		return ok && x.Name == y.Name && len(x.Generics) == len(y.Generics)
	}
	return types.Equal(a, b)
}

func pointeesCompatible(a, b types.Type) bool {
	if isVoid(a) || isVoid(b) {
		return true
	}
	if _, ok := a.(types.Generic); ok {
		return true
	}
	if _, ok := b.(types.Generic); ok {
		return true
	}
	if x, ok := a.(types.Named); ok {
		y, ok := b.(types.Named)
		return ok && x.Name == y.Name && len(x.Generics) == len(y.Generics)
	}
	return types.Equal(a, b)
}

func isAny(t types.Type) bool {
	p, ok := t.(types.Prim)
	return ok && p.P == types.AnyP
}

func isVoid(t types.Type) bool {
	p, ok := t.(types.Prim)
	return ok && p.P == types.VoidP
}
