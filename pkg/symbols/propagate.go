package symbols

import (
	"errors"
	"fmt"

	"github.com/xplshn/impc/pkg/types"
)

// PropagationError wraps a failure to flatten the fields of base.
type PropagationError struct {
	Base string
	Err  error
}

func (e *PropagationError) Error() string { return fmt.Sprintf("%s: %v", e.Base, e.Err) }
func (e *PropagationError) Unwrap() error { return e.Err }

var ErrUnexpectedPropagation = errors.New("unexpected expression during field propagation")

// Propagate declares one pseudo-variable per reachable field of the struct t
// into the top frame, named base.field, or base->field when base is a pointer.
// Struct-typed fields expand recursively; pointer links to a struct already on
// the expansion path stop there so self-referential structs terminate. Enums
// declare nothing.
func (c *Context) Propagate(scope *ScopeStack, base string, t types.Named, isPointerBase, isConst bool) error {
	return c.propagate(scope, base, t, isPointerBase, isConst, map[string]bool{})
}

func (c *Context) propagate(scope *ScopeStack, base string, t types.Named, isPointerBase, isConst bool, path map[string]bool) error {
	if c.Enums.Has(t.Name) {
		return nil
	}
	def, ok := c.Structs.Get(t.Name)
	if !ok {
		return &PropagationError{Base: base, Err: ErrUnexpectedPropagation}
	}

	path[t.Name] = true
	defer delete(path, t.Name)

	sep := "."
	if isPointerBase {
		sep = "->"
	}
	bindings := def.Bindings(t)
	for _, f := range def.Fields {
		name := base + sep + f.Name
		ft := types.Substitute(f.Type, bindings)
		if _, err := scope.Declare(Var{Name: name, Type: ft, Const: isConst}); err != nil {
			return &PropagationError{Base: name, Err: err}
		}
		if err := c.propagateField(scope, name, ft, isConst, path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) propagateField(scope *ScopeStack, name string, ft types.Type, isConst bool, path map[string]bool) error {
	switch x := ft.(type) {
	case types.Named:
		if c.Structs.Has(x.Name) && !path[x.Name] {
			return c.propagate(scope, name, x, false, isConst, path)
		}
	case types.Pointer:
		n, ok := x.Elem.(types.Named)
		if ok && c.Structs.Has(n.Name) && !path[n.Name] {
			return c.propagate(scope, name, n, true, isConst, path)
		}
	}
	// Primitives, enums, fixed arrays and deeper pointers are leaves.
	return nil
}
