package parser

import (
	"strconv"
	"strings"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/symbols"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/typeChecker"
	"github.com/xplshn/impc/pkg/types"
)

// statement classifies the tokens buffered before a ';'.
func (p *Parser) statement(h []token.Token, semi token.Token) {
	p.closedIf = false
	if p.record != nil && p.fn == nil {
		p.recordField(h)
		return
	}
	if b, ok := p.top(); ok && b.kind == blockSwitch {
		p.rep.Error(h[0], "Statements inside a switch must be in a 'case' or 'default' block")
	}

	first := h[0]
	switch first.Type {
	case token.At:
		p.macroStatement(h)
		return
	case token.Return:
		p.returnStmt(h)
		return
	case token.Break, token.Continue:
		p.jumpStmt(h)
		return
	}
	if len(h) >= 2 && first.Type == token.Ident {
		switch h[1].Type {
		case token.Colon:
			p.varDecl(h, false)
			return
		case token.DoubleColon:
			p.varDecl(h, true)
			return
		}
	}
	if eq := indexTop(h, token.Eq); eq >= 0 {
		p.reassign(h[:eq], h[eq+1:], h[eq])
		return
	}
	p.exprStatement(h)
}

// recordField adds a field to the struct or enum being defined.
func (p *Parser) recordField(h []token.Token) {
	r := p.record
	nameTok := h[0]
	if r.kind == blockEnum {
		if len(h) != 1 || nameTok.Type != token.Ident {
			p.rep.Error(nameTok, "Enum fields are single names")
		}
		name := p.checkName(nameTok)
		for _, f := range r.enumFields {
			if f == name {
				p.rep.Error(nameTok, "Duplicate field '%s' in enum '%s'", name, r.name)
			}
		}
		r.enumFields = append(r.enumFields, name)
		return
	}

	if !r.fieldsOpen {
		p.rep.Error(nameTok, "Fields of struct '%s' must come before its methods", r.name)
	}
	if len(h) < 3 || h[1].Type != token.Colon {
		p.rep.Error(nameTok, "Struct fields are declared as 'name: type'")
	}
	name := p.checkName(nameTok)
	if strings.Contains(name, ".") {
		p.rep.Error(nameTok, "Invalid field name '%s'", name)
	}
	for _, f := range r.fields {
		if f.Name == name {
			p.rep.Error(nameTok, "Duplicate field '%s' in struct '%s'", name, r.name)
		}
	}
	t := p.resolveType(h[2:])
	if isVoid(t) {
		p.rep.Error(nameTok, "Field '%s' cannot have type 'void'", name)
	}
	r.fields = append(r.fields, ast.Param{Name: name, Type: t})
}

// varDecl handles "x: T [= v]" and the constant form "X :: T = v".
func (p *Parser) varDecl(h []token.Token, isConst bool) {
	nameTok := h[0]
	name := p.checkName(nameTok)
	if strings.Contains(name, ".") {
		p.rep.Error(nameTok, "Invalid name '%s': declarations cannot contain '.'", name)
	}

	rest := h[2:]
	typeToks, valToks := rest, []token.Token(nil)
	if eq := indexTop(rest, token.Eq); eq >= 0 {
		typeToks, valToks = rest[:eq], rest[eq+1:]
		if len(valToks) == 0 {
			p.rep.Error(rest[eq], "Expected a value after '='")
		}
	} else if isConst {
		p.rep.Error(nameTok, "Constant '%s' declared without a value", name)
	}
	if len(typeToks) == 0 {
		p.rep.Error(h[1], "Expected a type for '%s'", name)
	}

	t := p.resolveType(typeToks)
	if isVoid(t) {
		p.rep.Error(nameTok, "Cannot declare '%s' of type 'void'", name)
	}

	var value *ast.Node
	if valToks != nil {
		value = p.parseExpr(valToks, t)
		t = p.inferLength(nameTok, t, value)
		if !typeChecker.Assignable(t, value) {
			p.typeErrorOrWarn(valToks[0], "Cannot use '%s' (type '%s') as the value of '%s' (type '%s')", ast.Format(value), typeString(value.Typ), name, typeString(t))
		}
	}

	global := p.fn == nil
	v := symbols.Var{Name: name, Type: t, Const: isConst, Value: constValue(isConst, value)}
	p.declare(nameTok, v)
	p.emit(ast.NewVarDecl(nameTok, ast.VarDeclNode{Name: name, Type: t, Value: value, Const: isConst, Global: global}))
}

// inferLength fills an unsized array type from an array literal value.
func (p *Parser) inferLength(tok token.Token, t types.Type, value *ast.Node) types.Type {
	arr, ok := t.(types.Array)
	if !ok || value.Type != ast.ArrayLit {
		return t
	}
	n := len(value.Data.(ast.ArrayLitNode).Elems)
	if arr.Length == "" {
		arr.Length = strconv.Itoa(n)
		return arr
	}
	if size, err := strconv.Atoi(arr.Length); err == nil && n > size {
		p.rep.Error(tok, "Too many elements: %d given for an array of %d", n, size)
	}
	return t
}

// constValue is the folded literal text of a constant, used for array sizes
// and folding.
func constValue(isConst bool, value *ast.Node) string {
	if !isConst || value == nil || value.Type != ast.IntLit {
		return ""
	}
	lit := value.Data.(ast.IntLitNode)
	if lit.Expr != nil {
		return ""
	}
	return lit.Value
}

// declare binds v in the active scope and propagates struct fields. At the
// top level the variable and its fields become globals.
func (p *Parser) declare(tok token.Token, v symbols.Var) {
	if existing, ok := p.ctx.Resolve(p.scope, v.Name); ok && existing.Const {
		p.rep.Error(tok, "Cannot redeclare constant '%s'", v.Name)
	}
	if origin, dup := p.ctx.DefinedIn(v.Name); dup {
		p.rep.Error(tok, "Cannot declare '%s': already defined in %s", v.Name, origin)
	}

	if p.fn == nil && p.depth() == 0 {
		if p.ctx.Globals.Has(v.Name) {
			p.rep.Error(tok, "'%s' already defined in %s", v.Name, p.ctx.Globals.Origin(v.Name))
		}
		tmp := symbols.NewScopeStack()
		_, _ = tmp.Declare(v)
		p.propagate(tok, tmp, v)
		for _, gv := range tmp.Top().Declared() {
			p.ctx.Globals.Add(gv.Name, gv, p.file)
		}
		return
	}

	shadowed, err := p.scope.Declare(v)
	if err != nil {
		p.rep.Error(tok, "'%s' redeclared in this block", v.Name)
	}
	if shadowed {
		p.rep.Warn(config.WarnShadow, tok, "Declaration of '%s' shadows an outer declaration", v.Name)
	}
	p.propagate(tok, p.scope, v)
}

func (p *Parser) propagate(tok token.Token, scope *symbols.ScopeStack, v symbols.Var) {
	var err error
	switch x := v.Type.(type) {
	case types.Named:
		if p.ctx.Structs.Has(x.Name) {
			err = p.ctx.Propagate(scope, v.Name, x, false, v.Const)
		}
	case types.Pointer:
		if n, ok := x.Elem.(types.Named); ok && p.ctx.Structs.Has(n.Name) {
			err = p.ctx.Propagate(scope, v.Name, n, true, v.Const)
		}
	}
	if err != nil {
		p.rep.Error(tok, "%v", err)
	}
}

func (p *Parser) reassign(lhs, rhs []token.Token, eq token.Token) {
	if len(lhs) == 0 {
		p.rep.Error(eq, "Expected a target before '='")
	}
	p.requireFunc(lhs[0])
	if len(rhs) == 0 {
		p.rep.Error(eq, "Expected a value after '='")
	}

	target := p.parseExpr(lhs, nil)
	if !isLValue(target) {
		p.rep.Error(lhs[0], "Cannot assign to '%s'", ast.Format(target))
	}
	if root := rootVar(target); root != "" {
		if v, ok := p.ctx.Resolve(p.scope, root); ok && v.Const {
			p.rep.Error(lhs[0], "Cannot assign to constant '%s'", root)
		}
	}

	want := types.Resolved(target.Typ)
	value := p.parseExpr(rhs, want)
	if !typeChecker.Assignable(want, value) {
		p.typeErrorOrWarn(rhs[0], "Cannot assign '%s' (type '%s') to '%s' (type '%s')", ast.Format(value), typeString(value.Typ), ast.Format(target), typeString(want))
	}
	p.emit(ast.NewReassign(lhs[0], target, value))
}

// rootVar names the variable an assignment writes into, looking through
// array indexing. Writes through a dereference are not attributed.
func rootVar(n *ast.Node) string {
	for {
		switch d := n.Data.(type) {
		case ast.VarRefNode:
			return d.Name
		case ast.ArrayIndexNode:
			n = d.Array
		default:
			return ""
		}
	}
}

func (p *Parser) exprStatement(h []token.Token) {
	p.requireFunc(h[0])
	n := p.parseExpr(h, nil)
	switch n.Type {
	case ast.FuncCall, ast.CEmbed:
		p.emit(n)
	default:
		p.rep.Warn(config.WarnExtra, h[0], "Statement '%s' has no effect", ast.Format(n))
	}
}

func (p *Parser) returnStmt(h []token.Token) {
	ret := h[0]
	if p.fn == nil {
		p.rep.Error(ret, "'return' outside of a function")
	}
	if p.defers.active() {
		p.rep.Error(ret, "'return' is not allowed inside a defer block")
	}

	var value *ast.Node
	switch {
	case len(h) > 1:
		value = p.parseExpr(h[1:], p.fn.ret)
		if isVoid(p.fn.ret) {
			p.typeErrorOrWarn(ret, "Function '%s' returns no value", p.fn.name)
		} else if !typeChecker.Assignable(p.fn.ret, value) {
			p.typeErrorOrWarn(h[1], "Cannot return '%s' (type '%s') from '%s' (returns '%s')", ast.Format(value), typeString(value.Typ), p.fn.name, typeString(p.fn.ret))
		}
	case !isVoid(p.fn.ret):
		p.typeErrorOrWarn(ret, "Function '%s' must return a value of type '%s'", p.fn.name, typeString(p.fn.ret))
	}

	if p.cfg.IsFeatureEnabled(config.FeatDeferReturn) {
		for _, n := range p.defers.pending(p.depth(), p.fn.depth) {
			p.emit(n)
		}
	}
	p.emit(ast.NewReturn(ret, value))
}

func (p *Parser) jumpStmt(h []token.Token) {
	tok := h[0]
	p.requireFunc(tok)
	if len(h) > 1 {
		p.rep.Error(h[1], "Unexpected '%s' after '%s'", h[1].Text(), tok.Text())
	}
	if !p.inLoop() {
		p.rep.Error(tok, "'%s' outside of a loop", tok.Text())
	}
	if tok.Type == token.Break {
		p.emit(ast.NewBreak(tok))
		return
	}
	p.emit(ast.NewContinue(tok))
}
