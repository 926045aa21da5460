package parser

import (
	"strconv"
	"strings"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/symbols"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/typeChecker"
	"github.com/xplshn/impc/pkg/types"
)

// openBlock classifies the tokens buffered before a '{'.
func (p *Parser) openBlock(h []token.Token, brace token.Token) {
	afterIf := p.closedIf
	p.closedIf = false

	if len(h) == 0 {
		p.bareBlock(brace)
		return
	}
	if p.record != nil && p.record.kind == blockEnum {
		p.rep.Error(h[0], "Nothing may be nested inside enum '%s'", p.record.name)
	}
	if b, ok := p.top(); ok && b.kind == blockSwitch {
		switch h[0].Type {
		case token.Case, token.Fallthrough, token.Default:
		default:
			p.rep.Error(h[0], "Only 'case', 'fallthrough' and 'default' blocks may appear inside a switch")
		}
	}

	switch h[0].Type {
	case token.At:
		p.funcDef(h, brace)
	case token.If:
		p.branch(h, brace, ast.If)
	case token.OrIf, token.Else:
		if !afterIf {
			p.rep.Error(h[0], "'%s' must directly follow an 'if' or 'orif' block", h[0].Text())
		}
		kind := ast.OrIf
		if h[0].Type == token.Else {
			kind = ast.Else
		}
		p.branch(h, brace, kind)
	case token.Switch:
		p.switchBlock(h, brace)
	case token.Case, token.Fallthrough, token.Default:
		p.caseBlock(h, brace)
	case token.Loop:
		p.loopBlock(h, brace)
	case token.For:
		p.iterBlock(h, brace)
	case token.Defer:
		p.deferBlock(h, brace)
	case token.Ident:
		if len(h) >= 3 && h[1].Type == token.DoubleColon {
			switch h[2].Type {
			case token.Struct:
				p.structDef(h, brace)
			case token.Enum:
				p.enumDef(h, brace)
			case token.LParen:
				p.funcDef(h, brace)
			default:
				p.rep.Error(h[2], "Expected 'struct', 'enum' or a parameter list after '::'")
			}
			return
		}
		p.rep.Error(h[0], "Expected a block header before '{', found '%s'", h[0].Value)
	default:
		p.rep.Error(h[0], "Unexpected '%s' before '{'", h[0].Text())
	}
}

// closeBlock ends the innermost block. Deferred groups of that block run
// before its EndBlock.
func (p *Parser) closeBlock(tok token.Token) {
	b, ok := p.top()
	if !ok {
		p.rep.Error(tok, "Unmatched '}'")
	}
	p.blocks = p.blocks[:len(p.blocks)-1]
	p.closedIf = b.kind == blockIf

	switch b.kind {
	case blockStruct:
		if p.record.fieldsOpen {
			p.finishStructFields()
		}
		p.record = nil
		return
	case blockEnum:
		p.finishEnum()
		p.record = nil
		return
	case blockDefer:
		p.defers.end(p.depth())
		p.scope.Pop()
		return
	}

	for _, n := range p.defers.flush(p.depth() + 1) {
		p.emit(n)
	}
	p.emit(ast.NewEndBlock(tok))
	if b.frame {
		p.scope.Pop()
	}

	if b.kind == blockFunc {
		p.defers.drop(p.depth() + 1)
		p.fn = nil
	}
}

// requireFunc rejects control flow outside of function bodies.
func (p *Parser) requireFunc(tok token.Token) {
	if p.fn != nil {
		return
	}
	if p.record != nil {
		p.rep.Error(tok, "'%s' is not allowed inside %s '%s'", tok.Text(), blockNames[p.record.kind], p.record.name)
	}
	p.rep.Error(tok, "'%s' is only allowed inside a function", tok.Text())
}

func (p *Parser) bareBlock(brace token.Token) {
	if p.fn == nil {
		p.rep.Error(brace, "Unexpected block outside of a function")
	}
	p.emit(ast.NewBlockStart(brace))
	p.pushBlock(blockBare, brace, true)
}

func (p *Parser) funcDef(h []token.Token, brace token.Token) {
	c := newCursor(h, p)
	var inline, shared bool
	for c.match(token.At) {
		nameTok := c.expect(token.Ident, "Expected a macro name after '@'")
		kind, ok := macroKinds[nameTok.Value]
		switch {
		case !ok:
			p.rep.Error(nameTok, "Unknown macro '@%s'", nameTok.Value)
		case kind == macroInline:
			inline = true
		case kind == macroShared:
			shared = true
		default:
			p.rep.Error(nameTok, "'@%s' cannot precede a function definition", nameTok.Value)
		}
	}

	nameTok := c.expect(token.Ident, "Expected a function name")
	name := p.checkName(nameTok)
	c.expect(token.DoubleColon, "Expected '::' after the function name")
	open := c.expect(token.LParen, "Expected '(' to start the parameter list")
	paramToks := c.untilClose(open)

	if p.fn != nil {
		p.rep.Error(nameTok, "Nested function definitions are not allowed")
	}
	if strings.Contains(name, ".") {
		p.rep.Error(nameTok, "Invalid function name '%s'", name)
	}

	generics := make(map[string]bool)
	var params []ast.Param
	var ptoks []token.Token
	method := ""
	if r := p.record; r != nil {
		if r.kind != blockStruct {
			p.rep.Error(nameTok, "Functions cannot be defined inside enum '%s'", r.name)
		}
		if r.fieldsOpen {
			p.finishStructFields()
		}
		method = r.name
		name = method + "." + name
		for _, g := range r.generics {
			generics[g] = true
		}
		self := types.Pointer{Elem: types.Named{Name: method, Generics: genericsOf(r.generics)}}
		params = append(params, ast.Param{Name: "self", Type: self})
		ptoks = append(ptoks, nameTok)
	} else if p.depth() > 0 {
		p.rep.Error(nameTok, "Function definitions are only allowed at the top level")
	}

	seen := make(map[string]bool)
	for _, pt := range splitTop(paramToks, token.Comma) {
		param := p.param(open, pt, generics)
		if seen[param.Name] || (method != "" && param.Name == "self") {
			p.rep.Error(pt[0], "Duplicate parameter '%s'", param.Name)
		}
		seen[param.Name] = true
		params = append(params, param)
		ptoks = append(ptoks, pt[0])
	}

	var ret types.Type = types.Void
	if c.match(token.Colon) {
		ret = p.resolveTypeWith(c.rest(), generics)
	}
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' in function header", c.cur().Text())
	}

	if origin, dup := p.ctx.DefinedIn(name); dup {
		p.rep.Error(nameTok, "'%s' already defined in %s", name, origin)
	}

	generic := types.HasGeneric(ret)
	for _, prm := range params {
		generic = generic || types.HasGeneric(prm.Type)
	}
	sig := symbols.FuncSig{Name: name, Return: ret, Params: params, Generic: generic, Inline: inline, Shared: shared, Method: method}
	p.ctx.Functions.Add(name, sig, p.file)
	if method != "" {
		def, _ := p.ctx.Structs.Get(method)
		def.Methods = append(def.Methods, name)
		p.ctx.Structs.Add(method, def, p.ctx.Structs.Origin(method))
	}

	p.emit(ast.NewFuncDef(nameTok, ast.FuncDefNode{
		Name: name, Params: params, Return: ret, Inline: inline, Shared: shared, Generic: generic, Method: method,
	}))
	p.pushBlock(blockFunc, brace, true)
	p.fn = &funcState{name: name, ret: ret, generics: generics, depth: p.depth(), method: method}

	for i, prm := range params {
		v := symbols.Var{Name: prm.Name, Type: prm.Type}
		if g, ok := prm.Type.(types.Generic); ok && g.Name == prm.Name {
			v.Type = types.TypeId
		}
		p.declare(ptoks[i], v)
	}
}

// param parses "name: type" or "$T: typeid".
func (p *Parser) param(open token.Token, toks []token.Token, generics map[string]bool) ast.Param {
	if len(toks) == 0 {
		p.rep.Error(open, "Empty parameter in parameter list")
	}
	c := newCursor(toks, p)
	if c.match(token.Dollar) {
		g := c.expect(token.Ident, "Expected a generic name after '$'")
		c.expect(token.Colon, "Expected ':' after the generic name")
		kind := c.expect(token.Ident, "Expected 'typeid'")
		if kind.Value != "typeid" || !c.atEnd() {
			p.rep.Error(kind, "Generic parameter '$%s' must have type 'typeid'", g.Value)
		}
		generics[g.Value] = true
		return ast.Param{Name: g.Value, Type: types.Generic{Name: g.Value}}
	}
	nameTok := c.expect(token.Ident, "Expected a parameter name")
	name := p.checkName(nameTok)
	c.expect(token.Colon, "Expected ':' after the parameter name")
	t := p.resolveTypeWith(c.rest(), generics)
	if isVoid(t) {
		p.rep.Error(nameTok, "Parameter '%s' cannot have type 'void'", name)
	}
	return ast.Param{Name: name, Type: t}
}

func (p *Parser) structDef(h []token.Token, brace token.Token) {
	nameTok := h[0]
	name := p.checkName(nameTok)
	switch {
	case p.fn != nil:
		p.rep.Error(nameTok, "Struct definitions are not allowed inside a function")
	case p.record != nil:
		p.rep.Error(nameTok, "Nested struct definitions are not allowed")
	case strings.Contains(name, "."):
		p.rep.Error(nameTok, "Invalid struct name '%s'", name)
	}
	if origin, dup := p.ctx.DefinedIn(name); dup {
		p.rep.Error(nameTok, "'%s' already defined in %s", name, origin)
	}

	c := newCursor(h[3:], p)
	var generics []string
	if c.check(token.LParen) {
		open := c.advance()
		gc := newCursor(c.untilClose(open), p)
		for !gc.atEnd() {
			if gc.match(token.Comma) {
				continue
			}
			gc.expect(token.Dollar, "Struct generics are written '$Name'")
			g := gc.expect(token.Ident, "Expected a generic name after '$'")
			generics = append(generics, g.Value)
		}
		if len(generics) == 0 {
			p.rep.Error(open, "Empty generic parameter list")
		}
	}
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' in struct header", c.cur().Text())
	}

	p.record = &recordState{kind: blockStruct, name: name, tok: nameTok, generics: generics, fieldsOpen: true}
	p.emit(ast.NewStructName(nameTok, name))
	p.pushBlock(blockStruct, brace, false)
}

// finishStructFields registers the struct once its field list is complete:
// at the first method or at the closing brace.
func (p *Parser) finishStructFields() {
	r := p.record
	r.fieldsOpen = false
	p.ctx.Structs.Add(r.name, symbols.StructDef{Name: r.name, Fields: r.fields, Generics: r.generics}, p.file)
	p.emit(ast.NewStructDef(r.tok, r.name, r.generics, r.fields))
	p.emit(ast.NewEndStruct(r.tok, r.name))
}

func (p *Parser) enumDef(h []token.Token, brace token.Token) {
	nameTok := h[0]
	name := p.checkName(nameTok)
	switch {
	case p.fn != nil:
		p.rep.Error(nameTok, "Enum definitions are not allowed inside a function")
	case p.record != nil:
		p.rep.Error(nameTok, "Enum definitions cannot be nested")
	case strings.Contains(name, "."):
		p.rep.Error(nameTok, "Invalid enum name '%s'", name)
	case len(h) > 3:
		p.rep.Error(h[3], "Unexpected '%s' in enum header", h[3].Text())
	}
	if origin, dup := p.ctx.DefinedIn(name); dup {
		p.rep.Error(nameTok, "'%s' already defined in %s", name, origin)
	}
	p.record = &recordState{kind: blockEnum, name: name, tok: nameTok}
	p.emit(ast.NewEnumName(nameTok, name))
	p.pushBlock(blockEnum, brace, false)
}

// finishEnum registers the enum, its constants E.F and E.field_count.
func (p *Parser) finishEnum() {
	r := p.record
	p.ctx.Enums.Add(r.name, symbols.EnumDef{Name: r.name, Fields: r.enumFields}, p.file)
	p.emit(ast.NewEnumDef(r.tok, r.name, r.enumFields))

	self := types.Named{Name: r.name}
	for _, f := range r.enumFields {
		full := r.name + "." + f
		p.ctx.Globals.Add(full, symbols.Var{Name: full, Type: self, Const: true, Flat: true}, p.file)
	}
	count := strconv.Itoa(len(r.enumFields))
	countName := r.name + ".field_count"
	p.ctx.Globals.Add(countName, symbols.Var{Name: countName, Type: types.Int, Const: true, Flat: true, Value: count}, p.file)
	p.emit(ast.NewVarDecl(r.tok, ast.VarDeclNode{
		Name: countName, Type: types.Int, Value: ast.NewIntLit(r.tok, count, nil, types.Int),
		Const: true, Global: true, Flat: true,
	}))
	p.emit(ast.NewEndEnum(r.tok, r.name))
}

// branch handles if, orif and else headers. if/orif may capture the value of
// an Option: if (opt) |v| { ... }.
func (p *Parser) branch(h []token.Token, brace token.Token, kind ast.NodeType) {
	p.requireFunc(h[0])
	c := newCursor(h[1:], p)

	var cond []*ast.Node
	var capTok token.Token
	var capType types.Type
	hasCapture := false
	if kind != ast.Else {
		open := c.expect(token.LParen, "Expected '(' after '"+h[0].Text()+"'")
		condToks := c.untilClose(open)
		if c.match(token.Pipe) {
			capTok = c.expect(token.Ident, "Expected a capture name between '|'")
			c.expect(token.Pipe, "Expected '|' after the capture name")
			hasCapture = true
		}
		cond = p.parseCondition(open, condToks)
		if hasCapture {
			p.checkName(capTok)
			capType = p.captureType(capTok, cond)
		}
	}
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' after condition", c.cur().Text())
	}

	capture := ""
	if hasCapture {
		capture = capTok.Value
	}
	p.emit(ast.NewBranch(h[0], kind, cond, capture, capType))
	bk := blockIf
	if kind == ast.Else {
		bk = blockElse
	}
	p.pushBlock(bk, brace, true)
	if hasCapture {
		p.declare(capTok, symbols.Var{Name: capture, Type: capType})
	}
}

// captureType is the type of the captured Option's value field.
func (p *Parser) captureType(capTok token.Token, cond []*ast.Node) types.Type {
	if len(cond) != 1 || cond[0].Type != ast.VarRef {
		p.rep.Error(capTok, "A capture needs a condition that is a single Option variable")
	}
	src := cond[0]
	if n, ok := src.Typ.(types.Named); !ok || n.Name != "Option" {
		p.rep.Error(src.Tok, "Cannot capture from '%s' of type '%s': not an Option", ast.Format(src), typeString(src.Typ))
	}
	name := src.Data.(ast.VarRefNode).Name
	v, ok := p.resolveVar(name + ".value")
	if !ok {
		p.rep.Error(src.Tok, "'%s' has no field 'value'", name)
	}
	return v.Type
}

func (p *Parser) switchBlock(h []token.Token, brace token.Token) {
	p.requireFunc(h[0])
	c := newCursor(h[1:], p)
	open := c.expect(token.LParen, "Expected '(' after 'switch'")
	inner := c.untilClose(open)
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' after switch value", c.cur().Text())
	}
	value := p.parseExpr(inner, nil)
	p.emit(ast.NewSwitch(h[0], value))
	p.pushBlock(blockSwitch, brace, true)
	p.blocks[len(p.blocks)-1].value = types.Resolved(value.Typ)
}

func (p *Parser) caseBlock(h []token.Token, brace token.Token) {
	sw, ok := p.top()
	if !ok || sw.kind != blockSwitch {
		p.rep.Error(h[0], "'%s' outside of a switch", h[0].Text())
	}
	var values []*ast.Node
	if h[0].Type == token.Default {
		if len(h) > 1 {
			p.rep.Error(h[1], "'default' takes no values")
		}
	} else {
		c := newCursor(h[1:], p)
		open := c.expect(token.LParen, "Expected '(' after '"+h[0].Text()+"'")
		inner := c.untilClose(open)
		if !c.atEnd() {
			p.rep.Error(c.cur(), "Unexpected '%s' after case values", c.cur().Text())
		}
		if len(inner) == 0 {
			p.rep.Error(open, "'%s' needs at least one value", h[0].Text())
		}
		for _, vt := range splitTop(inner, token.Comma) {
			v := p.parseExpr(vt, sw.value)
			if sw.value != nil && !typeChecker.Assignable(sw.value, v) {
				p.typeErrorOrWarn(v.Tok, "Case value '%s' of type '%s' does not match switch type '%s'", ast.Format(v), typeString(v.Typ), typeString(sw.value))
			}
			values = append(values, v)
		}
	}
	p.emit(ast.NewCase(h[0], values, h[0].Type == token.Fallthrough, h[0].Type == token.Default))
	p.pushBlock(blockCase, brace, true)
}

// loopBlock handles loop (cond) [mod]. A first operand naming no visible
// variable declares a usize counter, initialized to 0, in the loop's scope.
func (p *Parser) loopBlock(h []token.Token, brace token.Token) {
	p.requireFunc(h[0])
	c := newCursor(h[1:], p)
	open := c.expect(token.LParen, "Expected '(' after 'loop'")
	condToks := c.untilClose(open)
	mod := ast.LoopNop
	if c.check(token.Int) {
		m := c.advance()
		switch strings.TrimSpace(m.Value) {
		case "+":
			mod = ast.LoopInc
		case "-":
			mod = ast.LoopDec
		case "_", "":
		default:
			p.rep.Error(m, "Loop modifier must be '+', '-' or '_', found '%s'", m.Value)
		}
	}
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' after loop condition", c.cur().Text())
	}
	if len(condToks) == 0 {
		p.rep.Error(open, "Empty loop condition")
	}

	p.pushBlock(blockLoop, brace, true)

	var init *ast.Node
	counter := ""
	first := condToks[0]
	isCall := len(condToks) > 1 && condToks[1].Type == token.LParen
	if first.Type == token.Ident && !isCall {
		if _, ok := p.resolveVar(first.Value); !ok && !strings.Contains(first.Value, ".") && !p.isTypeName(first.Value) {
			name := p.checkName(first)
			p.declare(first, symbols.Var{Name: name, Type: types.USize})
			init = ast.NewVarDecl(first, ast.VarDeclNode{Name: name, Type: types.USize, Value: ast.NewIntLit(first, "0", nil, types.USize)})
		}
		counter = p.ctx.Canonical(p.scope, first.Value)
	}
	cond := p.parseCondition(open, condToks)

	if mod != ast.LoopNop {
		v, ok := p.resolveVar(counter)
		if counter == "" || !ok || !types.IsNumeric(v.Type) {
			p.rep.Error(first, "A loop with a '+' or '-' modifier must start its condition with a numeric variable")
		}
	}
	p.emit(ast.NewLoop(h[0], init, counter, cond, mod))
}

// iterBlock handles for (x[, i] in src).
func (p *Parser) iterBlock(h []token.Token, brace token.Token) {
	p.requireFunc(h[0])
	c := newCursor(h[1:], p)
	open := c.expect(token.LParen, "Expected '(' after 'for'")
	inner := c.untilClose(open)
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' after iterator header", c.cur().Text())
	}

	ic := newCursor(inner, p)
	elemTok := ic.expect(token.Ident, "Expected a loop variable after 'for ('")
	elem := p.checkName(elemTok)
	index := ""
	var idxTok token.Token
	if ic.match(token.Comma) {
		idxTok = ic.expect(token.Ident, "Expected an index name after ','")
		index = p.checkName(idxTok)
		if index == elem {
			p.rep.Error(idxTok, "Index and element cannot both be named '%s'", elem)
		}
	}
	ic.expect(token.In, "Expected 'in' in iterator header")
	srcToks := ic.rest()
	if len(srcToks) == 0 {
		p.rep.Error(open, "Expected a value to iterate over")
	}
	src := p.parseExpr(srcToks, nil)
	elemType := p.iterElem(src)

	p.emit(ast.NewIter(h[0], elem, index, elemType, src))
	p.pushBlock(blockIter, brace, true)
	p.declare(elemTok, symbols.Var{Name: elem, Type: elemType})
	if index != "" {
		p.declare(idxTok, symbols.Var{Name: index, Type: types.USize})
	}
}

func (p *Parser) iterElem(src *ast.Node) types.Type {
	t := types.Resolved(src.Typ)
	switch x := t.(type) {
	case types.Array:
		return x.Elem
	case types.Named:
		if e, ok := types.Elem(x); ok {
			return e
		}
	}
	p.rep.Error(src.Tok, "Cannot iterate over '%s' of type '%s'", ast.Format(src), typeString(t))
	return nil
}

func (p *Parser) deferBlock(h []token.Token, brace token.Token) {
	p.requireFunc(h[0])
	if len(h) > 1 {
		p.rep.Error(h[1], "Unexpected '%s' after 'defer'", h[1].Text())
	}
	if p.defers.active() {
		p.rep.Error(h[0], "Nested defer blocks are not allowed")
	}
	p.pushBlock(blockDefer, brace, true)
	p.defers.begin()
}
