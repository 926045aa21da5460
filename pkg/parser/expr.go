package parser

import (
	"strconv"
	"strings"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/lexer"
	"github.com/xplshn/impc/pkg/symbols"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/typeChecker"
	"github.com/xplshn/impc/pkg/types"
)

// parseExpr parses toks as one value expression. want, when known, types
// literals and array literal elements.
func (p *Parser) parseExpr(toks []token.Token, want types.Type) *ast.Node {
	if len(toks) == 0 {
		p.rep.Error(p.lastTok(), "Expected an expression")
	}
	c := newCursor(toks, p)
	n := p.parseUnary(c, want)
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' after expression '%s'", c.cur().Text(), ast.Format(n))
	}
	return n
}

func (p *Parser) parseUnary(c *cursor, want types.Type) *ast.Node {
	tok := c.cur()
	switch {
	case c.match(token.Amp):
		operand := p.parsePostfix(c, nil)
		if !isLValue(operand) {
			p.rep.Error(tok, "Cannot take the address of '%s'", ast.Format(operand))
		}
		return ast.NewAddressOf(tok, operand)
	case c.check(token.Caret), c.check(token.Dollar):
		return ast.NewTypeIDLit(tok, p.parseType(c, nil))
	}
	return p.parsePostfix(c, want)
}

func (p *Parser) parsePostfix(c *cursor, want types.Type) *ast.Node {
	n := p.parsePrimary(c, want)
	for {
		tok := c.cur()
		switch {
		case c.match(token.Caret):
			n = p.derefNode(tok, n)
		case c.match(token.Pipe):
			idx := p.parseExpr(c.untilPipe(tok), types.USize)
			n = p.indexNode(tok, n, idx)
		default:
			return n
		}
	}
}

func (p *Parser) derefNode(tok token.Token, n *ast.Node) *ast.Node {
	pt, ok := types.Resolved(n.Typ).(types.Pointer)
	if !ok {
		p.rep.Error(tok, "Cannot dereference '%s' of non-pointer type '%s'", ast.Format(n), typeString(n.Typ))
	}
	return ast.NewDeref(tok, n, pt.Elem)
}

func (p *Parser) indexNode(tok token.Token, n, idx *ast.Node) *ast.Node {
	base := types.Resolved(n.Typ)
	if _, ok := types.Elem(base); !ok || base == nil {
		p.rep.Error(tok, "Cannot index '%s' of type '%s'", ast.Format(n), typeString(n.Typ))
	}
	if idx.Type != ast.IntLit && !isNumericOrGeneric(idx.Typ) {
		p.rep.Error(tok, "Index '%s' is not numeric", ast.Format(idx))
	}
	return ast.NewArrayIndex(tok, n, idx, types.ArrayIndex{Base: base, Index: ast.Format(idx)})
}

func (p *Parser) parsePrimary(c *cursor, want types.Type) *ast.Node {
	tok := c.advance()
	switch tok.Type {
	case token.Int:
		return p.literal(tok, want)
	case token.String:
		return ast.NewStrLit(tok, tok.Value)
	case token.Char:
		return ast.NewCharLit(tok, tok.Value)
	case token.True, token.False:
		return ast.NewBoolLit(tok, tok.Type == token.True)
	case token.At:
		nameTok := c.expect(token.Ident, "Expected a macro name after '@'")
		if kind, ok := macroKinds[nameTok.Value]; !ok || kind != macroC {
			p.rep.Error(nameTok, "'@%s' cannot be used as a value", nameTok.Value)
		}
		code := c.expect(token.String, "'@c' takes exactly one string argument")
		return ast.NewCEmbed(tok, code.Value)
	case token.Ident:
		if c.check(token.LParen) {
			open := c.advance()
			return p.parseCall(tok, c.untilClose(open))
		}
		return p.identExpr(c, tok)
	}
	p.rep.Error(tok, "Unexpected '%s' in expression", tok.Text())
	return nil
}

// identExpr resolves a name to a variable, or to a type used as a typeid value.
func (p *Parser) identExpr(c *cursor, tok token.Token) *ast.Node {
	if v, ok := p.resolveVar(tok.Value); ok {
		return ast.NewVarRef(tok, v.Name, v.Flat, v.Type)
	}
	if p.isTypeName(tok.Value) {
		c.pos--
		return ast.NewTypeIDLit(tok, p.parseType(c, nil))
	}
	p.rep.Error(tok, "Unknown identifier '%s'", tok.Value)
	return nil
}

func (p *Parser) isTypeName(name string) bool {
	if _, ok := types.Lookup(name); ok {
		return true
	}
	return p.ctx.Structs.Has(name) || p.ctx.Enums.Has(name)
}

// resolveVar looks a possibly dotted name up under its canonical spelling.
func (p *Parser) resolveVar(name string) (symbols.Var, bool) {
	return p.ctx.Resolve(p.scope, p.ctx.Canonical(p.scope, name))
}

func (p *Parser) parseCall(tok token.Token, inner []token.Token) *ast.Node {
	name, sig, recv := p.resolveCallee(tok)
	offset := 0
	var args []*ast.Node
	if recv != nil {
		args = append(args, recv)
		offset = 1
	}
	for i, at := range splitTop(inner, token.Comma) {
		if len(at) == 0 {
			p.rep.Error(tok, "Empty argument %d in call to '%s'", i+1, name)
		}
		var want types.Type
		if j := i + offset; j < len(sig.Params) {
			want = sig.Params[j].Type
		}
		args = append(args, p.parseExpr(at, want))
	}
	return p.finishCall(tok, name, sig, args)
}

// resolveCallee finds the function tok names. For v.m(...) with v a struct
// value or pointer and S.m registered, it returns S.m and the receiver
// argument (&v or v).
func (p *Parser) resolveCallee(tok token.Token) (string, symbols.FuncSig, *ast.Node) {
	name := tok.Value
	if sig, ok := p.ctx.Functions.Get(name); ok {
		return name, sig, nil
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		base, method := name[:i], name[i+1:]
		if v, ok := p.resolveVar(base); ok {
			recvType := v.Type
			isPtr := false
			if pt, ok := recvType.(types.Pointer); ok {
				recvType, isPtr = pt.Elem, true
			}
			if named, ok := recvType.(types.Named); ok {
				full := named.Name + "." + method
				if sig, ok := p.ctx.Functions.Get(full); ok {
					if !p.cfg.IsFeatureEnabled(config.FeatMethodCalls) {
						p.rep.Error(tok, "Method call syntax is disabled; call '%s' directly (-Fmethod-calls)", full)
					}
					recv := ast.NewVarRef(tok, v.Name, v.Flat, v.Type)
					if !isPtr {
						recv = ast.NewAddressOf(tok, recv)
					}
					return full, sig, recv
				}
			}
		}
	}
	p.rep.Error(tok, "Call to undefined function '%s'", name)
	return "", symbols.FuncSig{}, nil
}

// finishCall type-checks a call and types it with the callee's return type,
// generic placeholders substituted.
func (p *Parser) finishCall(tok token.Token, name string, sig symbols.FuncSig, args []*ast.Node) *ast.Node {
	bindings, err := typeChecker.Resolve(args, name, p.ctx.Functions)
	if err != nil {
		p.typeErrorOrWarn(tok, "%v", err)
	}
	ret := sig.Return
	if ret == nil {
		ret = types.Void
	}
	return ast.NewFuncCall(tok, name, args, types.Substitute(ret, bindings))
}

// literal handles a number or a [ ... ] group: array literal when it holds a
// top-level comma, reduced arithmetic otherwise.
func (p *Parser) literal(tok token.Token, want types.Type) *ast.Node {
	raw := strings.TrimSpace(tok.Value)
	if raw == "" {
		p.rep.Error(tok, "Empty '[]' literal")
	}
	parts := splitRaw(raw)
	if len(parts) == 1 {
		return p.reduceIntLit(tok, raw, want)
	}
	if strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	var elemWant types.Type
	if want != nil {
		elemWant, _ = types.Elem(types.Resolved(want))
	}
	elems := make([]*ast.Node, len(parts))
	for i, part := range parts {
		if part = strings.TrimSpace(part); part != "" && strings.ContainsRune("-(0123456789", rune(part[0])) {
			elems[i] = p.reduceIntLit(tok, part, elemWant)
			continue
		}
		sub := p.subTokens(tok, part)
		if len(sub) == 0 {
			p.rep.Error(tok, "Empty element %d in array literal", i+1)
		}
		elems[i] = p.parseExpr(sub, elemWant)
	}

	elemType := elemWant
	if elemType == nil || types.HasGeneric(elemType) {
		elemType = elems[0].Typ
	}
	for i, e := range elems {
		if !typeChecker.Assignable(elemType, e) {
			p.typeErrorOrWarn(tok, "Array element %d has type '%s', want '%s'", i+1, typeString(e.Typ), typeString(elemType))
		}
	}
	return ast.NewArrayLit(tok, elems, types.Array{Elem: elemType, Length: strconv.Itoa(len(elems))})
}

// splitRaw splits the text of a [ ... ] group on top-level commas.
func splitRaw(raw string) []string {
	var parts []string
	depth, start := 0, 0
	var quote rune
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			switch r {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, string(runes[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, string(runes[start:]))
}

// subTokens lexes text found inside tok. Positions collapse onto tok so
// diagnostics point at the literal.
func (p *Parser) subTokens(tok token.Token, text string) []token.Token {
	var out []token.Token
	for _, t := range lexer.NewLexer([]rune(text), tok.FileIndex, p.cfg, p.rep).Tokenize() {
		if t.IsTrivia() || t.Type == token.EOF {
			continue
		}
		t.Line, t.Column, t.Len = tok.Line, tok.Column, tok.Len
		out = append(out, t)
	}
	return out
}

// parseCondition turns a condition header into its ordered operand and
// operator sequence: = < > ! and or, parentheses for grouping.
func (p *Parser) parseCondition(open token.Token, toks []token.Token) []*ast.Node {
	if len(toks) == 0 {
		p.rep.Error(open, "Empty condition")
	}
	var out []*ast.Node
	var operand []token.Token
	flush := func() {
		if len(operand) > 0 {
			out = append(out, p.parseExpr(operand, nil))
			operand = nil
		}
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case token.Eq, token.Lt, token.Gt, token.Bang, token.And, token.Or:
			flush()
			out = append(out, ast.NewCondOp(t, t.Type))
		case token.LParen:
			if n := len(operand); n > 0 && operand[n-1].Type == token.Ident {
				// Call arguments belong to the operand.
				j := matchParen(toks, i)
				if j < 0 {
					p.rep.Error(t, "Unmatched '('")
				}
				operand = append(operand, toks[i:j+1]...)
				i = j
				continue
			}
			flush()
			out = append(out, ast.NewCondOp(t, t.Type))
		case token.RParen:
			flush()
			out = append(out, ast.NewCondOp(t, t.Type))
		case token.Pipe:
			j := i + 1
			for j < len(toks) && toks[j].Type != token.Pipe {
				j++
			}
			if j == len(toks) {
				p.rep.Error(t, "Unmatched '|'")
			}
			operand = append(operand, toks[i:j+1]...)
			i = j
		default:
			operand = append(operand, t)
		}
	}
	flush()

	if last := out[len(out)-1]; last.Type == ast.CondOp {
		if op := last.Data.(ast.CondOpNode).Op; op != token.RParen {
			p.rep.Error(last.Tok, "Incomplete condition: nothing after '%s'", last.Tok.Text())
		}
	}
	return out
}

func matchParen(toks []token.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isLValue(n *ast.Node) bool {
	switch n.Type {
	case ast.VarRef, ast.Deref, ast.ArrayIndex:
		return true
	}
	return false
}

func isNumericOrGeneric(t types.Type) bool {
	t = types.Resolved(t)
	if _, ok := t.(types.Generic); ok {
		return true
	}
	return types.IsNumeric(t)
}

func isVoid(t types.Type) bool {
	pr, ok := t.(types.Prim)
	return ok && pr.P == types.VoidP
}

func typeString(t types.Type) string {
	if t == nil {
		return "none"
	}
	return t.String()
}
