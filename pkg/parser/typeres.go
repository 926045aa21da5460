package parser

import (
	"strings"

	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
)

// resolveType maps type syntax to a Type: ^* base [(generic args)] [[len]].
func (p *Parser) resolveType(toks []token.Token) types.Type {
	return p.resolveTypeWith(toks, nil)
}

// resolveTypeWith is resolveType for signatures: a $X placeholder seen there is
// added to declare instead of being rejected.
func (p *Parser) resolveTypeWith(toks []token.Token, declare map[string]bool) types.Type {
	if len(toks) == 0 {
		p.rep.Error(p.lastTok(), "Expected a type")
	}
	c := newCursor(toks, p)
	t := p.parseType(c, declare)
	if !c.atEnd() {
		p.rep.Error(c.cur(), "Unexpected '%s' in type", c.cur().Text())
	}
	return t
}

func (p *Parser) parseType(c *cursor, declare map[string]bool) types.Type {
	levels := 0
	for c.match(token.Caret) {
		levels++
	}

	var base types.Type
	switch {
	case c.check(token.Dollar):
		c.advance()
		name := c.expect(token.Ident, "Expected a generic name after '$'")
		base = p.placeholder(name, declare)
	case c.check(token.Ident):
		base = p.resolveBase(c, declare)
	default:
		p.rep.Error(c.cur(), "Can't convert '%s' to a type", c.cur().Text())
	}
	t := types.PointerTo(base, levels)

	if c.check(token.Int) {
		length := c.advance()
		t = types.Array{Elem: t, Length: p.arrayLength(length)}
	}
	return t
}

func (p *Parser) placeholder(tok token.Token, declare map[string]bool) types.Type {
	name := tok.Value
	if declare != nil {
		declare[name] = true
		return types.Generic{Name: name}
	}
	if !p.genericKnown(name) {
		p.rep.Error(tok, "Unresolved generic '$%s'", name)
	}
	return types.Generic{Name: name}
}

// genericKnown reports placeholders usable in the current context.
func (p *Parser) genericKnown(name string) bool {
	if p.record != nil {
		for _, g := range p.record.generics {
			if g == name {
				return true
			}
		}
	}
	if p.fn != nil && p.fn.generics[name] {
		return true
	}
	return false
}

func (p *Parser) resolveBase(c *cursor, declare map[string]bool) types.Type {
	tok := c.advance()
	name := tok.Value

	if t, ok := types.Lookup(name); ok && !p.ctx.Structs.Has(name) {
		return t
	}
	if p.record != nil && p.record.kind == blockStruct && name == p.record.name {
		// Self reference inside the struct's own body, e.g. next: ^Node.
		return types.Named{Name: name, Generics: genericsOf(p.record.generics)}
	}
	if def, ok := p.ctx.Structs.Get(name); ok {
		var args []types.Type
		if c.check(token.LParen) {
			open := c.advance()
			inner := c.untilClose(open)
			args = p.resolveGenericArgs(open, inner, declare)
		}
		if len(args) != len(def.Generics) {
			p.rep.Error(tok, "Struct '%s' takes %d generic argument(s), got %d", name, len(def.Generics), len(args))
		}
		return types.Named{Name: name, Generics: args}
	}
	if p.ctx.Enums.Has(name) {
		return types.Named{Name: name}
	}
	if v, ok := p.ctx.Resolve(p.scope, name); ok && isTypeID(v.Type) {
		return types.Generic{Name: name}
	}
	p.rep.Error(tok, "Unknown identifier '%s': can't convert to a type", name)
	return nil
}

// resolveGenericArgs walks a generic argument list. Each argument is a type
// keyword, a typeid variable, a placeholder or a registered struct, optionally
// behind pointer levels.
func (p *Parser) resolveGenericArgs(open token.Token, toks []token.Token, declare map[string]bool) []types.Type {
	var out []types.Type
	c := newCursor(toks, p)
	for !c.atEnd() {
		if c.match(token.Comma) {
			continue
		}
		out = append(out, p.parseType(c, declare))
	}
	if len(out) == 0 {
		p.rep.Error(open, "Empty generic argument list")
	}
	return out
}

func (p *Parser) arrayLength(tok token.Token) string {
	raw := strings.TrimSpace(tok.Value)
	if raw == "" || isNumber(raw) {
		return raw
	}
	v, ok := p.ctx.Resolve(p.scope, raw)
	if !ok {
		p.rep.Error(tok, "Unknown identifier '%s' in array length", raw)
	}
	if !v.Const || !types.IsInteger(v.Type) {
		p.rep.Error(tok, "Array length '%s' must be an integer constant", raw)
	}
	if v.Value != "" {
		return v.Value
	}
	return raw
}

func genericsOf(names []string) []types.Type {
	if len(names) == 0 {
		return nil
	}
	out := make([]types.Type, len(names))
	for i, n := range names {
		out[i] = types.Generic{Name: n}
	}
	return out
}

func isTypeID(t types.Type) bool {
	pr, ok := t.(types.Prim)
	return ok && pr.P == types.TypeID
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !dot && i > 0:
			dot = true
		default:
			return false
		}
	}
	return true
}
