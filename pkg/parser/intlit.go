package parser

import (
	"math/big"
	"strings"
	"unicode"

	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
)

type arithKind int

const (
	arithNum arithKind = iota
	arithIdent
	arithOp
)

type arithTok struct {
	kind arithKind
	text string
}

// scanArith splits the body of a [ ... ] literal.
func (p *Parser) scanArith(tok token.Token, raw string) []arithTok {
	var out []arithTok
	rs := []rune(raw)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (unicode.IsLetter(rs[i]) || rs[i] == '_') {
				p.rep.Error(tok, "Malformed number '%s' in literal", string(rs[start:i+1]))
			}
			if !isNumber(string(rs[start:i])) {
				p.rep.Error(tok, "Malformed number '%s' in literal", string(rs[start:i]))
			}
			out = append(out, arithTok{arithNum, string(rs[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_' || rs[i] == '.') {
				i++
			}
			out = append(out, arithTok{arithIdent, string(rs[start:i])})
		case strings.ContainsRune("+-*/%()|^,", r):
			out = append(out, arithTok{arithOp, string(r)})
			i++
		default:
			p.rep.Error(tok, "Unexpected character '%c' in literal", r)
		}
	}
	return out
}

// reducer parses arithmetic inside a literal. Operands must be numeric;
// integer operands that are literals or folded constants are computed here.
type reducer struct {
	p    *Parser
	tok  token.Token
	toks []arithTok
	pos  int
}

// reduceIntLit turns [ expr ] into an IntLit whose Value is folded when every
// operand is known.
func (p *Parser) reduceIntLit(tok token.Token, raw string, want types.Type) *ast.Node {
	r := &reducer{p: p, tok: tok, toks: p.scanArith(tok, raw)}
	n := r.sum()
	if r.pos < len(r.toks) {
		p.rep.Error(tok, "Unexpected '%s' in literal '[%s]'", r.toks[r.pos].text, raw)
	}
	if n.Type != ast.IntLit && !isNumericOrGeneric(n.Typ) {
		p.rep.Error(tok, "Literal '[%s]' is not numeric: '%s' has type '%s'", raw, ast.Format(n), typeString(n.Typ))
	}
	if n.Type == ast.IntLit {
		lit := n.Data.(ast.IntLitNode)
		if want != nil && types.IsNumeric(types.Resolved(want)) && lit.Expr == nil {
			return ast.NewIntLit(tok, lit.Value, nil, types.Resolved(want))
		}
		return n
	}
	return ast.NewIntLit(tok, ast.Format(n), n, n.Typ)
}

func (r *reducer) peek() string {
	if r.pos < len(r.toks) && r.toks[r.pos].kind == arithOp {
		return r.toks[r.pos].text
	}
	return ""
}

func (r *reducer) expect(op string) {
	if r.peek() != op {
		r.p.rep.Error(r.tok, "Expected '%s' in literal", op)
	}
	r.pos++
}

func (r *reducer) sum() *ast.Node {
	n := r.product()
	for op := r.peek(); op == "+" || op == "-"; op = r.peek() {
		r.pos++
		n = r.binary(rune(op[0]), n, r.product())
	}
	return n
}

func (r *reducer) product() *ast.Node {
	n := r.unary()
	for op := r.peek(); op == "*" || op == "/" || op == "%"; op = r.peek() {
		r.pos++
		n = r.binary(rune(op[0]), n, r.unary())
	}
	return n
}

func (r *reducer) unary() *ast.Node {
	if r.peek() == "-" {
		r.pos++
		operand := r.unary()
		zero := ast.NewIntLit(r.tok, "0", nil, types.Int)
		return r.binary('-', zero, operand)
	}
	return r.postfix()
}

func (r *reducer) postfix() *ast.Node {
	n := r.primary()
	for {
		switch r.peek() {
		case "^":
			r.pos++
			n = r.p.derefNode(r.tok, n)
		case "|":
			r.pos++
			idx := r.sum()
			r.expect("|")
			n = r.p.indexNode(r.tok, n, idx)
		default:
			return n
		}
	}
}

func (r *reducer) primary() *ast.Node {
	if r.pos >= len(r.toks) {
		r.p.rep.Error(r.tok, "Incomplete literal")
	}
	t := r.toks[r.pos]
	r.pos++
	switch t.kind {
	case arithNum:
		typ := types.Int
		if strings.Contains(t.text, ".") {
			typ = types.Prim{P: types.F64}
		}
		return ast.NewIntLit(r.tok, t.text, nil, typ)
	case arithIdent:
		if r.peek() == "(" {
			r.pos++
			return r.call(t.text)
		}
		return r.ident(t.text)
	}
	if t.text == "(" {
		n := r.sum()
		r.expect(")")
		return n
	}
	r.p.rep.Error(r.tok, "Unexpected '%s' in literal", t.text)
	return nil
}

func (r *reducer) ident(name string) *ast.Node {
	v, ok := r.p.resolveVar(name)
	if !ok {
		r.p.rep.Error(r.tok, "Unknown identifier '%s' in literal", name)
	}
	if v.Const && v.Value != "" && r.p.cfg.IsFeatureEnabled(config.FeatFold) {
		return ast.NewIntLit(r.tok, v.Value, nil, v.Type)
	}
	return ast.NewVarRef(r.tok, v.Name, v.Flat, v.Type)
}

func (r *reducer) call(name string) *ast.Node {
	callTok := r.tok
	callTok.Value = name
	fn, sig, recv := r.p.resolveCallee(callTok)
	var args []*ast.Node
	if recv != nil {
		args = append(args, recv)
	}
	if r.peek() != ")" {
		for {
			args = append(args, r.sum())
			if r.peek() != "," {
				break
			}
			r.pos++
		}
	}
	r.expect(")")
	return r.p.finishCall(callTok, fn, sig, args)
}

// binary combines two operands, folding integer literals.
func (r *reducer) binary(op rune, left, right *ast.Node) *ast.Node {
	for _, n := range []*ast.Node{left, right} {
		if !isNumericOrGeneric(n.Typ) {
			r.p.rep.Error(r.tok, "Operand '%s' of '%c' is not numeric (type '%s')", ast.Format(n), op, typeString(n.Typ))
		}
	}

	typ := resultType(left, right)
	if a, ok := intValue(left); ok && r.p.cfg.IsFeatureEnabled(config.FeatFold) {
		if b, ok := intValue(right); ok {
			return ast.NewIntLit(r.tok, r.fold(op, a, b).String(), nil, typ)
		}
	}
	if (op == '/' || op == '%') && isZero(right) {
		r.p.rep.Error(r.tok, "Division by zero in literal")
	}
	return ast.NewBinaryOp(r.tok, op, left, right, typ)
}

func (r *reducer) fold(op rune, a, b *big.Int) *big.Int {
	z := new(big.Int)
	switch op {
	case '+':
		z.Add(a, b)
	case '-':
		z.Sub(a, b)
	case '*':
		z.Mul(a, b)
	case '/', '%':
		if b.Sign() == 0 {
			r.p.rep.Error(r.tok, "Division by zero in literal")
		}
		if op == '/' {
			z.Quo(a, b)
		} else {
			z.Rem(a, b)
		}
	}
	bits := uint(r.p.cfg.WordSize * 8)
	lo := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
	hi := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	if z.Cmp(lo) < 0 || z.Cmp(hi) > 0 {
		r.p.rep.Warn(config.WarnOverflow, r.tok, "Literal value %s overflows a %d-bit word", z, bits)
	}
	return z
}

// resultType prefers a float operand, then the first non-literal operand.
func resultType(left, right *ast.Node) types.Type {
	for _, n := range []*ast.Node{left, right} {
		if pr, ok := types.Resolved(n.Typ).(types.Prim); ok && (pr.P == types.F32 || pr.P == types.F64) {
			return pr
		}
	}
	if left.Type == ast.IntLit && right.Type != ast.IntLit {
		return types.Resolved(right.Typ)
	}
	return types.Resolved(left.Typ)
}

// intValue reports a folded integer literal.
func intValue(n *ast.Node) (*big.Int, bool) {
	if n.Type != ast.IntLit {
		return nil, false
	}
	lit := n.Data.(ast.IntLitNode)
	if lit.Expr != nil || strings.Contains(lit.Value, ".") {
		return nil, false
	}
	return new(big.Int).SetString(lit.Value, 10)
}

func isZero(n *ast.Node) bool {
	v, ok := intValue(n)
	return ok && v.Sign() == 0
}
