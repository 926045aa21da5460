package parser

import "github.com/xplshn/impc/pkg/token"

// cursor walks a buffered statement or block header.
type cursor struct {
	toks []token.Token
	pos  int
	p    *Parser
}

func newCursor(toks []token.Token, p *Parser) *cursor {
	return &cursor{toks: toks, p: p}
}

func (c *cursor) atEnd() bool { return c.pos >= len(c.toks) }

// cur returns the current token, or the last one once the cursor is exhausted.
func (c *cursor) cur() token.Token {
	if c.atEnd() {
		if len(c.toks) == 0 {
			return c.p.lastTok()
		}
		return c.toks[len(c.toks)-1]
	}
	return c.toks[c.pos]
}

func (c *cursor) peek() token.Token {
	if c.pos+1 < len(c.toks) {
		return c.toks[c.pos+1]
	}
	return token.Token{Type: token.EOF}
}

func (c *cursor) advance() token.Token {
	tok := c.cur()
	if !c.atEnd() {
		c.pos++
	}
	return tok
}

func (c *cursor) check(t token.Type) bool { return !c.atEnd() && c.toks[c.pos].Type == t }

func (c *cursor) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) expect(t token.Type, message string) token.Token {
	if !c.check(t) {
		c.p.rep.Error(c.cur(), "%s", message)
	}
	return c.advance()
}

// rest returns the unconsumed tokens and exhausts the cursor.
func (c *cursor) rest() []token.Token {
	out := c.toks[c.pos:]
	c.pos = len(c.toks)
	return out
}

// untilClose returns the tokens up to the ')' matching an already consumed
// '(' and consumes that ')'.
func (c *cursor) untilClose(open token.Token) []token.Token {
	depth := 1
	start := c.pos
	for !c.atEnd() {
		switch c.toks[c.pos].Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				inner := c.toks[start:c.pos]
				c.pos++
				return inner
			}
		}
		c.pos++
	}
	c.p.rep.Error(open, "Unmatched '('")
	return nil
}

// untilPipe returns the tokens up to the next '|' outside parentheses and
// consumes it.
func (c *cursor) untilPipe(open token.Token) []token.Token {
	depth := 0
	start := c.pos
	for !c.atEnd() {
		switch c.toks[c.pos].Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		case token.Pipe:
			if depth == 0 {
				inner := c.toks[start:c.pos]
				c.pos++
				return inner
			}
		}
		c.pos++
	}
	c.p.rep.Error(open, "Unmatched '|'")
	return nil
}

// splitTop splits toks on top-level separators of type sep.
func splitTop(toks []token.Token, sep token.Type) [][]token.Token {
	if len(toks) == 0 {
		return nil
	}
	var out [][]token.Token
	depth, pipes, start := 0, 0, 0
	for i, t := range toks {
		switch t.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		case token.Pipe:
			pipes ^= 1
		case sep:
			if depth == 0 && pipes == 0 {
				out = append(out, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(out, toks[start:])
}

// indexTop finds the first top-level token of type t, or -1.
func indexTop(toks []token.Token, t token.Type) int {
	depth := 0
	for i, tok := range toks {
		switch tok.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		case t:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *Parser) lastTok() token.Token {
	if len(p.toks) == 0 {
		return token.Token{FileIndex: p.fileIndex}
	}
	return p.toks[len(p.toks)-1]
}
