package lexer

import (
	"strings"
	"unicode"

	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/util"
)

type Lexer struct {
	source    []rune
	fileIndex int
	pos       int
	line      int
	column    int
	cfg       *config.Config
	rep       *util.Reporter
}

func NewLexer(source []rune, fileIndex int, cfg *config.Config, rep *util.Reporter) *Lexer {
	return &Lexer{
		source: source, fileIndex: fileIndex, line: 1, column: 1, cfg: cfg, rep: rep,
	}
}

// Tokenize drains the lexer, EOF included.
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) Next() token.Token {
	l.skipWhitespace()
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine)
	}

	if l.peek() == '/' && l.peekNext() == '/' && l.cfg.IsFeatureEnabled(config.FeatCComments) {
		return l.lineComment(startPos, startCol, startLine)
	}

	ch := l.peek()
	if unicode.IsLetter(ch) || ch == '_' {
		return l.identifierOrKeyword(startPos, startCol, startLine)
	}
	if unicode.IsDigit(ch) {
		return l.numberLiteral(startPos, startCol, startLine)
	}

	l.advance()
	switch ch {
	case '\n': return l.makeToken(token.Newline, "", startPos, startCol, startLine)
	case '(': return l.makeToken(token.LParen, "", startPos, startCol, startLine)
	case ')': return l.makeToken(token.RParen, "", startPos, startCol, startLine)
	case '{': return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
	case '}': return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
	case ';': return l.makeToken(token.Semi, "", startPos, startCol, startLine)
	case ',': return l.makeToken(token.Comma, "", startPos, startCol, startLine)
	case '|': return l.makeToken(token.Pipe, "", startPos, startCol, startLine)
	case '^': return l.makeToken(token.Caret, "", startPos, startCol, startLine)
	case '&': return l.makeToken(token.Amp, "", startPos, startCol, startLine)
	case '$': return l.makeToken(token.Dollar, "", startPos, startCol, startLine)
	case '@': return l.makeToken(token.At, "", startPos, startCol, startLine)
	case '=': return l.makeToken(token.Eq, "", startPos, startCol, startLine)
	case '<': return l.makeToken(token.Lt, "", startPos, startCol, startLine)
	case '>': return l.makeToken(token.Gt, "", startPos, startCol, startLine)
	case '!': return l.makeToken(token.Bang, "", startPos, startCol, startLine)
	case ':':
		if l.match(':') {
			return l.makeToken(token.DoubleColon, "", startPos, startCol, startLine)
		}
		return l.makeToken(token.Colon, "", startPos, startCol, startLine)
	case '[':
		return l.bracketGroup(startPos, startCol, startLine)
	case '"':
		return l.quoted('"', token.String, startPos, startCol, startLine)
	case '\'':
		return l.quoted('\'', token.Char, startPos, startCol, startLine)
	}

	tok := l.makeToken(token.EOF, "", startPos, startCol, startLine)
	l.rep.Error(tok, "Unexpected character: '%c'", ch)
	return tok
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value, FileIndex: l.fileIndex,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

// skipWhitespace leaves newlines in place; they come out as Newline tokens.
func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) lineComment(startPos, startCol, startLine int) token.Token {
	l.advance()
	l.advance()
	bodyStart := l.pos
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
	return l.makeToken(token.Comment, strings.TrimSpace(string(l.source[bodyStart:l.pos])), startPos, startCol, startLine)
}

// identifierOrKeyword accepts '.' inside names: field paths like p.x and
// namespaced functions like Point.len are single identifiers.
func (l *Lexer) identifierOrKeyword(startPos, startCol, startLine int) token.Token {
	for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' || l.peek() == '.' {
		l.advance()
	}
	value := string(l.source[startPos:l.pos])
	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		return l.makeToken(tokType, "", startPos, startCol, startLine)
	}
	return l.makeToken(token.Ident, value, startPos, startCol, startLine)
}

func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	for unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekNext()) {
		l.advance()
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	if unicode.IsLetter(l.peek()) || l.peek() == '_' {
		tok := l.makeToken(token.Int, "", startPos, startCol, startLine)
		l.rep.Error(tok, "Malformed number literal: unexpected '%c'", l.peek())
	}
	return l.makeToken(token.Int, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
}

// bracketGroup captures everything up to the matching ']' unparsed. The parser
// decides later whether it is arithmetic, an array literal, an array length or
// a loop modifier.
func (l *Lexer) bracketGroup(startPos, startCol, startLine int) token.Token {
	depth := 1
	bodyStart := l.pos
	for !l.isAtEnd() {
		switch l.peek() {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				body := strings.TrimSpace(string(l.source[bodyStart:l.pos]))
				l.advance()
				return l.makeToken(token.Int, body, startPos, startCol, startLine)
			}
		case '"', '\'':
			q := l.advance()
			l.skipQuoted(q)
			continue
		}
		l.advance()
	}
	l.rep.Error(l.makeToken(token.Int, "", startPos, startCol, startLine), "Unterminated '[' group")
	return token.Token{}
}

// quoted keeps escape sequences as written; the C back end re-emits them verbatim.
func (l *Lexer) quoted(quote rune, typ token.Type, startPos, startCol, startLine int) token.Token {
	bodyStart := l.pos
	if !l.skipQuoted(quote) {
		what := "string"
		if typ == token.Char {
			what = "character"
		}
		l.rep.Error(l.makeToken(typ, "", startPos, startCol, startLine), "Unterminated %s literal", what)
	}
	body := string(l.source[bodyStart : l.pos-1])
	if typ == token.Char && body == "" {
		l.rep.Error(l.makeToken(typ, "", startPos, startCol, startLine), "Empty character literal")
	}
	return l.makeToken(typ, body, startPos, startCol, startLine)
}

// skipQuoted consumes up to and including the closing quote.
func (l *Lexer) skipQuoted(quote rune) bool {
	for !l.isAtEnd() {
		c := l.advance()
		switch c {
		case '\\':
			l.advance()
		case '\n':
			return false
		case quote:
			return true
		}
	}
	return false
}
