package parser

import (
	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/lexer"
	"github.com/xplshn/impc/pkg/module"
	"github.com/xplshn/impc/pkg/symbols"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/types"
	"github.com/xplshn/impc/pkg/util"
)

type blockKind int

const (
	blockFunc blockKind = iota
	blockStruct
	blockEnum
	blockIf
	blockElse
	blockSwitch
	blockCase
	blockLoop
	blockIter
	blockDefer
	blockBare
)

var blockNames = [...]string{
	blockFunc: "function", blockStruct: "struct", blockEnum: "enum", blockIf: "if",
	blockElse: "else", blockSwitch: "switch", blockCase: "case", blockLoop: "loop",
	blockIter: "for", blockDefer: "defer", blockBare: "block",
}

type block struct {
	kind  blockKind
	tok   token.Token
	frame bool       // a scope frame was pushed for this block
	value types.Type // switch value type, checked against case values
}

// funcState describes the function whose body is being parsed.
type funcState struct {
	name     string
	ret      types.Type
	generics map[string]bool
	depth    int // block depth of the function body
	method   string
}

// recordState collects a struct or enum while its body is open.
type recordState struct {
	kind       blockKind
	name       string
	tok        token.Token
	generics   []string
	fields     []ast.Param
	enumFields []string
	fieldsOpen bool
}

// Parser turns the token stream of one file into Program entries, updating the
// symbol registries as it goes. Every error is fatal and reported through the
// Reporter.
type Parser struct {
	cfg    *config.Config
	rep    *util.Reporter
	ctx    *symbols.Context
	scope  *symbols.ScopeStack
	loader module.Loader
	prog   *ast.Program

	file      string
	fileIndex int
	toks      []token.Token
	buf       []token.Token

	blocks   []block
	closedIf bool
	fn       *funcState
	record   *recordState
	defers   deferScheduler
}

// NewParser creates a parser with a fresh compilation context.
func NewParser(cfg *config.Config, rep *util.Reporter, loader module.Loader) *Parser {
	return newParser(cfg, rep, loader, symbols.NewContext())
}

func newParser(cfg *config.Config, rep *util.Reporter, loader module.Loader, ctx *symbols.Context) *Parser {
	return &Parser{
		cfg:    cfg,
		rep:    rep,
		ctx:    ctx,
		scope:  symbols.NewScopeStack(),
		loader: loader,
		prog:   &ast.Program{},
		defers: newDeferScheduler(),
	}
}

// Context exposes the registries built so far.
func (p *Parser) Context() *symbols.Context { return p.ctx }

// ParseFile parses a root file: the builtin module is imported first when the
// builtin feature is on.
func (p *Parser) ParseFile(path string, src []rune) *ast.Program {
	p.ctx.MarkImported(module.Key(path), path)
	p.begin(path, src)
	if p.cfg.IsFeatureEnabled(config.FeatBuiltin) {
		p.importModule(token.Token{FileIndex: p.fileIndex, Line: 1, Column: 1}, module.BuiltinPath)
	}
	p.run()
	return p.prog
}

func (p *Parser) begin(path string, src []rune) {
	p.file = path
	p.fileIndex = p.rep.AddFile(path, src)
	p.toks = lexer.NewLexer(src, p.fileIndex, p.cfg, p.rep).Tokenize()
}

// run consumes the token stream. Tokens are buffered until '{', ';' or '}'
// decide what they form.
func (p *Parser) run() {
	for _, tok := range p.toks {
		if tok.IsTrivia() {
			continue
		}
		switch tok.Type {
		case token.LBrace:
			buf := p.buf
			p.buf = nil
			p.openBlock(buf, tok)
		case token.Semi:
			buf := p.buf
			p.buf = nil
			if len(buf) > 0 {
				p.statement(buf, tok)
			}
		case token.RBrace:
			if len(p.buf) > 0 {
				p.rep.Error(p.buf[len(p.buf)-1], "Expected ';' before '}'")
			}
			p.closeBlock(tok)
		case token.EOF:
			if len(p.buf) > 0 {
				p.rep.Error(p.buf[len(p.buf)-1], "Unexpected end of file: expected ';' or '{'")
			}
			if len(p.blocks) > 0 {
				open := p.blocks[len(p.blocks)-1]
				p.rep.Error(open.tok, "Unexpected end of file: %d unclosed block(s), innermost is this %s", len(p.blocks), blockNames[open.kind])
			}
			return
		default:
			p.buf = append(p.buf, tok)
		}
	}
}

// emit appends n to the Program, or to the open defer group.
func (p *Parser) emit(n *ast.Node) {
	if p.defers.active() {
		p.defers.record(n)
		return
	}
	p.prog.Append(n, p.file)
}

func (p *Parser) depth() int { return len(p.blocks) }

func (p *Parser) top() (block, bool) {
	if len(p.blocks) == 0 {
		return block{}, false
	}
	return p.blocks[len(p.blocks)-1], true
}

func (p *Parser) pushBlock(kind blockKind, tok token.Token, frame bool) {
	if frame {
		fk := symbols.BlockFrame
		if kind == blockFunc {
			fk = symbols.FuncFrame
		}
		p.scope.Push(fk)
	}
	p.blocks = append(p.blocks, block{kind: kind, tok: tok, frame: frame})
}

// inLoop reports whether break/continue have a target inside the current function.
func (p *Parser) inLoop() bool {
	for i := len(p.blocks) - 1; i >= 0; i-- {
		switch p.blocks[i].kind {
		case blockLoop, blockIter, blockSwitch, blockCase:
			return true
		case blockFunc, blockDefer:
			return false
		}
	}
	return false
}

// typeErrorOrWarn is fatal under strict-types and a -Wtype warning otherwise.
func (p *Parser) typeErrorOrWarn(tok token.Token, format string, args ...interface{}) {
	if p.cfg.IsFeatureEnabled(config.FeatStrictTypes) {
		p.rep.Error(tok, format, args...)
		return
	}
	p.rep.Warn(config.WarnType, tok, format, args...)
}

// checkName rejects names that cannot be declared.
func (p *Parser) checkName(tok token.Token) string {
	if tok.Type != token.Ident {
		p.rep.Error(tok, "Expected a name, found '%s'", tok.Text())
	}
	if types.IsKeyword(tok.Value) {
		p.rep.Error(tok, "Invalid name: '%s' is a type keyword", tok.Value)
	}
	return tok.Value
}
