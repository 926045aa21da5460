package parser

import (
	"github.com/xplshn/impc/pkg/ast"
	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/module"
	"github.com/xplshn/impc/pkg/token"
)

type macroKind int

const (
	macroImport macroKind = iota
	macroC
	macroInline
	macroShared
)

var macroKinds = map[string]macroKind{
	"import": macroImport,
	"c":      macroC,
	"inline": macroInline,
	"shared": macroShared,
}

// statementMacros handle macros used as statements. Attribute macros are
// absent: they only prefix function definitions.
var statementMacros map[macroKind]func(p *Parser, name token.Token, arg token.Token)

func init() {
	statementMacros = map[macroKind]func(p *Parser, name token.Token, arg token.Token){
		macroImport: (*Parser).importMacro,
		macroC:      (*Parser).cMacro,
	}
}

func (p *Parser) importMacro(name, arg token.Token) {
	if p.depth() > 0 {
		p.rep.Error(name, "'@import' is only allowed at the top level")
	}
	p.importModule(arg, arg.Value)
}

func (p *Parser) cMacro(name, arg token.Token) {
	p.emit(ast.NewCEmbed(name, arg.Value))
}

func (p *Parser) macroStatement(h []token.Token) {
	c := newCursor(h, p)
	c.advance()
	nameTok := c.expect(token.Ident, "Expected a macro name after '@'")
	kind, ok := macroKinds[nameTok.Value]
	if !ok {
		p.rep.Error(nameTok, "Unknown macro '@%s'", nameTok.Value)
	}
	handler := statementMacros[kind]
	if handler == nil {
		p.rep.Error(nameTok, "'@%s' must precede a function definition", nameTok.Value)
	}
	args := c.rest()
	if len(args) != 1 || args[0].Type != token.String {
		p.rep.Error(nameTok, "'@%s' takes exactly one string argument", nameTok.Value)
	}
	handler(p, nameTok, args[0])
}

// importModule brings path into the compilation. C headers are only recorded;
// source modules are parsed on a snapshot of the context, their entries
// appended here and their definitions merged back.
func (p *Parser) importModule(tok token.Token, path string) {
	if module.IsCHeader(path) {
		if p.ctx.MarkImported(module.Key(path), path) {
			p.emit(ast.NewCImport(tok, path))
		}
		return
	}

	src, err := p.loader.Load(p.file, path)
	if err != nil {
		p.rep.Error(tok, "Cannot import '%s': %v", path, err)
	}
	if !p.ctx.MarkImported(src.Key, src.Path) {
		p.rep.Warn(config.WarnReimport, tok, "'%s' is already imported", path)
		return
	}
	p.emit(ast.NewImport(tok, src.Path))

	child := newParser(p.cfg, p.rep, p.loader, p.ctx.Snapshot())
	child.begin(src.Path, src.Content)
	child.run()
	p.prog.Entries = append(p.prog.Entries, child.prog.Entries...)
	if err := p.ctx.Merge(child.ctx); err != nil {
		p.rep.Error(tok, "%v", err)
	}
}
