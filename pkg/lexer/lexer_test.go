package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/token"
	"github.com/xplshn/impc/pkg/util"
)

func lex(t *testing.T, src string) ([]token.Token, *util.Diagnostic) {
	t.Helper()
	cfg := config.NewConfig()
	rep := util.NewReporter(cfg)
	rep.Out = &discard{}
	idx := rep.AddFile("test.imp", []rune(src))
	var toks []token.Token
	diag := rep.Trap(func() {
		toks = NewLexer([]rune(src), idx, cfg, rep).Tokenize()
	})
	return toks, diag
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) { return len(p), nil }

func kinds(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestTokenKinds(t *testing.T) {
	toks, diag := lex(t, `main(): void { x: ^int = &y; N :: int = [2 * 3]; }`)
	require.Nil(t, diag)
	want := []token.Type{
		token.Ident, token.LParen, token.RParen, token.Colon, token.Ident, token.LBrace,
		token.Ident, token.Colon, token.Caret, token.Ident, token.Eq, token.Amp, token.Ident, token.Semi,
		token.Ident, token.DoubleColon, token.Ident, token.Eq, token.Int, token.Semi,
		token.RBrace, token.EOF,
	}
	if diff := cmp.Diff(want, kinds(toks)); diff != "" {
		t.Fatalf("token kinds mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "2 * 3", toks[18].Value)
}

func TestKeywordsAndDottedIdents(t *testing.T) {
	toks, diag := lex(t, "if p.x orif Point.len else loop defer")
	require.Nil(t, diag)
	require.Equal(t, []token.Type{token.If, token.Ident, token.OrIf, token.Ident, token.Else, token.Loop, token.Defer, token.EOF}, kinds(toks))
	require.Equal(t, "p.x", toks[1].Value)
	require.Equal(t, "Point.len", toks[3].Value)
}

func TestBracketGroupNesting(t *testing.T) {
	toks, diag := lex(t, `[a|[1]| + "]"]`)
	require.Nil(t, diag)
	require.Equal(t, token.Int, toks[0].Type)
	require.Equal(t, `a|[1]| + "]"`, toks[0].Value)
}

func TestPositions(t *testing.T) {
	toks, diag := lex(t, "a\n  bc")
	require.Nil(t, diag)
	require.Equal(t, token.Newline, toks[1].Type)
	require.Equal(t, 2, toks[2].Line)
	require.Equal(t, 3, toks[2].Column)
	require.Equal(t, 2, toks[2].Len)
}

func TestComments(t *testing.T) {
	toks, diag := lex(t, "x // note\ny")
	require.Nil(t, diag)
	require.Equal(t, token.Comment, toks[1].Type)
	require.Equal(t, "note", toks[1].Value)
	require.True(t, toks[1].IsTrivia())
}

func TestQuoted(t *testing.T) {
	toks, diag := lex(t, `"a\"b" '\n'`)
	require.Nil(t, diag)
	require.Equal(t, `a\"b`, toks[0].Value)
	require.Equal(t, token.Char, toks[1].Type)
	require.Equal(t, `\n`, toks[1].Value)
}

func TestLexErrors(t *testing.T) {
	tests := map[string]string{
		"unterminated string": `"abc`,
		"empty char":          `''`,
		"unterminated group":  `[1 + 2`,
		"malformed number":    `12ab`,
		"stray character":     `#`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, diag := lex(t, src)
			require.NotNil(t, diag)
			require.Equal(t, "test.imp", diag.File)
		})
	}
}
