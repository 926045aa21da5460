package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/config"
	"github.com/xplshn/impc/pkg/token"
)

func newTestReporter() (*Reporter, *bytes.Buffer) {
	cfg := config.NewConfig()
	rep := NewReporter(cfg)
	rep.color = false
	var buf bytes.Buffer
	rep.Out = &buf
	rep.AddFile("main.imp", []rune("main(): void {\n  x: int = y;\n}"))
	return rep, &buf
}

func TestErrorCaret(t *testing.T) {
	rep, buf := newTestReporter()
	tok := token.Token{Type: token.Ident, Value: "y", Line: 2, Column: 12, Len: 1}
	diag := rep.Trap(func() { rep.Error(tok, "Unknown identifier '%s'", "y") })
	require.NotNil(t, diag)
	require.Equal(t, "main.imp:2:12: Unknown identifier 'y'", diag.Error())
	require.Equal(t, "main.imp:2:12: error: Unknown identifier 'y'\n    x: int = y;\n             ^\n", buf.String())
}

func TestTrapWithoutError(t *testing.T) {
	rep, _ := newTestReporter()
	ran := false
	require.Nil(t, rep.Trap(func() { ran = true }))
	require.True(t, ran)
}

func TestTrapRepanicsForeignValues(t *testing.T) {
	rep, _ := newTestReporter()
	require.PanicsWithValue(t, "boom", func() {
		rep.Trap(func() { panic("boom") })
	})
}

func TestWarnGating(t *testing.T) {
	rep, buf := newTestReporter()
	tok := token.Token{Type: token.Ident, Value: "x", Line: 2, Column: 3, Len: 1}

	rep.cfg.SetWarning(config.WarnShadow, false)
	rep.Warn(config.WarnShadow, tok, "shadowed %s", "x")
	require.Empty(t, buf.String())

	rep.cfg.SetWarning(config.WarnShadow, true)
	rep.Warn(config.WarnShadow, tok, "shadowed %s", "x")
	require.Contains(t, buf.String(), "main.imp:2:3: warning: shadowed x [-Wshadow]")
}

func TestFileName(t *testing.T) {
	rep, _ := newTestReporter()
	require.Equal(t, "main.imp", rep.FileName(0))
	require.Equal(t, "unknown", rep.FileName(3))
}
