package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var (
		out     string
		quiet   bool
		include []string
	)
	fs := NewFlagSet("impc")
	fs.String(&out, "output", "o", "a.out", "Output file", "file")
	fs.Bool(&quiet, "quiet", "q", false, "Quiet")
	fs.List(&include, "include", "I", nil, "Include path", "dir")

	err := fs.Parse([]string{"-ofoo", "--quiet", "-I", "lib", "--include=vendor", "main.imp", "--", "-x"})
	require.NoError(t, err)
	require.Equal(t, "foo", out)
	require.True(t, quiet)
	require.Equal(t, []string{"lib", "vendor"}, include)
	require.Equal(t, []string{"main.imp", "-x"}, fs.Args())
	require.Equal(t, "a.out", fs.Lookup("output").DefValue)
}

func TestParseErrors(t *testing.T) {
	var out string
	fs := NewFlagSet("impc")
	fs.String(&out, "output", "o", "", "Output file", "file")

	require.ErrorContains(t, fs.Parse([]string{"--nope"}), "unknown flag: --nope")
	require.ErrorContains(t, fs.Parse([]string{"-z"}), "unknown flag: -z")
	require.ErrorContains(t, fs.Parse([]string{"--output"}), "flag needs an argument")
}

func TestFlagGroups(t *testing.T) {
	shadow := FlagGroupEntry{Name: "shadow", Prefix: "W", Usage: "Warn on shadowing", Enabled: new(bool), Disabled: new(bool)}
	fs := NewFlagSet("impc")
	fs.AddFlagGroup("Warning Flags", "Enable or disable warnings", "warning", "Available Warnings:", []FlagGroupEntry{shadow})

	require.NoError(t, fs.Parse([]string{"-Wno-shadow"}))
	require.True(t, *shadow.Disabled)
	require.False(t, *shadow.Enabled)
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	var out string
	called := false
	app := NewApp("impc")
	app.Synopsis = "[options] <file>"
	app.Stdout, app.Stderr = &stdout, &stderr
	app.FlagSet.String(&out, "output", "o", "a.out", "Output file", "file")
	app.Action = func([]string) error { called = true; return nil }

	require.NoError(t, app.Run([]string{"--help"}))
	require.False(t, called)
	help := stdout.String()
	require.Contains(t, help, "Synopsis")
	require.Contains(t, help, "impc [options] <file>")
	require.Contains(t, help, "-o <file>, --output <file>")
	require.Contains(t, help, "|a.out|")
}

func TestRunAction(t *testing.T) {
	var got []string
	app := NewApp("impc")
	app.Stdout, app.Stderr = &bytes.Buffer{}, &bytes.Buffer{}
	app.Action = func(args []string) error { got = args; return nil }
	require.NoError(t, app.Run([]string{"a.imp"}))
	require.Equal(t, []string{"a.imp"}, got)
}

func TestRunBadFlag(t *testing.T) {
	var stderr bytes.Buffer
	app := NewApp("impc")
	app.Stdout, app.Stderr = &bytes.Buffer{}, &stderr
	require.Error(t, app.Run([]string{"--bogus"}))
	require.Contains(t, stderr.String(), "impc: unknown flag: --bogus")
}

func TestWrapText(t *testing.T) {
	require.Equal(t, []string{"aa bb", "cc"}, wrapText("aa bb cc", 5))
	require.Nil(t, wrapText("   ", 5))
}
