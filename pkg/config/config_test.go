package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xplshn/impc/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	require.True(t, cfg.IsFeatureEnabled(FeatStrictTypes))
	require.True(t, cfg.IsFeatureEnabled(FeatBuiltin))
	require.False(t, cfg.IsWarningEnabled(WarnShadow))
	require.Equal(t, 8, cfg.WordSize)
	require.Len(t, cfg.Features, int(FeatCount))
	require.Len(t, cfg.Warnings, int(WarnCount))
	require.Equal(t, WarnReimport, cfg.WarningMap["reimport"])
	require.Equal(t, FeatMethodCalls, cfg.FeatureMap["method-calls"])
}

func TestApplyStd(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.ApplyStd("imp-strict"))
	require.False(t, cfg.IsFeatureEnabled(FeatMethodCalls))
	require.True(t, cfg.IsWarningEnabled(WarnShadow))
	require.True(t, cfg.IsWarningEnabled(WarnReimport))

	cfg = NewConfig()
	cfg.SetWarning(WarnPedantic, true)
	require.NoError(t, cfg.ApplyStd("imp"))
	require.False(t, cfg.IsFeatureEnabled(FeatMethodCalls), "pedantic disables method sugar")

	require.Error(t, NewConfig().ApplyStd("c99"))
}

func TestEnvironment(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	t.Setenv("IMPULSE_PATH", a+string(filepath.ListSeparator)+b)
	t.Setenv("IMPULSE_CACHE", "/tmp/impc-cache")
	t.Setenv("IMPULSE_STD", "/opt/imp/std")
	t.Setenv("NO_COLOR", "1")

	cfg := NewConfig()
	require.Equal(t, []string{a, b}, cfg.IncludePaths)
	require.Equal(t, "/tmp/impc-cache", cfg.CacheDir)
	require.Equal(t, "/opt/imp/std", cfg.StdRoot)
	require.False(t, cfg.Color)
}

func TestEnvironmentChangesAfterStartup(t *testing.T) {
	t.Setenv("IMPULSE_STD", "/first")
	require.Equal(t, "/first", NewConfig().StdRoot)

	t.Setenv("IMPULSE_STD", "/second")
	t.Setenv("NO_COLOR", "")
	cfg := NewConfig()
	require.Equal(t, "/second", cfg.StdRoot)
	require.True(t, cfg.Color)
}

func TestSetTarget(t *testing.T) {
	cfg := NewConfig()
	cfg.SetTarget("linux", "arm", "arm")
	require.Equal(t, 4, cfg.WordSize)
	cfg.SetTarget("linux", "amd64", "amd64_sysv")
	require.Equal(t, 8, cfg.WordSize)
	require.Equal(t, "amd64", cfg.TargetArch)
}

func TestFlagGroupsOverrideStd(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("impc")
	warnings, features := cfg.SetupFlagGroups(fs)
	require.NoError(t, fs.Parse([]string{"-Wshadow", "-Fno-fold", "main.imp"}))
	require.Equal(t, []string{"main.imp"}, fs.Args())

	require.NoError(t, cfg.ApplyStd("imp"))
	cfg.ApplyFlagGroups(warnings, features)
	require.True(t, cfg.IsWarningEnabled(WarnShadow))
	require.False(t, cfg.IsFeatureEnabled(FeatFold))
	require.True(t, cfg.IsFeatureEnabled(FeatDeferReturn))
}
