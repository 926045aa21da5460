package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyCleansPath(t *testing.T) {
	require.Equal(t, Key("lib/geo.imp"), Key("lib/./geo.imp"))
	require.Equal(t, Key("lib/geo.imp"), Key("lib/x/../geo.imp"))
	require.NotEqual(t, Key("lib/geo.imp"), Key("lib/shapes.imp"))
}

func TestIsCHeader(t *testing.T) {
	require.True(t, IsCHeader("stdio.h"))
	require.False(t, IsCHeader("geo.imp"))
}

func TestMapLoader(t *testing.T) {
	m := MapLoader{
		"src/main.imp":    "main(): void {}",
		"src/lib/geo.imp": "Point: struct { x: int; }",
		"shared.imp":      "",
	}
	src, err := m.Load("src/main.imp", "lib/geo.imp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("src", "lib", "geo.imp"), src.Path)
	require.Equal(t, Key(src.Path), src.Key)

	_, err = m.Load("src/main.imp", "shared.imp")
	require.NoError(t, err, "falls back to the cleaned path")

	src, err = m.Load("src/main.imp", BuiltinPath)
	require.NoError(t, err)
	require.Contains(t, string(src.Content), "Option")

	_, err = m.Load("src/main.imp", "missing.imp")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolverSearchOrder(t *testing.T) {
	dir := t.TempDir()
	inc := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inc, "util.imp"), []byte("u(): void {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.imp"), []byte("l(): void {}"), 0644))

	r := &Resolver{IncludePaths: []string{inc}, StdRoot: dir}
	from := filepath.Join(dir, "main.imp")

	src, err := r.Load(from, "local.imp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "local.imp"), src.Path)

	src, err = r.Load(from, "util.imp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(inc, "util.imp"), src.Path)

	_, err = r.Load(from, "nope.imp")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMaterializeStd(t *testing.T) {
	cache := t.TempDir()
	dir, err := MaterializeStd(cache)
	require.NoError(t, err)
	for _, f := range []string{"builtin.imp", "io.imp", "dynamic.h"} {
		require.FileExists(t, filepath.Join(dir, "base", f))
	}

	again, err := MaterializeStd(cache)
	require.NoError(t, err)
	require.Equal(t, dir, again)

	r := &Resolver{CacheDir: cache}
	src, err := r.Load("main.imp", BuiltinPath)
	require.NoError(t, err)
	require.Equal(t, BuiltinPath, src.Path)
	require.Equal(t, Key(BuiltinPath), src.Key)
	require.Contains(t, string(src.Content), "Option :: struct($T)")

	r = &Resolver{StdRoot: dir}
	src, err = r.Load("deep/dir/main.imp", "base/./io.imp")
	require.NoError(t, err)
	require.Equal(t, "base/io.imp", src.Path)
}
