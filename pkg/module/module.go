// Package module finds and reads the files named by @import.
package module

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/impc/pkg/config"
)

// StdPrefix marks import paths served from the vendored standard tree.
const StdPrefix = "base/"

// BuiltinPath is imported implicitly when the builtin feature is on.
const BuiltinPath = "base/builtin.imp"

// Source is the text of one imported file. Key identifies the file for
// re-import detection.
type Source struct {
	Path    string
	Content []rune
	Key     uint64
}

type Loader interface {
	Load(from, path string) (Source, error)
}

// Key hashes the cleaned path.
func Key(path string) uint64 { return xxhash.Sum64String(filepath.ToSlash(filepath.Clean(path))) }

// IsCHeader reports imports that are recorded for the back end and never parsed.
func IsCHeader(path string) bool { return strings.HasSuffix(path, ".h") }

var ErrNotFound = errors.New("no such module")

// Resolver loads from disk: relative to the importing file, then the include
// paths. Paths under base/ come from the standard tree.
type Resolver struct {
	IncludePaths []string
	CacheDir     string
	StdRoot      string
}

func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{IncludePaths: cfg.IncludePaths, CacheDir: cfg.CacheDir, StdRoot: cfg.StdRoot}
}

func (r *Resolver) candidates(from, path string) ([]string, error) {
	if strings.HasPrefix(path, StdPrefix) {
		root, err := r.stdRoot()
		if err != nil {
			return nil, err
		}
		return []string{filepath.Join(root, path)}, nil
	}
	if filepath.IsAbs(path) {
		return []string{path}, nil
	}
	out := []string{filepath.Join(filepath.Dir(from), path)}
	for _, inc := range r.IncludePaths {
		out = append(out, filepath.Join(inc, path))
	}
	return out, nil
}

func (r *Resolver) Load(from, path string) (Source, error) {
	cands, err := r.candidates(from, path)
	if err != nil {
		return Source{}, err
	}
	for _, c := range cands {
		data, err := os.ReadFile(c)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Source{}, fmt.Errorf("read %s: %w", c, err)
		}
		name := c
		if strings.HasPrefix(path, StdPrefix) {
			// Std sources keep their logical name wherever the tree lives.
			name = filepath.ToSlash(filepath.Clean(path))
		}
		return Source{Path: name, Content: []rune(string(data)), Key: Key(name)}, nil
	}
	return Source{}, fmt.Errorf("%s (searched %s): %w", path, strings.Join(cands, ", "), ErrNotFound)
}

func (r *Resolver) stdRoot() (string, error) {
	if r.StdRoot != "" {
		return r.StdRoot, nil
	}
	root, err := MaterializeStd(r.CacheDir)
	if err != nil {
		return "", err
	}
	r.StdRoot = root
	return root, nil
}

// MapLoader serves sources from memory, keyed by cleaned path. base/ paths
// it lacks fall back to the embedded standard tree.
type MapLoader map[string]string

func (m MapLoader) Load(from, path string) (Source, error) {
	tries := []string{filepath.Join(filepath.Dir(from), path), filepath.Clean(path)}
	for _, p := range tries {
		if text, ok := m[filepath.ToSlash(p)]; ok {
			return Source{Path: p, Content: []rune(text), Key: Key(p)}, nil
		}
	}
	if strings.HasPrefix(path, StdPrefix) {
		if data, err := fs.ReadFile(StdFS(), path); err == nil {
			return Source{Path: path, Content: []rune(string(data)), Key: Key(path)}, nil
		}
	}
	return Source{}, fmt.Errorf("%s: %w", path, ErrNotFound)
}
