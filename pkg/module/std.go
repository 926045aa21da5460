package module

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

//go:embed std
var stdFS embed.FS

const stdDir = "std"

// StdFS exposes the embedded standard tree rooted at base/.
func StdFS() fs.FS {
	sub, err := fs.Sub(stdFS, stdDir)
	if err != nil {
		panic(err)
	}
	return sub
}

// stdHash hashes every file of the embedded tree, paths included.
func stdHash() (string, error) {
	h := xxhash.New()
	err := fs.WalkDir(stdFS, stdDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		data, err := stdFS.ReadFile(path)
		if err != nil {
			return err
		}
		h.WriteString(path)
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk embedded std: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func extractStd(dst string) error {
	return fs.WalkDir(stdFS, stdDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		rel, _ := filepath.Rel(stdDir, path)
		dest := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0755)
		}
		data, err := stdFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", path, err)
		}
		return os.WriteFile(dest, data, 0644)
	})
}

// MaterializeStd writes the embedded standard tree to cacheDir/std/<hash> once
// and returns that directory. Concurrent compilers serialize on a file lock;
// the .hash file marks a completed extraction.
func MaterializeStd(cacheDir string) (string, error) {
	root := filepath.Join(cacheDir, stdDir)
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("create std cache: %w", err)
	}

	lock := flock.New(filepath.Join(root, ".lock"))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire std lock: %w", err)
	}
	defer lock.Unlock()

	hash, err := stdHash()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, hash)
	marker := filepath.Join(dir, ".hash")
	if stored, err := os.ReadFile(marker); err == nil && string(stored) == hash {
		return dir, nil
	}

	os.RemoveAll(dir)
	if err := extractStd(dir); err != nil {
		return "", err
	}
	if err := os.WriteFile(marker, []byte(hash), 0644); err != nil {
		return "", fmt.Errorf("write hash file: %w", err)
	}
	return dir, nil
}
