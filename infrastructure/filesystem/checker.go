package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gachi-analyzer/domain/video"
)

// Checker implements video.FileChecker and recording lookup using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the file size in bytes, or 0 when it cannot be read
func (c *Checker) Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// ListFiles returns the regular files in dir with the given extension.
// The extension match ignores case.
func (c *Checker) ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// FindNewestFile returns the most recently modified file with the given
// extension. Ties are broken by the name sorting last.
func (c *Checker) FindNewestFile(dir, ext string) (string, error) {
	files, err := c.ListFiles(dir, ext)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s files found in %s", ext, dir)
	}

	type candidate struct {
		path    string
		modNano int64
	}
	candidates := make([]candidate, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: f, modNano: info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no readable %s files found in %s", ext, dir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modNano != candidates[j].modNano {
			return candidates[i].modNano > candidates[j].modNano
		}
		return candidates[i].path > candidates[j].path
	})

	return candidates[0].path, nil
}

// Ensure Checker implements video.FileChecker
var _ video.FileChecker = (*Checker)(nil)
