package level

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// Loader reads level files from a file system tree.
type Loader struct {
	fsys fs.FS
	root string
}

// NewLoader creates a loader for a directory on disk.
func NewLoader(root string) *Loader {
	return &Loader{fsys: os.DirFS(root), root: root}
}

// NewFSLoader creates a loader over an arbitrary file system, such as an
// embedded one.
func NewFSLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, root: "."}
}

// LoadAll recursively scans and loads all level files.
// Returns levels sorted by ID for deterministic ordering.
func (l *Loader) LoadAll() ([]Definition, error) {
	var defs []Definition

	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedExtension(strings.ToLower(path.Ext(p))) {
			return nil
		}

		def, err := l.LoadFile(p)
		if err != nil {
			// Skip invalid files
			return nil
		}
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", l.root, err)
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].ID < defs[j].ID
	})
	return defs, nil
}

// LoadFile loads a single level file relative to the loader root.
func (l *Loader) LoadFile(p string) (Definition, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return Definition{}, fmt.Errorf("reading file %s: %w", p, err)
	}
	def, err := ParseYAML(data)
	if err != nil {
		return Definition{}, fmt.Errorf("parsing file %s: %w", p, err)
	}
	def.FilePath = path.Join(l.root, p)
	return def, nil
}

// ReadFile parses a single level file from disk.
func ReadFile(p string) (Definition, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return Definition{}, fmt.Errorf("reading file %s: %w", p, err)
	}
	def, err := ParseYAML(data)
	if err != nil {
		return Definition{}, fmt.Errorf("parsing file %s: %w", p, err)
	}
	def.FilePath = p
	return def, nil
}

func isSupportedExtension(ext string) bool {
	for _, supported := range FormatExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
