// Package levels embeds the built-in levels and registers them at init.
package levels

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/registry"
)

//go:embed data/*.yaml
var builtin embed.FS

func init() {
	sub, err := fs.Sub(builtin, "data")
	if err != nil {
		panic(fmt.Sprintf("levels: %v", err))
	}
	defs, err := level.NewFSLoader(sub).LoadAll()
	if err != nil {
		panic(fmt.Sprintf("levels: %v", err))
	}
	for _, def := range defs {
		d := def
		registry.Register(d.ID, func() level.Definition { return d })
	}
}

// LoadDir registers every valid level found under dir. Levels whose ID is
// already taken are skipped and reported in the returned error list.
func LoadDir(dir string) (int, []error) {
	defs, err := level.NewLoader(dir).LoadAll()
	if err != nil {
		return 0, []error{err}
	}

	var errs []error
	n := 0
	for _, def := range defs {
		if err := registry.RegisterDefinition(def); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errs
}

// LoadPath registers the levels at p, which may be a directory or a single
// level file.
func LoadPath(p string) (int, []error) {
	info, err := os.Stat(p)
	if err != nil {
		return 0, []error{err}
	}
	if info.IsDir() {
		return LoadDir(p)
	}
	def, err := level.ReadFile(p)
	if err != nil {
		return 0, []error{err}
	}
	if err := registry.RegisterDefinition(def); err != nil {
		return 0, []error{err}
	}
	return 1, nil
}
