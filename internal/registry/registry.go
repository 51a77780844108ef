// Package registry provides a global registry of playable levels.
// Level packages register themselves in init() functions, allowing the
// platform to discover levels without hardcoded dependencies.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/tui-codequest/internal/level"
)

// ErrUnknownLevel is returned by Create for IDs nobody registered.
var ErrUnknownLevel = errors.New("registry: unknown level")

// LevelInfo contains metadata about a registered level.
type LevelInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Factory returns a fresh copy of a level definition.
type Factory func() level.Definition

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]LevelInfo)
	mu        sync.RWMutex
)

// Register adds a level factory to the registry.
// Typically called from an init() function.
// Panics if a level with the same ID is already registered.
func Register(id string, f Factory) {
	if err := register(id, f); err != nil {
		panic(err.Error())
	}
}

// RegisterDefinition registers a parsed definition under its own ID.
// Unlike Register it reports duplicates as an error, since user level
// directories may collide with built-in levels.
func RegisterDefinition(def level.Definition) error {
	return register(def.ID, func() level.Definition { return def })
}

func register(id string, f Factory) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		return fmt.Errorf("registry: level %q already registered", id)
	}

	factories[id] = f

	def := f()
	infos[id] = LevelInfo{ID: id, Title: def.Name, Description: def.Description}
	return nil
}

// List returns information about all registered levels, sorted by ID.
func List() []LevelInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]LevelInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create returns a new definition for the level with the given ID.
func Create(id string) (level.Definition, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return level.Definition{}, fmt.Errorf("%w %q", ErrUnknownLevel, id)
	}

	return f(), nil
}

// Exists checks if a level with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
