package level

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// YAMLLevel is the on-disk shape of a level file.
type YAMLLevel struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description,omitempty"`
	Size         grid.Bounds       `yaml:"size"`
	Start        grid.Cell         `yaml:"start"`
	Facing       string            `yaml:"facing,omitempty"`
	Goal         *grid.Cell        `yaml:"goal,omitempty"`
	Collectibles []YAMLCollectible `yaml:"collectibles,omitempty"`
	Hazards      []grid.Cell       `yaml:"hazards,omitempty"`
	Blocked      []grid.Cell       `yaml:"blocked,omitempty"`
	Path         []grid.Cell       `yaml:"path,omitempty"`
}

// YAMLCollectible is one collectible entry. Kind may be omitted.
type YAMLCollectible struct {
	Col  int    `yaml:"col"`
	Row  int    `yaml:"row"`
	Kind string `yaml:"kind,omitempty"`
}

// FormatExtensions returns supported file extensions.
func FormatExtensions() []string {
	return []string{".yaml", ".yml"}
}

// ParseYAML parses and validates a YAML level.
// An absent collectibles key leaves Collectibles nil so Resolve places them;
// an explicit empty list means the level has none.
func ParseYAML(data []byte) (Definition, error) {
	var yl YAMLLevel
	if err := yaml.Unmarshal(data, &yl); err != nil {
		return Definition{}, fmt.Errorf("yaml unmarshal: %w", err)
	}

	def := Definition{
		ID:          yl.ID,
		Name:        yl.Name,
		Description: yl.Description,
		Size:        yl.Size,
		Start:       yl.Start,
		Goal:        yl.Goal,
		Hazards:     yl.Hazards,
		Blocked:     yl.Blocked,
		Path:        yl.Path,
	}
	if def.Name == "" {
		def.Name = def.ID
	}

	if yl.Facing != "" {
		d, ok := grid.ParseDirection(yl.Facing)
		if !ok {
			return Definition{}, ValidationError{
				Code:    "INVALID_FACING",
				Message: fmt.Sprintf("unknown facing %q", yl.Facing),
			}
		}
		def.Facing = d
	}

	if yl.Collectibles != nil {
		onPath := make(map[grid.Cell]bool, len(yl.Path))
		for _, c := range yl.Path {
			onPath[c] = true
		}
		def.Collectibles = make([]Collectible, 0, len(yl.Collectibles))
		for _, yc := range yl.Collectibles {
			cell := grid.C(yc.Col, yc.Row)
			kind := Grass
			if onPath[cell] {
				kind = Path
			}
			if yc.Kind != "" {
				k, ok := ParseCollectibleKind(yc.Kind)
				if !ok {
					return Definition{}, ValidationError{
						Code:    "INVALID_KIND",
						Message: fmt.Sprintf("collectible %s has unknown kind %q", cell, yc.Kind),
					}
				}
				kind = k
			}
			def.Collectibles = append(def.Collectibles, Collectible{Cell: cell, Kind: kind})
		}
	}

	if err := Validate(def); err != nil {
		return Definition{}, err
	}
	return def, nil
}
