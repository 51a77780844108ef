package level_test

import (
	"errors"
	"math/rand"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

func getTestdataPath() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "testdata", "levels")
}

func TestLoaderLoadAllSkipsInvalid(t *testing.T) {
	loader := level.NewLoader(getTestdataPath())

	defs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("LoadAll() returned %d levels, expected 2", len(defs))
	}
	if defs[0].ID != "meadow" || defs[1].ID != "open-field" {
		t.Errorf("LoadAll() order = %s,%s, expected meadow,open-field", defs[0].ID, defs[1].ID)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(getTestdataPath(), "meadow.yaml")

	def, err := level.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if def.FilePath != path {
		t.Errorf("FilePath = %q, expected %q", def.FilePath, path)
	}
	if def.Name != "Meadow Walk" {
		t.Errorf("Name = %q, expected %q", def.Name, "Meadow Walk")
	}
	if def.Start != grid.C(1, 2) {
		t.Errorf("Start = %v, expected (1,2)", def.Start)
	}
	if def.Goal == nil || *def.Goal != grid.C(4, 2) {
		t.Errorf("Goal = %v, expected (4,2)", def.Goal)
	}
	if len(def.Collectibles) != 2 {
		t.Fatalf("len(Collectibles) = %d, expected 2", len(def.Collectibles))
	}
	// (3,1) has no kind but lies on the path.
	if def.Collectibles[1].Kind != level.Path {
		t.Errorf("Collectibles[1].Kind = %v, expected path", def.Collectibles[1].Kind)
	}

	if _, err := level.ReadFile(filepath.Join(getTestdataPath(), "broken.yaml")); err == nil {
		t.Error("ReadFile(broken.yaml) should fail")
	}
	if _, err := level.ReadFile(filepath.Join(getTestdataPath(), "missing.yaml")); err == nil {
		t.Error("ReadFile(missing.yaml) should fail")
	}
}

func TestParseYAMLValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
	}{
		{"missing id", "size: {cols: 2, rows: 2}\n", "MISSING_ID"},
		{"zero size", "id: x\nsize: {cols: 0, rows: 2}\n", "INVALID_SIZE"},
		{"start outside", "id: x\nsize: {cols: 2, rows: 2}\nstart: {col: 2, row: 0}\n", "START_OUT_OF_BOUNDS"},
		{"start blocked", "id: x\nsize: {cols: 2, rows: 2}\nblocked: [{col: 0, row: 0}]\n", "START_BLOCKED"},
		{"goal outside", "id: x\nsize: {cols: 2, rows: 2}\ngoal: {col: 5, row: 5}\n", "GOAL_OUT_OF_BOUNDS"},
		{"collectible outside", "id: x\nsize: {cols: 2, rows: 2}\ncollectibles: [{col: -1, row: 0}]\n", "COLLECTIBLE_OUT_OF_BOUNDS"},
		{"bad facing", "id: x\nsize: {cols: 2, rows: 2}\nfacing: sideways\n", "INVALID_FACING"},
		{"bad kind", "id: x\nsize: {cols: 2, rows: 2}\ncollectibles: [{col: 1, row: 1, kind: gold}]\n", "INVALID_KIND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := level.ParseYAML([]byte(tt.yaml))
			var verr level.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ParseYAML() error = %v, expected ValidationError", err)
			}
			if verr.Code != tt.code {
				t.Errorf("Code = %s, expected %s", verr.Code, tt.code)
			}
		})
	}
}

func TestParseYAMLEmptyCollectiblesStayEmpty(t *testing.T) {
	def, err := level.ParseYAML([]byte("id: x\nsize: {cols: 4, rows: 4}\ngoal: {col: 3, row: 3}\ncollectibles: []\n"))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}
	cfg, warnings := level.Resolve(def, rand.New(rand.NewSource(1)))
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, expected none", warnings)
	}
	if n := len(cfg.Collectibles()); n != 0 {
		t.Errorf("len(Collectibles()) = %d, expected 0", n)
	}
}

func TestResolveExplicit(t *testing.T) {
	goal := grid.C(4, 2)
	def := level.Definition{
		ID:           "x",
		Size:         grid.Bounds{Cols: 6, Rows: 5},
		Start:        grid.C(1, 2),
		Goal:         &goal,
		Collectibles: []level.Collectible{{Cell: grid.C(2, 2), Kind: level.Grass}},
		Hazards:      []grid.Cell{grid.C(3, 4)},
		Blocked:      []grid.Cell{grid.C(0, 0)},
	}

	cfg, warnings := level.Resolve(def, rand.New(rand.NewSource(1)))
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, expected none", warnings)
	}
	if g, ok := cfg.Goal(); !ok || g != goal {
		t.Errorf("Goal() = %v,%v, expected %v,true", g, ok, goal)
	}
	if k, ok := cfg.CollectibleAt(grid.C(2, 2)); !ok || k != level.Grass {
		t.Errorf("CollectibleAt(2,2) = %v,%v, expected grass,true", k, ok)
	}
	if !cfg.IsHazard(grid.C(3, 4)) {
		t.Error("IsHazard(3,4) = false, expected true")
	}
	if !cfg.IsBlocked(grid.C(0, 0)) {
		t.Error("IsBlocked(0,0) = false, expected true")
	}
	if cfg.Name() != "x" {
		t.Errorf("Name() = %q, expected fallback to id", cfg.Name())
	}
}

func TestResolveRandomPlacement(t *testing.T) {
	def := level.Definition{
		ID:      "random",
		Size:    grid.Bounds{Cols: 5, Rows: 5},
		Start:   grid.C(0, 0),
		Hazards: []grid.Cell{grid.C(1, 1)},
		Blocked: []grid.Cell{grid.C(2, 2)},
	}

	for seed := int64(0); seed < 50; seed++ {
		cfg, warnings := level.Resolve(def, rand.New(rand.NewSource(seed)))
		if len(warnings) != 0 {
			t.Fatalf("seed %d: warnings = %v", seed, warnings)
		}
		goal, ok := cfg.Goal()
		if !ok {
			t.Fatalf("seed %d: no goal placed", seed)
		}
		if goal == def.Start || cfg.IsBlocked(goal) || cfg.IsHazard(goal) {
			t.Errorf("seed %d: goal %v is not a free cell", seed, goal)
		}

		items := cfg.Collectibles()
		if len(items) < 3 || len(items) > 5 {
			t.Errorf("seed %d: %d collectibles, expected 3-5", seed, len(items))
		}
		for _, c := range items {
			if c.Cell == def.Start || c.Cell == goal || cfg.IsBlocked(c.Cell) || cfg.IsHazard(c.Cell) {
				t.Errorf("seed %d: collectible on %v", seed, c.Cell)
			}
		}
	}
}

func TestResolveDeterministicForSeed(t *testing.T) {
	def := level.Definition{ID: "r", Size: grid.Bounds{Cols: 8, Rows: 8}}

	a, _ := level.Resolve(def, rand.New(rand.NewSource(42)))
	b, _ := level.Resolve(def, rand.New(rand.NewSource(42)))

	ga, _ := a.Goal()
	gb, _ := b.Goal()
	if ga != gb {
		t.Errorf("Goal() differs for same seed: %v vs %v", ga, gb)
	}
	ca, cb := a.Collectibles(), b.Collectibles()
	if len(ca) != len(cb) {
		t.Fatalf("collectible count differs: %d vs %d", len(ca), len(cb))
	}
	for i := range ca {
		if ca[i] != cb[i] {
			t.Errorf("Collectibles()[%d] = %v, expected %v", i, cb[i], ca[i])
		}
	}
}

func TestResolveNoFreeCells(t *testing.T) {
	def := level.Definition{
		ID:    "tiny",
		Size:  grid.Bounds{Cols: 1, Rows: 1},
		Start: grid.C(0, 0),
	}

	cfg, warnings := level.Resolve(def, rand.New(rand.NewSource(3)))
	if _, ok := cfg.Goal(); ok {
		t.Error("Goal() ok = true, expected no goal on a 1x1 level")
	}
	if len(cfg.Collectibles()) != 0 {
		t.Errorf("len(Collectibles()) = %d, expected 0", len(cfg.Collectibles()))
	}
	if len(warnings) != 2 {
		t.Fatalf("len(warnings) = %d, expected 2", len(warnings))
	}
	for _, w := range warnings {
		if !errors.Is(w, level.ErrNoFreeCell) {
			t.Errorf("warning %q does not wrap ErrNoFreeCell", w)
		}
	}
}

func TestResolvePathKindForRandomCollectibles(t *testing.T) {
	var path []grid.Cell
	for col := 1; col < 4; col++ {
		path = append(path, grid.C(col, 0))
	}
	goal := grid.C(3, 1)
	def := level.Definition{
		ID:    "corridor",
		Size:  grid.Bounds{Cols: 4, Rows: 2},
		Start: grid.C(0, 0),
		Goal:  &goal,
		Path:  path,
	}

	cfg, _ := level.Resolve(def, rand.New(rand.NewSource(7)))
	for _, c := range cfg.Collectibles() {
		want := level.Grass
		if cfg.IsPath(c.Cell) {
			want = level.Path
		}
		if c.Kind != want {
			t.Errorf("collectible %v kind = %v, expected %v", c.Cell, c.Kind, want)
		}
	}
}
