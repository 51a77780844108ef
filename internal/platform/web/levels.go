package web

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/registry"
)

// LevelJSON is a resolved level as served to clients.
type LevelJSON struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Size         grid.Bounds       `json:"size"`
	Start        grid.Cell         `json:"start"`
	Facing       grid.Angle        `json:"facing"`
	Goal         *grid.Cell        `json:"goal,omitempty"`
	Collectibles []CollectibleJSON `json:"collectibles"`
	Hazards      []grid.Cell       `json:"hazards"`
	Blocked      []grid.Cell       `json:"blocked"`
	Path         []grid.Cell       `json:"path"`
	Seed         int64             `json:"seed"`
}

// CollectibleJSON is one rewarding cell.
type CollectibleJSON struct {
	Cell grid.Cell `json:"cell"`
	Kind string    `json:"kind"`
}

// NewLevelJSON converts a resolved level.
func NewLevelJSON(cfg *level.Config, seed int64) LevelJSON {
	out := LevelJSON{
		ID:          cfg.ID(),
		Name:        cfg.Name(),
		Description: cfg.Description(),
		Size:        cfg.Bounds(),
		Start:       cfg.Start(),
		Facing:      cfg.StartFacing(),
		Hazards:     nonNil(cfg.Hazards()),
		Blocked:     nonNil(cfg.Blocked()),
		Path:        nonNil(cfg.Path()),
		Seed:        seed,
	}
	if goal, ok := cfg.Goal(); ok {
		out.Goal = &goal
	}
	out.Collectibles = make([]CollectibleJSON, 0, len(cfg.Collectibles()))
	for _, c := range cfg.Collectibles() {
		out.Collectibles = append(out.Collectibles, CollectibleJSON{Cell: c.Cell, Kind: c.Kind.String()})
	}
	return out
}

func nonNil(cells []grid.Cell) []grid.Cell {
	if cells == nil {
		return []grid.Cell{}
	}
	return cells
}

// listLevels returns every registered level.
func (s *Server) listLevels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, registry.List())
}

// getLevel resolves one level. Random placement is driven by the seed
// query parameter so a client can replay the layout it was shown.
func (s *Server) getLevel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := registry.Create(id)
	if errors.Is(err, registry.ErrUnknownLevel) {
		respondError(w, http.StatusNotFound, "Level not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load level")
		return
	}

	seed, err := parseSeed(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid seed")
		return
	}

	cfg, warnings := level.Resolve(def, rand.New(rand.NewSource(seed)))
	for _, warn := range warnings {
		s.logger.Warn("level placement", "level", id, "warning", warn)
	}
	respondJSON(w, http.StatusOK, NewLevelJSON(cfg, seed))
}

// parseSeed reads the seed query parameter. A missing or zero seed is
// replaced with a random one.
func parseSeed(r *http.Request) (int64, error) {
	var seed int64
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		seed = n
	}
	if seed == 0 {
		seed = newSeed()
	}
	return seed, nil
}

func newSeed() int64 {
	return rand.Int63n(1<<62) + 1
}
