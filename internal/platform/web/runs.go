package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	channerics "github.com/niceyeti/channerics/channels"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/game"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/script"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

// RunRequest is the body of POST /api/runs.
type RunRequest struct {
	Level  string `json:"level"`
	Source string `json:"source"`
	Seed   int64  `json:"seed"`
	Player string `json:"player"`
}

// RunResponse is the graded result of one program.
type RunResponse struct {
	ID     string             `json:"id,omitempty"`
	Level  LevelJSON          `json:"level"`
	Events []EventJSON        `json:"events"`
	State  engine.PlayerState `json:"state"`
	Error  *ErrorJSON         `json:"error,omitempty"`
}

// postRun executes a program without animation and reports every event
// it produced along with the final state.
func (s *Server) postRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Level == "" {
		respondError(w, http.StatusBadRequest, "Level is required")
		return
	}
	def, err := registry.Create(req.Level)
	if errors.Is(err, registry.ErrUnknownLevel) {
		respondError(w, http.StatusNotFound, "Level not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load level")
		return
	}
	if req.Player == "" {
		req.Player = "web"
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RunTimeout)
	defer cancel()

	resp, err := s.grade(ctx, def, req)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "Program took too long")
		return
	case err != nil:
		s.logger.Error("grading failed", "level", req.Level, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to run program")
		return
	}

	if s.store != nil {
		run := storage.RunFromState(req.Level, req.Player, resp.State)
		id, err := s.store.SaveRun(run)
		if err != nil {
			s.logger.Error("failed to save run", "error", err)
		}
		resp.ID = id
	}
	respondJSON(w, http.StatusOK, resp)
}

// grade runs req.Source to completion on an instant backend.
func (s *Server) grade(ctx context.Context, def level.Definition, req RunRequest) (RunResponse, error) {
	opts, err := s.opts.Config.GameOptions()
	if err != nil {
		return RunResponse{}, err
	}
	if req.Seed == 0 {
		req.Seed = newSeed()
	}
	opts.Seed = req.Seed
	opts.Engine.StepDelay = 0
	opts.Logger = s.logger.WithPrefix("game")

	g := game.New(def, engine.InstantBackend{}, opts)
	g.Start()
	defer g.Close()

	cfg, err := g.Level()
	if err != nil {
		return RunResponse{}, err
	}

	collected := collectUntilDrained(ctx, g.Events())
	runErr := g.ExecuteProgram(req.Source)
	if _, ok := script.AsError(runErr); runErr != nil && !ok {
		return RunResponse{}, runErr
	}

	var events []EventJSON
	select {
	case events = <-collected:
	case <-ctx.Done():
		return RunResponse{}, ctx.Err()
	}

	st, err := g.PlayerState()
	if err != nil {
		return RunResponse{}, err
	}
	return RunResponse{
		Level:  NewLevelJSON(cfg, req.Seed),
		Events: events,
		State:  st,
		Error:  NewErrorJSON(runErr),
	}, nil
}

// collectUntilDrained gathers events until the first DrainedEvent, which is
// included, and delivers them on the returned channel. Nothing is delivered
// if ctx ends first or the stream closes.
func collectUntilDrained(ctx context.Context, events <-chan engine.Event) <-chan []EventJSON {
	out := make(chan []EventJSON, 1)
	go func() {
		collected := []EventJSON{}
		for evt := range channerics.OrDone(ctx.Done(), events) {
			if e, ok := NewEventJSON(evt); ok {
				collected = append(collected, e)
			}
			if _, drained := evt.(engine.DrainedEvent); drained {
				out <- collected
				return
			}
		}
	}()
	return out
}

// recentRuns lists the latest runs across all levels, or the best runs of
// one level when the level query parameter is set.
func (s *Server) recentRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, 100)
	}
	if s.store == nil {
		respondJSON(w, http.StatusOK, []storage.Run{})
		return
	}

	var (
		runs []storage.Run
		err  error
	)
	if lvl := r.URL.Query().Get("level"); lvl != "" {
		runs, err = s.store.TopRuns(lvl, limit)
	} else {
		runs, err = s.store.RecentRuns(limit)
	}
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// getRun returns one saved run.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	run, err := s.store.RunByID(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load run", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}
	respondJSON(w, http.StatusOK, run)
}
