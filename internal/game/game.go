// Package game is the entry point front ends use to play a level: load it,
// execute learner programs against it, reset it and watch the event stream.
package game

import (
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/script"
)

// Options configure a Game.
type Options struct {
	Engine engine.Options
	Limits script.Limits
	// Seed drives random goal and collectible placement. Zero seeds from
	// the clock.
	Seed   int64
	Logger *log.Logger
}

// DefaultOptions returns the stock engine options and interpreter limits.
func DefaultOptions() Options {
	return Options{
		Engine: engine.DefaultOptions(),
		Limits: script.DefaultLimits(),
	}
}

// Game is one loaded level.
type Game struct {
	def     level.Definition
	rng     *rand.Rand
	session *engine.Session
	loader  *script.Loader
	logger  *log.Logger

	// mu serializes ExecuteProgram and Reset.
	mu       sync.Mutex
	warnings []error
}

// New resolves def and builds a session on backend. Call Start before
// executing programs.
func New(def level.Definition, backend engine.Backend, opts Options) *Game {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "game",
		})
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	cfg, warnings := level.Resolve(def, rng)

	eopts := opts.Engine
	if eopts.Logger == nil {
		eopts.Logger = logger.WithPrefix("engine")
	}
	return &Game{
		def:      def,
		rng:      rng,
		session:  engine.NewSession(cfg, backend, eopts),
		loader:   script.NewLoader(opts.Limits, logger.WithPrefix("script")),
		logger:   logger,
		warnings: warnings,
	}
}

// Start runs the session and reports any placement warnings on the event
// stream.
func (g *Game) Start() {
	g.session.Start()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.announce()
}

// Close tears the session down. The event stream is closed.
func (g *Game) Close() {
	g.session.Close()
}

// ID returns the session identifier.
func (g *Game) ID() string { return g.session.ID() }

// LevelID returns the ID of the level being played.
func (g *Game) LevelID() string { return g.def.ID }

// Title returns the display name of the level.
func (g *Game) Title() string {
	if g.def.Name != "" {
		return g.def.Name
	}
	return g.def.ID
}

// Events returns the session event stream.
func (g *Game) Events() <-chan engine.Event { return g.session.Events() }

// Level returns the resolved level currently in play.
func (g *Game) Level() (*level.Config, error) { return g.session.Level() }

// PlayerState returns the committed player state.
func (g *Game) PlayerState() (engine.PlayerState, error) { return g.session.State() }

// ExecuteProgram clears any previous run and executes src. Commands start
// animating while the program is still being interpreted; DrainedEvent
// follows once the last of them completes.
//
// Learner errors are reported on the event stream and also returned as a
// *script.Error. Commands enqueued before the error still run.
func (g *Game) ExecuteProgram(src string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, err := g.session.BeginProgram()
	if err != nil {
		return err
	}
	resolver := engine.NewResolver(st.Facing)
	runErr := g.loader.Execute(src, g.session, resolver)
	if err := g.session.EndProgram(); err != nil {
		return err
	}
	if runErr != nil {
		g.logger.Debug("program stopped early", "level", g.def.ID, "error", runErr)
	}
	return runErr
}

// Check parses src without running it.
func (g *Game) Check(src string) error {
	return g.loader.Check(src)
}

// Reset returns the player to the start, re-rolls random placement and
// clears the score.
func (g *Game) Reset() (engine.PlayerState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cfg, warnings := level.Resolve(g.def, g.rng)
	st, err := g.session.Reset(cfg)
	if err != nil {
		return st, err
	}
	g.warnings = warnings
	g.announce()
	return st, nil
}

func (g *Game) announce() {
	for _, w := range g.warnings {
		g.logger.Warn("level placement", "level", g.def.ID, "warning", w)
		if err := g.session.Log(w.Error(), log.WarnLevel); err != nil {
			return
		}
	}
	g.warnings = nil
}
