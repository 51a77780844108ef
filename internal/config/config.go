// Package config provides YAML-based configuration loading and pace
// presets for codequest.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/game"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/script"
)

// Config is the complete codequest configuration.
type Config struct {
	Engine  EngineConfig        `yaml:"engine"`
	Rewards engine.RewardValues `yaml:"rewards"`
	Render  RenderConfig        `yaml:"render"`
	Storage StorageConfig       `yaml:"storage"`
}

// EngineConfig defines how commands are scheduled and how programs are run.
type EngineConfig struct {
	CellSize    float64         `yaml:"cell_size"`     // World units per cell
	StepDelayMs int             `yaml:"step_delay_ms"` // Pause between commands
	Durations   DurationsConfig `yaml:"durations"`
	Collisions  string          `yaml:"collisions"` // "permissive" or "block"
	Teleport    string          `yaml:"teleport"`   // "visual" or "snap"
	EventBuffer int             `yaml:"event_buffer"`
	MaxSteps    int             `yaml:"max_steps"`
	MaxCommands int             `yaml:"max_commands"`
	MaxDepth    int             `yaml:"max_depth"`
}

// DurationsConfig defines animation lengths in milliseconds.
type DurationsConfig struct {
	StepMs     int     `yaml:"step_ms"`
	TurnMs     int     `yaml:"turn_ms"`
	JumpMs     int     `yaml:"jump_ms"`
	AttackMs   int     `yaml:"attack_ms"`
	TeleportMs int     `yaml:"teleport_ms"`
	SpinMs     int     `yaml:"spin_ms"`
	JumpHeight float64 `yaml:"jump_height"` // World units
}

// RenderConfig defines how the terminal front end draws the world.
type RenderConfig struct {
	FrameRate  int    `yaml:"frame_rate"`  // Animation frames per second
	CellWidth  int    `yaml:"cell_width"`  // Characters per grid cell
	CellHeight int    `yaml:"cell_height"` // Rows per grid cell
	ShowPath   bool   `yaml:"show_path"`
	Theme      string `yaml:"theme"` // "default" or "mono"
}

// StorageConfig defines where run history is kept.
type StorageConfig struct {
	Path string `yaml:"path"` // Empty means ~/.codequest/runs.db
}

// EngineOptions converts the configuration into session options.
func (c Config) EngineOptions() (engine.Options, error) {
	opts := engine.DefaultOptions()
	e := c.Engine

	collisions, err := engine.ParseCollisionPolicy(e.Collisions)
	if err != nil {
		return opts, fmt.Errorf("config: engine.collisions: %w", err)
	}
	teleport, err := engine.ParseTeleportPolicy(e.Teleport)
	if err != nil {
		return opts, fmt.Errorf("config: engine.teleport: %w", err)
	}

	if e.CellSize > 0 {
		opts.Mapper = grid.NewMapper(e.CellSize, grid.Point{})
	}
	opts.Durations = engine.Durations{
		Step:       millis(e.Durations.StepMs),
		Turn:       millis(e.Durations.TurnMs),
		Jump:       millis(e.Durations.JumpMs),
		Attack:     millis(e.Durations.AttackMs),
		Teleport:   millis(e.Durations.TeleportMs),
		Spin:       millis(e.Durations.SpinMs),
		JumpHeight: e.Durations.JumpHeight,
	}
	opts.StepDelay = millis(e.StepDelayMs)
	opts.Collisions = collisions
	opts.Teleport = teleport
	opts.Rewards = c.Rewards
	if e.EventBuffer > 0 {
		opts.EventBuffer = e.EventBuffer
	}
	return opts, nil
}

// Limits returns the interpreter limits.
func (c Config) Limits() script.Limits {
	limits := script.DefaultLimits()
	if c.Engine.MaxSteps > 0 {
		limits.MaxSteps = c.Engine.MaxSteps
	}
	if c.Engine.MaxCommands > 0 {
		limits.MaxCommands = c.Engine.MaxCommands
	}
	if c.Engine.MaxDepth > 0 {
		limits.MaxDepth = c.Engine.MaxDepth
	}
	return limits
}

// GameOptions returns everything game.New needs apart from the seed and
// logger.
func (c Config) GameOptions() (game.Options, error) {
	eopts, err := c.EngineOptions()
	if err != nil {
		return game.Options{}, err
	}
	return game.Options{Engine: eopts, Limits: c.Limits()}, nil
}

func millis(ms int) time.Duration {
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}
