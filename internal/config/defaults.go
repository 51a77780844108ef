package config

import (
	_ "embed"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/script"
)

//go:embed defaults/codequest.yaml
var defaultYAML []byte

// DefaultConfig returns the hardcoded configuration. It matches the
// embedded defaults/codequest.yaml.
func DefaultConfig() Config {
	limits := script.DefaultLimits()
	return Config{
		Engine: EngineConfig{
			CellSize:    32,
			StepDelayMs: 100,
			Durations: DurationsConfig{
				StepMs:     400,
				TurnMs:     250,
				JumpMs:     500,
				AttackMs:   300,
				TeleportMs: 600,
				SpinMs:     600,
				JumpHeight: 16,
			},
			Collisions:  "permissive",
			Teleport:    "visual",
			EventBuffer: 1024,
			MaxSteps:    limits.MaxSteps,
			MaxCommands: limits.MaxCommands,
			MaxDepth:    limits.MaxDepth,
		},
		Rewards: engine.DefaultRewardValues(),
		Render: RenderConfig{
			FrameRate:  30,
			CellWidth:  4,
			CellHeight: 2,
			ShowPath:   true,
			Theme:      "default",
		},
	}
}
