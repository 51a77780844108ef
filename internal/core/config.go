package core

// RuntimeConfig is passed from the CLI or SSH layer to a play screen.
type RuntimeConfig struct {
	ScreenW  int    // Screen width in characters
	ScreenH  int    // Screen height in characters
	TickRate int    // Animation ticks per second (default 60)
	Seed     int64  // RNG seed for random goal/collectible placement
	Player   string // Name recorded with saved runs
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW:  80,
		ScreenH:  24,
		TickRate: 60,
		Seed:     0, // 0 means use current time in platform layer
		Player:   "local",
	}
}
