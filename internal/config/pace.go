package config

import (
	"fmt"
	"math"
	"strings"
)

// PacePreset represents a named animation speed.
type PacePreset string

const (
	PaceSlow    PacePreset = "slow"
	PaceNormal  PacePreset = "normal"
	PaceFast    PacePreset = "fast"
	PaceInstant PacePreset = "instant"
)

// PacePresets lists the presets in order from slowest to fastest.
var PacePresets = []PacePreset{PaceSlow, PaceNormal, PaceFast, PaceInstant}

// ParsePacePreset validates a preset name. Empty means normal.
func ParsePacePreset(s string) (PacePreset, error) {
	p := PacePreset(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PaceNormal, nil
	}
	for _, known := range PacePresets {
		if p == known {
			return p, nil
		}
	}
	return PaceNormal, fmt.Errorf("unknown pace %q (want slow, normal, fast or instant)", s)
}

// ScaleForPreset returns the factor animation durations are multiplied by.
func ScaleForPreset(preset PacePreset) float64 {
	switch preset {
	case PaceSlow:
		return 2.0
	case PaceFast:
		return 0.4
	case PaceInstant:
		return 0.0
	default:
		return 1.0
	}
}

// IsInstantPreset returns true if the preset disables animation entirely.
func IsInstantPreset(preset PacePreset) bool {
	return preset == PaceInstant
}

// ApplyPacePreset scales every animation duration and the delay between
// commands.
func ApplyPacePreset(cfg *Config, preset PacePreset) {
	f := ScaleForPreset(preset)
	d := &cfg.Engine.Durations
	d.StepMs = scaleMs(d.StepMs, f)
	d.TurnMs = scaleMs(d.TurnMs, f)
	d.JumpMs = scaleMs(d.JumpMs, f)
	d.AttackMs = scaleMs(d.AttackMs, f)
	d.TeleportMs = scaleMs(d.TeleportMs, f)
	d.SpinMs = scaleMs(d.SpinMs, f)
	cfg.Engine.StepDelayMs = scaleMs(cfg.Engine.StepDelayMs, f)
}

func scaleMs(ms int, f float64) int {
	return int(math.Round(float64(ms) * f))
}
