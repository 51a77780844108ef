package engine

import (
	"math"
	"time"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// MaxWait caps a single wait command.
const MaxWait = 10 * time.Second

// WaitMillis returns a wait command. Negative durations become zero and long
// ones are capped at MaxWait.
func WaitMillis(ms float64) Command {
	if ms < 0 || math.IsNaN(ms) {
		ms = 0
	}
	if ms*float64(time.Millisecond) > float64(MaxWait) {
		return Wait(MaxWait)
	}
	return Wait(time.Duration(ms * float64(time.Millisecond)))
}

// Jump returns a two-phase jump.
func Jump() Command { return Pose(PoseJump) }

// Attack returns a fixed-length attack flourish.
func Attack() Command { return Pose(PoseAttack) }

// Spin returns a full-turn flourish. It leaves the facing unchanged but counts
// as a rotation.
func Spin() Command { return Pose(PoseSpin) }

// Teleport returns a relocation to a world position.
func Teleport(x, y float64) Command { return Relocate(grid.Point{X: x, Y: y}) }
