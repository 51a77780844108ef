package engine

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// CommandKind is the tag of a Command.
type CommandKind uint8

const (
	CmdMove CommandKind = iota
	CmdTurn
	CmdWait
	CmdRelocate
	CmdPose
)

// PoseKind is a transient, position-neutral action.
type PoseKind uint8

const (
	PoseJump PoseKind = iota
	PoseAttack
	PoseSpin
)

func (p PoseKind) String() string {
	switch p {
	case PoseJump:
		return "jump"
	case PoseAttack:
		return "attack"
	case PoseSpin:
		return "spin"
	default:
		return "unknown"
	}
}

// Command is one schedulable unit of gameplay. Only the fields that belong
// to Kind are meaningful.
type Command struct {
	Kind      CommandKind
	Direction grid.Direction
	Degrees   float64
	Duration  time.Duration
	Target    grid.Point
	Pose      PoseKind
}

// Move steps one cell in a fixed direction.
func Move(d grid.Direction) Command { return Command{Kind: CmdMove, Direction: d} }

// Turn rotates the facing by deg degrees, positive being clockwise.
func Turn(deg float64) Command { return Command{Kind: CmdTurn, Degrees: deg} }

// Wait pauses the queue.
func Wait(d time.Duration) Command { return Command{Kind: CmdWait, Duration: d} }

// Relocate teleports the sprite to a world position.
func Relocate(p grid.Point) Command { return Command{Kind: CmdRelocate, Target: p} }

// Pose plays a transient pose.
func Pose(p PoseKind) Command { return Command{Kind: CmdPose, Pose: p} }

func (c Command) String() string {
	switch c.Kind {
	case CmdMove:
		return "move " + c.Direction.String()
	case CmdTurn:
		return fmt.Sprintf("turn %+g", c.Degrees)
	case CmdWait:
		return "wait " + c.Duration.String()
	case CmdRelocate:
		return "teleport " + c.Target.String()
	case CmdPose:
		return c.Pose.String()
	default:
		return "unknown"
	}
}
