package script

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja/ast"

	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// Host receives the effects of a running program. *engine.Session
// implements it.
type Host interface {
	Invoke(action string) error
	Enqueue(cmds ...engine.Command) error
	Log(text string, severity log.Level) error
}

// Actions lists the names a program can call, in display order.
var Actions = []string{
	"moveForward", "turnLeft", "turnRight", "face",
	"wait", "jump", "attack", "spin", "teleport", "say",
}

func builtins() map[string]*hostFunc {
	table := map[string]func(*interp, *ast.CallExpression, []Value) (Value, error){
		"moveForward": (*interp).moveForward,
		"turnLeft":    (*interp).turnLeft,
		"turnRight":   (*interp).turnRight,
		"face":        (*interp).face,
		"wait":        (*interp).wait,
		"jump":        (*interp).jump,
		"attack":      (*interp).attack,
		"spin":        (*interp).spin,
		"teleport":    (*interp).teleport,
		"say":         (*interp).say,
	}
	out := make(map[string]*hostFunc, len(table))
	for name, call := range table {
		out[name] = &hostFunc{name: name, call: call}
	}
	return out
}

// numberArg reads argument i as a number, falling back to def when it is
// missing or undefined.
func (in *interp) numberArg(node *ast.CallExpression, action string, args []Value, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	if _, missing := args[i].(undefined); missing {
		return def, nil
	}
	f := toNumber(args[i])
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, in.errorAt(node, KindOther, "%s() needs a number, not %s", action, describeValue(args[i]))
	}
	return f, nil
}

func describeValue(v Value) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return toString(v)
}

// spend charges count actions against the command budget.
func (in *interp) spend(node ast.Node, count int) error {
	if in.limits.MaxCommands > 0 && in.commands+count > in.limits.MaxCommands {
		return in.errorAt(node, KindOther, "your program asked for more than %d actions", in.limits.MaxCommands)
	}
	in.commands += count
	return nil
}

// enqueue forwards commands to the host after checking the command budget.
func (in *interp) enqueue(node ast.Node, count int, build func() []engine.Command) error {
	if err := in.spend(node, count); err != nil {
		return err
	}
	return in.host.Enqueue(build()...)
}

// repeatCount turns a step argument into a count that fits an int. Counts
// past the command budget are capped just above it so the budget check
// reports them.
func (in *interp) repeatCount(f float64) int {
	limit := float64(math.MaxInt32)
	if in.limits.MaxCommands > 0 {
		limit = float64(in.limits.MaxCommands) + 1
	}
	f = math.Floor(f)
	switch {
	case f > limit:
		return int(limit)
	case f < -limit:
		return -int(limit)
	}
	return int(f)
}

func (in *interp) simple(node *ast.CallExpression, action string, cmd func() engine.Command) (Value, error) {
	if err := in.host.Invoke(action); err != nil {
		return nil, err
	}
	return undefined{}, in.enqueue(node, 1, func() []engine.Command { return []engine.Command{cmd()} })
}

func (in *interp) moveForward(node *ast.CallExpression, args []Value) (Value, error) {
	f, err := in.numberArg(node, "moveForward", args, 0, 1)
	if err != nil {
		return nil, err
	}
	if err := in.host.Invoke("moveForward"); err != nil {
		return nil, err
	}
	n := in.repeatCount(f)
	if n <= 0 {
		if n < 0 {
			return undefined{}, in.warnAt(node, fmt.Sprintf("moveForward(%s) can't walk backwards, so nothing happened.", formatNumber(f)))
		}
		return undefined{}, nil
	}
	return undefined{}, in.enqueue(node, n, func() []engine.Command { return in.resolver.Advance(n) })
}

func (in *interp) turnLeft(node *ast.CallExpression, args []Value) (Value, error) {
	deg, err := in.numberArg(node, "turnLeft", args, 0, 90)
	if err != nil {
		return nil, err
	}
	return in.simple(node, "turnLeft", func() engine.Command { return in.resolver.TurnLeft(deg) })
}

func (in *interp) turnRight(node *ast.CallExpression, args []Value) (Value, error) {
	deg, err := in.numberArg(node, "turnRight", args, 0, 90)
	if err != nil {
		return nil, err
	}
	return in.simple(node, "turnRight", func() engine.Command { return in.resolver.TurnRight(deg) })
}

func (in *interp) face(node *ast.CallExpression, args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, in.errorAt(node, KindOther, `face() needs a direction such as "north"`)
	}
	dir, ok := grid.ParseDirection(toString(args[0]))
	if !ok {
		return nil, in.errorAt(node, KindOther, `face() needs "north", "east", "south" or "west", not %s`, describeValue(args[0]))
	}
	return in.simple(node, "face", func() engine.Command { return in.resolver.Face(dir) })
}

func (in *interp) wait(node *ast.CallExpression, args []Value) (Value, error) {
	ms, err := in.numberArg(node, "wait", args, 0, 500)
	if err != nil {
		return nil, err
	}
	return in.simple(node, "wait", func() engine.Command { return engine.WaitMillis(ms) })
}

func (in *interp) jump(node *ast.CallExpression, _ []Value) (Value, error) {
	return in.simple(node, "jump", engine.Jump)
}

func (in *interp) attack(node *ast.CallExpression, _ []Value) (Value, error) {
	return in.simple(node, "attack", engine.Attack)
}

func (in *interp) spin(node *ast.CallExpression, _ []Value) (Value, error) {
	return in.simple(node, "spin", engine.Spin)
}

func (in *interp) teleport(node *ast.CallExpression, args []Value) (Value, error) {
	if len(args) < 2 {
		return nil, in.errorAt(node, KindOther, "teleport() needs two numbers, x and y")
	}
	x, err := in.numberArg(node, "teleport", args, 0, 0)
	if err != nil {
		return nil, err
	}
	y, err := in.numberArg(node, "teleport", args, 1, 0)
	if err != nil {
		return nil, err
	}
	return in.simple(node, "teleport", func() engine.Command { return engine.Teleport(x, y) })
}

func (in *interp) say(node *ast.CallExpression, args []Value) (Value, error) {
	if err := in.host.Invoke("say"); err != nil {
		return nil, err
	}
	if err := in.spend(node, 1); err != nil {
		return nil, err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = toString(a)
	}
	return undefined{}, in.host.Log(strings.Join(parts, " "), log.InfoLevel)
}
