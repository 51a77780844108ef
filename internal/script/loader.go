// Package script runs learner programs.
//
// Source is parsed with goja's parser and then walked by a small
// interpreter that accepts a fixed subset of JavaScript. The only functions
// a program can call are its own and the host actions listed in Actions;
// host names cannot be redeclared or reassigned. Each action call is
// forwarded to a Host right away, so commands are enqueued in program order
// while the program is still running.
package script

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja/parser"

	"github.com/vovakirdan/tui-codequest/internal/engine"
)

// Limits bound the work a single program may do.
type Limits struct {
	MaxSteps    int `yaml:"max_steps"`
	MaxCommands int `yaml:"max_commands"`
	MaxDepth    int `yaml:"max_depth"`
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxSteps: 100000, MaxCommands: 500, MaxDepth: 64}
}

// Loader executes learner programs.
type Loader struct {
	limits Limits
	logger *log.Logger
}

// NewLoader creates a loader. A nil logger logs to stderr.
func NewLoader(limits Limits, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "script",
		})
	}
	return &Loader{limits: limits, logger: logger}
}

// Check parses src and reports the first syntax error, if any.
func (l *Loader) Check(src string) error {
	if _, err := parser.ParseFile(nil, "", src, 0); err != nil {
		return fromParseError(err)
	}
	return nil
}

// Execute runs src once. Host actions are enqueued as they are called; the
// resolver supplies the facing the queued moves will start from.
//
// A learner error stops the program at the failing statement. It is logged
// to the host as a single error message and returned as an *Error. Commands
// enqueued before the failure stay queued. Errors from the host itself are
// returned unchanged.
func (l *Loader) Execute(src string, host Host, resolver *engine.Resolver) error {
	prog, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return l.report(host, fromParseError(err))
	}

	in := newInterp(prog, host, resolver, l.limits)
	err = in.run()
	if err == nil {
		l.logger.Debug("program finished", "steps", in.steps, "commands", in.commands)
		return nil
	}
	if serr, ok := AsError(err); ok {
		return l.report(host, serr)
	}
	return err
}

func (l *Loader) report(host Host, serr *Error) error {
	l.logger.Debug("program failed", "kind", serr.Kind, "line", serr.Line, "error", serr.Message)
	if err := host.Log(serr.Friendly(), log.ErrorLevel); err != nil {
		return err
	}
	return serr
}
