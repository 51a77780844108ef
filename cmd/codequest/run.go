package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-codequest/internal/anim"
	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/game"
	"github.com/vovakirdan/tui-codequest/internal/level"
	"github.com/vovakirdan/tui-codequest/internal/platform/web"
	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/script"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

var (
	flagRealtime    bool
	flagRequireGoal bool
	flagSave        bool
	flagJSON        bool
	flagRunTimeout  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <level> <program.js>",
	Short: "Run a program without the terminal UI",
	Long: `Execute a program file against a level and print every event followed
by the final player state. Use "-" to read the program from stdin.

By default animations are skipped, which makes run suitable for grading.
With --realtime the program is paced by the animator as it would be on
screen, which needs a pace other than instant.

Exit status:
  0  - the program ran
  1  - the program has an error, or the run failed
  2  - --require-goal was given and the goal was not reached

Examples:
  codequest run meadow ./meadow.js
  codequest run meadow ./meadow.js --require-goal --save
  cat meadow.js | codequest run meadow - --json`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagRealtime, "realtime", false, "Pace the run like the animated play screen")
	runCmd.Flags().BoolVar(&flagRequireGoal, "require-goal", false, "Exit with status 2 unless the goal was reached")
	runCmd.Flags().BoolVar(&flagSave, "save", false, "Record the run in the run history")
	runCmd.Flags().BoolVar(&flagJSON, "json", false, "Print events and state as JSON lines")
	runCmd.Flags().DurationVar(&flagRunTimeout, "timeout", time.Minute, "Give up on runs that take longer")
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func runRun(_ *cobra.Command, args []string) error {
	set, err := loadSettings(os.Stderr)
	if err != nil {
		return err
	}
	if flagRealtime {
		if err := checkRealtime(set); err != nil {
			return err
		}
	}

	levelID, path := args[0], args[1]
	def, err := registry.Create(levelID)
	if err != nil {
		return err
	}
	src, err := readProgram(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, flagRunTimeout)
	defer cancel()

	out := newEventPrinter(os.Stdout, flagJSON)
	res, err := runProgram(ctx, def, src, runOptions{
		Config:   set,
		Realtime: flagRealtime,
		Print:    out.print,
	})
	if err != nil {
		return err
	}
	out.state(res.State)

	if flagSave {
		if err := saveRun(set, levelID, res.State); err != nil {
			return err
		}
	}

	switch {
	case res.Err != nil:
		return &exitError{code: 1, msg: res.Err.Error()}
	case flagRequireGoal && !res.State.GoalReached:
		return &exitError{code: 2, msg: "goal not reached"}
	}
	return nil
}

// checkRealtime rejects a realtime run whose pace has no animation to
// wait for.
func checkRealtime(set settings) error {
	if config.IsInstantPreset(set.Pace) {
		return fmt.Errorf("--realtime cannot be combined with the %s pace", set.Pace)
	}
	return nil
}

func readProgram(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("cannot read program: %w", err)
	}
	return string(data), nil
}

func saveRun(set settings, levelID string, st engine.PlayerState) error {
	store, err := storage.Open(set.Config.StoragePath())
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.SaveRun(storage.RunFromState(levelID, set.Runtime.Player, st))
	if err != nil {
		return err
	}
	set.Logger.Info("run saved", "id", id, "level", levelID)
	return nil
}

// runOptions configure runProgram.
type runOptions struct {
	Config   settings
	Realtime bool
	// Print is called for every event, in order, from one goroutine.
	Print func(engine.Event)
}

// runResult is the outcome of a headless run.
type runResult struct {
	State engine.PlayerState
	// Err is the learner error that stopped the program early, if any.
	Err *script.Error
}

// runProgram executes src on def and waits until its last command has
// completed.
func runProgram(ctx context.Context, def level.Definition, src string, opts runOptions) (runResult, error) {
	gopts, err := opts.Config.Config.GameOptions()
	if err != nil {
		return runResult{}, err
	}
	gopts.Seed = opts.Config.Runtime.Seed
	gopts.Logger = opts.Config.Logger.WithPrefix("game")

	var backend engine.Backend = engine.InstantBackend{}
	if opts.Realtime {
		animator := anim.NewAnimator(opts.Config.Logger.WithPrefix("anim"))
		driver := anim.NewDriver(animator, opts.Config.Config.Render.FrameRate, opts.Config.Logger.WithPrefix("anim"))
		driverCtx, stopDriver := context.WithCancel(ctx)
		defer stopDriver()
		go driver.Run(driverCtx)
		backend = animator
	} else {
		gopts.Engine.StepDelay = 0
	}

	g := game.New(def, backend, gopts)
	g.Start()
	defer g.Close()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for evt := range channerics.OrDone(ctx.Done(), g.Events()) {
			if opts.Print != nil {
				opts.Print(evt)
			}
			if _, ok := evt.(engine.DrainedEvent); ok {
				return
			}
		}
	}()

	var res runResult
	if err := g.ExecuteProgram(src); err != nil {
		serr, ok := script.AsError(err)
		if !ok {
			return res, err
		}
		res.Err = serr
	}

	<-drained
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run did not finish: %w", err)
	}

	st, err := g.PlayerState()
	if err != nil {
		return res, err
	}
	res.State = st
	return res, nil
}

// eventPrinter writes events as text or JSON lines.
type eventPrinter struct {
	w    io.Writer
	json *json.Encoder
}

func newEventPrinter(w io.Writer, asJSON bool) *eventPrinter {
	p := &eventPrinter{w: w}
	if asJSON {
		p.json = json.NewEncoder(w)
	}
	return p
}

func (p *eventPrinter) print(evt engine.Event) {
	if p.json != nil {
		if e, ok := web.NewEventJSON(evt); ok {
			_ = p.json.Encode(e)
		}
		return
	}

	switch e := evt.(type) {
	case engine.LogEvent:
		fmt.Fprintf(p.w, "%-5s %s\n", strings.ToUpper(e.Severity.String()), e.Text)
	case engine.RewardEvent:
		fmt.Fprintf(p.w, "%+5d %s at %s (total %d)\n", e.Amount, e.Message, e.Cell, e.Total)
	case engine.GoalEvent:
		fmt.Fprintln(p.w, "GOAL  reached!")
	case engine.CommitEvent:
		fmt.Fprintf(p.w, "      at %s facing %s\n", e.Cell, e.Facing.Bucket())
	case engine.DrainedEvent:
		fmt.Fprintln(p.w, "DONE")
	}
}

func (p *eventPrinter) state(st engine.PlayerState) {
	if p.json != nil {
		_ = p.json.Encode(web.EventJSON{Type: web.EventState, State: &st})
		return
	}
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "Position:  %s facing %s\n", st.Position, st.Direction)
	fmt.Fprintf(p.w, "Score:     %d\n", st.Score)
	fmt.Fprintf(p.w, "Cells:     %d\n", st.CellsTraversed)
	fmt.Fprintf(p.w, "Rotations: %d\n", st.Rotations)
	fmt.Fprintf(p.w, "Goal:      %s\n", yesNo(st.GoalReached))
	if len(st.ActionsInvoked) > 0 {
		fmt.Fprintf(p.w, "Actions:   %s\n", strings.Join(st.ActionsInvoked, ", "))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// exitCode maps a command error to a process exit status.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
