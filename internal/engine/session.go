// Package engine runs learner programs against a level.
//
// A Session owns the authoritative player position, facing, reward state and
// command queue of one loaded level. All of that state lives inside a single
// goroutine; callers talk to it through methods that post requests to the
// loop. Commands execute strictly in enqueue order with exactly one command
// in flight, and each commit is evaluated for rewards before the next command
// starts.
package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/level"
)

// ErrClosed is returned by calls on a closed session.
var ErrClosed = errors.New("engine: session closed")

// CollisionPolicy controls whether blocked terrain stops movement.
type CollisionPolicy uint8

const (
	// CollisionsPermissive lets the player walk over blocked terrain.
	CollisionsPermissive CollisionPolicy = iota
	// CollisionsBlock refuses steps onto blocked terrain.
	CollisionsBlock
)

// ParseCollisionPolicy parses "permissive" or "block".
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(s) {
	case "", "permissive":
		return CollisionsPermissive, nil
	case "block":
		return CollisionsBlock, nil
	}
	return CollisionsPermissive, fmt.Errorf("engine: unknown collision policy %q", s)
}

// TeleportPolicy controls whether a teleport moves the grid position.
type TeleportPolicy uint8

const (
	// TeleportVisual moves only the sprite; the grid position is untouched.
	TeleportVisual TeleportPolicy = iota
	// TeleportSnap commits the nearest in-bounds cell like a move would.
	TeleportSnap
)

// ParseTeleportPolicy parses "visual" or "snap".
func ParseTeleportPolicy(s string) (TeleportPolicy, error) {
	switch strings.ToLower(s) {
	case "", "visual":
		return TeleportVisual, nil
	case "snap":
		return TeleportSnap, nil
	}
	return TeleportVisual, fmt.Errorf("engine: unknown teleport policy %q", s)
}

// Durations are the animation lengths handed to the backend.
type Durations struct {
	Step       time.Duration
	Turn       time.Duration
	Jump       time.Duration
	Attack     time.Duration
	Teleport   time.Duration
	Spin       time.Duration
	JumpHeight float64
}

// Options configure a session.
type Options struct {
	Mapper      grid.Mapper
	Durations   Durations
	StepDelay   time.Duration
	Collisions  CollisionPolicy
	Teleport    TeleportPolicy
	Rewards     RewardValues
	EventBuffer int
	Clock       Clock
	Logger      *log.Logger
}

// DefaultOptions returns options with normal pacing.
func DefaultOptions() Options {
	return Options{
		Mapper: grid.NewMapper(32, grid.Point{}),
		Durations: Durations{
			Step:       400 * time.Millisecond,
			Turn:       250 * time.Millisecond,
			Jump:       500 * time.Millisecond,
			Attack:     300 * time.Millisecond,
			Teleport:   600 * time.Millisecond,
			Spin:       600 * time.Millisecond,
			JumpHeight: 16,
		},
		StepDelay:   100 * time.Millisecond,
		Rewards:     DefaultRewardValues(),
		EventBuffer: 1024,
	}
}

// request is a message to the session loop.
type request interface {
	sessionRequest()
}

type enqueueReq struct{ cmds []Command }
type invokeReq struct{ action string }
type logReq struct {
	text     string
	severity log.Level
}
type clearReq struct {
	beginProgram bool
	reply        chan PlayerState
}
type endProgramReq struct{}
type resetReq struct {
	cfg   *level.Config
	reply chan PlayerState
}
type stateReq struct{ reply chan PlayerState }
type levelReq struct{ reply chan *level.Config }

func (enqueueReq) sessionRequest()    {}
func (invokeReq) sessionRequest()     {}
func (logReq) sessionRequest()        {}
func (clearReq) sessionRequest()      {}
func (endProgramReq) sessionRequest() {}
func (resetReq) sessionRequest()      {}
func (stateReq) sessionRequest()      {}
func (levelReq) sessionRequest()      {}

// movePlan is computed when a move starts and applied when it completes.
type movePlan struct {
	target grid.Cell
	ok     bool
	reason string
}

// Session is the execution context of one loaded level.
type Session struct {
	id      string
	backend Backend
	opts    Options
	clock   Clock
	logger  *log.Logger
	events  *notifier

	inbox     chan request
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	// Owned by the loop goroutine.
	level      *level.Config
	queue      Queue
	tracker    *Tracker
	rewards    *Rewards
	completion chan error
	pacing     <-chan time.Time
	plan       movePlan
	executing  bool
}

// NewSession creates a session for a resolved level. Call Start to run it.
func NewSession(cfg *level.Config, backend Backend, opts Options) *Session {
	if backend == nil {
		backend = InstantBackend{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	if opts.Mapper.CellSize <= 0 {
		opts.Mapper = grid.NewMapper(opts.Mapper.CellSize, opts.Mapper.Origin)
	}
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "engine",
		})
	}

	return &Session{
		id:      id,
		backend: backend,
		opts:    opts,
		clock:   clock,
		logger:  logger.With("session", id[:8], "level", cfg.ID()),
		events:  newNotifier(opts.EventBuffer),
		inbox:   make(chan request, 256),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		level:   cfg,
		tracker: NewTracker(cfg.Start(), cfg.StartFacing()),
		rewards: NewRewards(cfg, opts.Rewards),
	}
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Events returns the event stream. It is closed by Close.
func (s *Session) Events() <-chan Event { return s.events.events }

// Start decorates the level and begins processing requests.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// Close stops the loop, abandons any animation in flight and closes the
// event stream. Safe to call multiple times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		// A session that was never started has no loop to wait for.
		s.startOnce.Do(func() { close(s.stopped) })
		<-s.stopped
		s.backend.Stop()
		if n := s.events.close(); n > 0 {
			s.logger.Debug("events not delivered before close", "count", n)
		}
	})
}

// Enqueue appends commands to the queue. Draining starts immediately when
// nothing is in flight.
func (s *Session) Enqueue(cmds ...Command) error {
	if len(cmds) == 0 {
		return nil
	}
	return s.send(enqueueReq{cmds: cmds})
}

// Invoke records that a host action was called.
func (s *Session) Invoke(action string) error {
	return s.send(invokeReq{action: action})
}

// Log emits a learner-facing message in order with the other events.
func (s *Session) Log(text string, severity log.Level) error {
	return s.send(logReq{text: text, severity: severity})
}

// Clear discards pending commands and halts the one in flight. It returns
// the committed state the queue was left in.
func (s *Session) Clear() (PlayerState, error) {
	reply := make(chan PlayerState, 1)
	return s.ask(clearReq{reply: reply}, reply)
}

// BeginProgram clears the queue, starts a fresh execution log and holds back
// the drained signal until EndProgram.
func (s *Session) BeginProgram() (PlayerState, error) {
	reply := make(chan PlayerState, 1)
	return s.ask(clearReq{beginProgram: true, reply: reply}, reply)
}

// EndProgram marks the program as fully loaded. The drained signal fires once
// the queue empties.
func (s *Session) EndProgram() error {
	return s.send(endProgramReq{})
}

// Reset clears the queue and restarts the player on a freshly resolved level.
func (s *Session) Reset(cfg *level.Config) (PlayerState, error) {
	reply := make(chan PlayerState, 1)
	return s.ask(resetReq{cfg: cfg, reply: reply}, reply)
}

// State returns the committed player state.
func (s *Session) State() (PlayerState, error) {
	reply := make(chan PlayerState, 1)
	return s.ask(stateReq{reply: reply}, reply)
}

// Level returns the level currently loaded.
func (s *Session) Level() (*level.Config, error) {
	reply := make(chan *level.Config, 1)
	if err := s.send(levelReq{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case cfg := <-reply:
		return cfg, nil
	case <-s.done:
		return nil, ErrClosed
	}
}

func (s *Session) send(req request) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.inbox <- req:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) ask(req request, reply chan PlayerState) (PlayerState, error) {
	if err := s.send(req); err != nil {
		return PlayerState{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return PlayerState{}, ErrClosed
	}
}

func (s *Session) run() {
	defer close(s.stopped)

	s.decorate()
	s.place()

	for {
		select {
		case req := <-s.inbox:
			s.handle(req)
		case err := <-s.completion:
			s.complete(err)
		case <-s.pacing:
			s.pacing = nil
			s.startNext()
		case <-s.done:
			return
		}
	}
}

func (s *Session) handle(req request) {
	switch r := req.(type) {
	case enqueueReq:
		for _, c := range r.cmds {
			s.queue.Enqueue(c)
		}
		s.startNext()
	case invokeReq:
		s.tracker.RecordInvocation(r.action)
	case logReq:
		s.events.send(LogEvent{Text: r.text, Severity: r.severity})
	case clearReq:
		s.clear()
		if r.beginProgram {
			s.tracker.ResetLog()
			s.executing = true
		}
		r.reply <- s.state()
	case endProgramReq:
		s.executing = false
		s.maybeDrained()
	case resetReq:
		s.clear()
		s.executing = false
		s.undecorate()
		s.level = r.cfg
		s.tracker.Reset(r.cfg.Start(), r.cfg.StartFacing())
		s.rewards.Reset(r.cfg)
		s.decorate()
		s.place()
		s.logger.Debug("level reset")
		r.reply <- s.state()
	case stateReq:
		r.reply <- s.state()
	case levelReq:
		r.reply <- s.level
	}
}

// startNext starts the head of the queue unless a command is in flight or
// the pacing delay is still running.
func (s *Session) startNext() {
	if s.pacing != nil {
		return
	}
	cmd, ok := s.queue.Start()
	if !ok {
		return
	}

	ch := make(chan error, 1)
	s.completion = ch
	anim := s.animationFor(cmd)
	s.backend.Animate(anim, func(err error) {
		select {
		case ch <- err:
		default:
		}
	})
}

func (s *Session) complete(err error) {
	s.completion = nil
	cmd, ok := s.queue.Advance()
	if !ok {
		return
	}
	if err != nil {
		s.logger.Warn("animation failed", "command", cmd, "error", err)
		s.events.send(LogEvent{
			Text:     fmt.Sprintf("The %s animation did not finish, moving on.", cmd),
			Severity: log.WarnLevel,
		})
	}

	s.commit(cmd)

	if s.queue.Len() > 0 {
		if s.opts.StepDelay > 0 {
			s.pacing = s.clock.After(s.opts.StepDelay)
			return
		}
		s.startNext()
		return
	}
	s.maybeDrained()
}

func (s *Session) animationFor(cmd Command) Animation {
	pos := s.tracker.Position()
	facing := s.tracker.Facing().Degrees()
	here := s.opts.Mapper.CellToWorld(pos)
	d := s.opts.Durations

	switch cmd.Kind {
	case CmdMove:
		s.plan = s.planMove(pos.Step(cmd.Direction))
		kind := AnimWalk
		if !s.plan.ok {
			kind = AnimBump
		}
		return Animation{
			Kind:     kind,
			From:     here,
			To:       s.opts.Mapper.CellToWorld(s.plan.target),
			Duration: d.Step,
		}
	case CmdTurn:
		return Animation{Kind: AnimRotate, FromAngle: facing, ToAngle: facing + cmd.Degrees, Duration: d.Turn}
	case CmdWait:
		return Animation{Kind: AnimPause, Duration: cmd.Duration}
	case CmdRelocate:
		to := cmd.Target
		if s.opts.Teleport == TeleportSnap {
			s.plan = s.planMove(s.snapCell(cmd.Target))
			to = s.opts.Mapper.CellToWorld(s.plan.target)
		}
		return Animation{Kind: AnimTeleport, From: here, To: to, Duration: d.Teleport}
	case CmdPose:
		switch cmd.Pose {
		case PoseJump:
			return Animation{Kind: AnimJump, From: here, To: here, Height: d.JumpHeight, Duration: d.Jump}
		case PoseSpin:
			return Animation{Kind: AnimSpin, FromAngle: facing, ToAngle: facing + 360, Duration: d.Spin}
		default:
			return Animation{Kind: AnimAttack, From: here, To: here, Duration: d.Attack}
		}
	}
	return Animation{Kind: AnimPause}
}

func (s *Session) planMove(target grid.Cell) movePlan {
	if !s.level.Bounds().Contains(target) {
		return movePlan{target: target, reason: "You can't walk off the edge of the world."}
	}
	if s.opts.Collisions == CollisionsBlock && s.level.IsBlocked(target) {
		return movePlan{target: target, reason: fmt.Sprintf("Something blocks the way at %s.", target)}
	}
	return movePlan{target: target, ok: true}
}

func (s *Session) snapCell(p grid.Point) grid.Cell {
	return s.level.Bounds().Clamp(s.opts.Mapper.WorldToCell(p))
}

// commit applies the effects of a finished command.
func (s *Session) commit(cmd Command) {
	switch cmd.Kind {
	case CmdMove:
		s.commitPlan(true)
	case CmdTurn:
		s.tracker.CommitTurn(cmd.Degrees)
	case CmdRelocate:
		if s.opts.Teleport == TeleportSnap {
			s.commitPlan(false)
		}
	case CmdPose:
		if cmd.Pose == PoseSpin {
			s.tracker.CommitSpin()
		}
	}
}

func (s *Session) commitPlan(walked bool) {
	plan := s.plan
	s.plan = movePlan{}
	if !plan.ok {
		s.events.send(LogEvent{Text: plan.reason, Severity: log.WarnLevel})
		return
	}

	s.tracker.CommitPosition(plan.target, walked)
	s.events.send(CommitEvent{Cell: plan.target, Facing: s.tracker.Facing()})

	out := s.rewards.OnPositionCommitted(plan.target)
	for _, evt := range out.Events {
		s.events.send(evt)
	}
	if out.Collected {
		s.backend.Undecorate(plan.target)
	}
	if out.GoalReached {
		s.backend.Decorate(plan.target, Decoration{Kind: DecorGoalReached})
	}
}

// clear empties the queue and resynchronizes the sprite with the committed
// position.
func (s *Session) clear() {
	n := s.queue.Clear()
	if s.completion != nil {
		s.backend.Stop()
		s.completion = nil
	}
	s.pacing = nil
	s.plan = movePlan{}
	s.place()
	if n > 0 {
		s.logger.Debug("queue cleared", "discarded", n)
	}
}

func (s *Session) maybeDrained() {
	if s.executing || !s.queue.Idle() || s.pacing != nil {
		return
	}
	s.events.send(DrainedEvent{})
}

func (s *Session) place() {
	s.backend.Place(s.opts.Mapper.CellToWorld(s.tracker.Position()), s.tracker.Facing())
}

func (s *Session) decorate() {
	for _, c := range s.level.Collectibles() {
		s.backend.Decorate(c.Cell, Decoration{Kind: DecorCollectible, Collectible: c.Kind})
	}
	for _, cell := range s.level.Hazards() {
		s.backend.Decorate(cell, Decoration{Kind: DecorHazard})
	}
	if goal, ok := s.level.Goal(); ok {
		s.backend.Decorate(goal, Decoration{Kind: DecorGoal})
	}
}

func (s *Session) undecorate() {
	for _, c := range s.level.Collectibles() {
		s.backend.Undecorate(c.Cell)
	}
	for _, cell := range s.level.Hazards() {
		s.backend.Undecorate(cell)
	}
	if goal, ok := s.level.Goal(); ok {
		s.backend.Undecorate(goal)
	}
}

func (s *Session) state() PlayerState {
	st := s.tracker.State()
	st.Score = s.rewards.Total()
	st.GoalReached = s.rewards.Goal() == GoalCollected
	return st
}
