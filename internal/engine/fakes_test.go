package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// startedAnim is an animation a manual fakeBackend is holding.
type startedAnim struct {
	anim Animation
	done func(error)
}

// fakeBackend records every call. In auto mode it completes animations on a
// separate goroutine; otherwise it hands them to the test through started.
type fakeBackend struct {
	mu          sync.Mutex
	auto        bool
	fail        error
	anims       []Animation
	active      int
	maxActive   int
	stops       int
	decorations map[grid.Cell]Decoration
	placed      []grid.Point
	started     chan startedAnim
}

func newFakeBackend(auto bool) *fakeBackend {
	return &fakeBackend{
		auto:        auto,
		decorations: make(map[grid.Cell]Decoration),
		started:     make(chan startedAnim, 64),
	}
}

func (b *fakeBackend) Animate(a Animation, done func(error)) {
	b.mu.Lock()
	b.anims = append(b.anims, a)
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	auto, fail := b.auto, b.fail
	b.mu.Unlock()

	finish := func(err error) {
		b.mu.Lock()
		if b.active > 0 {
			b.active--
		}
		b.mu.Unlock()
		done(err)
	}

	if auto {
		go func() {
			time.Sleep(time.Millisecond)
			finish(fail)
		}()
		return
	}
	b.started <- startedAnim{anim: a, done: finish}
}

func (b *fakeBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stops++
	b.active = 0
}

func (b *fakeBackend) Decorate(cell grid.Cell, d Decoration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decorations[cell] = d
}

func (b *fakeBackend) Undecorate(cell grid.Cell) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.decorations, cell)
}

func (b *fakeBackend) Place(p grid.Point, _ grid.Angle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.placed = append(b.placed, p)
}

func (b *fakeBackend) snapshot() (anims []Animation, maxActive, stops int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Animation(nil), b.anims...), b.maxActive, b.stops
}

func (b *fakeBackend) decoration(cell grid.Cell) (Decoration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.decorations[cell]
	return d, ok
}

// fakeClock fires a pacing delay only when the test calls tick.
type fakeClock struct {
	mu      sync.Mutex
	pending []chan time.Time
}

func (c *fakeClock) After(time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.pending = append(c.pending, ch)
	return ch
}

func (c *fakeClock) waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *fakeClock) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.pending {
		ch <- time.Time{}
	}
	c.pending = nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.StepDelay = 0
	opts.Logger = log.New(io.Discard)
	return opts
}

// collectUntilDrained reads events until DrainedEvent arrives.
func collectUntilDrained(events <-chan Event) ([]Event, error) {
	var out []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out, errors.New("event stream closed before drained")
			}
			out = append(out, e)
			if _, done := e.(DrainedEvent); done {
				return out, nil
			}
		case <-timeout:
			return out, fmt.Errorf("timed out waiting for drained, got %v", out)
		}
	}
}

// pendingEvents returns whatever is buffered without waiting.
func pendingEvents(events <-chan Event) []Event {
	var out []Event
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func commits(events []Event) []grid.Cell {
	var cells []grid.Cell
	for _, e := range events {
		if c, ok := e.(CommitEvent); ok {
			cells = append(cells, c.Cell)
		}
	}
	return cells
}

func rewardsOf(events []Event) []RewardEvent {
	var out []RewardEvent
	for _, e := range events {
		if r, ok := e.(RewardEvent); ok {
			out = append(out, r)
		}
	}
	return out
}

func countEvents[T Event](events []Event) int {
	n := 0
	for _, e := range events {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}

func logsOf(events []Event, severity log.Level) []string {
	var out []string
	for _, e := range events {
		if l, ok := e.(LogEvent); ok && l.Severity == severity {
			out = append(out, l.Text)
		}
	}
	return out
}

// runProgram clears the session, enqueues the commands as one program and
// waits for it to drain.
func runProgram(s *Session, cmds ...Command) ([]Event, error) {
	if _, err := s.BeginProgram(); err != nil {
		return nil, err
	}
	if err := s.Enqueue(cmds...); err != nil {
		return nil, err
	}
	if err := s.EndProgram(); err != nil {
		return nil, err
	}
	return collectUntilDrained(s.Events())
}

func receiveStarted(b *fakeBackend) (startedAnim, error) {
	select {
	case st := <-b.started:
		return st, nil
	case <-time.After(2 * time.Second):
		return startedAnim{}, errors.New("no animation started")
	}
}
