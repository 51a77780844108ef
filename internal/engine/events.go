package engine

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-codequest/internal/grid"
)

// Event is something a session reports to its host.
type Event interface {
	engineEvent()
}

// LogEvent is a learner-facing message.
type LogEvent struct {
	Text     string
	Severity log.Level
}

func (LogEvent) engineEvent() {}

// RewardEvent reports a reward or, with a negative amount, a penalty.
type RewardEvent struct {
	Amount  int
	Total   int
	Message string
	Cell    grid.Cell
}

func (RewardEvent) engineEvent() {}

// GoalEvent is raised once when the goal is collected.
type GoalEvent struct{}

func (GoalEvent) engineEvent() {}

// DrainedEvent is raised when a program has finished and its queue is empty.
type DrainedEvent struct{}

func (DrainedEvent) engineEvent() {}

// CommitEvent reports a new authoritative grid position.
type CommitEvent struct {
	Cell   grid.Cell
	Facing grid.Angle
}

func (CommitEvent) engineEvent() {}

// notifier delivers events in order without ever blocking or dropping.
// send appends to an unbounded backlog; a pump goroutine moves the backlog
// onto the buffered channel returned by Session.Events.
type notifier struct {
	events      chan Event
	mu          sync.Mutex
	backlog     []Event
	wake        chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	undelivered int
}

func newNotifier(size int) *notifier {
	if size < 1 {
		size = 64
	}
	n := &notifier{
		events:  make(chan Event, size),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go n.pump()
	return n
}

func (n *notifier) send(evt Event) {
	n.mu.Lock()
	n.backlog = append(n.backlog, evt)
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) pump() {
	defer close(n.stopped)
	defer close(n.events)
	for {
		n.mu.Lock()
		batch := n.backlog
		n.backlog = nil
		n.mu.Unlock()

		for i, evt := range batch {
			select {
			case <-n.done:
				n.undelivered += len(batch) - i
				return
			default:
			}
			select {
			case n.events <- evt:
			case <-n.done:
				n.undelivered += len(batch) - i
				return
			}
		}

		select {
		case <-n.wake:
		case <-n.done:
			return
		}
	}
}

// close stops the pump and closes the channel. Events still in the backlog
// are discarded; their count is returned.
func (n *notifier) close() int {
	n.closeOnce.Do(func() {
		close(n.done)
		<-n.stopped
		n.mu.Lock()
		n.undelivered += len(n.backlog)
		n.backlog = nil
		n.mu.Unlock()
	})
	return n.undelivered
}
