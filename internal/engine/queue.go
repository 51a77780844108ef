package engine

// Queue is a FIFO of commands with at most one command in flight.
//
// Queue holds no timers and starts nothing itself: the session decides when
// to Start the head and reports completion with Advance. It is not safe for
// concurrent use; the session loop owns it.
type Queue struct {
	pending  []Command
	current  Command
	inFlight bool
}

// Enqueue appends a command to the tail. It reports whether the queue is
// idle, meaning the caller should Start the head now.
func (q *Queue) Enqueue(c Command) bool {
	q.pending = append(q.pending, c)
	return !q.inFlight
}

// Start takes the head of the queue and marks it in flight.
// It returns false when a command is already in flight or nothing is pending.
func (q *Queue) Start() (Command, bool) {
	if q.inFlight || len(q.pending) == 0 {
		return Command{}, false
	}
	q.current = q.pending[0]
	q.pending[0] = Command{}
	q.pending = q.pending[1:]
	q.inFlight = true
	return q.current, true
}

// Advance completes the command in flight. It returns the completed command,
// or false when nothing was in flight.
func (q *Queue) Advance() (Command, bool) {
	if !q.inFlight {
		return Command{}, false
	}
	done := q.current
	q.current = Command{}
	q.inFlight = false
	return done, true
}

// Clear drops every pending command and the in-flight marker.
// It returns the number of commands discarded, counting the one in flight.
func (q *Queue) Clear() int {
	n := len(q.pending)
	if q.inFlight {
		n++
	}
	q.pending = nil
	q.current = Command{}
	q.inFlight = false
	return n
}

// Current returns the command in flight.
func (q *Queue) Current() (Command, bool) {
	return q.current, q.inFlight
}

// Busy reports whether a command is in flight.
func (q *Queue) Busy() bool { return q.inFlight }

// Len returns the number of commands not yet started.
func (q *Queue) Len() int { return len(q.pending) }

// Idle reports whether nothing is in flight and nothing is pending.
func (q *Queue) Idle() bool { return !q.inFlight && len(q.pending) == 0 }
