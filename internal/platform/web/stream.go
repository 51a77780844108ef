package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-codequest/internal/anim"
	"github.com/vovakirdan/tui-codequest/internal/engine"
	"github.com/vovakirdan/tui-codequest/internal/game"
	"github.com/vovakirdan/tui-codequest/internal/grid"
	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/script"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Largest program a client may send.
	maxProgramSize = 64 << 10

	// Sprite frames are sent at most this often while an animation runs.
	frameResolution = 50 * time.Millisecond
	pingResolution  = 2 * time.Second
	// Number of lost pings tolerated before the peer is considered gone.
	pongWait = pingResolution * 4
)

// Extra message types that only the stream sends.
const (
	EventLevel = "level"
	EventFrame = "frame"
)

var upgrader = websocket.Upgrader{}

// ErrPongDeadlineExceeded ends a stream whose peer stopped answering pings.
var ErrPongDeadlineExceeded = errors.New("client disconnect, pong deadline exceeded")

// errClientGone ends the errgroup when the peer closes the socket normally.
var errClientGone = errors.New("client closed the stream")

// StreamMessage is one message sent over the stream socket.
type StreamMessage struct {
	EventJSON
	Level  *LevelJSON  `json:"level,omitempty"`
	Sprite *SpriteJSON `json:"sprite,omitempty"`
}

// SpriteJSON is the animated player position in world units.
type SpriteJSON struct {
	Position grid.Point `json:"position"`
	Facing   grid.Angle `json:"facing"`
	Lift     float64    `json:"lift"`
	Alpha    float64    `json:"alpha"`
	Action   string     `json:"action,omitempty"`
}

// streamRun upgrades to a websocket playing one level in real time. Every
// text message from the client is a program; it replaces whatever program
// is running.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("level")
	def, err := registry.Create(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Level not found")
		return
	}
	seed, err := parseSeed(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid seed")
		return
	}
	opts, err := s.opts.Config.GameOptions()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Invalid engine configuration")
		return
	}
	player := r.URL.Query().Get("player")
	if player == "" {
		player = "web"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("level", id, "player", player)
	animator := anim.NewAnimator(logger.WithPrefix("anim"))
	opts.Seed = seed
	opts.Logger = logger.WithPrefix("game")
	g := game.New(def, animator, opts)
	g.Start()
	defer g.Close()

	c := &streamClient{
		conn:     conn,
		game:     g,
		animator: animator,
		driver:   anim.NewDriver(animator, s.opts.FrameRate, logger.WithPrefix("anim")),
		store:    s.store,
		player:   player,
		seed:     seed,
		programs: make(chan string, 1),
		outbox:   make(chan StreamMessage, 8),
		pong:     make(chan struct{}, 1),
		logger:   logger,
	}
	if err := c.sync(r.Context()); err != nil {
		logger.Warn("stream ended", "error", err)
		return
	}
	logger.Debug("stream closed")
}

// streamClient serves one websocket. Only publish writes data frames;
// ping control frames may be written concurrently with them.
type streamClient struct {
	conn     *websocket.Conn
	game     *game.Game
	animator *anim.Animator
	driver   *anim.Driver
	store    *storage.Store
	player   string
	seed     int64
	programs chan string
	outbox   chan StreamMessage
	pong     chan struct{}
	logger   *log.Logger
	// pending is set while a submitted program has not drained yet.
	pending atomic.Bool
}

// sync runs the stream until the peer goes away or an unexpected error
// occurs. A normal closure returns nil.
func (c *streamClient) sync(ctx context.Context) error {
	cfg, err := c.game.Level()
	if err != nil {
		return err
	}
	lvl := NewLevelJSON(cfg, c.seed)
	if err := c.write(StreamMessage{EventJSON: EventJSON{Type: EventLevel}, Level: &lvl}); err != nil {
		return err
	}

	c.conn.SetPongHandler(func(_ string) error {
		select {
		case c.pong <- struct{}{}:
		default:
		}
		return nil
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readMessages(groupCtx)
	})
	group.Go(func() error {
		return c.pingPong(groupCtx)
	})
	group.Go(func() error {
		return c.publish(groupCtx)
	})
	group.Go(func() error {
		return c.execute(groupCtx)
	})
	group.Go(func() error {
		c.driver.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		// Unblocks readMessages once any other member has failed.
		<-groupCtx.Done()
		_ = c.conn.Close()
		return nil
	})

	err = group.Wait()
	if errors.Is(err, errClientGone) {
		return nil
	}
	return err
}

// readMessages queues every text message as a program. A newer program
// replaces one that has not started yet.
func (c *streamClient) readMessages(ctx context.Context) error {
	c.conn.SetReadLimit(maxProgramSize)
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || isClosure(err) {
				return errClientGone
			}
			if isError(err) {
				return fmt.Errorf("read failed: %T %w", err, err)
			}
			return errClientGone
		}
		if mt != websocket.TextMessage {
			continue
		}

		src := string(data)
		select {
		case c.programs <- src:
		default:
			select {
			case <-c.programs:
			default:
			}
			c.programs <- src
		}
	}
}

// execute runs programs one at a time. Learner errors are reported to the
// client and do not end the stream.
func (c *streamClient) execute(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case src := <-c.programs:
			c.pending.Store(true)
			err := c.game.ExecuteProgram(src)
			if err == nil {
				continue
			}
			if _, ok := script.AsError(err); !ok {
				return fmt.Errorf("execute failed: %w", err)
			}
			msg := StreamMessage{EventJSON: EventJSON{Type: EventError, Error: NewErrorJSON(err)}}
			select {
			case c.outbox <- msg:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// pingPong runs the liveness check. readMessages must be running for pongs
// to be seen.
func (c *streamClient) pingPong(ctx context.Context) error {
	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				if isError(err) {
					return fmt.Errorf("ping failed: %T %v", err, err)
				}
				return errClientGone
			}
		case <-c.pong:
			lastPong = time.Now()
		}
	}
}

// publish forwards session events, error reports and sprite frames to the
// client. After each drained program it also sends the final state and
// records the run.
func (c *streamClient) publish(ctx context.Context) error {
	events := channerics.Convert(ctx.Done(), c.game.Events(), func(evt engine.Event) StreamMessage {
		e, _ := NewEventJSON(evt)
		return StreamMessage{EventJSON: e}
	})
	var outbox <-chan StreamMessage = c.outbox
	messages := channerics.Merge(ctx.Done(), events, outbox)
	frames := channerics.NewTicker(ctx.Done(), frameResolution)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frames:
			view := c.animator.View()
			if !view.Sprite.Busy {
				continue
			}
			if err := c.write(frameMessage(view.Sprite)); err != nil {
				return err
			}
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if msg.Type == "" {
				continue
			}
			if err := c.write(msg); err != nil {
				return err
			}
			if msg.Type == EventDrained {
				if err := c.finishRun(); err != nil {
					return err
				}
			}
		}
	}
}

// finishRun sends the committed state and saves the run of the program
// that just drained.
func (c *streamClient) finishRun() error {
	st, err := c.game.PlayerState()
	if err != nil {
		return err
	}
	if err := c.write(StreamMessage{EventJSON: stateEvent(st)}); err != nil {
		return err
	}
	if !c.pending.Swap(false) || c.store == nil {
		return nil
	}
	if _, err := c.store.SaveRun(storage.RunFromState(c.game.LevelID(), c.player, st)); err != nil {
		c.logger.Error("failed to save run", "error", err)
	}
	return nil
}

func (c *streamClient) write(msg StreamMessage) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set deadline: %T %w", err, err)
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		if isError(err) {
			return fmt.Errorf("publish failed: %T %v", err, err)
		}
		return errClientGone
	}
	return nil
}

func frameMessage(s anim.Sprite) StreamMessage {
	return StreamMessage{
		EventJSON: EventJSON{Type: EventFrame},
		Sprite: &SpriteJSON{
			Position: s.Position,
			Facing:   s.Facing,
			Lift:     s.Lift,
			Alpha:    s.Alpha,
			Action:   s.Action.String(),
		},
	}
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
