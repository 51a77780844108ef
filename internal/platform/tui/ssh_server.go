package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-codequest/internal/config"
	"github.com/vovakirdan/tui-codequest/internal/core"
	"github.com/vovakirdan/tui-codequest/internal/registry"
	"github.com/vovakirdan/tui-codequest/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.codequest/host_key.
	HostKeyPath string

	// DBPath is the path to the run history database.
	DBPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Config drives the engine and the renderer of every session.
	Config config.Config

	// FrameRate overrides Config.Render.FrameRate when positive.
	FrameRate int
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		Config:      config.DefaultConfig(),
	}
}

// SSHServer wraps a Wish SSH server. Every connection plays its own
// sessions; the run history is shared.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "codequest-ssh",
	})

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = cfg.Config.StoragePath()
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Warn("could not open run history", "path", dbPath, "error", err)
		// Continue without storage
		store = nil
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		hostKeyPath = filepath.Join(config.DataDir(), "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	// Create Wish server options
	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	// Create the server
	server, err := wish.NewServer(opts...)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	frameRate := s.config.FrameRate
	if frameRate <= 0 {
		frameRate = s.config.Config.Render.FrameRate
	}
	rt := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: frameRate,
		Player:   sshSession.User(),
	}

	// Session model handles the menu -> play flow
	model := NewSessionModel(PlayOptions{
		Config:  s.config.Config,
		Runtime: rt,
		Store:   s.store,
		Logger:  s.logger.WithPrefix(sshSession.User()),
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	// Setup signal handling for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.store != nil {
		s.store.Close()
	}

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// sessionScreen is the screen a SessionModel is showing.
type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenPlay
	screenRuns
)

// SessionModel manages the full session flow: level menu -> play -> menu,
// with the run history reachable from the menu. It is the top-level model
// of SSH sessions.
//
// Child models end with tea.Quit when they are done; the session drops that
// command and switches screens instead.
type SessionModel struct {
	opts     PlayOptions
	theme    Theme
	screen   sessionScreen
	menu     MenuModel
	play     *PlayModel
	runs     ScoreboardModel
	status   string
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(opts PlayOptions) SessionModel {
	theme := ThemeByName(opts.Config.Render.Theme)
	return SessionModel{
		opts:  opts,
		theme: theme,
		menu:  NewMenuModel(opts.Store, opts.Runtime, theme, opts.Logger),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.opts.Runtime.ScreenW = wsm.Width
		m.opts.Runtime.ScreenH = wsm.Height
	}

	switch m.screen {
	case screenPlay:
		return m.updatePlay(msg)
	case screenRuns:
		return m.updateRuns(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	switch {
	case m.menu.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.menu.WantsScoreboard():
		levelID := ""
		if sel := m.menu.Selected(); sel != nil {
			levelID = sel.LevelID
		}
		m.runs = NewScoreboardModel(m.opts.Store, levelID, m.opts.Runtime.ScreenW, m.opts.Runtime.ScreenH, m.opts.Logger)
		m.screen = screenRuns
		return m, m.runs.Init()

	case m.menu.Selected() != nil:
		def, err := registry.Create(m.menu.Selected().LevelID)
		if err != nil {
			return m.backToMenu(err.Error())
		}
		opts := m.opts
		opts.Runtime.Seed = time.Now().UnixNano()
		play, err := NewPlayModel(def, opts)
		if err != nil {
			return m.backToMenu(err.Error())
		}
		m.play = &play
		m.screen = screenPlay
		m.status = ""
		return m, m.play.Init()
	}

	return m, cmd
}

// updatePlay handles updates when a level is being played.
func (m SessionModel) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.play.Update(msg)
	if playModel, ok := newModel.(PlayModel); ok {
		m.play = &playModel
	}

	if m.play.IsQuitting() {
		m.play.Close()
		m.play = nil
		m.quitting = true
		return m, tea.Quit
	}

	if m.play.BackToMenu() {
		m.play.Close()
		m.play = nil
		return m.backToMenu("")
	}

	return m, cmd
}

// updateRuns handles updates when the run history is shown.
func (m SessionModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.runs.Update(msg)
	if runsModel, ok := newModel.(ScoreboardModel); ok {
		m.runs = runsModel
	}

	if m.runs.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.runs.IsGoingBack() {
		return m.backToMenu("")
	}
	return m, cmd
}

// backToMenu rebuilds the menu so best scores are fresh.
func (m SessionModel) backToMenu(status string) (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.status = status
	m.menu = NewMenuModel(m.opts.Store, m.opts.Runtime, m.theme, m.opts.Logger)
	return m, m.menu.Init()
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenPlay:
		if m.play != nil {
			return m.play.View()
		}
	case screenRuns:
		return m.runs.View()
	}

	view := m.menu.View()
	if m.status != "" {
		view += "\n" + m.theme.LogError.Render(centerText(m.status, m.opts.Runtime.ScreenW))
	}
	return view
}
