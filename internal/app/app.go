package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"ruliad/internal/clipboard"
	"ruliad/internal/config"
	"ruliad/internal/store"
	"ruliad/internal/store/postgres"
	"ruliad/internal/store/sqlite"
	"ruliad/internal/tui/views"
)

// App owns the wired dependencies for one program run: the config, the
// persistence gateway, the clipboard service and the logger.
type App struct {
	cfg     *config.Config
	gateway store.Gateway
	clip    *clipboard.Service
	log     *zap.Logger

	closers []io.Closer
}

// Option configures the App.
type Option func(*App)

// WithGateway overrides the config-selected store backend.
func WithGateway(gw store.Gateway) Option {
	return func(a *App) {
		a.gateway = gw
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// New builds an App from cfg, opening the persistence backend the
// config selects.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}

	if a.gateway == nil {
		gw, closer, err := openGateway(cfg)
		if err != nil {
			return nil, err
		}
		a.gateway = gw
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	a.clip = clipboard.NewService(a.gateway, cfg.User)
	return a, nil
}

func openGateway(cfg *config.Config) (store.Gateway, io.Closer, error) {
	switch cfg.Store {
	case "postgres":
		_, env := cfg.Resolve(cfg.DefaultEnv)
		st, err := postgres.New(env.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return st, st, nil
	case "sqlite", "":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err := sqlite.New(filepath.Join(cfg.DataDir, "ruliad.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, st, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Gateway returns the persistence gateway.
func (a *App) Gateway() store.Gateway {
	return a.gateway
}

// Clipboard returns the clipboard service.
func (a *App) Clipboard() *clipboard.Service {
	return a.clip
}

// Logger returns the logger.
func (a *App) Logger() *zap.Logger {
	return a.log
}

// tuiModel adapts the MainView to the bubbletea Model interface.
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// RunTUI starts the interactive navigator and blocks until it exits.
func (a *App) RunTUI() error {
	view := views.NewMainView(a.cfg, a.gateway, a.clip, a.log)
	program := tea.NewProgram(tuiModel{view: view}, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = a.log.Sync()
	return firstErr
}
