package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/diogo/agi/internal/api"
	"github.com/diogo/agi/internal/chat"
	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/logging"
	"github.com/diogo/agi/internal/storage"
	"github.com/diogo/agi/internal/tui"
	"github.com/diogo/agi/internal/views"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Viper carries flags and environment
	Viper *viper.Viper

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Gateway, when set, replaces the provider router
	Gateway api.Gateway

	// RunTUI starts the interactive interface
	RunTUI func(cfg tui.Config) error

	// Copy writes text to the clipboard
	Copy func(string) error

	// StdoutIsTerminal reports whether replies can be rendered for a terminal
	StdoutIsTerminal func() bool

	// StdinIsPipe reports whether a prompt is being piped in
	StdinIsPipe func() bool
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Viper:  config.NewViper(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		RunTUI: tui.Run,
		Copy:   clipboard.WriteAll,
		StdoutIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		StdinIsPipe: func() bool {
			stat, err := os.Stdin.Stat()
			if err != nil {
				return false
			}
			return (stat.Mode() & os.ModeCharDevice) == 0
		},
	}
}

// app is the wired application for one command invocation
type app struct {
	runtime  config.Runtime
	logger   zerolog.Logger
	kv       storage.KV
	settings *config.SettingsStore
	gateway  api.Gateway
	views    *views.Controller
	chat     *chat.Store

	closers []io.Closer
}

// openApp loads the runtime config and wires storage, settings, gateway and
// the conversation store. Interactive runs log to a file in the data
// directory because the terminal belongs to the UI.
func (d *Dependencies) openApp(interactive bool) (*app, error) {
	rt, err := config.LoadRuntime(d.Viper)
	if err != nil {
		return nil, err
	}

	a := &app{runtime: rt, views: views.NewController()}

	if rt.Storage != storage.BackendMemory || interactive {
		if _, err := config.EnsureDir(rt.DataDir); err != nil {
			return nil, err
		}
	}

	if interactive {
		logger, closer, err := logging.OpenFile(rt.LogLevel, rt.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logger = logger
		a.closers = append(a.closers, closer)
	} else {
		a.logger = logging.NewConsole(rt.LogLevel, d.Stderr)
	}

	kv, err := storage.Open(rt.Storage, rt.DataDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.kv = kv
	a.settings = config.NewSettingsStore(kv, a.logger)

	if d.Gateway != nil {
		a.gateway = d.Gateway
	} else {
		router := api.NewRouter(api.CredentialsFromRuntime(rt), a.logger)
		a.gateway = router
		a.closers = append(a.closers, router)
	}

	a.chat = chat.NewStore(a.gateway, a.activeSettings,
		chat.WithNavigator(a.views),
		chat.WithLogger(a.logger),
		chat.WithTimeout(rt.RequestTimeout),
	)
	a.logger.Debug().
		Str("data_dir", rt.DataDir).
		Str("storage", string(rt.Storage)).
		Str("session_id", a.chat.SessionID()).
		Msg("application ready")
	return a, nil
}

// openSettings wires only storage and settings, for the settings commands
func (d *Dependencies) openSettings() (*app, error) {
	rt, err := config.LoadRuntime(d.Viper)
	if err != nil {
		return nil, err
	}
	a := &app{runtime: rt, logger: logging.NewConsole(rt.LogLevel, d.Stderr)}
	if rt.Storage != storage.BackendMemory {
		if _, err := config.EnsureDir(rt.DataDir); err != nil {
			return nil, err
		}
	}
	kv, err := storage.Open(rt.Storage, rt.DataDir)
	if err != nil {
		return nil, err
	}
	a.kv = kv
	a.settings = config.NewSettingsStore(kv, a.logger)
	return a, nil
}

// activeSettings is the persisted settings with the session overrides on top
func (a *app) activeSettings() config.AppSettings {
	return a.runtime.Effective(a.settings.Current())
}

// Close releases everything the app opened, storage last
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// tuiConfig builds the interactive UI configuration
func (a *app) tuiConfig(ctx context.Context, copyFn func(string) error) tui.Config {
	return tui.Config{
		Chat:      a.chat,
		Views:     a.views,
		Settings:  a.settings,
		Active:    a.activeSettings,
		ExportDir: a.runtime.DataDir,
		Copy:      copyFn,
		Context:   ctx,
	}
}
