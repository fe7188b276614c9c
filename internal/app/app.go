// Package app runs an interactive terminal session of the game.
//
// The session owns a real-time scheduler loop and one game. Input lines
// are parsed on a reader goroutine and posted into the loop, so the game
// is only ever touched from the loop goroutine. Display and progress
// signals are rendered by a Console.
package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/game"
	"github.com/dshills/numbertheorist/internal/schedule"
	"github.com/dshills/numbertheorist/internal/skill"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to a TOML or YAML configuration file.
	ConfigPath string

	// Settings replaces loading ConfigPath when set.
	Settings *config.Settings

	// SaveFile overrides the configured save file. Empty keeps it.
	SaveFile string

	// Autosave overrides the configured autosave period when positive.
	Autosave time.Duration

	// LogLevel overrides the configured logging level.
	LogLevel string

	// Development enables development logging.
	Development bool

	// Logger replaces the logger built from the settings.
	Logger *zap.Logger

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Input supplies command lines. Defaults to os.Stdin.
	Input io.Reader

	// Output receives console lines. Defaults to os.Stdout.
	Output io.Writer
}

// Application is one terminal session.
type Application struct {
	settings config.Settings
	logger   *zap.Logger
	loop     *schedule.Loop
	game     *game.Game
	console  *Console
	metrics  *Metrics
	subs     *event.Group
	input    io.Reader

	saveFile string
	autosave time.Duration

	running atomic.Bool
}

// New creates the session and loads the save file when it exists.
func New(opts Options) (*Application, error) {
	settings, err := loadSettings(opts)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		level := settings.Logging.Level
		if opts.LogLevel != "" {
			level = opts.LogLevel
		}
		logger = NewLogger(LoggerConfig{
			Level:       ParseLogLevel(level),
			Development: opts.Development || settings.Logging.Development,
			Output:      opts.LogOutput,
		})
	}

	app := &Application{
		settings: settings,
		logger:   logger,
		loop:     schedule.NewLoop(schedule.WithLoopLogger(logger)),
		metrics:  NewMetrics(),
		input:    opts.Input,
		saveFile: settings.Session.SaveFile,
		autosave: settings.Session.Autosave.Std(),
	}
	if opts.SaveFile != "" {
		app.saveFile = opts.SaveFile
	}
	if opts.Autosave > 0 {
		app.autosave = opts.Autosave
	}
	if app.input == nil {
		app.input = os.Stdin
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	app.game, err = game.New(app.loop, settings.Rules(), game.WithLogger(logger))
	if err != nil {
		return nil, &InitError{Component: "game", Err: err}
	}
	app.subs = event.NewGroup(app.game.Bus())
	if err := app.metrics.Attach(app.subs); err != nil {
		app.Close()
		return nil, &InitError{Component: "metrics", Err: err}
	}

	if app.saveFile != "" {
		if err := app.load(context.Background()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			app.Close()
			return nil, &InitError{Component: "save file", Err: err}
		}
	}

	app.console = NewConsole(out)
	if err := app.console.Attach(app.subs); err != nil {
		app.Close()
		return nil, &InitError{Component: "console", Err: err}
	}

	logger.Info("session ready",
		zap.String("session", app.game.SessionID()),
		zap.String("save_file", app.saveFile),
		zap.Stringer("settings", settings),
	)
	return app, nil
}

func loadSettings(opts Options) (config.Settings, error) {
	if opts.Settings != nil {
		s := *opts.Settings
		return s, s.Validate()
	}
	return config.Load(opts.ConfigPath)
}

// Run runs the session until the input ends, a quit command arrives or
// ctx is done. The game is saved on the way out when a save file is
// configured. Quitting and the end of input return ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if app.saveFile != "" && app.autosave > 0 {
		app.loop.Every(ctx, app.autosave, func() {
			if err := app.save(true); err != nil {
				app.logger.Warn("autosave failed", zap.Error(err))
			}
		})
	}

	app.loop.PostContext(ctx, func() {
		app.console.Println("type help for commands")
		app.report(app.game.PublishStatus(ctx))
	})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return app.loop.Run(egCtx)
	})
	eg.Go(func() error {
		return app.readInput(egCtx)
	})
	err := eg.Wait()

	// The loop has stopped; the game is ours again.
	if app.saveFile != "" {
		if saveErr := app.save(false); saveErr != nil {
			app.logger.Error("final save failed", zap.Error(saveErr))
			err = errors.Join(err, saveErr)
		}
	}
	return err
}

// readInput parses lines and posts them into the loop.
func (app *Application) readInput(ctx context.Context) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	// The scanner goroutine exits when the input ends or the reader
	// stops listening. A blocking Read on a terminal outlives Run.
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(app.input)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return app.drain(ctx)
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				app.metrics.RecordRejected()
				app.loop.PostContext(ctx, func() {
					app.console.Printf("%v (type help)", err)
				})
				continue
			}
			if cmd.Kind == CmdQuit {
				return app.drain(ctx)
			}
			app.loop.PostContext(ctx, func() {
				app.Execute(ctx, cmd)
			})
		}
	}
}

// drain waits until every command posted so far has run.
func (app *Application) drain(ctx context.Context) error {
	drained := make(chan struct{})
	app.loop.PostContext(ctx, func() { close(drained) })

	select {
	case <-drained:
		return ErrQuit
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs one command. It must be called from the loop goroutine,
// or before Run.
func (app *Application) Execute(ctx context.Context, cmd Command) {
	app.metrics.RecordCommand()

	var err error
	switch cmd.Kind {
	case CmdEnter:
		err = app.game.Trigger(ctx)
	case CmdUpgrade:
		err = app.game.RequestUpgrade(ctx, resolveSkill(cmd.Skill))
	case CmdSave:
		if err = app.save(false); err == nil {
			app.console.Printf("saved to %s", app.saveFile)
		}
	case CmdLoad:
		err = app.load(ctx)
	case CmdReset:
		err = app.game.Reset(ctx)
	case CmdStatus:
		err = app.game.PublishStatus(ctx)
		m := app.metrics.Snapshot()
		app.console.Printf("session %s: %d commands, %d primes, %d saves, %d autosaves",
			app.game.SessionID(), m.Commands, m.Primes, m.Saves, m.Autosaves)
	case CmdHelp:
		app.console.Println(helpText)
	case CmdQuit:
		// Handled by the input reader.
	}
	app.report(err)
}

func (app *Application) report(err error) {
	if err == nil {
		return
	}
	app.metrics.RecordError()
	app.logger.Warn("command failed", zap.Error(err))
	if app.console != nil {
		app.console.Printf("error: %v", err)
	}
}

func (app *Application) save(auto bool) error {
	if app.saveFile == "" {
		return ErrNoSaveFile
	}
	s, err := app.game.Save()
	if err != nil {
		return err
	}
	if err := WriteSnapshot(app.saveFile, s); err != nil {
		return err
	}
	app.metrics.RecordSave(auto)
	app.logger.Debug("saved", zap.String("file", app.saveFile), zap.Bool("auto", auto))
	return nil
}

func (app *Application) load(ctx context.Context) error {
	if app.saveFile == "" {
		return ErrNoSaveFile
	}
	s, found, err := ReadSnapshot(app.saveFile)
	if err != nil {
		return err
	}
	if !found {
		return &OperationError{Op: "load", Target: app.saveFile, Err: fs.ErrNotExist}
	}
	if err := app.game.Load(ctx, s); err != nil {
		return &OperationError{Op: "load", Target: app.saveFile, Err: err}
	}
	app.logger.Info("save loaded", zap.String("file", app.saveFile), zap.String("saved_session", s.Session))
	return nil
}

// resolveSkill maps a case-insensitive skill name onto its registered form.
func resolveSkill(name string) string {
	for _, known := range skill.Names() {
		if strings.EqualFold(known, name) {
			return known
		}
	}
	return name
}

// IsRunning reports whether Run is in progress.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Game returns the session's game.
func (app *Application) Game() *game.Game { return app.game }

// Loop returns the session's scheduler loop.
func (app *Application) Loop() *schedule.Loop { return app.loop }

// Metrics returns the session counters.
func (app *Application) Metrics() *Metrics { return app.metrics }

// Logger returns the session logger.
func (app *Application) Logger() *zap.Logger { return app.logger }

// SaveFile returns the save file path, or "" when saving is disabled.
func (app *Application) SaveFile() string { return app.saveFile }

// Close releases the game. It must not be called while Run is in progress.
func (app *Application) Close() {
	if app.subs != nil {
		app.subs.Close()
	}
	if app.game != nil {
		app.game.Close()
	}
	_ = app.logger.Sync()
}

