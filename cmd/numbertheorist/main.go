// Package main is the entry point for the numbertheorist command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dshills/numbertheorist/internal/app"
	"github.com/dshills/numbertheorist/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// rootOptions holds the persistent flags and the process streams.
type rootOptions struct {
	configPath string
	logLevel   string
	dev        bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "numbertheorist",
		Short: "Number Theorist - an idle game about discovering primes",
		Long: `Number Theorist is an idle game: discover primes, earn experience,
level up and spend skill points on skills that discover primes for you.

Run without arguments to play in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.logLevel {
			case "", "debug", "info", "warn", "error":
				return nil
			default:
				return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.logLevel)
			}
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML or YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "Human-readable development logging")

	play := newPlayCmd(opts)
	root.RunE = play.RunE
	root.Flags().AddFlagSet(play.Flags())

	root.AddCommand(
		play,
		newSimulateCmd(opts),
		newInspectCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

// settings loads the configuration and applies the persistent flags.
func (o *rootOptions) settings() (config.Settings, error) {
	s, err := config.Load(o.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	if o.logLevel != "" {
		s.Logging.Level = o.logLevel
	}
	if o.dev {
		s.Logging.Development = true
	}
	return s, s.Validate()
}

func (o *rootOptions) logger(s config.Settings) *zap.Logger {
	return app.NewLogger(app.LoggerConfig{
		Level:       app.ParseLogLevel(s.Logging.Level),
		Development: s.Logging.Development,
		Color:       isTerminal(o.stderr),
		Output:      o.stderr,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newPlayCmd(opts *rootOptions) *cobra.Command {
	var (
		saveFile string
		autosave time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Starts an interactive session. Press enter to discover a prime, type
"help" for the other commands. The game is saved on quit and periodically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			logger := opts.logger(s)

			session, err := app.New(app.Options{
				Settings: &s,
				SaveFile: saveFile,
				Autosave: autosave,
				Logger:   logger,
				Input:    opts.stdin,
				Output:   opts.stdout,
			})
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.Run(cmd.Context())
			if errors.Is(err, app.ErrQuit) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&saveFile, "save", "s", "", "Save file (overrides the configuration)")
	cmd.Flags().DurationVar(&autosave, "autosave", 0, "Autosave period, e.g. 30s (overrides the configuration)")
	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "numbertheorist %s\n", version)
			fmt.Fprintf(opts.stdout, "Commit: %s\n", commit)
			fmt.Fprintf(opts.stdout, "Built: %s\n", date)
		},
	}
}
