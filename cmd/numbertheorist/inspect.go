package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dshills/numbertheorist/internal/app"
	"github.com/dshills/numbertheorist/internal/snapshot"
)

func newInspectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarise a save file",
		Long: `Decodes a save file, legacy or current, and prints what it holds. The
snapshot is checked against the configured roster size.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, found, err := app.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			if !found {
				return &app.OperationError{Op: "inspect", Target: args[0], Err: fs.ErrNotExist}
			}

			w := opts.stdout
			p := message.NewPrinter(language.English)
			p.Fprintf(w, "version:  %d\n", s.Version)
			if s.Session != "" {
				p.Fprintf(w, "session:  %s\n", s.Session)
			}
			if !s.SavedAt.IsZero() {
				p.Fprintf(w, "saved at: %s\n", s.SavedAt.Format("2006-01-02 15:04:05 MST"))
			}
			p.Fprintf(w, "primes:   %d\n", s.PrimesConsumed)
			p.Fprintf(w, "level:    %d (experience %g/%g, skill points %d)\n",
				s.Ledger.Level, s.Ledger.Experience, s.Ledger.ExperienceToNextLevel, s.Ledger.SkillPoints)
			for i, entry := range s.Roster {
				if entry == nil {
					p.Fprintf(w, "slot %d:   empty\n", i)
					continue
				}
				level := gjson.GetBytes(entry.State, "level")
				if level.Exists() {
					p.Fprintf(w, "slot %d:   %s level %d\n", i, entry.Name, level.Int())
				} else {
					p.Fprintf(w, "slot %d:   %s\n", i, entry.Name)
				}
			}

			settings, err := opts.settings()
			if err != nil {
				return err
			}
			if err := s.Validate(settings.Roster.Slots); err != nil {
				fmt.Fprintf(w, "invalid:  %v\n", err)
				return err
			}
			fmt.Fprintln(w, "valid")
			return nil
		},
	}
}

// errNotLegacy is returned when migrating a save that is already current.
var errNotLegacy = errors.New("not a legacy save")

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <legacy> <out>",
		Short: "Convert a legacy save file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &app.OperationError{Op: "migrate", Target: args[0], Err: err}
			}
			if !snapshot.IsLegacy(data) {
				return &app.OperationError{Op: "migrate", Target: args[0], Err: errNotLegacy}
			}

			s, err := snapshot.Unmarshal(data)
			if err != nil {
				return &app.OperationError{Op: "migrate", Target: args[0], Err: err}
			}
			if err := app.WriteSnapshot(args[1], s); err != nil {
				return err
			}
			fmt.Fprintf(opts.stdout, "migrated %s to %s (%d primes, level %d)\n",
				args[0], args[1], s.PrimesConsumed, s.Ledger.Level)
			return nil
		},
	}
}
