package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/app"
	"github.com/dshills/numbertheorist/internal/game"
	"github.com/dshills/numbertheorist/internal/schedule"
	"github.com/dshills/numbertheorist/internal/snapshot"
)

// maxDrainSteps bounds the tasks run after the last press.
const maxDrainSteps = 100000

type simulateOptions struct {
	presses  int
	upgrades []string
	asJSON   bool
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var sim simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play headless on a virtual clock",
		Long: `Presses enter the given number of times, waiting out the Enter cooldown
between presses on a virtual clock. After every press one upgrade of each
--upgrade skill is requested; requests without a skill point are ignored.
Running Auto cycles are finished before the final state is printed.

Example:
  numbertheorist simulate --presses 200 --upgrade Auto --upgrade PrimeTheorem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sim.presses < 0 {
				return fmt.Errorf("--presses must not be negative, got %d", sim.presses)
			}
			s, err := opts.settings()
			if err != nil {
				return err
			}
			logger := opts.logger(s)
			defer func() { _ = logger.Sync() }()

			sched := schedule.NewManual(schedule.Epoch)
			g, err := game.New(sched, s.Rules(), game.WithLogger(logger))
			if err != nil {
				return err
			}
			defer g.Close()

			if err := simulate(cmd, g, sched, sim, logger); err != nil {
				return err
			}
			return report(opts.stdout, g, sched, sim.asJSON)
		},
	}
	cmd.Flags().IntVarP(&sim.presses, "presses", "n", 100, "Number of enter presses")
	cmd.Flags().StringArrayVarP(&sim.upgrades, "upgrade", "u", nil, "Skill to upgrade after each press (repeatable)")
	cmd.Flags().BoolVar(&sim.asJSON, "json", false, "Print the final snapshot as JSON")
	return cmd
}

func simulate(cmd *cobra.Command, g *game.Game, sched *schedule.Manual, sim simulateOptions, logger *zap.Logger) error {
	ctx := cmd.Context()
	for i := 0; i < sim.presses; i++ {
		if err := g.Trigger(ctx); err != nil {
			return fmt.Errorf("press %d: %w", i+1, err)
		}
		for _, name := range sim.upgrades {
			if err := g.RequestUpgrade(ctx, name); err != nil {
				return fmt.Errorf("press %d: %w", i+1, err)
			}
		}
		sched.Advance(g.Rules().EnterCooldown(g.Ledger().Level()))
	}

	for steps := 0; sched.Pending() > 0; steps++ {
		if steps == maxDrainSteps {
			logger.Warn("tasks still pending after the last press", zap.Int("pending", sched.Pending()))
			break
		}
		due, ok := sched.NextDue()
		if !ok {
			break
		}
		sched.Advance(due.Sub(sched.Now()))
	}
	return nil
}

func report(w io.Writer, g *game.Game, sched *schedule.Manual, asJSON bool) error {
	if asJSON {
		s, err := g.Save()
		if err != nil {
			return err
		}
		data, err := snapshot.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	fmt.Fprintln(w, app.FormatEvent(g.Status()))
	fmt.Fprintf(w, "virtual time %s\n", sched.Now().Sub(schedule.Epoch).Round(time.Millisecond))
	for i := 0; i < g.Roster().Size(); i++ {
		sk := g.Roster().Slot(i)
		if sk == nil {
			fmt.Fprintf(w, "slot %d: empty\n", i)
			continue
		}
		fmt.Fprintf(w, "slot %d: %s level %d\n", i, sk.Name(), sk.Level())
	}
	return nil
}
