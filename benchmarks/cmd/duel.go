package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/zeu5/gridduel/benchmarks/common"
	"github.com/zeu5/gridduel/benchmarks/duel"
	"github.com/zeu5/gridduel/core"
	"github.com/zeu5/gridduel/util"
)

type prepareFunc func(*common.Flags, duel.Output) (*core.Comparison, error)

func RunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Train and test a random agent against a Q-learning agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComparison(duel.PrepareDuelComparison)
		},
	}
}

func CompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Run the reference duel next to random, scripted and self-play baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComparison(duel.PrepareBaselineComparison)
		},
	}
}

func runComparison(prepare prepareFunc) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		cancel()
	}()
	defer close(doneCh)

	logger, err := util.NewLogger(os.Stderr, logLevel(flags))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	colored := isatty.IsTerminal(os.Stdout.Fd())

	cmp, err := prepare(flags, duel.Output{
		Logger:  logger,
		Results: os.Stdout,
		Colored: colored,
	})
	if err != nil {
		return err
	}

	rConfig := &core.RunConfig{
		TrainEpisodes: flags.TrainEpisodes,
		TestEpisodes:  flags.TestEpisodes,
		Horizon:       flags.Horizon,
		Seed:          flags.Seed,
		SwapStart:     flags.SwapStart,
		Logger:        logger,
	}
	if flags.Progress {
		rConfig.Printer = util.NewTerminalPrinter(os.Stderr, 100*time.Millisecond)
	}
	logger.Info("starting", "seed", flags.Seed, "runs", flags.NumRuns, "experiments", len(cmp.Experiments), "save_path", flags.SavePath)
	return cmp.Run(ctx, flags.NumRuns, rConfig, flags.Parallelism)
}

// logLevel keeps info and debug records off stderr while the progress lines
// are being redrawn there.
func logLevel(f *common.Flags) string {
	if !f.Progress {
		return f.LogLevel
	}
	level, err := util.ParseLevel(f.LogLevel)
	if err != nil || level < slog.LevelWarn {
		return "warn"
	}
	return f.LogLevel
}
