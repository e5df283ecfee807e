package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/config"
	"github.com/hylla/sudsboard/internal/tui"
)

// readModelStartTimeout bounds the wait for the first snapshot of every collection.
const readModelStartTimeout = 10 * time.Second

// tuiCmd opens the terminal dashboard. It is also the root default.
func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

// runTUI runs the dashboard over a live read model until the program exits.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	return opts.withRuntime(cmd, "tui", func(ctx context.Context, rt *runtime) error {
		// Runtime logs stay in the dev-file sink while the dashboard owns the terminal.
		rt.logger.SetConsoleEnabled(false)
		defer rt.logger.SetConsoleEnabled(true)

		rmCtx, cancel := context.WithCancel(ctx)
		rm := app.NewReadModel(rt.store, rt.logger)
		done := make(chan error, 1)
		go func() {
			done <- rm.Run(rmCtx)
		}()
		defer func() {
			cancel()
			if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
				rt.logger.Warn("read model stopped with error", "err", err)
			}
		}()

		waitCtx, waitCancel := context.WithTimeout(ctx, readModelStartTimeout)
		err := rm.WaitReady(waitCtx)
		waitCancel()
		if err != nil {
			return fmt.Errorf("wait for read model: %w", err)
		}
		rt.logger.Info("read model ready", "namespace", rt.cfg.Namespace, "version", rm.Version())

		m := tui.NewModel(rm, rt.svc,
			tui.WithTitle("sudsboard · "+rt.cfg.Namespace),
			tui.WithKeyConfig(keyConfigFrom(rt.cfg.Keys)),
		)
		rt.logger.Info("starting tui program loop")
		if _, err := programFactory(m).Run(); err != nil {
			rt.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// keyConfigFrom maps config key overrides onto dashboard bindings.
func keyConfigFrom(cfg config.KeysConfig) tui.KeyConfig {
	return tui.KeyConfig{
		MoveAssetUp:   cfg.MoveAssetUp,
		MoveAssetDown: cfg.MoveAssetDown,
		CopyReport:    cfg.CopyReport,
		NextView:      cfg.NextView,
		CycleCategory: cfg.CycleCategory,
	}
}
