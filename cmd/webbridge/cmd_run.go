package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/bridge"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/webbridge/internal/shared/codec"
	"github.com/GriffinCanCode/webbridge/internal/window/headless"
)

func newRunCmd(global *globalOptions) *cobra.Command {
	var (
		wait  time.Duration
		exprs []string
	)

	cmd := &cobra.Command{
		Use:   "run <page.html>",
		Short: "Load a page in the headless window and print its console",
		Long: "Load a page in the headless window with the counter exposed as window.app,\n" +
			"evaluate each --eval expression (promises are awaited) and print the\n" +
			"captured console output.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			win := headless.New(headless.Config{
				ScriptTimeout: cfg.Headless.ScriptTimeout,
				FetchTimeout:  cfg.Headless.FetchTimeout,
				FetchBreaker: resilience.Settings{
					Threshold: cfg.Headless.FetchFailures,
					Cooldown:  cfg.Headless.FetchCooldown,
				},
				EnableConsole: true,
				Logger:        logger.Component("window.headless"),
			})
			defer win.Destroy()
			win.SetTitle(cfg.Window.Title)

			b, err := bridge.New(win, bridge.WithLogger(logger.Component("bridge")))
			if err != nil {
				return err
			}
			defer b.Close()

			app, err := newCounter()
			if err != nil {
				return err
			}
			app.onChange(func(property string) {
				if err := b.Changed(app, property); err != nil {
					logger.Debug("Property update not delivered", zap.String("property", property), zap.Error(err))
				}
			})
			if err := b.Expose("app", app); err != nil {
				return err
			}

			if err := win.Navigate("file://" + filepath.ToSlash(path)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, expr := range exprs {
				if err := evalAndPrint(cmd.Context(), out, win, expr, cfg.Headless.ScriptTimeout); err != nil {
					return err
				}
			}

			if wait > 0 {
				select {
				case <-time.After(wait):
				case <-cmd.Context().Done():
				}
			}

			for _, entry := range win.Console() {
				fmt.Fprintf(out, "[%s] %s\n", entry.Level, entry.Message)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 100*time.Millisecond, "time to let timers and pending calls run before printing")
	cmd.Flags().StringArrayVarP(&exprs, "eval", "e", nil, "expression to evaluate after load, may be repeated")
	return cmd
}

func evalAndPrint(ctx context.Context, out io.Writer, win *headless.Window, expr string, timeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := win.Await(ctx, expr)
	if err != nil {
		return fmt.Errorf("eval %q: %w", expr, err)
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("eval %q: %w", expr, err)
	}
	fmt.Fprintf(out, "%s => %s\n", expr, data)
	return nil
}
