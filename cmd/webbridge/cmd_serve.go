package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webbridge/internal/api/middleware"
	"github.com/GriffinCanCode/webbridge/internal/bridge"
	"github.com/GriffinCanCode/webbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webbridge/internal/window"
	"github.com/GriffinCanCode/webbridge/internal/window/remote"
)

func newServeCmd(global *globalOptions) *cobra.Command {
	var (
		addr string
		page string
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the counter demo to a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if addr != "" {
				cfg.Remote.Addr = addr
			}

			html := counterPage
			if page != "" {
				data, err := os.ReadFile(page)
				if err != nil {
					return fmt.Errorf("failed to read page: %w", err)
				}
				html = string(data)
			}

			winCfg := remote.DefaultConfig()
			winCfg.Addr = cfg.Remote.Addr
			winCfg.AssetsDir = cfg.Remote.AssetsDir
			winCfg.AllowedOrigins = cfg.Remote.AllowedOrigins
			winCfg.RateLimitEnabled = cfg.Remote.RateLimit.Enabled
			winCfg.RateLimitGlobal = cfg.Remote.RateLimit.Global
			winCfg.RateLimit = middleware.RateLimitConfig{
				RequestsPerSecond: cfg.Remote.RateLimit.RequestsPerSecond,
				Burst:             cfg.Remote.RateLimit.Burst,
				IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
			}
			winCfg.Logger = logger.Component("window.remote")

			var metrics *monitoring.Metrics
			if cfg.Remote.Metrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				metrics = monitoring.NewMetrics(reg)
				winCfg.Metrics = metrics
				winCfg.Gatherer = reg
			}

			win := remote.New(winCfg)
			defer win.Destroy()
			win.SetTitle(cfg.Window.Title)
			win.SetSize(cfg.Window.Width, cfg.Window.Height, window.HintNone)

			b, err := bridge.New(win,
				bridge.WithLogger(logger.Component("bridge")),
				bridge.WithMetrics(metrics),
			)
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
			if err := win.SetHtml(html); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				logger.Info("Shutting down")
				win.Terminate()
			}()
			if tick > 0 {
				go emitTicks(ctx, b, tick)
			}

			logger.Info("Serving counter demo", zap.String("addr", cfg.Remote.Addr))
			return win.Run()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&page, "page", "", "HTML file to serve instead of the counter page")
	cmd.Flags().DurationVar(&tick, "tick", 0, "emit a tick event at this interval")
	return cmd
}

// emitTicks sends numbered tick events until ctx is done. Emissions while no
// page is connected are dropped.
func emitTicks(ctx context.Context, b *bridge.Bridge, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n++
			_ = b.Emit("tick", map[string]int{"n": n})
		}
	}
}
