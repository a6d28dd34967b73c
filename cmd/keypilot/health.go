package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/keypilot/keypilot/api"
	"github.com/keypilot/keypilot/prefs"
)

func newHealthCmd(getApp func() *app) *cobra.Command {
	var (
		watch       bool
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe backend availability",
		Long: `Probe the backend health endpoint once and exit, or poll it with
--watch. While watching, --metrics-addr exposes Prometheus request
metrics, and external edits to the preference store are picked up
live (a login from another terminal is noticed here).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := getApp()

			if !watch {
				return probe(context.Background(), a)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				go serveMetrics(a, metricsAddr)
			}

			// A login or logout from another process lands in the
			// preference store; re-restore so the banner reflects it.
			if fs, ok := a.store.(*prefs.FileStore); ok {
				w, err := prefs.NewWatcher(prefs.WatcherConfig{
					Path:     fs.Path(),
					OnChange: a.sessions.Restore,
					Logger:   a.logger,
				})
				if err != nil {
					a.logger.Warn("Store watcher unavailable", "error", err)
				} else {
					if err := w.Start(ctx); err != nil {
						a.logger.Warn("Store watcher failed to start", "error", err)
					}
					defer w.Close()
				}
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			_ = probe(ctx, a)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					_ = probe(ctx, a)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Poll interval with --watch")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address with --watch")

	return cmd
}

func probe(ctx context.Context, a *app) error {
	start := time.Now()
	err := a.client.Health(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	session := "signed out"
	if cur := a.sessions.Current(); cur.Authenticated() {
		session = "signed in as " + cur.UserID
	}

	if err != nil {
		if api.IsUnavailable(err) {
			fmt.Printf("%s  backend UNREACHABLE (%s)  [%s]\n",
				time.Now().Format("15:04:05"), elapsed, session)
		} else {
			fmt.Printf("%s  backend DEGRADED: %v  [%s]\n",
				time.Now().Format("15:04:05"), err, session)
		}
		return err
	}

	fmt.Printf("%s  backend ok (%s)  [%s]\n",
		time.Now().Format("15:04:05"), elapsed, session)
	return nil
}

func serveMetrics(a *app, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	a.logger.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		a.logger.Error("Metrics server stopped", "error", err)
	}
}
