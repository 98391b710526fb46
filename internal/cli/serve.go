package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindweave/pkg/observability"
	"github.com/matzehuels/mindweave/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)
	cmd := &cobra.Command{
		Use:   "serve <map>",
		Short: "Serve a mind map over the read-only HTTP API",
		Long: `Serve a mind map over HTTP until interrupted.

Routes include /v1/map, /v1/map/nodes/{id}, /v1/map/search, /v1/map/path,
/v1/map/layout and /v1/map/export.dot. Prometheus metrics are served at
/metrics unless disabled in the config or with --no-metrics.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), args[0], addr, noMetrics)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, name, addr string, noMetrics bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	lc := c.openCache(ctx, false)
	defer lc.Close()
	eng, st, err := c.loadMap(ctx, name, lc)
	if err != nil {
		return err
	}
	st.Close()

	opts := []server.Option{
		server.WithLogger(c.Logger),
		server.WithLayout(cfg.Layout.DefaultAlgorithm(), cfg.Layout.Config),
	}
	if cfg.Server.Metrics && !noMetrics {
		opts = append(opts, server.WithMetrics(c.registerMetrics()))
		defer observability.Reset()
	}

	printSuccess("Serving %s", name)
	printDetail("http://%s/v1/map", cfg.Server.Addr)
	if err := server.New(eng, opts...).ListenAndServe(ctx, cfg.Server); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// registerMetrics installs Prometheus hooks for the engine, cache and HTTP
// layers and returns the handler exposing them.
func (c *CLI) registerMetrics() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	p := observability.NewPrometheus(reg)
	observability.SetEngineHooks(p)
	observability.SetCacheHooks(p)
	observability.SetHTTPHooks(p)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
