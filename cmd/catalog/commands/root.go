package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/Lixing-Zhang/product-catalog/internal/catalog"
	"github.com/Lixing-Zhang/product-catalog/internal/client"
	"github.com/Lixing-Zhang/product-catalog/internal/config"
	"github.com/Lixing-Zhang/product-catalog/internal/metrics"
	"github.com/Lixing-Zhang/product-catalog/internal/querycache"
	"github.com/Lixing-Zhang/product-catalog/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// interactiveAnnotation marks commands that own the terminal; their logs go
// to --log-file or nowhere.
const interactiveAnnotation = "interactive"

// rootOptions holds the global flags and the services built from them.
type rootOptions struct {
	apiURL      string
	logLevel    string
	logFile     string
	envFile     string
	metricsAddr string
	jsonOutput  bool

	logger  *slog.Logger
	catalog *catalog.Catalog
	closers []func()
}

// NewRootCmd builds the catalog command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Product catalog console",
		Long: `catalog manages the products served by a products REST API.

Run without a subcommand to open the interactive UI. The list, create,
update and delete subcommands are meant for scripts and accept --json.

Configuration is read from the environment (CATALOG_API_URL, LOG_LEVEL, ...),
optionally seeded from a .env file. Flags override the environment.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{interactiveAnnotation: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.setup(cmd); err != nil {
				opts.teardown()
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", "", "Products API base URL (env CATALOG_API_URL)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.StringVar(&opts.logFile, "log-file", "", "Write logs to this file (env LOG_FILE)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (env METRICS_ADDR)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	cmd.AddCommand(
		newUICmd(opts),
		newListCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newDeleteCmd(opts),
	)

	// PersistentPostRun is skipped when RunE fails, so teardown is deferred
	// around every RunE instead.
	for _, c := range append([]*cobra.Command{cmd}, cmd.Commands()...) {
		if run := c.RunE; run != nil {
			c.RunE = func(cmd *cobra.Command, args []string) error {
				defer opts.teardown()
				return run(cmd, args)
			}
		}
	}
	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.BaseURL = o.apiURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var logOut io.Writer = cmd.ErrOrStderr()
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.closers = append(o.closers, func() { _ = f.Close() })
		logOut = f
	case cmd.Annotations[interactiveAnnotation] == "true":
		logOut = io.Discard
	}
	o.logger = logger.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Format)

	collector := metrics.NewCollector("catalog")
	if cfg.MetricsAddr != "" {
		o.serveMetrics(cfg.MetricsAddr, collector)
	}

	api, err := client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.RequestTimeout),
		client.WithLogger(o.logger),
		client.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	store := querycache.New(querycache.Options{
		KeepUnusedFor: cfg.Cache.KeepUnusedFor,
		Logger:        o.logger,
		Metrics:       collector,
	})
	o.closers = append(o.closers, store.Close)

	o.catalog, err = catalog.New(api, store, o.logger)
	if err != nil {
		return err
	}

	o.logger.Debug("catalog configured", "api_url", api.BaseURL(), "command", cmd.Name())
	return nil
}

func (o *rootOptions) serveMetrics(addr string, collector *metrics.Collector) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		o.logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("metrics server failed", "error", err)
		}
	}()

	o.closers = append(o.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

func (o *rootOptions) teardown() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
	o.closers = nil
}
