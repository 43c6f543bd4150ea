package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/internal/telemetry"
	"github.com/marmos91/feedpager/pkg/config"
	"github.com/marmos91/feedpager/pkg/feedserver"
	"github.com/marmos91/feedpager/pkg/metrics"
)

var (
	servePort      int
	servePosts     int
	serveFailEvery int
	serveLatency   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo feed server",
	Long: `Start an HTTP server that serves a generated feed in the format the
pager reads.

Fault injection (--fail-every) and artificial latency (--latency) make the
cache preview and the retry path visible when browsing.

Examples:
  # Serve 200 posts on :8080
  feedpager serve

  # Fail every third request and delay every answer
  feedpager serve --fail-every 3 --latency 500ms

  # With environment variable overrides
  FEEDPAGER_LOGGING_LEVEL=DEBUG feedpager serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default: server.port)")
	serveCmd.Flags().IntVar(&servePosts, "posts", 0, "Number of generated posts (default: server.posts)")
	serveCmd.Flags().IntVar(&serveFailEvery, "fail-every", -1, "Answer every n-th feed request with 503 (0 disables)")
	serveCmd.Flags().DurationVar(&serveLatency, "latency", -1, "Delay added to every feed answer")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(&cfg.Server)

	ctx, cancel := signalContext()
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "feedpager",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer done()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "feedpager",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	if err := config.WatchLogLevel(GetConfigFile()); err != nil && !errors.Is(err, config.ErrNoConfigFile) {
		logger.Warn("Config file watch disabled", logger.Err(err))
	}

	// Metrics must be enabled before any collector is created.
	if config.InitializeMetrics(cfg.Metrics) {
		stopMetrics := startMetricsServer(cfg.Metrics.Port)
		defer stopMetrics()
	}

	catalog := feedserver.NewCatalog(cfg.Server.Posts, time.Now())
	srv, err := feedserver.NewServer(cfg.Server, catalog, metrics.NewHTTPMetrics())
	if err != nil {
		return err
	}

	if tokens := srv.Tokens(); tokens != nil {
		token, expires, err := tokens.IssueToken("feedpager-cli", cfg.Feed.UserID)
		if err != nil {
			return err
		}
		logger.Info("Auth enabled", "expires", expires.Format(time.RFC3339))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Bearer token (set feed.token or FEEDPAGER_FEED_TOKEN):\n  %s\n", token)
	}

	logger.Info("Server is running. Press Ctrl+C to stop.",
		"posts", catalog.Len(),
		"fail_every", cfg.Server.FailEvery,
		"latency", cfg.Server.Latency)

	if err := srv.Start(ctx); err != nil {
		logger.Error("Server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func applyServeFlags(c *feedserver.Config) {
	if servePort > 0 {
		c.Port = servePort
	}
	if servePosts > 0 {
		c.Posts = servePosts
	}
	if serveFailEvery >= 0 {
		c.FailEvery = serveFailEvery
	}
	if serveLatency >= 0 {
		c.Latency = serveLatency
	}
}

// startMetricsServer serves /metrics on its own port and returns a stop
// function.
func startMetricsServer(port int) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Metrics server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", logger.Err(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
