package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gametel/gametel-go/internal/collector"
	"github.com/gametel/gametel-go/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Default flag values.
const (
	defaultAddr   = ":8080"
	defaultRetain = 1000
)

func main() {
	var (
		addr        = flag.String("addr", defaultAddr, "Listen address")
		apiKey      = flag.String("api-key", "", "API key ingest requests must present (empty disables the check)")
		retain      = flag.Int("retain", defaultRetain, "How many recent events to keep for /recent")
		latencyMin  = flag.Duration("latency-min", 0, "Injected ingest latency lower bound")
		latencyMax  = flag.Duration("latency-max", 0, "Injected ingest latency upper bound")
		failureRate = flag.Float64("failure-rate", 0, "Fraction of payloads refused with 503")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log level; falling back to info",
			logger.String("log_level", *logLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	log := logger.Get().Named("collector")

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := collector.NewMemStore(collector.WithCapacity(*retain))
	svc := collector.New(store,
		collector.WithAPIKey(*apiKey),
		collector.WithLatencyRange(*latencyMin, *latencyMax),
		collector.WithFailureRate(*failureRate),
		collector.WithLogger(log),
	)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := collector.NewServer(svc, svc)
	apiServer.Register(mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting collector",
			logger.String("addr", *addr),
			logger.Int("retain", *retain),
			logger.Float64("failure_rate", *failureRate))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down collector...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "collector shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "collector stopped")
}
