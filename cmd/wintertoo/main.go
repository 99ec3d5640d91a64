// Command wintertoo turns target-of-opportunity observation requests
// into validated schedule files for the nightly queue.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/winter-telescope/wintertoo/internal/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// serveMetrics exposes prometheus metrics for long-running invocations.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
}
