// Command mockserver serves a fake draws service for local runs of get_draws.
//
// Usage:
//
//	go run ./cmd/mockserver -addr :8089 -draws 100
//	go run ./cmd/mockserver -dataset testdata/dataset.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lbwsg/get-draws/internal/adapter/gbdfake"
	"github.com/lbwsg/get-draws/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", ":8089", "listen address")
	draws := flag.Int("draws", 100, "number of draw columns per row")
	datasetPath := flag.String("dataset", "", "JSON dataset file (defaults to a built-in dataset)")
	token := flag.String("token", "", "require this bearer token on /v1 routes")
	dump := flag.Bool("dump", false, "print the dataset as JSON and exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := observability.NewLogger(os.Stderr, *logLevel, "text")

	data := gbdfake.DefaultDataset(*draws)
	if *datasetPath != "" {
		var err error
		if data, err = gbdfake.LoadDataset(*datasetPath); err != nil {
			logger.Error("failed to load dataset", "error", err)
			return 1
		}
	}
	if err := data.Validate(); err != nil {
		logger.Error("invalid dataset", "error", err)
		return 1
	}
	if *dump {
		if err := data.WriteJSON(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	srv := gbdfake.NewServer(*addr, data, logger, gbdfake.WithToken(*token))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http server error", "error", err)
		return 1
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
		return 1
	}
	logger.Info("shutdown complete")
	return 0
}
