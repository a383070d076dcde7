package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/lbwsg/get-draws/internal/adapter/artifact"
	"github.com/lbwsg/get-draws/internal/adapter/gbd"
	kafkaadapter "github.com/lbwsg/get-draws/internal/adapter/kafka"
	"github.com/lbwsg/get-draws/internal/config"
	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/lbwsg/get-draws/internal/observability"
	"github.com/lbwsg/get-draws/internal/pipeline"
)

const metricsJob = "get_draws"

// run pulls the draws described by opts and returns the exit code.
func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return ExitInternal
	}

	if opts.OutputDir != "" {
		abs, err := filepath.Abs(opts.OutputDir)
		if err != nil {
			fmt.Fprintf(stderr, "resolve output directory: %v\n", err)
			return ExitInternal
		}
		opts.OutputDir = abs
	}

	job, label, err := buildJob(opts)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return ExitUsage
	}

	var logger *slog.Logger
	if job.Measure != "" {
		l, closer, err := observability.NewRunLogger(stderr, logPath(opts.OutputDir, opts.Location, job.Measure), cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(stderr, "failed to set up logging: %v\n", err)
			return ExitInternal
		}
		defer closer.Close()
		logger = l
	} else {
		logger = observability.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	}

	metrics := observability.NewMetrics()
	client := gbd.NewClient(cfg.DrawsAPIURL, cfg.DrawsAPIToken, cfg.DrawsTimeout, metrics, logger)

	pipeOpts := []pipeline.Option{pipeline.WithRoundID(cfg.RoundID)}
	if cfg.NotificationsEnabled() {
		notifier := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		pipeOpts = append(pipeOpts, pipeline.WithNotifier(notifier))
	}

	p := pipeline.New(client, client, artifact.NewStore(), logger, metrics, pipeOpts...)
	res, err := p.Run(ctx, job)

	if cfg.PushgatewayURL != "" {
		// Grouping keys must not collide with metric label names (source,
		// outcome, endpoint) or the push is rejected.
		grouping := map[string]string{"location": opts.Location, "measure": label}
		if err := metrics.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL, metricsJob, grouping); err != nil {
			logger.Warn("metrics push failed", "error", err)
		}
	}

	if err != nil {
		logger.Error("Unable to pull data. Exiting.",
			"error", err,
			"location", opts.Location,
			"measure", label,
		)
		code := exitCode(err)
		if opts.ExitZeroOnFetchFailure && drawsFailure(err) {
			return ExitOK
		}
		return code
	}

	fmt.Fprintf(stdout, "Saved %d rows of %s draws for %s (location_id %d) to %s\n",
		res.Rows, label, opts.Location, res.LocationID, res.Path)
	return ExitOK
}

// buildJob maps the flags to a pipeline job and the label used in names and
// logs: the measure in measure mode, the source otherwise.
func buildJob(opts options) (pipeline.Job, string, error) {
	if opts.Measure != "" {
		m, err := domain.ParseMeasure(opts.Measure)
		if err != nil {
			return pipeline.Job{}, "", err
		}
		src, err := m.Source()
		if err != nil {
			return pipeline.Job{}, "", err
		}
		return pipeline.Job{
			Location: opts.Location,
			Measure:  m,
			Source:   src,
			Path:     domain.ArtifactPath(opts.OutputDir, opts.Location, string(m), domain.MeasureModeExt),
		}, string(m), nil
	}

	src, err := domain.ParseSource(opts.Source)
	if err != nil {
		return pipeline.Job{}, "", err
	}
	return pipeline.Job{
		Location: opts.Location,
		Source:   src,
		Path:     domain.ArtifactPath(".", opts.Location, string(src), domain.SourceModeExt),
	}, string(src), nil
}

// exitCode maps a pipeline error to an exit code. Lookup and no-data
// failures are checked first since both may travel inside a FetchError.
func exitCode(err error) int {
	var writeErr *pipeline.WriteError
	var fetchErr *domain.FetchError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, domain.ErrLocationNotFound):
		return ExitInvalidLocation
	case errors.Is(err, domain.ErrNoData):
		return ExitNoData
	case errors.As(err, &writeErr):
		return ExitInternal
	case errors.As(err, &fetchErr):
		return ExitFetchFailure
	default:
		return ExitInternal
	}
}

// drawsFailure reports whether err came from pulling draws rather than from
// resolving the location, which always fails the run.
func drawsFailure(err error) bool {
	var fetchErr *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrLocationNotFound):
		return false
	case errors.Is(err, domain.ErrNoData):
		return true
	case errors.As(err, &fetchErr):
		return fetchErr.Op != "locations"
	default:
		return false
	}
}
