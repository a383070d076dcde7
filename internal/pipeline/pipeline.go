package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lbwsg/get-draws/internal/domain"
	"github.com/lbwsg/get-draws/internal/observability"
)

// MetadataSource provides location and age-group metadata.
type MetadataSource interface {
	Locations(ctx context.Context, locationSetID, roundID int) ([]domain.LocationRecord, error)
	AgeGroups(ctx context.Context, ageGroupSetID, roundID int) ([]int, error)
}

// DrawFetcher pulls a draws table from the draws service.
type DrawFetcher interface {
	Draws(ctx context.Context, req domain.DrawsRequest) (domain.DrawsTable, error)
}

// ArtifactStore removes and writes draws artifacts.
type ArtifactStore interface {
	Remove(path string) (bool, error)
	Write(path string, table domain.DrawsTable) error
}

// Notifier announces written artifacts.
type Notifier interface {
	Notify(ctx context.Context, event domain.ArtifactWritten) error
}

// Job describes one pull. Measure is empty when the caller asked for a
// source directly.
type Job struct {
	Location string
	Measure  domain.Measure
	Source   domain.Source
	Path     string
}

// Result summarizes a completed or failed run.
type Result struct {
	RunID      string
	LocationID int
	Source     domain.Source
	Path       string
	Rows       int
	Duration   time.Duration
}

// Pipeline runs remove → resolve → fetch → write → notify for a single job.
type Pipeline struct {
	meta     MetadataSource
	resolver *LocationResolver
	fetcher  DrawFetcher
	store    ArtifactStore
	notifier Notifier
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	roundID  int
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithNotifier publishes an event after every successful write.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithClock replaces the real clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRoundID overrides domain.DefaultRoundID.
func WithRoundID(id int) Option {
	return func(p *Pipeline) { p.roundID = id }
}

// New creates a Pipeline with the given stages and observability.
func New(meta MetadataSource, fetcher DrawFetcher, store ArtifactStore, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		meta:    meta,
		fetcher: fetcher,
		store:   store,
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
		roundID: domain.DefaultRoundID,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resolver = NewLocationResolver(meta, p.roundID)
	return p
}

// Run executes the job. The artifact at job.Path is removed before anything
// is fetched, so on failure no artifact is left behind.
func (p *Pipeline) Run(ctx context.Context, job Job) (res Result, err error) {
	start := p.clock.Now()
	res = Result{RunID: uuid.NewString(), Source: job.Source, Path: job.Path}
	logger := p.logger.With("run_id", res.RunID)

	defer func() {
		res.Duration = p.clock.Since(start)
		p.metrics.Pulls.WithLabelValues(string(job.Source), outcomeOf(err)).Inc()
		p.metrics.PullDuration.Observe(res.Duration.Seconds())
	}()

	existed, err := p.store.Remove(job.Path)
	if err != nil {
		return res, &WriteError{Path: job.Path, Err: err}
	}
	if existed {
		logger.Info("removed old file", "path", job.Path)
	}

	res.LocationID, err = p.resolver.Resolve(ctx, job.Location)
	if err != nil {
		return res, err
	}

	logger.Info("attempting to pull data",
		"source", job.Source,
		"location", job.Location,
		"location_id", res.LocationID,
		"round_id", p.roundID,
	)

	ageGroups, err := p.meta.AgeGroups(ctx, domain.AgeGroupSetID, p.roundID)
	if err != nil {
		return res, &domain.FetchError{Op: "age_groups", Err: err}
	}

	req := domain.NewDrawsRequest(job.Source, res.LocationID, ageGroups, p.roundID)
	table, err := p.fetcher.Draws(ctx, req)
	if err != nil {
		return res, &domain.FetchError{Op: "draws", Err: err}
	}

	logger.Info("data pulling successful, writing artifact", "path", job.Path, "rows", table.Len())

	if err := p.store.Write(job.Path, table); err != nil {
		return res, &WriteError{Path: job.Path, Err: err}
	}
	res.Rows = table.Len()
	p.metrics.RowsWritten.Add(float64(res.Rows))
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))

	p.notify(ctx, logger, job, res)
	return res, nil
}

// notify publishes the artifact event. Failures are logged, never returned:
// the artifact is already on disk.
func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, job Job, res Result) {
	if p.notifier == nil {
		return
	}
	event := domain.ArtifactWritten{
		RunID:      res.RunID,
		Location:   job.Location,
		LocationID: res.LocationID,
		Measure:    string(job.Measure),
		Source:     job.Source,
		Path:       job.Path,
		Rows:       res.Rows,
		WrittenAt:  p.clock.Now().UTC(),
	}
	if err := p.notifier.Notify(ctx, event); err != nil {
		logger.Warn("artifact notification failed", "error", err)
		p.metrics.NotifyErrors.Inc()
	}
}

// WriteError reports a failure to persist the artifact.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write artifact %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func outcomeOf(err error) string {
	var writeErr *WriteError
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, domain.ErrLocationNotFound):
		return observability.OutcomeLocationNotFound
	case errors.Is(err, domain.ErrNoData):
		return observability.OutcomeNoData
	case errors.As(err, &writeErr):
		return observability.OutcomeWriteError
	default:
		return observability.OutcomeFetchError
	}
}
