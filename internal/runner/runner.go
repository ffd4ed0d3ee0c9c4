// Package runner schedules analysis jobs and persists their results as
// live artifacts.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/darshankharvi/Trading/internal/analysis"
	"github.com/darshankharvi/Trading/internal/artifact"
)

// Runner invokes the producer and persists each result, optionally
// encrypting the artifact right after the write.
type Runner struct {
	analyzer analysis.Analyzer
	store    *artifact.Store
	log      zerolog.Logger
	encrypt  bool
	interval time.Duration
	tracer   trace.Tracer

	now func() time.Time // test hook
}

// New creates a Runner. interval only matters for RunLoop.
func New(analyzer analysis.Analyzer, store *artifact.Store, logger zerolog.Logger, encrypt bool, interval time.Duration) *Runner {
	return &Runner{
		analyzer: analyzer,
		store:    store,
		log:      logger,
		encrypt:  encrypt,
		interval: interval,
		tracer:   otel.Tracer("github.com/darshankharvi/Trading/internal/runner"),
		now:      time.Now,
	}
}

// RunOnce executes a single analysis for ticker and persists the result.
func (r *Runner) RunOnce(ctx context.Context, ticker string) error {
	now := r.now()
	date := now.Format("2006-01-02")

	ctx, span := r.tracer.Start(ctx, "runner.RunOnce",
		trace.WithAttributes(
			attribute.String("ticker", ticker),
			attribute.String("date", date),
		))
	defer span.End()

	r.log.Info().Str("ticker", ticker).Str("date", date).Msg("starting scheduled analysis")

	finalState, decision, err := r.analyzer.RunAnalysis(ctx, ticker, date)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: analysis failed: %w", err)
	}

	doc := &artifact.Document{
		Timestamp:  now,
		Ticker:     ticker,
		Decision:   decision,
		FinalState: finalState,
	}
	path, err := r.store.SaveLive(ctx, doc, r.encrypt)
	if err != nil {
		span.RecordError(err)
		return err
	}

	r.log.Info().Str("path", path).Bool("encrypted", r.encrypt).Msg("analysis complete")
	return nil
}

// RunOnDemand executes one analysis for ticker on the given ISO date and
// persists the result as an on-demand artifact, with its markdown reports
// extracted alongside. An empty date means today.
func (r *Runner) RunOnDemand(ctx context.Context, ticker, date string) error {
	now := r.now()
	if date == "" {
		date = now.Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("runner: invalid date %q, want YYYY-MM-DD", date)
	}

	ctx, span := r.tracer.Start(ctx, "runner.RunOnDemand",
		trace.WithAttributes(
			attribute.String("ticker", ticker),
			attribute.String("date", date),
		))
	defer span.End()

	r.log.Info().Str("ticker", ticker).Str("date", date).Msg("starting on-demand analysis")

	finalState, decision, err := r.analyzer.RunAnalysis(ctx, ticker, date)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("runner: analysis failed: %w", err)
	}

	doc := &artifact.Document{
		Timestamp:  now,
		Ticker:     ticker,
		Decision:   decision,
		FinalState: finalState,
	}
	reports := analysis.ExtractReports(finalState)
	path, err := r.store.SaveAnalysis(ctx, doc, date, reports, r.encrypt)
	if err != nil {
		span.RecordError(err)
		return err
	}

	r.log.Info().
		Str("path", path).
		Int("reports", len(reports)).
		Bool("encrypted", r.encrypt).
		Msg("analysis complete")
	return nil
}

// RunLoop runs immediately, then on the fixed interval until ctx is
// canceled. Per-run failures are logged and the loop keeps going; only
// cancellation stops it.
func (r *Runner) RunLoop(ctx context.Context, ticker string) error {
	if err := r.RunOnce(ctx, ticker); err != nil {
		r.log.Error().Err(err).Msg("run failed")
	}

	tick := time.NewTicker(r.interval)
	defer tick.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("scheduler stopped")
			return nil
		case <-tick.C:
			if err := r.RunOnce(ctx, ticker); err != nil {
				r.log.Error().Err(err).Msg("run failed")
			}
		}
	}
}
