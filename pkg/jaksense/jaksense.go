package jaksense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/analytics"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
	"github.com/cognicore/jaksense/pkg/jaksense/sentiment"
	"github.com/cognicore/jaksense/pkg/jaksense/store"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// Engine is the dashboard facade: it classifies and tags submitted
// comments, keeps them per session next to the read-only baseline, and
// aggregates both for display.
type Engine struct {
	store      store.Store
	ingester   *ingest.Ingester
	classifier sentiment.Classifier
	baseline   []comment.Record
	logger     *slog.Logger
}

// Options configures an Engine. Store, Ingester and Classifier are
// required; Baseline may be empty.
type Options struct {
	Store      store.Store
	Ingester   *ingest.Ingester
	Classifier sentiment.Classifier
	Baseline   []comment.Record
	Logger     *slog.Logger
}

// New creates an Engine with the given dependencies.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil || opts.Ingester == nil || opts.Classifier == nil {
		return nil, fmt.Errorf("%w: engine needs a store, an ingester and a classifier", internalerr.ErrInvalidConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      opts.Store,
		ingester:   opts.Ingester,
		classifier: opts.Classifier,
		baseline:   append([]comment.Record(nil), opts.Baseline...),
		logger:     logger,
	}, nil
}

// Close cleanly shuts down the engine's store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Router exposes the sentiment router the engine tags through.
func (e *Engine) Router() *routing.Router { return e.ingester.Router() }

// Analysis is the outcome of one submitted comment.
type Analysis struct {
	Record  comment.Record
	Backend sentiment.Backend
}

// Analyze classifies text, tags it and appends the record to the session.
// Markup is stripped first; a comment with no visible text returns
// internalerr.ErrEmptyComment and creates nothing. Identical submissions
// produce distinct records.
func (e *Engine) Analyze(ctx context.Context, session string, mode comment.Mode, text string) (Analysis, error) {
	if err := store.ValidateSession(session); err != nil {
		return Analysis{}, err
	}
	if !mode.Valid() {
		return Analysis{}, fmt.Errorf("%w: unknown mode %q", internalerr.ErrInvalidInput, mode)
	}
	text = ingest.PlainText(text)
	if text == "" {
		return Analysis{}, internalerr.ErrEmptyComment
	}

	res, err := e.classifier.Classify(ctx, text)
	if err != nil {
		return Analysis{}, fmt.Errorf("classify: %w", err)
	}
	label := e.Router().Coerce(res.Label)

	rec, err := e.ingester.Ingest(mode, text, label, res.Confidence)
	if err != nil {
		return Analysis{}, err
	}
	if err := e.store.Append(ctx, session, rec); err != nil {
		return Analysis{}, fmt.Errorf("append record: %w", err)
	}

	e.logger.Debug("comment analyzed",
		"mode", mode, "sentiment", rec.Sentiment, "backend", res.Backend, "tags", len(rec.Tags))
	return Analysis{Record: rec, Backend: res.Backend}, nil
}

// Baseline returns the dataset records.
func (e *Engine) Baseline() []comment.Record {
	return append([]comment.Record(nil), e.baseline...)
}

// SessionRecords returns what the session submitted, oldest first.
func (e *Engine) SessionRecords(ctx context.Context, session string) ([]comment.Record, error) {
	return e.store.List(ctx, session)
}

// Records is the baseline followed by the session's records.
func (e *Engine) Records(ctx context.Context, session string) ([]comment.Record, error) {
	own, err := e.store.List(ctx, session)
	if err != nil {
		return nil, err
	}
	out := make([]comment.Record, 0, len(e.baseline)+len(own))
	out = append(out, e.baseline...)
	return append(out, own...), nil
}

// Reset clears the session's records. The baseline is untouched.
func (e *Engine) Reset(ctx context.Context, session string) error {
	return e.store.Reset(ctx, session)
}

// Total counts every record visible to the session, across all modes.
func (e *Engine) Total(ctx context.Context, session string) (int, error) {
	own, err := e.store.List(ctx, session)
	if err != nil {
		return 0, err
	}
	return len(e.baseline) + len(own), nil
}

// PruneIdle drops sessions that have not submitted anything within ttl.
func (e *Engine) PruneIdle(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := e.store.Prune(ctx, time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.logger.Info("pruned idle sessions", "count", n)
	}
	return n, nil
}

// FeedItem is one entry of the recent-comments feed. IsNew marks records
// the viewing session submitted.
type FeedItem struct {
	Record comment.Record
	IsNew  bool
}

// Dashboard is everything the per-mode page shows.
type Dashboard struct {
	Mode   comment.Mode
	NoData bool
	View   analytics.View

	ChartKind taxonomy.Kind
	Chart     []analytics.TagCount
	HasChart  bool
	Trend     []analytics.TagCount
	Feed      []FeedItem
}

// Percent returns the share of sentiment s, or false when there is no data.
func (d Dashboard) Percent(s comment.Sentiment) (float64, bool) {
	if d.NoData {
		return 0, false
	}
	return d.View.Percent(s)
}

// Dashboard aggregates the session's view of mode. A mode without records
// is not an error; the result has NoData set.
func (e *Engine) Dashboard(ctx context.Context, session string, mode comment.Mode) (Dashboard, error) {
	records, err := e.Records(ctx, session)
	if err != nil {
		return Dashboard{}, err
	}

	view, err := analytics.Aggregate(records, mode)
	if errors.Is(err, internalerr.ErrNoData) {
		return Dashboard{Mode: mode, NoData: true}, nil
	}
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Mode: mode, View: view}
	d.ChartKind, d.Chart, d.HasChart = view.ChartTags(analytics.DefaultChartSize)
	d.Trend = view.TrendTags(analytics.DefaultTrendSize)
	for _, rec := range analytics.RecentTagged(records, mode, analytics.DefaultFeedSize) {
		d.Feed = append(d.Feed, FeedItem{Record: rec, IsNew: rec.Source == comment.SourceSession})
	}
	return d, nil
}
