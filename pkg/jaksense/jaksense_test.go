package jaksense

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cognicore/jaksense/pkg/jaksense/analytics"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
	"github.com/cognicore/jaksense/pkg/jaksense/sentiment"
	"github.com/cognicore/jaksense/pkg/jaksense/store/memstore"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

type fixedClassifier struct {
	res sentiment.Result
	err error
}

func (f fixedClassifier) Classify(context.Context, string) (sentiment.Result, error) {
	return f.res, f.err
}

func newEngine(t *testing.T, cls sentiment.Classifier, baseline []comment.Record) *Engine {
	t.Helper()
	return newEngineWithPolicy(t, routing.DefaultPolicy(), cls, baseline)
}

func newEngineWithPolicy(t *testing.T, policy routing.Policy, cls sentiment.Classifier, baseline []comment.Record) *Engine {
	t.Helper()
	set, err := taxonomy.Default()
	if err != nil {
		t.Fatal(err)
	}
	router, err := routing.New(set, policy)
	if err != nil {
		t.Fatal(err)
	}
	if cls == nil {
		cls = sentiment.DefaultLexicon()
	}
	engine, err := New(Options{
		Store:      memstore.New(),
		Ingester:   ingest.New(router),
		Classifier: cls,
		Baseline:   baseline,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func baselineRecords() []comment.Record {
	return []comment.Record{
		{ID: "b1", Mode: comment.ModeBRT, Text: "Transjakarta AC-nya dingin", Sentiment: comment.Positive,
			Tags: []taxonomy.Label{"Kenyamanan", "Pelayanan"}, Source: comment.SourceBaseline},
		{ID: "b2", Mode: comment.ModeBRT, Text: "Bus penuh sesak", Sentiment: comment.Negative,
			Tags: []taxonomy.Label{"Kondisi", "Kenyamanan"}, Source: comment.SourceBaseline},
		{ID: "b3", Mode: comment.ModeMikroTrans, Text: "Jaklingko hemat", Sentiment: comment.Positive,
			Tags: []taxonomy.Label{"Harga"}, Source: comment.SourceBaseline},
	}
}

func TestAnalyzeAppendsTaggedRecord(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, nil)

	got, err := engine.Analyze(ctx, "s1", comment.ModeBRT, "bus telat dan penuh, <b>AC mati</b>")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	rec := got.Record
	if rec.Sentiment != comment.Negative || got.Backend != sentiment.BackendLexicon {
		t.Errorf("analysis = %+v", got)
	}
	if rec.Text != "bus telat dan penuh, AC mati" {
		t.Errorf("markup not stripped: %q", rec.Text)
	}
	problems := engine.Router().Taxonomies().Lookup(taxonomy.Problem)
	if !rec.HasTags() {
		t.Fatal("expected problem tags")
	}
	for _, tag := range rec.Tags {
		if !problems.Has(tag) {
			t.Errorf("negative comment tagged with %q", tag)
		}
	}

	own, _ := engine.SessionRecords(ctx, "s1")
	if len(own) != 1 || own[0].ID != rec.ID {
		t.Errorf("session records = %+v", own)
	}
}

func TestAnalyzeDuplicateSubmissions(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, baselineRecords())

	before, err := engine.Dashboard(ctx, "s1", comment.ModeBRT)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := engine.Analyze(ctx, "s1", comment.ModeBRT, "haltenya kotor dan bau"); err != nil {
			t.Fatalf("Analyze #%d: %v", i+1, err)
		}
	}
	after, err := engine.Dashboard(ctx, "s1", comment.ModeBRT)
	if err != nil {
		t.Fatal(err)
	}
	if after.View.Total != before.View.Total+2 {
		t.Errorf("total %d → %d, want +2", before.View.Total, after.View.Total)
	}
	own, _ := engine.SessionRecords(ctx, "s1")
	if len(own) != 2 || own[0].ID == own[1].ID {
		t.Errorf("expected two distinct records, got %+v", own)
	}
}

func TestAnalyzeEmptyComment(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, nil)

	for _, text := range []string{"", "   ", "<p> </p>"} {
		if _, err := engine.Analyze(ctx, "s1", comment.ModeBRT, text); !errors.Is(err, internalerr.ErrEmptyComment) {
			t.Errorf("Analyze(%q): expected ErrEmptyComment, got %v", text, err)
		}
	}
	if total, _ := engine.Total(ctx, "s1"); total != 0 {
		t.Errorf("empty comments created %d records", total)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, nil)

	if _, err := engine.Analyze(ctx, "s1", "mrt", "telat"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("unknown mode: expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.Analyze(ctx, "", comment.ModeBRT, "telat"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("blank session: expected ErrInvalidInput, got %v", err)
	}
}

func TestAnalyzeCoercesNeutral(t *testing.T) {
	ctx := context.Background()
	cls := fixedClassifier{res: sentiment.Result{Label: comment.Neutral, Confidence: 0.6, Backend: sentiment.BackendModel}}
	engine := newEngine(t, cls, nil)

	got, err := engine.Analyze(ctx, "s1", comment.ModeCommuterRail, "keretanya bersih")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Record.Sentiment != comment.Positive {
		t.Errorf("Netral should become Positif under two labels, got %q", got.Record.Sentiment)
	}
	if got.Record.Confidence != 0.6 {
		t.Errorf("confidence = %v", got.Record.Confidence)
	}
}

func TestAnalyzeClassifierError(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, fixedClassifier{err: internalerr.ErrClassifierUnavailable}, nil)
	if _, err := engine.Analyze(ctx, "s1", comment.ModeBRT, "telat"); !errors.Is(err, internalerr.ErrClassifierUnavailable) {
		t.Errorf("expected ErrClassifierUnavailable, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, baselineRecords())

	d, err := engine.Dashboard(ctx, "s1", comment.ModeBRT)
	if err != nil {
		t.Fatal(err)
	}
	if d.NoData || d.View.Total != 2 {
		t.Fatalf("dashboard = %+v", d)
	}
	pct, ok := d.Percent(comment.Positive)
	if !ok || pct != 50 {
		t.Errorf("positive = %v (%v), want 50", pct, ok)
	}
	if !d.HasChart || d.ChartKind != taxonomy.Problem || d.Chart[0].Tag != "Kondisi" {
		t.Errorf("chart = %v %v %v", d.ChartKind, d.Chart, d.HasChart)
	}
	for _, item := range d.Feed {
		if item.IsNew {
			t.Errorf("baseline record %s marked new", item.Record.ID)
		}
	}

	got, err := engine.Analyze(ctx, "s1", comment.ModeBRT, "bus telat lagi")
	if err != nil {
		t.Fatal(err)
	}
	d, _ = engine.Dashboard(ctx, "s1", comment.ModeBRT)
	if len(d.Feed) == 0 || d.Feed[0].Record.ID != got.Record.ID || !d.Feed[0].IsNew {
		t.Errorf("newest session record should lead the feed highlighted, got %+v", d.Feed)
	}

	other, _ := engine.Dashboard(ctx, "s2", comment.ModeBRT)
	if other.View.Total != 2 {
		t.Errorf("session s2 sees s1's records: total %d", other.View.Total)
	}
}

func TestDashboardThreeWayNeutral(t *testing.T) {
	ctx := context.Background()
	policy := routing.Policy{Labels: routing.ThreeWay, NoMatch: routing.NoMatchEmpty, OtherLabel: taxonomy.Lainnya}
	cls := fixedClassifier{res: sentiment.Result{Label: comment.Neutral, Confidence: 0.5, Backend: sentiment.BackendModel}}
	engine := newEngineWithPolicy(t, policy, cls, nil)

	got, err := engine.Analyze(ctx, "s1", comment.ModeCommuterRail, "keretanya nyaman dan bersih")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Record.Sentiment != comment.Neutral || !got.Record.HasTags() {
		t.Fatalf("record = %+v, want tagged Netral", got.Record)
	}

	d, err := engine.Dashboard(ctx, "s1", comment.ModeCommuterRail)
	if err != nil {
		t.Fatal(err)
	}
	if !d.HasChart || d.ChartKind != taxonomy.GoodAspect {
		t.Fatalf("chart = %v %v %v, want good aspect chart", d.ChartKind, d.Chart, d.HasChart)
	}
	if !hasTag(d.Chart, taxonomy.Kenyamanan) {
		t.Errorf("chart %v misses Kenyamanan", d.Chart)
	}
	if !hasTag(d.Trend, taxonomy.Kenyamanan) {
		t.Errorf("trend %v misses Kenyamanan", d.Trend)
	}
}

func hasTag(counts []analytics.TagCount, tag taxonomy.Label) bool {
	for _, tc := range counts {
		if tc.Tag == tag {
			return true
		}
	}
	return false
}

func TestDashboardNoData(t *testing.T) {
	engine := newEngine(t, nil, baselineRecords())
	d, err := engine.Dashboard(context.Background(), "s1", comment.ModeCommuterRail)
	if err != nil {
		t.Fatalf("no data should not be an error: %v", err)
	}
	if !d.NoData {
		t.Error("expected NoData")
	}
	if _, ok := d.Percent(comment.Positive); ok {
		t.Error("percent must be undefined without data")
	}
}

func TestResetAndTotal(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, baselineRecords())

	engine.Analyze(ctx, "s1", comment.ModeMikroTrans, "jaklingko telat")
	engine.Analyze(ctx, "s1", comment.ModeCommuterRail, "krl nyaman")
	if total, _ := engine.Total(ctx, "s1"); total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	if err := engine.Reset(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if total, _ := engine.Total(ctx, "s1"); total != 3 {
		t.Errorf("total after reset = %d, want baseline 3", total)
	}
	if len(engine.Baseline()) != 3 {
		t.Error("reset touched the baseline")
	}
}

func TestPruneIdle(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t, nil, nil)
	engine.Analyze(ctx, "s1", comment.ModeBRT, "telat")

	if n, err := engine.PruneIdle(ctx, -1); err != nil || n != 1 {
		t.Errorf("PruneIdle = %d, %v; want 1", n, err)
	}
	if total, _ := engine.Total(ctx, "s1"); total != 0 {
		t.Errorf("pruned session still has %d records", total)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
