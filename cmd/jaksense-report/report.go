package main

import (
	"context"
	"fmt"

	"github.com/cognicore/jaksense/pkg/jaksense/analytics"
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/ingest"
	"github.com/cognicore/jaksense/pkg/jaksense/sentiment"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

type report struct {
	TotalRecords int          `json:"total_records"`
	Modes        []modeReport `json:"modes"`
	// UnusedLabels lists, per taxonomy kind, categories no record carries.
	UnusedLabels map[string][]string `json:"unused_labels"`
}

type modeReport struct {
	Mode        string             `json:"mode"`
	Name        string             `json:"name"`
	Total       int                `json:"total"`
	Untagged    int                `json:"untagged"`
	Sentiments  map[string]int     `json:"sentiments"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
	ChartKind   string             `json:"chart_kind,omitempty"`
	Chart       []tagEntry         `json:"chart,omitempty"`
	Trend       []tagEntry         `json:"trend,omitempty"`
	TopTags     []tagEntry         `json:"top_tags,omitempty"`
}

type tagEntry struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// buildReport aggregates every mode in one pass over records.
func buildReport(records []comment.Record, set *taxonomy.Set, top int) report {
	analyzers := make(map[comment.Mode]*analytics.Analyzer)
	untagged := make(map[comment.Mode]int)
	seen := make(map[taxonomy.Label]bool)
	for _, m := range comment.AllModes() {
		analyzers[m] = analytics.NewAnalyzer(m)
	}
	for _, rec := range records {
		a, ok := analyzers[rec.Mode]
		if !ok {
			continue
		}
		a.Process(rec)
		if !rec.HasTags() {
			untagged[rec.Mode]++
		}
		for _, tag := range rec.Tags {
			seen[tag] = true
		}
	}

	out := report{TotalRecords: len(records), UnusedLabels: make(map[string][]string)}
	for _, kind := range taxonomy.Kinds() {
		unused := []string{}
		for _, label := range set.Lookup(kind).Labels() {
			if !seen[label] {
				unused = append(unused, string(label))
			}
		}
		out.UnusedLabels[kind.String()] = unused
	}
	for _, m := range comment.AllModes() {
		v := analyzers[m].Snapshot()
		mr := modeReport{
			Mode:       string(m),
			Name:       m.DisplayName(),
			Total:      v.Total,
			Untagged:   untagged[m],
			Sentiments: make(map[string]int),
		}
		for s, n := range v.Sentiments {
			mr.Sentiments[string(s)] = n
		}
		if v.Total > 0 {
			mr.Percentages = make(map[string]float64)
			for s := range v.Sentiments {
				pct, _ := v.Percent(s)
				mr.Percentages[string(s)] = pct
			}
			if kind, tags, ok := v.ChartTags(analytics.DefaultChartSize); ok {
				mr.ChartKind = kind.String()
				mr.Chart = entries(tags)
			}
			mr.Trend = entries(v.TrendTags(analytics.DefaultTrendSize))
			mr.TopTags = entries(v.TopTags(top))
		}
		out.Modes = append(out.Modes, mr)
	}
	return out
}

func entries(counts []analytics.TagCount) []tagEntry {
	out := make([]tagEntry, len(counts))
	for i, tc := range counts {
		out[i] = tagEntry{Tag: string(tc.Tag), Count: tc.Count}
	}
	return out
}

// reclassifyAll runs each record's text through cls and tags it again.
func reclassifyAll(ctx context.Context, records []comment.Record, ingester *ingest.Ingester, cls sentiment.Classifier) ([]comment.Record, error) {
	router := ingester.Router()
	out := make([]comment.Record, 0, len(records))
	for _, rec := range records {
		res, err := cls.Classify(ctx, rec.Text)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		fresh, err := ingester.Ingest(rec.Mode, rec.Text, router.Coerce(res.Label), res.Confidence)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		out = append(out, fresh)
	}
	return out, nil
}
