package analytics

import (
	"fmt"
	"sort"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// Display sizes used by the dashboard.
const (
	DefaultChartSize = 5
	DefaultTrendSize = 10
	DefaultFeedSize  = 8
)

// TagCount is one row of a tag frequency table.
type TagCount struct {
	Tag   taxonomy.Label `json:"tag"`
	Count int            `json:"count"`
}

// tagCounter is a multiset that remembers the order tags were first seen.
type tagCounter struct {
	order  []taxonomy.Label
	counts map[taxonomy.Label]int
}

func newTagCounter() *tagCounter {
	return &tagCounter{counts: make(map[taxonomy.Label]int)}
}

func (c *tagCounter) add(tag taxonomy.Label) {
	if _, ok := c.counts[tag]; !ok {
		c.order = append(c.order, tag)
	}
	c.counts[tag]++
}

func (c *tagCounter) snapshot() []TagCount {
	out := make([]TagCount, len(c.order))
	for i, tag := range c.order {
		out[i] = TagCount{Tag: tag, Count: c.counts[tag]}
	}
	return out
}

// Analyzer accumulates the records of one mode, one at a time.
type Analyzer struct {
	mode        comment.Mode
	total       int
	sentiments  map[comment.Sentiment]int
	tags        *tagCounter
	bySentiment map[comment.Sentiment]*tagCounter
}

// NewAnalyzer creates an empty analyzer for mode.
func NewAnalyzer(mode comment.Mode) *Analyzer {
	return &Analyzer{
		mode:        mode,
		sentiments:  make(map[comment.Sentiment]int),
		tags:        newTagCounter(),
		bySentiment: make(map[comment.Sentiment]*tagCounter),
	}
}

// Process consumes one record. Records of other modes are ignored; the
// return value reports whether rec was counted.
func (a *Analyzer) Process(rec comment.Record) bool {
	if rec.Mode != a.mode {
		return false
	}
	a.total++
	a.sentiments[rec.Sentiment]++

	per := a.bySentiment[rec.Sentiment]
	if per == nil {
		per = newTagCounter()
		a.bySentiment[rec.Sentiment] = per
	}
	for _, tag := range rec.Tags {
		if tag == "" {
			continue
		}
		a.tags.add(tag)
		per.add(tag)
	}
	return true
}

// Snapshot returns the aggregate so far. The view shares nothing with the
// analyzer.
func (a *Analyzer) Snapshot() View {
	sentiments := make(map[comment.Sentiment]int, len(a.sentiments))
	for s, n := range a.sentiments {
		sentiments[s] = n
	}
	bySentiment := make(map[comment.Sentiment][]TagCount, len(a.bySentiment))
	for s, c := range a.bySentiment {
		bySentiment[s] = c.snapshot()
	}
	return View{
		Mode:        a.mode,
		Total:       a.total,
		Sentiments:  sentiments,
		tags:        a.tags.snapshot(),
		bySentiment: bySentiment,
	}
}

// Aggregate computes the view of records for mode. A mode with no records
// yields internalerr.ErrNoData and a zero View.
func Aggregate(records []comment.Record, mode comment.Mode) (View, error) {
	if !mode.Valid() {
		return View{}, fmt.Errorf("%w: unknown mode %q", internalerr.ErrInvalidInput, mode)
	}
	a := NewAnalyzer(mode)
	for _, rec := range records {
		a.Process(rec)
	}
	if a.total == 0 {
		return View{}, fmt.Errorf("%w: no records for mode %s", internalerr.ErrNoData, mode)
	}
	return a.Snapshot(), nil
}

// RecentTagged returns the last limit records of mode that carry at least
// one tag, newest first. Records are assumed to be in arrival order. A
// non-positive limit returns all of them.
func RecentTagged(records []comment.Record, mode comment.Mode, limit int) []comment.Record {
	var out []comment.Record
	for i := len(records) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		rec := records[i]
		if rec.Mode == mode && rec.HasTags() {
			out = append(out, rec)
		}
	}
	return out
}

// topN sorts a copy of counts by count, keeping first-seen order on ties.
func topN(counts []TagCount, n int) []TagCount {
	if n <= 0 || len(counts) == 0 {
		return nil
	}
	sorted := append([]TagCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
