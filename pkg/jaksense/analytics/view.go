package analytics

import (
	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// View is the aggregate of one mode's records.
type View struct {
	Mode       comment.Mode
	Total      int
	Sentiments map[comment.Sentiment]int

	tags        []TagCount // first-seen order
	bySentiment map[comment.Sentiment][]TagCount
}

// Count returns the number of records with sentiment s.
func (v View) Count(s comment.Sentiment) int { return v.Sentiments[s] }

// Percent is Count(s) as a percentage of Total. ok is false when the view is
// empty.
func (v View) Percent(s comment.Sentiment) (pct float64, ok bool) {
	if v.Total <= 0 {
		return 0, false
	}
	return float64(v.Sentiments[s]) / float64(v.Total) * 100, true
}

// PositiveRate is Percent(comment.Positive).
func (v View) PositiveRate() (float64, bool) { return v.Percent(comment.Positive) }

// TagFrequency returns every tag with its count, in first-seen order.
func (v View) TagFrequency() []TagCount {
	return append([]TagCount(nil), v.tags...)
}

// TagCount returns how many records carry tag.
func (v View) TagCount(tag taxonomy.Label) int {
	for _, tc := range v.tags {
		if tc.Tag == tag {
			return tc.Count
		}
	}
	return 0
}

// TopTags returns at most n tags, most frequent first.
func (v View) TopTags(n int) []TagCount { return topN(v.tags, n) }

// TopTagsFor is TopTags restricted to records with sentiment s.
func (v View) TopTagsFor(s comment.Sentiment, n int) []TagCount {
	return topN(v.bySentiment[s], n)
}

// ChartTags picks what the per-mode bar chart shows: the top problems when
// any negative record is tagged, otherwise the top good aspects of positive
// and neutral records. ok is false when neither exists.
func (v View) ChartTags(n int) (kind taxonomy.Kind, tags []TagCount, ok bool) {
	if neg := v.TopTagsFor(comment.Negative, n); len(neg) > 0 {
		return taxonomy.Problem, neg, true
	}
	if good := topN(v.merged(comment.Positive, comment.Neutral), n); len(good) > 0 {
		return taxonomy.GoodAspect, good, true
	}
	return 0, nil, false
}

// TrendTags ranks negative problem tags and positive or neutral aspect tags
// together, problems first on ties.
func (v View) TrendTags(n int) []TagCount {
	return topN(v.merged(comment.Negative, comment.Positive, comment.Neutral), n)
}

// merged sums the per-sentiment tag counts of sentiments, keeping first-seen
// order across them.
func (v View) merged(sentiments ...comment.Sentiment) []TagCount {
	c := newTagCounter()
	for _, s := range sentiments {
		for _, tc := range v.bySentiment[s] {
			if _, ok := c.counts[tc.Tag]; !ok {
				c.order = append(c.order, tc.Tag)
			}
			c.counts[tc.Tag] += tc.Count
		}
	}
	return c.snapshot()
}
