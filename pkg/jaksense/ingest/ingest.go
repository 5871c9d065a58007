package ingest

import (
	"crypto/rand"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// Ingester turns classified comments into records:
// sentiment → taxonomy selection → tagging → default policy → record
type Ingester struct {
	router *routing.Router

	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates an ingester that routes through router.
func New(router *routing.Router) *Ingester {
	return &Ingester{
		router:  router,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Router returns the router records are tagged through.
func (in *Ingester) Router() *routing.Router { return in.router }

// Ingest builds a session record. It does not store the record; the caller
// decides which collection it joins. Mode and sentiment outside their
// domains are caller errors and return ErrInvalidInput.
func (in *Ingester) Ingest(mode comment.Mode, text string, sentiment comment.Sentiment, confidence float64) (comment.Record, error) {
	if !mode.Valid() {
		return comment.Record{}, fmt.Errorf("%w: unknown mode %q", internalerr.ErrInvalidInput, mode)
	}

	tags, err := in.router.Route(sentiment, text)
	if err != nil {
		return comment.Record{}, err
	}

	now := in.now()
	return comment.Record{
		ID:         in.newID(now),
		Mode:       mode,
		Text:       text,
		Sentiment:  sentiment,
		Confidence: clampConfidence(confidence),
		Tags:       tags,
		Source:     comment.SourceSession,
		CreatedAt:  now,
	}, nil
}

// Baseline builds a record for a dataset row whose tags were assigned
// upstream. Tags are trimmed and deduplicated but otherwise kept as given.
func (in *Ingester) Baseline(mode comment.Mode, text string, sentiment comment.Sentiment, tags []string, createdAt time.Time) (comment.Record, error) {
	if !mode.Valid() {
		return comment.Record{}, fmt.Errorf("%w: unknown mode %q", internalerr.ErrInvalidInput, mode)
	}
	if !sentiment.Valid() {
		return comment.Record{}, fmt.Errorf("%w: unknown sentiment %q", internalerr.ErrInvalidInput, sentiment)
	}

	stamp := createdAt
	if stamp.IsZero() {
		stamp = in.now()
	}
	return comment.Record{
		ID:         in.newID(stamp),
		Mode:       mode,
		Text:       text,
		Sentiment:  sentiment,
		Confidence: 1,
		Tags:       uniqueLabels(tags),
		Source:     comment.SourceBaseline,
		CreatedAt:  createdAt,
	}, nil
}

func (in *Ingester) newID(t time.Time) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), in.entropy).String()
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

func uniqueLabels(in []string) []taxonomy.Label {
	set := make(map[string]struct{}, len(in))
	var out []taxonomy.Label
	for _, val := range in {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if _, ok := set[val]; ok {
			continue
		}
		set[val] = struct{}{}
		out = append(out, taxonomy.Label(val))
	}
	return out
}
