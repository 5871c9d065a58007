package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// Confidences reported by the lexicon classifier.
const (
	LexiconMajority = 0.7
	LexiconTie      = 0.5
)

var (
	defaultNegativeWords = []string{
		"lama", "tunggu", "telat", "macet", "penuh", "rusak",
		"jelek", "buruk", "sebel", "kesal", "marah", "frustrasi",
	}
	defaultPositiveWords = []string{
		"bagus", "baik", "nyaman", "cepat", "murah",
		"puas", "senang", "recommend", "enak", "mantap",
	}
)

// Lexicon counts how many negative and positive words occur in the text
// (substring match, each word counted once) and picks the majority. Ties,
// including texts with no hits, are Positif.
type Lexicon struct {
	negative []string
	positive []string
}

// NewLexicon builds a lexicon from word lists. Words are normalized the same
// way taxonomy triggers are.
func NewLexicon(negative, positive []string) (*Lexicon, error) {
	neg := normalizeWords(negative)
	pos := normalizeWords(positive)
	if len(neg) == 0 || len(pos) == 0 {
		return nil, fmt.Errorf("%w: lexicon needs negative and positive words", internalerr.ErrInvalidConfig)
	}
	return &Lexicon{negative: neg, positive: pos}, nil
}

// DefaultLexicon returns the built-in Indonesian word lists.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		negative: normalizeWords(defaultNegativeWords),
		positive: normalizeWords(defaultPositiveWords),
	}
}

// Classify never fails.
func (l *Lexicon) Classify(_ context.Context, text string) (Result, error) {
	return l.Score(text), nil
}

// Score is Classify without the context.
func (l *Lexicon) Score(text string) Result {
	normalized := taxonomy.Normalize(text)
	neg := countHits(normalized, l.negative)
	pos := countHits(normalized, l.positive)

	switch {
	case pos > neg:
		return Result{Label: comment.Positive, Confidence: LexiconMajority, Backend: BackendLexicon}
	case neg > pos:
		return Result{Label: comment.Negative, Confidence: LexiconMajority, Backend: BackendLexicon}
	default:
		return Result{Label: comment.Positive, Confidence: LexiconTie, Backend: BackendLexicon}
	}
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func normalizeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(taxonomy.Normalize(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
