// Package sentiment assigns a polarity label to a comment. The neural model
// is an external service; the lexicon classifier is the local fallback.
package sentiment

import (
	"context"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
)

// Backend names the classifier that produced a result.
type Backend string

const (
	BackendLexicon Backend = "lexicon"
	BackendModel   Backend = "model"
	BackendOpenAI  Backend = "openai"
)

// Result is one classification.
type Result struct {
	Label      comment.Sentiment
	Confidence float64
	Backend    Backend
}

// Classifier labels comment text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}
