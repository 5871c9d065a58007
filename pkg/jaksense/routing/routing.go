package routing

import (
	"fmt"
	"strings"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// LabelSet is the number of sentiment labels a deployment models.
type LabelSet int

const (
	// TwoWay models Positif and Negatif only.
	TwoWay LabelSet = 2
	// ThreeWay adds Netral.
	ThreeWay LabelSet = 3
)

// NoMatchPolicy decides what a negative comment is tagged with when no
// problem trigger matches.
type NoMatchPolicy string

const (
	// NoMatchEmpty leaves the tag set empty.
	NoMatchEmpty NoMatchPolicy = "empty"
	// NoMatchOther tags the comment with Policy.OtherLabel.
	NoMatchOther NoMatchPolicy = "other"
)

// ParseNoMatch converts the configuration spelling of a no-match policy.
func ParseNoMatch(s string) (NoMatchPolicy, error) {
	switch NoMatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NoMatchEmpty:
		return NoMatchEmpty, nil
	case NoMatchOther:
		return NoMatchOther, nil
	}
	return "", fmt.Errorf("%w: unknown no-match policy %q", internalerr.ErrInvalidConfig, s)
}

// Policy parameterizes the router.
type Policy struct {
	Labels     LabelSet
	NoMatch    NoMatchPolicy
	OtherLabel taxonomy.Label
}

// DefaultPolicy is two labels and no catch-all tag.
func DefaultPolicy() Policy {
	return Policy{
		Labels:     TwoWay,
		NoMatch:    NoMatchEmpty,
		OtherLabel: taxonomy.Lainnya,
	}
}

// Router chooses which taxonomy explains a comment of a given sentiment.
type Router struct {
	policy Policy
	set    *taxonomy.Set
}

// New validates policy against set.
func New(set *taxonomy.Set, policy Policy) (*Router, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: router needs a taxonomy set", internalerr.ErrInvalidConfig)
	}
	if policy.Labels != TwoWay && policy.Labels != ThreeWay {
		return nil, fmt.Errorf("%w: label set must be 2 or 3, got %d", internalerr.ErrInvalidConfig, policy.Labels)
	}
	switch policy.NoMatch {
	case NoMatchEmpty:
	case NoMatchOther:
		if strings.TrimSpace(string(policy.OtherLabel)) == "" {
			return nil, fmt.Errorf("%w: no-match policy %q needs a label", internalerr.ErrInvalidConfig, policy.NoMatch)
		}
		for _, kind := range taxonomy.Kinds() {
			if set.Lookup(kind).Has(policy.OtherLabel) {
				return nil, fmt.Errorf("%w: catch-all label %q collides with the %s taxonomy",
					internalerr.ErrInvalidConfig, policy.OtherLabel, kind)
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown no-match policy %q", internalerr.ErrInvalidConfig, policy.NoMatch)
	}
	return &Router{policy: policy, set: set}, nil
}

// Policy returns the policy the router was built with.
func (r *Router) Policy() Policy { return r.policy }

// Taxonomies returns the shared taxonomy set.
func (r *Router) Taxonomies() *taxonomy.Set { return r.set }

// Accepts reports whether s belongs to the configured label set.
func (r *Router) Accepts(s comment.Sentiment) bool {
	switch s {
	case comment.Positive, comment.Negative:
		return true
	case comment.Neutral:
		return r.policy.Labels == ThreeWay
	}
	return false
}

// Labels lists the sentiments the router accepts, in display order.
func (r *Router) Labels() []comment.Sentiment {
	if r.policy.Labels == ThreeWay {
		return []comment.Sentiment{comment.Positive, comment.Negative, comment.Neutral}
	}
	return []comment.Sentiment{comment.Positive, comment.Negative}
}

// Coerce maps a label from a classifier or dataset into the configured label
// set. Netral becomes Positif under the two-label policy; anything unknown
// becomes Positif too.
func (r *Router) Coerce(s comment.Sentiment) comment.Sentiment {
	if r.Accepts(s) {
		return s
	}
	if s == comment.Neutral || !s.Valid() {
		return comment.Positive
	}
	return s
}

// SelectTaxonomy returns the kind a comment of sentiment s is tagged with.
func (r *Router) SelectTaxonomy(s comment.Sentiment) (taxonomy.Kind, error) {
	if !r.Accepts(s) {
		return 0, fmt.Errorf("%w: sentiment %q is outside the %d-label set", internalerr.ErrInvalidInput, s, r.policy.Labels)
	}
	if s == comment.Negative {
		return taxonomy.Problem, nil
	}
	return taxonomy.GoodAspect, nil
}

// Taxonomy returns the taxonomy a comment of sentiment s is tagged with.
func (r *Router) Taxonomy(s comment.Sentiment) (*taxonomy.Taxonomy, error) {
	kind, err := r.SelectTaxonomy(s)
	if err != nil {
		return nil, err
	}
	return r.set.Lookup(kind), nil
}

// DefaultTags is the tag set applied when the taxonomy yields nothing.
func (r *Router) DefaultTags(s comment.Sentiment) []taxonomy.Label {
	if s == comment.Negative && r.policy.NoMatch == NoMatchOther {
		return []taxonomy.Label{r.policy.OtherLabel}
	}
	return nil
}

// Route tags text for sentiment s, applying the default when nothing matches.
func (r *Router) Route(s comment.Sentiment, text string) ([]taxonomy.Label, error) {
	tax, err := r.Taxonomy(s)
	if err != nil {
		return nil, err
	}
	tags := tax.Tag(text)
	if len(tags) == 0 {
		tags = r.DefaultTags(s)
	}
	return tags, nil
}
