package taxonomy

import (
	"fmt"

	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

// Set holds one taxonomy per kind. It is built once at startup and shared
// read-only by every tagging call.
type Set struct {
	problem *Taxonomy
	good    *Taxonomy
}

// NewSet pairs the two variants and checks their label sets are disjoint.
func NewSet(problem, good *Taxonomy) (*Set, error) {
	if problem == nil || good == nil {
		return nil, fmt.Errorf("%w: both taxonomies are required", internalerr.ErrInvalidConfig)
	}
	if problem.Kind() != Problem {
		return nil, fmt.Errorf("%w: expected problem taxonomy, got %s", internalerr.ErrInvalidConfig, problem.Kind())
	}
	if good.Kind() != GoodAspect {
		return nil, fmt.Errorf("%w: expected good_aspect taxonomy, got %s", internalerr.ErrInvalidConfig, good.Kind())
	}
	for _, label := range problem.Labels() {
		if good.Has(label) {
			return nil, fmt.Errorf("%w: label %q is defined by both taxonomies", internalerr.ErrInvalidConfig, label)
		}
	}
	return &Set{problem: problem, good: good}, nil
}

// Lookup returns the taxonomy for kind, or nil for an unknown kind.
func (s *Set) Lookup(kind Kind) *Taxonomy {
	switch kind {
	case Problem:
		return s.problem
	case GoodAspect:
		return s.good
	default:
		return nil
	}
}

// Kinds lists the kinds a Set always carries.
func Kinds() []Kind {
	return []Kind{Problem, GoodAspect}
}
