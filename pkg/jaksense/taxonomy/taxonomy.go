package taxonomy

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

// Kind selects one of the two taxonomy variants.
type Kind int

const (
	// Problem categories explain negative comments.
	Problem Kind = iota
	// GoodAspect categories explain positive and neutral comments.
	GoodAspect
)

func (k Kind) String() string {
	switch k {
	case Problem:
		return "problem"
	case GoodAspect:
		return "good_aspect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts the configuration spelling of a kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "problem", "problems":
		return Problem, nil
	case "good_aspect", "good-aspect", "good", "good_aspects":
		return GoodAspect, nil
	}
	return 0, fmt.Errorf("%w: unknown taxonomy kind %q", internalerr.ErrInvalidConfig, s)
}

// Label is a category name, the stable key a tag is stored under.
type Label string

// Category is a label with its trigger phrases, in match order.
type Category struct {
	Name     Label
	Triggers []string
}

// Taxonomy is an immutable, ordered set of categories.
type Taxonomy struct {
	kind       Kind
	categories []Category
	index      map[Label]int
}

// New validates the categories and normalizes every trigger phrase so that
// matching is insensitive to case and Unicode compatibility forms.
func New(kind Kind, categories []Category) (*Taxonomy, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: %s taxonomy has no categories", internalerr.ErrInvalidConfig, kind)
	}

	t := &Taxonomy{
		kind:       kind,
		categories: make([]Category, 0, len(categories)),
		index:      make(map[Label]int, len(categories)),
	}

	for _, cat := range categories {
		name := Label(strings.TrimSpace(string(cat.Name)))
		if name == "" {
			return nil, fmt.Errorf("%w: %s taxonomy has a category without a name", internalerr.ErrInvalidConfig, kind)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: %s taxonomy defines %q twice", internalerr.ErrInvalidConfig, kind, name)
		}

		seen := make(map[string]struct{}, len(cat.Triggers))
		triggers := make([]string, 0, len(cat.Triggers))
		for _, trig := range cat.Triggers {
			trig = strings.TrimSpace(Normalize(trig))
			if trig == "" {
				continue
			}
			if _, ok := seen[trig]; ok {
				continue
			}
			seen[trig] = struct{}{}
			triggers = append(triggers, trig)
		}
		if len(triggers) == 0 {
			return nil, fmt.Errorf("%w: %s category %q has no triggers", internalerr.ErrInvalidConfig, kind, name)
		}

		t.index[name] = len(t.categories)
		t.categories = append(t.categories, Category{Name: name, Triggers: triggers})
	}

	return t, nil
}

// Kind reports which variant this taxonomy is.
func (t *Taxonomy) Kind() Kind { return t.kind }

// Categories returns a copy of the categories in match order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, cat := range t.categories {
		out[i] = Category{
			Name:     cat.Name,
			Triggers: append([]string(nil), cat.Triggers...),
		}
	}
	return out
}

// Labels returns the category names in match order.
func (t *Taxonomy) Labels() []Label {
	out := make([]Label, len(t.categories))
	for i, cat := range t.categories {
		out[i] = cat.Name
	}
	return out
}

// Has reports whether label is one of this taxonomy's categories.
func (t *Taxonomy) Has(label Label) bool {
	_, ok := t.index[label]
	return ok
}

// Tag returns every category with at least one trigger occurring as a
// substring of the normalized text. Labels come back in taxonomy order and
// each appears at most once.
func (t *Taxonomy) Tag(text string) []Label {
	lower := Normalize(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	var tags []Label
	for _, cat := range t.categories {
		for _, trig := range cat.Triggers {
			if strings.Contains(lower, trig) {
				tags = append(tags, cat.Name)
				break
			}
		}
	}
	return tags
}

// Normalize folds text into the form triggers are stored in: NFKC, then
// Indonesian lower-casing. A Caser is stateful, so one is built per call.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return cases.Lower(language.Indonesian).String(norm.NFKC.String(text))
}
