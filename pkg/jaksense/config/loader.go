package config

import (
	"fmt"
	"log/slog"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/routing"
	"github.com/cognicore/jaksense/pkg/jaksense/sentiment"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// Loader turns a Config into runtime components.
type Loader struct {
	Config Config
	Logger *slog.Logger
}

// Components holds everything built from configuration.
type Components struct {
	Taxonomies *taxonomy.Set
	Router     *routing.Router
	Lexicon    *sentiment.Lexicon
	Classifier sentiment.Classifier
}

// Load builds the taxonomy set, router and classifier chain.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	set, err := l.taxonomies()
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	comp.Taxonomies = set

	policy, err := l.policy()
	if err != nil {
		return nil, err
	}
	comp.Router, err = routing.New(set, policy)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	lex := l.Config.Sentiment.Lexicon
	if len(lex.Negative) > 0 || len(lex.Positive) > 0 {
		comp.Lexicon, err = sentiment.NewLexicon(lex.Negative, lex.Positive)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
	} else {
		comp.Lexicon = sentiment.DefaultLexicon()
	}

	primary, err := l.primary(comp.Router.Labels())
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	comp.Classifier = &sentiment.Fallback{
		Primary: primary,
		Backup:  comp.Lexicon,
		Timeout: l.Config.Sentiment.Timeout,
		Logger:  l.logger(),
	}
	return comp, nil
}

func (l *Loader) taxonomies() (*taxonomy.Set, error) {
	def, err := taxonomy.Default()
	if err != nil {
		return nil, err
	}
	paths := l.Config.Taxonomy
	if paths.ProblemPath == "" && paths.GoodAspectPath == "" {
		return def, nil
	}

	problem := def.Lookup(taxonomy.Problem)
	if paths.ProblemPath != "" {
		if problem, err = taxonomy.LoadFile(taxonomy.Problem, paths.ProblemPath); err != nil {
			return nil, err
		}
	}
	good := def.Lookup(taxonomy.GoodAspect)
	if paths.GoodAspectPath != "" {
		if good, err = taxonomy.LoadFile(taxonomy.GoodAspect, paths.GoodAspectPath); err != nil {
			return nil, err
		}
	}
	return taxonomy.NewSet(problem, good)
}

func (l *Loader) policy() (routing.Policy, error) {
	p := l.Config.Policy
	noMatch, err := routing.ParseNoMatch(p.NoMatch)
	if err != nil {
		return routing.Policy{}, err
	}
	other := taxonomy.Label(p.OtherLabel)
	if other == "" {
		other = taxonomy.Lainnya
	}
	return routing.Policy{
		Labels:     routing.LabelSet(p.Labels),
		NoMatch:    noMatch,
		OtherLabel: other,
	}, nil
}

// primary returns nil for the lexicon backend; the fallback then answers
// every call from the lexicon.
func (l *Loader) primary(labels []comment.Sentiment) (sentiment.Classifier, error) {
	s := l.Config.Sentiment
	switch s.Backend {
	case BackendModel:
		return &sentiment.ModelClient{URL: s.ModelURL, APIKey: s.ModelAPIKey}, nil
	case BackendOpenAI:
		return sentiment.NewOpenAIClassifier(sentiment.OpenAIOptions{
			APIKey:  s.OpenAIAPIKey,
			BaseURL: s.OpenAIBaseURL,
			Model:   s.OpenAIModel,
			Labels:  labels,
		})
	default:
		return nil, nil
	}
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
