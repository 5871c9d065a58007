package comment

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// Mode is a tracked transit system.
type Mode string

const (
	ModeMikroTrans   Mode = "jak" // JakLingko mikrotrans
	ModeBRT          Mode = "tj"  // TransJakarta
	ModeCommuterRail Mode = "krl" // KRL Commuterline
)

// AllModes returns the modes in display order.
func AllModes() []Mode {
	return []Mode{ModeMikroTrans, ModeBRT, ModeCommuterRail}
}

// Valid reports whether m is one of the tracked modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeMikroTrans, ModeBRT, ModeCommuterRail:
		return true
	}
	return false
}

// DisplayName is the public brand name of the mode.
func (m Mode) DisplayName() string {
	switch m {
	case ModeMikroTrans:
		return "JakLingko"
	case ModeBRT:
		return "TransJakarta"
	case ModeCommuterRail:
		return "KRL"
	default:
		return string(m)
	}
}

// ParseMode accepts the short codes and the brand names, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jak", "jaklingko", "mikrotrans":
		return ModeMikroTrans, nil
	case "tj", "transjakarta", "brt", "busway":
		return ModeBRT, nil
	case "krl", "commuterline", "commuter":
		return ModeCommuterRail, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", internalerr.ErrInvalidInput, s)
}

// Sentiment is the polarity assigned to a comment.
type Sentiment string

const (
	Positive Sentiment = "Positif"
	Negative Sentiment = "Negatif"
	Neutral  Sentiment = "Netral"
)

// Valid reports whether s is a known sentiment.
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// ParseSentiment accepts Indonesian and English spellings and common model
// label names.
func ParseSentiment(s string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positif", "positive", "pos", "label_1":
		return Positive, nil
	case "negatif", "negative", "neg", "label_0":
		return Negative, nil
	case "netral", "neutral", "neu":
		return Neutral, nil
	}
	return "", fmt.Errorf("%w: unknown sentiment %q", internalerr.ErrInvalidInput, s)
}

// Source records which collection a record belongs to.
type Source string

const (
	SourceBaseline Source = "baseline"
	SourceSession  Source = "session"
)

// Record is one analyzed comment. Records are values; nothing mutates one
// after construction.
type Record struct {
	ID         string
	Mode       Mode
	Text       string
	Sentiment  Sentiment
	Confidence float64
	Tags       []taxonomy.Label
	Source     Source
	CreatedAt  time.Time
}

// HasTags reports whether any category was detected.
func (r Record) HasTags() bool { return len(r.Tags) > 0 }

// TagStrings returns the tags as plain strings, for display and storage.
func (r Record) TagStrings() []string {
	out := make([]string, len(r.Tags))
	for i, tag := range r.Tags {
		out[i] = string(tag)
	}
	return out
}
