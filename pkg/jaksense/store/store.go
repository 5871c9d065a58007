package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
)

// Store holds the session collections: the records a user submitted during
// one session. The baseline dataset never goes through a Store.
//
// Append must be atomic per call; concurrent appends to one session from
// several tabs or channels must not lose records.
type Store interface {
	Close() error

	// Append adds rec to the end of session's collection.
	Append(ctx context.Context, session string, rec comment.Record) error
	// List returns session's records in the order they were appended. An
	// unknown session has no records.
	List(ctx context.Context, session string) ([]comment.Record, error)
	// Reset clears session's collection.
	Reset(ctx context.Context, session string) error
	// Prune drops sessions whose last append happened before cutoff and
	// returns how many were dropped.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// ValidateSession rejects blank session keys.
func ValidateSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return fmt.Errorf("%w: empty session key", internalerr.ErrInvalidInput)
	}
	return nil
}

// CopyRecord returns rec with its own tag slice.
func CopyRecord(rec comment.Record) comment.Record {
	if rec.Tags != nil {
		rec.Tags = append(rec.Tags[:0:0], rec.Tags...)
	}
	return rec
}
