package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/store"
)

type session struct {
	records  []comment.Record
	lastSeen time.Time
}

// Store is an in-memory implementation of store.Store. Sessions vanish with
// the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Append implements store.Store.
func (s *Store) Append(ctx context.Context, key string, rec comment.Record) error {
	if err := store.ValidateSession(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
	}
	sess.records = append(sess.records, store.CopyRecord(rec))
	sess.lastSeen = s.now()
	return nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, key string) ([]comment.Record, error) {
	if err := store.ValidateSession(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	out := make([]comment.Record, len(sess.records))
	for i, rec := range sess.records {
		out[i] = store.CopyRecord(rec)
	}
	return out, nil
}

// Reset implements store.Store.
func (s *Store) Reset(ctx context.Context, key string) error {
	if err := store.ValidateSession(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Prune implements store.Store.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for key, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, key)
			dropped++
		}
	}
	return dropped, nil
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
