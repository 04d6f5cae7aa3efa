package store

import (
	"errors"
	"sync"

	"github.com/omergulen/sourcemap-harvest/pkg/models"
)

// ErrScriptUnavailable means no body was captured for a script ID. Callers
// treat it as best-effort: the script is skipped, the run continues.
var ErrScriptUnavailable = errors.New("script body unavailable")

// Store is the registry of observed scripts. The crawler writes to it from
// concurrent callbacks; extraction reads it after the crawl has finished.
// Iteration follows insertion order so runs are deterministic.
type Store struct {
	mu      sync.Mutex
	records map[string]*models.ScriptRecord
	bodies  map[string][]byte
	order   []string
}

func New() *Store {
	return &Store{
		records: make(map[string]*models.ScriptRecord),
		bodies:  make(map[string][]byte),
	}
}

// Observe records a script event. A repeated ID overwrites the previous
// record (last write wins) but keeps its original position.
func (s *Store) Observe(rec models.ScriptRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.records[rec.ScriptID]; !seen {
		s.order = append(s.order, rec.ScriptID)
	}
	s.records[rec.ScriptID] = &rec
}

// SetBody stores the generated (as-served) body for a script ID.
func (s *Store) SetBody(scriptID string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies[scriptID] = body
}

// Body returns the captured generated body for a script ID.
func (s *Store) Body(scriptID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.bodies[scriptID]
	if !ok {
		return nil, ErrScriptUnavailable
	}
	return body, nil
}

// Records returns all observed scripts in insertion order.
func (s *Store) Records() []models.ScriptRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ScriptRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	return out
}

// Len reports how many distinct scripts have been observed.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
