// In-memory snippet store with chaos-guarded operations
package snippets

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chaoskit/internal/chaos"
)

// ErrNotFound is returned when a snippet id does not exist. It is an
// organic failure, deliberately distinct from chaos.ErrInjected.
var ErrNotFound = fmt.Errorf("snippets: not found")

// Snippet is one stored code snippet.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Language  string    `json:"language"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Operation names used when evaluating the gate, one per I/O boundary.
const (
	OpSave   = "snippets.save"
	OpGet    = "snippets.get"
	OpSearch = "snippets.search"
	OpDelete = "snippets.delete"
)

// Store holds snippets in memory. Every operation evaluates the chaos
// gate as its first statement and lets an injected fault propagate, so
// callers exercise the same failure contract a flaky dependency would
// give them.
type Store struct {
	gate *chaos.Gate

	mu   sync.RWMutex
	byID map[string]Snippet
}

// NewStore creates an empty store guarded by gate.
func NewStore(gate *chaos.Gate) *Store {
	return &Store{gate: gate, byID: make(map[string]Snippet)}
}

// Save stores a new snippet and returns it with its generated id.
func (s *Store) Save(ctx context.Context, title, language, content string) (Snippet, error) {
	if _, err := s.gate.Evaluate(ctx, OpSave); err != nil {
		return Snippet{}, err
	}
	sn := Snippet{
		ID:        uuid.NewString(),
		Title:     title,
		Language:  language,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.byID[sn.ID] = sn
	s.mu.Unlock()
	return sn, nil
}

// Get returns the snippet with the given id.
func (s *Store) Get(ctx context.Context, id string) (Snippet, error) {
	if _, err := s.gate.Evaluate(ctx, OpGet); err != nil {
		return Snippet{}, err
	}
	s.mu.RLock()
	sn, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Snippet{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sn, nil
}

// Search returns snippets whose title or content contains query,
// case-insensitively, ordered by title.
func (s *Store) Search(ctx context.Context, query string) ([]Snippet, error) {
	if _, err := s.gate.Evaluate(ctx, OpSearch); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	s.mu.RLock()
	var out []Snippet
	for _, sn := range s.byID {
		if strings.Contains(strings.ToLower(sn.Title), q) ||
			strings.Contains(strings.ToLower(sn.Content), q) {
			out = append(out, sn)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// Delete removes the snippet with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.gate.Evaluate(ctx, OpDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.byID, id)
	return nil
}

// Len reports the number of stored snippets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
