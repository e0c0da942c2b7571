// Package local implements pkg/memory's Store as a mutex-guarded in-process
// map. History does not survive a restart.
package local

import (
	"sync"

	"github.com/psplover16/line-ai-rebot/pkg/llm"
	"github.com/psplover16/line-ai-rebot/pkg/memory"
)

// DefaultHistoryLimit is the retention window in messages (not exchanges).
const DefaultHistoryLimit = 20

// Store is an in-memory, bounded conversation store.
type Store struct {
	mu    sync.Mutex
	limit int
	conv  map[string][]llm.Message
}

// NewStore creates a store with the given retention limit.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Store{
		limit: limit,
		conv:  make(map[string][]llm.Message),
	}
}

// History returns a copy of the identity's history, oldest first.
func (s *Store) History(identity string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.conv[identity]
	out := make([]llm.Message, len(history))
	copy(out, history)
	return out
}

// AppendExchange records a user/assistant pair and trims to the limit,
// dropping the oldest messages first.
func (s *Store) AppendExchange(identity string, user, assistant llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.conv[identity], user, assistant)
	if len(history) > s.limit {
		history = history[len(history)-s.limit:]
	}
	s.conv[identity] = history
}

// Len returns the number of stored messages for the identity.
func (s *Store) Len(identity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conv[identity])
}

// Ensure Store implements memory.Store.
var _ memory.Store = (*Store)(nil)
