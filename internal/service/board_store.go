package service

import (
	"sync"
	"time"

	"github.com/noah-isme/sma-substitution-api/internal/substitution"
)

// boardEntry serialises access to one date's board. generation changes whenever the board is rebuilt,
// so cache keys derived from an earlier build can never collide with a new one.
type boardEntry struct {
	mu         sync.Mutex
	board      *substitution.Board
	generation string
	touched    time.Time
}

type boardStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	items map[string]*boardEntry
}

func newBoardStore(ttl time.Duration) *boardStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &boardStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]*boardEntry),
	}
}

// acquire returns the locked entry for key, creating an empty one when missing or idle past the TTL.
func (s *boardStore) acquire(key string) *boardEntry {
	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)
	entry, ok := s.items[key]
	if !ok {
		entry = &boardEntry{}
		s.items[key] = entry
	}
	entry.touched = now
	s.mu.Unlock()

	entry.mu.Lock()
	return entry
}

// peek returns the locked entry for key only when a board has already been built for it.
func (s *boardStore) peek(key string) *boardEntry {
	s.mu.Lock()
	now := s.now()
	s.sweepLocked(now)
	entry, ok := s.items[key]
	if ok {
		entry.touched = now
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	entry.mu.Lock()
	if entry.board == nil {
		entry.mu.Unlock()
		return nil
	}
	return entry
}

func (s *boardStore) release(entry *boardEntry) {
	entry.mu.Unlock()
}

func (s *boardStore) drop(key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

func (s *boardStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *boardStore) sweepLocked(now time.Time) {
	for key, entry := range s.items {
		if now.Sub(entry.touched) > s.ttl {
			delete(s.items, key)
		}
	}
}
