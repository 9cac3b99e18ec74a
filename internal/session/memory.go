package session

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu   sync.RWMutex
	docs map[int64]Document
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[int64]Document),
		now:  time.Now,
	}
}

func (s *MemoryStore) GetDocument(ctx context.Context, chatID int64) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[chatID]
	if !exists {
		return nil, ErrNoDocument
	}
	return &doc, nil
}

func (s *MemoryStore) SaveDocument(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *doc
	stored.SavedAt = now
	stored.LastUsedAt = now
	s.docs[doc.ChatID] = stored
	return nil
}

func (s *MemoryStore) TouchDocument(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[chatID]
	if !exists {
		return ErrNoDocument
	}
	doc.LastUsedAt = s.now()
	s.docs[chatID] = doc
	return nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, chatID)
	return nil
}

func (s *MemoryStore) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	pruned := 0
	for id, doc := range s.docs {
		if doc.LastUsedAt.Before(cutoff) {
			delete(s.docs, id)
			pruned++
		}
	}
	return pruned, nil
}

func (s *MemoryStore) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
