package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryCommentStore is a development-only in-memory implementation.
type InMemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]Comment // id -> comment
	clock    monotonicClock
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{comments: make(map[string]Comment)}
}

func (s *InMemoryCommentStore) Insert(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = s.clock.Now()
	if c.IsRoot {
		c.RootID = c.ID
	}
	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryCommentStore) FindByID(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *InMemoryCommentStore) DeleteThread(_ context.Context, rootID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.comments {
		if c.RootID == rootID {
			delete(s.comments, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) DeleteOne(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *InMemoryCommentStore) DeleteByBlog(_ context.Context, blogID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, c := range s.comments {
		if c.BlogID == blogID {
			delete(s.comments, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) ListRoots(_ context.Context, blogID string, skip, limit int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collect(func(c Comment) bool {
		return c.BlogID == blogID && c.IsRoot
	})
	return pageComments(items, skip, limit), nil
}

func (s *InMemoryCommentStore) CountRoots(_ context.Context, blogID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int64(0)
	for _, c := range s.comments {
		if c.BlogID == blogID && c.IsRoot {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) ListReplies(_ context.Context, rootID string, skip, limit int) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collect(func(c Comment) bool {
		return c.RootID == rootID && !c.IsRoot
	})
	return pageComments(items, skip, limit), nil
}

func (s *InMemoryCommentStore) CountReplies(_ context.Context, rootID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int64(0)
	for _, c := range s.comments {
		if c.RootID == rootID && !c.IsRoot {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryCommentStore) collect(keep func(Comment) bool) []Comment {
	items := make([]Comment, 0)
	for _, c := range s.comments {
		if keep(c) {
			items = append(items, c)
		}
	}
	return items
}

func pageComments(items []Comment, skip, limit int) []Comment {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	if skip >= len(items) {
		return []Comment{}
	}
	items = items[skip:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
