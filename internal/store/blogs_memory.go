package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryBlogStore is a development-only in-memory implementation.
type InMemoryBlogStore struct {
	mu    sync.RWMutex
	blogs map[string]Blog            // id -> blog
	likes map[string]map[string]bool // blogID -> userID -> member
	clock monotonicClock
}

func NewInMemoryBlogStore() *InMemoryBlogStore {
	return &InMemoryBlogStore{
		blogs: make(map[string]Blog),
		likes: make(map[string]map[string]bool),
	}
}

func (s *InMemoryBlogStore) Create(_ context.Context, b Blog) (Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = uuid.NewString()
	b.CreatedAt = s.clock.Now()
	b.UpdatedAt = nil
	b.ViewCount = 0
	b.LikeCount = 0
	b.CommentCount = 0
	if b.Tags == nil {
		b.Tags = []string{}
	}
	s.blogs[b.ID] = b
	return b, nil
}

func (s *InMemoryBlogStore) Update(_ context.Context, id string, patch BlogPatch) (Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[id]
	if !ok {
		return Blog{}, ErrNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Content != nil {
		b.Content = *patch.Content
	}
	if patch.Tags != nil {
		b.Tags = patch.Tags
	}
	now := s.clock.Now()
	b.UpdatedAt = &now
	s.blogs[id] = b
	return b, nil
}

func (s *InMemoryBlogStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[id]; !ok {
		return ErrNotFound
	}
	delete(s.blogs, id)
	delete(s.likes, id)
	return nil
}

func (s *InMemoryBlogStore) FindByID(_ context.Context, id string) (Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blogs[id]
	if !ok {
		return Blog{}, ErrNotFound
	}
	return b, nil
}

func (s *InMemoryBlogStore) FindByIDAndIncView(_ context.Context, id string) (Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[id]
	if !ok {
		return Blog{}, ErrNotFound
	}
	b.ViewCount++
	s.blogs[id] = b
	return b, nil
}

func (s *InMemoryBlogStore) AddLike(_ context.Context, blogID, userID string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[blogID]
	if !ok {
		return false, 0, ErrNotFound
	}
	if s.likes[blogID] == nil {
		s.likes[blogID] = make(map[string]bool)
	}
	if s.likes[blogID][userID] {
		return false, b.LikeCount, nil
	}
	s.likes[blogID][userID] = true
	b.LikeCount++
	s.blogs[blogID] = b
	return true, b.LikeCount, nil
}

func (s *InMemoryBlogStore) RemoveLike(_ context.Context, blogID, userID string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[blogID]
	if !ok {
		return false, 0, ErrNotFound
	}
	if !s.likes[blogID][userID] {
		return false, b.LikeCount, nil
	}
	delete(s.likes[blogID], userID)
	b.LikeCount--
	s.blogs[blogID] = b
	return true, b.LikeCount, nil
}

func (s *InMemoryBlogStore) IsLiked(_ context.Context, blogID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.likes[blogID][userID], nil
}

func (s *InMemoryBlogStore) LikedSet(_ context.Context, userID string, blogIDs []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(blogIDs))
	for _, id := range blogIDs {
		if s.likes[id][userID] {
			out[id] = true
		}
	}
	return out, nil
}

func (s *InMemoryBlogStore) AdjustCommentCount(_ context.Context, blogID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[blogID]
	if !ok {
		return ErrNotFound
	}
	b.CommentCount += int64(delta)
	if b.CommentCount < 0 {
		b.CommentCount = 0
	}
	s.blogs[blogID] = b
	return nil
}

// LikedByCount reports the authoritative membership size for one blog.
// Test helper for counter consistency checks.
func (s *InMemoryBlogStore) LikedByCount(blogID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.likes[blogID])
}

// SeedMetrics overrides a blog's counters and creation time. Test helper
// for ranking scenarios that need exact ages and engagement numbers.
func (s *InMemoryBlogStore) SeedMetrics(id string, views, likes int64, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return
	}
	b.ViewCount = views
	b.LikeCount = likes
	b.CreatedAt = createdAt
	s.blogs[id] = b
}

func (s *InMemoryBlogStore) ListByAuthor(_ context.Context, authorID string, skip, limit int, excludeID string) ([]Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collect(func(b Blog) bool {
		return b.AuthorID == authorID && b.ID != excludeID
	})
	sortNewestFirst(items)
	return paginate(items, skip, limit), nil
}

func (s *InMemoryBlogStore) CountByAuthor(_ context.Context, authorID string, excludeID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int64(0)
	for _, b := range s.blogs {
		if b.AuthorID == authorID && b.ID != excludeID {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryBlogStore) SearchByTitle(_ context.Context, keyword string, skip, limit int) ([]Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw := strings.ToLower(keyword)
	items := s.collect(func(b Blog) bool {
		return strings.Contains(strings.ToLower(b.Title), kw)
	})
	sortNewestFirst(items)
	return paginate(items, skip, limit), nil
}

func (s *InMemoryBlogStore) CountByTitle(_ context.Context, keyword string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw := strings.ToLower(keyword)
	n := int64(0)
	for _, b := range s.blogs {
		if strings.Contains(strings.ToLower(b.Title), kw) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryBlogStore) ListCreatedSince(_ context.Context, since time.Time) ([]Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collect(func(b Blog) bool {
		return !b.CreatedAt.Before(since)
	})
	sortNewestFirst(items)
	return items, nil
}

func (s *InMemoryBlogStore) TopByViews(_ context.Context, limit int) ([]Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.collect(func(Blog) bool { return true })
	sort.Slice(items, func(i, j int) bool {
		if items[i].ViewCount != items[j].ViewCount {
			return items[i].ViewCount > items[j].ViewCount
		}
		return items[i].ID < items[j].ID
	})
	return paginate(items, 0, limit), nil
}

func (s *InMemoryBlogStore) TagCounts(_ context.Context, limit int) ([]TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, b := range s.blogs {
		for _, t := range b.Tags {
			counts[t]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, BlogCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BlogCount != out[j].BlogCount {
			return out[i].BlogCount > out[j].BlogCount
		}
		return out[i].Tag < out[j].Tag
	})
	if limit < 0 {
		limit = 0
	}
	return out[:min(limit, len(out))], nil
}

func (s *InMemoryBlogStore) collect(keep func(Blog) bool) []Blog {
	items := make([]Blog, 0)
	for _, b := range s.blogs {
		if keep(b) {
			items = append(items, b)
		}
	}
	return items
}

func sortNewestFirst(items []Blog) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func paginate(items []Blog, skip, limit int) []Blog {
	if skip >= len(items) {
		return []Blog{}
	}
	items = items[skip:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
