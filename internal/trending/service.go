// Package trending ranks recent blogs by a time-decayed engagement score
// and maintains a cached hottest-tags view refreshed by a background loop.
package trending

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/cache"
	"github.com/example/blog-platform/internal/store"
)

// hotTagsKey is the cache slot the refresher writes and reads serve from.
const hotTagsKey = "blogs:hottest_tags"

// hotTagsLeaseKey is the cross-replica refresh lease. The in-process flag
// alone would let two replicas aggregate at once.
const hotTagsLeaseKey = "blogs:hottest_tags:refresh"

// leaseTTL bounds how long a crashed refresher can block its peers.
const leaseTTL = 30 * time.Second

// likeWeight is how many views one like is worth in the trend score.
const likeWeight = 5

// Score is the time-decayed engagement score of a blog: raw engagement
// divided by (age in hours + 2) raised to gravity. The +2 keeps brand-new
// posts from dividing by near-zero; higher gravity makes scores decay
// faster.
func Score(viewCount, likeCount int64, age time.Duration, gravity float64) float64 {
	engagement := float64(viewCount + likeWeight*likeCount)
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	return engagement / math.Pow(hours+2, gravity)
}

// HotTags is the cached hottest-tags snapshot.
type HotTags struct {
	Tags        []store.TagCount `json:"tags"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// RankedBlog is a blog with its trend score and the viewer's like state.
type RankedBlog struct {
	store.Blog
	Score   float64 `json:"score"`
	IsLiked bool    `json:"is_liked"`
}

// Page is one page of the trending ranking.
type Page struct {
	Items   []RankedBlog `json:"items"`
	Page    int          `json:"page"`
	Size    int          `json:"size"`
	Total   int64        `json:"total"`
	HasNext bool         `json:"has_next"`
}

// Config carries the tuning knobs of the trending engine.
type Config struct {
	LookbackDays    int
	Gravity         float64
	HotTagsLimit    int
	RefreshInterval time.Duration
	CacheTTL        time.Duration
}

// Service computes trend rankings and serves the hot-tags cache.
type Service struct {
	Blogs   store.BlogStore
	Cache   cache.Cache
	Cfg     Config
	Timeout time.Duration
	Log     *zap.Logger

	// Now is swappable for deterministic scoring in tests.
	Now func() time.Time

	refreshing atomic.Bool
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// RankBlogs scores every blog created inside the lookback window and
// returns one page of the ranking, highest score first. When viewerID is
// set each entry is annotated with the viewer's like state in a single
// batched lookup.
func (s *Service) RankBlogs(ctx context.Context, viewerID string, page, size int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 50 {
		size = 50
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := s.now()
	since := now.AddDate(0, 0, -s.Cfg.LookbackDays)
	candidates, err := s.Blogs.ListCreatedSince(ctx, since)
	if err != nil {
		return Page{}, fmt.Errorf("list candidates: %w", err)
	}

	ranked := make([]RankedBlog, 0, len(candidates))
	for _, b := range candidates {
		ranked = append(ranked, RankedBlog{
			Blog:  b,
			Score: Score(b.ViewCount, b.LikeCount, now.Sub(b.CreatedAt), s.Cfg.Gravity),
		})
	}
	// Ties break on recency so the ordering stays stable across requests.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})

	total := int64(len(ranked))
	start := (page - 1) * size
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + size
	if end > len(ranked) {
		end = len(ranked)
	}
	items := ranked[start:end]

	if viewerID != "" && len(items) > 0 {
		ids := make([]string, len(items))
		for i, rb := range items {
			ids[i] = rb.ID
		}
		liked, err := s.Blogs.LikedSet(ctx, viewerID, ids)
		if err != nil {
			s.Log.Warn("like annotation failed", zap.Error(err))
		} else {
			for i := range items {
				items[i].IsLiked = liked[items[i].ID]
			}
		}
	}

	return Page{
		Items:   items,
		Page:    page,
		Size:    size,
		Total:   total,
		HasNext: int64(page)*int64(size) < total,
	}, nil
}

// HotTags serves the hottest tags from the cache only. A cold or expired
// cache yields an empty list; the read path never recomputes the
// aggregation itself.
func (s *Service) HotTags(ctx context.Context) (HotTags, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var ht HotTags
	found, err := s.Cache.Get(ctx, hotTagsKey, &ht)
	if err != nil {
		return HotTags{}, fmt.Errorf("read hot tags cache: %w", err)
	}
	if !found {
		return HotTags{Tags: []store.TagCount{}}, nil
	}
	if ht.Tags == nil {
		ht.Tags = []store.TagCount{}
	}
	return ht, nil
}

// RefreshHotTags recomputes the tag aggregation and rewrites the cache
// slot. At most one refresh runs at a time: an in-process CAS flag drops
// overlapping local triggers, and a set-if-not-exists lease in the shared
// cache keeps other replicas out. A dropped trigger reports false and the
// next scheduled tick picks the work up.
func (s *Service) RefreshHotTags(ctx context.Context) (bool, error) {
	if !s.refreshing.CompareAndSwap(false, true) {
		return false, nil
	}
	defer s.refreshing.Store(false)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	acquired, err := s.Cache.SetNX(ctx, hotTagsLeaseKey, s.now(), leaseTTL)
	if err != nil {
		return false, fmt.Errorf("acquire refresh lease: %w", err)
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		if err := s.Cache.Delete(ctx, hotTagsLeaseKey); err != nil {
			s.Log.Warn("release refresh lease failed", zap.Error(err))
		}
	}()

	tags, err := s.Blogs.TagCounts(ctx, s.Cfg.HotTagsLimit)
	if err != nil {
		return false, fmt.Errorf("aggregate tags: %w", err)
	}
	if tags == nil {
		tags = []store.TagCount{}
	}
	ht := HotTags{Tags: tags, GeneratedAt: s.now()}
	if err := s.Cache.Set(ctx, hotTagsKey, ht, s.Cfg.CacheTTL); err != nil {
		return false, fmt.Errorf("write hot tags cache: %w", err)
	}
	return true, nil
}

// StartRefresher runs one refresh immediately and then one per interval
// until ctx is cancelled. Meant to run in its own goroutine.
func (s *Service) StartRefresher(ctx context.Context) {
	refresh := func() {
		ran, err := s.RefreshHotTags(ctx)
		if err != nil {
			s.Log.Warn("hot tags refresh failed", zap.Error(err))
			return
		}
		if ran {
			s.Log.Debug("hot tags refreshed")
		}
	}

	refresh()
	ticker := time.NewTicker(s.Cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				s.Log.Warn("hot tags refresher stopped", zap.Error(ctx.Err()))
			}
			return
		case <-ticker.C:
			refresh()
		}
	}
}
