// Package engagement tracks per-blog view and like counters. Views grow
// monotonically with every read; likes are a membership-gated toggle per
// user, so the like counter always equals the size of the blog's liker set.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/internal/store"
)

// BlogView is a blog annotated with the requesting viewer's like state.
// IsLiked is always false for anonymous viewers.
type BlogView struct {
	store.Blog
	IsLiked bool `json:"is_liked"`
}

// LikeResult reports the outcome of a like toggle.
type LikeResult struct {
	BlogID    string `json:"blog_id"`
	Liked     bool   `json:"liked"`
	LikeCount int64  `json:"like_count"`
}

// Service owns the engagement counters of blogs.
type Service struct {
	Blogs   store.BlogStore
	Events  *events.Publisher
	Timeout time.Duration
	Log     *zap.Logger
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// IncrementView records one view and returns the blog as the viewer sees
// it, including the incremented counter. viewerID may be empty for
// anonymous readers; then the like annotation is skipped.
func (s *Service) IncrementView(ctx context.Context, blogID, viewerID string) (BlogView, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blog, err := s.Blogs.FindByIDAndIncView(ctx, blogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return BlogView{}, fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return BlogView{}, fmt.Errorf("increment view: %w", err)
	}

	view := BlogView{Blog: blog}
	if viewerID != "" {
		liked, err := s.Blogs.IsLiked(ctx, blogID, viewerID)
		if err != nil {
			s.Log.Warn("like annotation failed",
				zap.String("blog_id", blogID), zap.Error(err))
		} else {
			view.IsLiked = liked
		}
	}

	s.Events.Publish(events.SubjectBlogViewed, "blog_viewed", viewerID, blogID, nil)
	return view, nil
}

// ToggleLike flips the user's like on the blog: add when absent, remove
// when present. The membership gate in the store makes a lost race
// visible as changed=false; one re-read and retry absorbs a single
// concurrent flip, after that the caller gets ErrConflict.
func (s *Service) ToggleLike(ctx context.Context, blogID, userID string) (LikeResult, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.Blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LikeResult{}, fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return LikeResult{}, fmt.Errorf("find blog: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		liked, err := s.Blogs.IsLiked(ctx, blogID, userID)
		if err != nil {
			return LikeResult{}, fmt.Errorf("read like state: %w", err)
		}

		var (
			changed bool
			count   int64
		)
		if liked {
			changed, count, err = s.Blogs.RemoveLike(ctx, blogID, userID)
		} else {
			changed, count, err = s.Blogs.AddLike(ctx, blogID, userID)
		}
		if err != nil {
			return LikeResult{}, fmt.Errorf("toggle like: %w", err)
		}
		if !changed {
			// Someone flipped the same membership between our read and
			// write. Re-read and try the now-opposite direction once.
			continue
		}

		res := LikeResult{BlogID: blogID, Liked: !liked, LikeCount: count}
		if res.Liked {
			s.Events.Publish(events.SubjectBlogLiked, "blog_liked", userID, blogID, nil)
		} else {
			s.Events.Publish(events.SubjectBlogUnliked, "blog_unliked", userID, blogID, nil)
		}
		return res, nil
	}

	return LikeResult{}, fmt.Errorf("%w: like state changed concurrently, retry", store.ErrConflict)
}

// Annotate returns the blog with the viewer's like state without touching
// any counter. Used by read paths that must not count as a view.
func (s *Service) Annotate(ctx context.Context, blog store.Blog, viewerID string) BlogView {
	view := BlogView{Blog: blog}
	if viewerID == "" {
		return view
	}
	liked, err := s.Blogs.IsLiked(ctx, blog.ID, viewerID)
	if err != nil {
		s.Log.Warn("like annotation failed",
			zap.String("blog_id", blog.ID), zap.Error(err))
		return view
	}
	view.IsLiked = liked
	return view
}
