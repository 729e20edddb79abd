// Package blogs covers authorship of posts: creation, author-gated edits
// and deletion, previews and the listing/search/ranking read paths.
package blogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/store"
)

const (
	minTitleLength   = 3
	maxTitleLength   = 30
	minContentLength = 10
)

// Preview is the listing shape of a blog: everything but the content.
type Preview struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	AuthorID     string     `json:"author_id"`
	Tags         []string   `json:"tags"`
	ViewCount    int64      `json:"view_count"`
	LikeCount    int64      `json:"like_count"`
	CommentCount int64      `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Page is one page of blog previews.
type Page struct {
	Items   []Preview `json:"items"`
	Page    int       `json:"page"`
	Size    int       `json:"size"`
	Total   int64     `json:"total"`
	HasNext bool      `json:"has_next"`
}

// Service owns the authorship and listing operations of blogs.
type Service struct {
	Blogs    store.BlogStore
	Comments store.CommentStore
	Timeout  time.Duration
	Log      *zap.Logger
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func validateTitle(title string) error {
	if n := len(title); n < minTitleLength || n > maxTitleLength {
		return fmt.Errorf("%w: title must be %d-%d characters", store.ErrInvalidArgument, minTitleLength, maxTitleLength)
	}
	return nil
}

func validateContent(content string) error {
	if len(content) < minContentLength {
		return fmt.Errorf("%w: content must be at least %d characters", store.ErrInvalidArgument, minContentLength)
	}
	return nil
}

// Create publishes a new blog owned by authorID. Tags are deduplicated in
// first-seen order and capped.
func (s *Service) Create(ctx context.Context, authorID, title, content string, tags []string) (store.Blog, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return store.Blog{}, err
	}
	if err := validateContent(content); err != nil {
		return store.Blog{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blog, err := s.Blogs.Create(ctx, store.Blog{
		Title:    title,
		Content:  content,
		AuthorID: authorID,
		Tags:     store.NormalizeTags(tags),
	})
	if err != nil {
		return store.Blog{}, fmt.Errorf("create blog: %w", err)
	}
	s.Log.Info("blog created",
		zap.String("blog_id", blog.ID), zap.String("author_id", authorID))
	return blog, nil
}

// Edit applies an author-gated patch and stamps updated_at.
func (s *Service) Edit(ctx context.Context, blogID, requestingUser string, patch store.BlogPatch) (store.Blog, error) {
	if patch.IsEmpty() {
		return store.Blog{}, fmt.Errorf("%w: nothing to update", store.ErrInvalidArgument)
	}
	if patch.Title != nil {
		t := strings.TrimSpace(*patch.Title)
		if err := validateTitle(t); err != nil {
			return store.Blog{}, err
		}
		patch.Title = &t
	}
	if patch.Content != nil {
		if err := validateContent(*patch.Content); err != nil {
			return store.Blog{}, err
		}
	}
	if patch.Tags != nil {
		patch.Tags = store.NormalizeTags(patch.Tags)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blog, err := s.Blogs.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Blog{}, fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return store.Blog{}, fmt.Errorf("find blog: %w", err)
	}
	if blog.AuthorID != requestingUser {
		return store.Blog{}, store.ErrForbidden
	}

	updated, err := s.Blogs.Update(ctx, blogID, patch)
	if err != nil {
		return store.Blog{}, fmt.Errorf("update blog: %w", err)
	}
	return updated, nil
}

// Remove deletes a blog and its entire discussion. Author only.
func (s *Service) Remove(ctx context.Context, blogID, requestingUser string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blog, err := s.Blogs.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return fmt.Errorf("find blog: %w", err)
	}
	if blog.AuthorID != requestingUser {
		return store.ErrForbidden
	}

	if err := s.Blogs.Delete(ctx, blogID); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	removed, err := s.Comments.DeleteByBlog(ctx, blogID)
	if err != nil {
		// The blog is gone; orphaned comments are unreachable and get
		// swept by the reconciliation job.
		s.Log.Warn("comment cleanup failed",
			zap.String("blog_id", blogID), zap.Error(err))
		return nil
	}
	s.Log.Info("blog deleted",
		zap.String("blog_id", blogID), zap.Int64("comments_removed", removed))
	return nil
}

// Preview returns the blog without its content and without counting a view.
func (s *Service) Preview(ctx context.Context, blogID string) (Preview, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	blog, err := s.Blogs.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Preview{}, fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return Preview{}, fmt.Errorf("find blog: %w", err)
	}
	return toPreview(blog), nil
}

// ListByAuthor pages through an author's blogs, newest first. excludeID
// drops one blog from the listing, for "more from this author" panels.
func (s *Service) ListByAuthor(ctx context.Context, authorID string, page, size int, excludeID string) (Page, error) {
	page, size = clampPage(page, size)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	items, err := s.Blogs.ListByAuthor(ctx, authorID, (page-1)*size, size, excludeID)
	if err != nil {
		return Page{}, fmt.Errorf("list by author: %w", err)
	}
	total, err := s.Blogs.CountByAuthor(ctx, authorID, excludeID)
	if err != nil {
		return Page{}, fmt.Errorf("count by author: %w", err)
	}
	return toPage(items, page, size, total), nil
}

// Search pages through blogs whose title contains keyword,
// case-insensitively, newest first.
func (s *Service) Search(ctx context.Context, keyword string, page, size int) (Page, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Page{}, fmt.Errorf("%w: empty search keyword", store.ErrInvalidArgument)
	}
	page, size = clampPage(page, size)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	items, err := s.Blogs.SearchByTitle(ctx, keyword, (page-1)*size, size)
	if err != nil {
		return Page{}, fmt.Errorf("search blogs: %w", err)
	}
	total, err := s.Blogs.CountByTitle(ctx, keyword)
	if err != nil {
		return Page{}, fmt.Errorf("count search: %w", err)
	}
	return toPage(items, page, size, total), nil
}

// TopByViews returns the all-time most viewed blogs as previews.
func (s *Service) TopByViews(ctx context.Context, limit int) ([]Preview, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	items, err := s.Blogs.TopByViews(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top by views: %w", err)
	}
	out := make([]Preview, 0, len(items))
	for _, b := range items {
		out = append(out, toPreview(b))
	}
	return out, nil
}

func toPreview(b store.Blog) Preview {
	return Preview{
		ID:           b.ID,
		Title:        b.Title,
		AuthorID:     b.AuthorID,
		Tags:         b.Tags,
		ViewCount:    b.ViewCount,
		LikeCount:    b.LikeCount,
		CommentCount: b.CommentCount,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toPage(items []store.Blog, page, size int, total int64) Page {
	out := Page{
		Items:   make([]Preview, 0, len(items)),
		Page:    page,
		Size:    size,
		Total:   total,
		HasNext: int64(page)*int64(size) < total,
	}
	for _, b := range items {
		out.Items = append(out.Items, toPreview(b))
	}
	return out
}

func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 50 {
		size = 50
	}
	return page, size
}
