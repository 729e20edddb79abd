// Package comments owns the two-level discussion threads of a blog:
// creation with root/reply flattening, paginated retrieval, and cascading
// or selective deletion. The blog's comment_count tally moves alongside
// every insert and delete as a separate atomic store operation.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/internal/store"
)

// unknownAuthor stands in for display names that can no longer be resolved.
const unknownAuthor = "Unknown"

// NameResolver is the slice of the identity collaborator this package
// needs: one batched id-to-display-name lookup.
type NameResolver interface {
	DisplayNames(ctx context.Context, ids []string) (map[string]string, error)
}

// CommentView is a comment enriched with its author's current display name.
type CommentView struct {
	store.Comment
	AuthorUsername string `json:"author_username"`
}

// RootView is a root comment with one page of its replies.
type RootView struct {
	CommentView
	Replies        []CommentView `json:"replies"`
	RepliesPage    int           `json:"replies_page"`
	RepliesSize    int           `json:"replies_size"`
	RepliesTotal   int64         `json:"replies_total"`
	RepliesHasNext bool          `json:"replies_has_next"`
}

// RootPage is one page of root comments.
type RootPage struct {
	Items   []RootView `json:"items"`
	Page    int        `json:"page"`
	Size    int        `json:"size"`
	Total   int64      `json:"total"`
	HasNext bool       `json:"has_next"`
}

// ReplyPage is one page of replies under a single root.
type ReplyPage struct {
	Items   []CommentView `json:"items"`
	Page    int           `json:"page"`
	Size    int           `json:"size"`
	Total   int64         `json:"total"`
	HasNext bool          `json:"has_next"`
}

// Service is the comment thread manager.
type Service struct {
	Comments store.CommentStore
	Blogs    store.BlogStore
	Names    NameResolver
	Events   *events.Publisher
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

// Create adds a comment to a blog. Without a parent it starts a new
// thread; with one it joins the parent's thread, whatever the nesting
// depth of the parent. The addressee's display name is snapshotted now
// and never refreshed.
func (s *Service) Create(ctx context.Context, blogID, authorID, content string, parentID *string) (CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > store.MaxCommentLength {
		return CommentView{}, fmt.Errorf("%w: content must be 1-%d characters", store.ErrInvalidArgument, store.MaxCommentLength)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.Blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CommentView{}, fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return CommentView{}, fmt.Errorf("find blog: %w", err)
	}

	c := store.Comment{
		BlogID:   blogID,
		AuthorID: authorID,
		Content:  content,
		IsRoot:   parentID == nil,
	}
	if parentID != nil {
		parent, err := s.Comments.FindByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return CommentView{}, fmt.Errorf("%w: parent comment not found", store.ErrInvalidArgument)
			}
			return CommentView{}, fmt.Errorf("find parent: %w", err)
		}
		replyTo := s.resolveName(ctx, parent.AuthorID)
		c.RootID = parent.RootID
		c.ParentID = parentID
		c.ReplyToCommentID = parentID
		c.ReplyToUsername = &replyTo
	}

	created, err := s.Comments.Insert(ctx, c)
	if err != nil {
		return CommentView{}, fmt.Errorf("insert comment: %w", err)
	}

	// The tally is a separate single-document update; if it fails the
	// comment still exists and the count is temporarily stale, to be
	// healed by the out-of-band reconciliation job.
	if err := s.Blogs.AdjustCommentCount(ctx, blogID, 1); err != nil {
		s.Log.Warn("comment_count increment failed",
			zap.String("blog_id", blogID), zap.Error(err))
	}

	s.Events.Publish(events.SubjectCommentCreated, "comment_created", authorID, blogID,
		map[string]any{"comment_id": created.ID, "is_root": created.IsRoot})

	return CommentView{Comment: created, AuthorUsername: s.resolveName(ctx, authorID)}, nil
}

// Delete removes a comment. Deleting a root tears down its whole thread;
// deleting a reply leaves the root and the siblings alone. Allowed for
// the blog's author and the comment's author only.
func (s *Service) Delete(ctx context.Context, commentID, blogID, requestingUser string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	c, err := s.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("comment %s: %w", commentID, store.ErrNotFound)
		}
		return fmt.Errorf("find comment: %w", err)
	}
	if c.BlogID != blogID {
		return fmt.Errorf("%w: comment does not belong to the blog", store.ErrInvalidArgument)
	}

	blog, err := s.Blogs.FindByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return fmt.Errorf("find blog: %w", err)
	}
	if blog.AuthorID != requestingUser && c.AuthorID != requestingUser {
		return store.ErrForbidden
	}

	removed := int64(1)
	if c.IsRoot {
		removed, err = s.Comments.DeleteThread(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("delete thread: %w", err)
		}
	} else {
		if err := s.Comments.DeleteOne(ctx, c.ID); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
	}

	if err := s.Blogs.AdjustCommentCount(ctx, blogID, -int(removed)); err != nil {
		s.Log.Warn("comment_count decrement failed",
			zap.String("blog_id", blogID), zap.Int64("removed", removed), zap.Error(err))
	}

	s.Events.Publish(events.SubjectCommentDeleted, "comment_deleted", requestingUser, blogID,
		map[string]any{"comment_id": commentID, "removed": removed})
	return nil
}

// ListRoots returns one page of a blog's root comments, each carrying the
// same repliesPage/repliesSize sub-page of its replies. Display names for
// every author in the response are resolved in a single batched lookup.
func (s *Service) ListRoots(ctx context.Context, blogID string, page, size, repliesPage, repliesSize int) (RootPage, error) {
	page, size = clampPage(page, size)
	repliesPage, repliesSize = clampPage(repliesPage, repliesSize)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.Blogs.FindByID(ctx, blogID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RootPage{}, fmt.Errorf("blog %s: %w", blogID, store.ErrNotFound)
		}
		return RootPage{}, fmt.Errorf("find blog: %w", err)
	}

	roots, err := s.Comments.ListRoots(ctx, blogID, (page-1)*size, size)
	if err != nil {
		return RootPage{}, fmt.Errorf("list roots: %w", err)
	}
	total, err := s.Comments.CountRoots(ctx, blogID)
	if err != nil {
		return RootPage{}, fmt.Errorf("count roots: %w", err)
	}

	out := RootPage{
		Items:   make([]RootView, 0, len(roots)),
		Page:    page,
		Size:    size,
		Total:   total,
		HasNext: int64(page)*int64(size) < total,
	}
	if len(roots) == 0 {
		return out, nil
	}

	authorIDs := make(map[string]struct{}, len(roots))
	repliesPerRoot := make(map[string][]store.Comment, len(roots))
	replyTotals := make(map[string]int64, len(roots))
	for _, root := range roots {
		authorIDs[root.AuthorID] = struct{}{}

		replies, err := s.Comments.ListReplies(ctx, root.ID, (repliesPage-1)*repliesSize, repliesSize)
		if err != nil {
			return RootPage{}, fmt.Errorf("list replies: %w", err)
		}
		rtotal, err := s.Comments.CountReplies(ctx, root.ID)
		if err != nil {
			return RootPage{}, fmt.Errorf("count replies: %w", err)
		}
		repliesPerRoot[root.ID] = replies
		replyTotals[root.ID] = rtotal
		for _, r := range replies {
			authorIDs[r.AuthorID] = struct{}{}
		}
	}

	names := s.resolveNames(ctx, authorIDs)
	for _, root := range roots {
		rv := RootView{
			CommentView:    CommentView{Comment: root, AuthorUsername: nameOr(names, root.AuthorID)},
			Replies:        make([]CommentView, 0, len(repliesPerRoot[root.ID])),
			RepliesPage:    repliesPage,
			RepliesSize:    repliesSize,
			RepliesTotal:   replyTotals[root.ID],
			RepliesHasNext: int64(repliesPage)*int64(repliesSize) < replyTotals[root.ID],
		}
		for _, r := range repliesPerRoot[root.ID] {
			rv.Replies = append(rv.Replies, CommentView{Comment: r, AuthorUsername: nameOr(names, r.AuthorID)})
		}
		out.Items = append(out.Items, rv)
	}
	return out, nil
}

// ListReplies loads one more page of replies under a single root, for
// expanding a thread without re-fetching the page of roots around it.
func (s *Service) ListReplies(ctx context.Context, rootID string, page, size int) (ReplyPage, error) {
	page, size = clampPage(page, size)

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	root, err := s.Comments.FindByID(ctx, rootID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ReplyPage{}, fmt.Errorf("comment %s: %w", rootID, store.ErrNotFound)
		}
		return ReplyPage{}, fmt.Errorf("find root: %w", err)
	}
	if !root.IsRoot {
		return ReplyPage{}, fmt.Errorf("%w: comment is not a thread root", store.ErrInvalidArgument)
	}

	replies, err := s.Comments.ListReplies(ctx, rootID, (page-1)*size, size)
	if err != nil {
		return ReplyPage{}, fmt.Errorf("list replies: %w", err)
	}
	total, err := s.Comments.CountReplies(ctx, rootID)
	if err != nil {
		return ReplyPage{}, fmt.Errorf("count replies: %w", err)
	}

	authorIDs := make(map[string]struct{}, len(replies))
	for _, r := range replies {
		authorIDs[r.AuthorID] = struct{}{}
	}
	names := s.resolveNames(ctx, authorIDs)

	out := ReplyPage{
		Items:   make([]CommentView, 0, len(replies)),
		Page:    page,
		Size:    size,
		Total:   total,
		HasNext: int64(page)*int64(size) < total,
	}
	for _, r := range replies {
		out.Items = append(out.Items, CommentView{Comment: r, AuthorUsername: nameOr(names, r.AuthorID)})
	}
	return out, nil
}

func (s *Service) resolveName(ctx context.Context, id string) string {
	names := s.resolveNames(ctx, map[string]struct{}{id: {}})
	return nameOr(names, id)
}

// resolveNames is best-effort: a failed identity lookup degrades every
// affected display name to the placeholder instead of failing the read.
func (s *Service) resolveNames(ctx context.Context, idSet map[string]struct{}) map[string]string {
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	names, err := s.Names.DisplayNames(ctx, ids)
	if err != nil {
		s.Log.Warn("display name resolution failed", zap.Int("ids", len(ids)), zap.Error(err))
		return map[string]string{}
	}
	return names
}

func nameOr(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return unknownAuthor
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
