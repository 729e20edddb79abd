package store

import (
	"context"
	"time"
)

// MaxTags bounds the tag set of a single blog.
const MaxTags = 10

// Blog is a published post together with its denormalized engagement
// counters. The counters are only ever mutated through the dedicated
// atomic operations below, never by a plain Update.
type Blog struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	AuthorID     string     `json:"author_id"`
	Tags         []string   `json:"tags"`
	ViewCount    int64      `json:"view_count"`
	LikeCount    int64      `json:"like_count"`
	CommentCount int64      `json:"comment_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// BlogPatch carries the author-editable fields. Nil means unchanged.
type BlogPatch struct {
	Title   *string
	Content *string
	Tags    []string
}

// IsEmpty reports whether the patch changes nothing.
func (p BlogPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// TagCount is one row of the hottest-tags ranking.
type TagCount struct {
	Tag       string `json:"tag"`
	BlogCount int64  `json:"blog_count"`
}

// BlogStore defines the contract for blog persistence, including the
// atomic counter primitives the engagement layer builds on.
type BlogStore interface {
	Create(ctx context.Context, b Blog) (Blog, error)
	Update(ctx context.Context, id string, patch BlogPatch) (Blog, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Blog, error)

	// FindByIDAndIncView bumps view_count by one and returns the updated
	// blog in a single read-modify-write; concurrent readers never lose
	// an increment.
	FindByIDAndIncView(ctx context.Context, id string) (Blog, error)

	// AddLike inserts userID into the blog's like set and increments
	// like_count, gated on the user not already being a member. changed
	// is false when the precondition failed (membership already held).
	AddLike(ctx context.Context, blogID, userID string) (changed bool, likeCount int64, err error)
	// RemoveLike is the inverse gate: changed is false when the user was
	// not a member at write time.
	RemoveLike(ctx context.Context, blogID, userID string) (changed bool, likeCount int64, err error)
	IsLiked(ctx context.Context, blogID, userID string) (bool, error)
	// LikedSet reports, for one user, which of blogIDs they have liked.
	LikedSet(ctx context.Context, userID string, blogIDs []string) (map[string]bool, error)

	// AdjustCommentCount adds delta to comment_count, floored at zero.
	AdjustCommentCount(ctx context.Context, blogID string, delta int) error

	ListByAuthor(ctx context.Context, authorID string, skip, limit int, excludeID string) ([]Blog, error)
	CountByAuthor(ctx context.Context, authorID string, excludeID string) (int64, error)
	SearchByTitle(ctx context.Context, keyword string, skip, limit int) ([]Blog, error)
	CountByTitle(ctx context.Context, keyword string) (int64, error)

	// ListCreatedSince returns the trend candidate set: every blog
	// created at or after since.
	ListCreatedSince(ctx context.Context, since time.Time) ([]Blog, error)
	TopByViews(ctx context.Context, limit int) ([]Blog, error)
	// TagCounts groups all blogs by tag and returns the top limit tags
	// by blog count, count descending with tag name as tie-break.
	TagCounts(ctx context.Context, limit int) ([]TagCount, error)
}

// NormalizeTags deduplicates tags case-sensitively, preserves first-seen
// order and casing, drops blanks and caps the result at MaxTags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
