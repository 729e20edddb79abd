package store

import (
	"context"
	"time"
)

// MaxCommentLength bounds a single comment body.
const MaxCommentLength = 300

// Comment is one entry of a two-level discussion thread. Threads are
// stored flat: every comment carries the id of its thread root, and a
// reply to a reply still hangs directly under the root. The reply-to
// fields are a creation-time snapshot of who was being addressed and
// survive deletion or renaming of the addressee.
type Comment struct {
	ID               string    `json:"id"`
	BlogID           string    `json:"blog_id"`
	AuthorID         string    `json:"author_id"`
	Content          string    `json:"content"`
	IsRoot           bool      `json:"is_root"`
	RootID           string    `json:"root_id"`
	ParentID         *string   `json:"parent_id,omitempty"`
	ReplyToCommentID *string   `json:"reply_to_comment_id,omitempty"`
	ReplyToUsername  *string   `json:"reply_to_username,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CommentStore defines the contract for comment persistence. Listings are
// ordered created_at ascending with the id as a deterministic tie-break,
// which keeps pagination stable under concurrent inserts.
type CommentStore interface {
	// Insert assigns the id and created_at; for a root comment root_id
	// becomes the comment's own id.
	Insert(ctx context.Context, c Comment) (Comment, error)
	FindByID(ctx context.Context, id string) (Comment, error)

	// DeleteThread removes every comment whose root_id equals rootID
	// (the root included) and returns the number removed.
	DeleteThread(ctx context.Context, rootID string) (int64, error)
	DeleteOne(ctx context.Context, id string) error
	// DeleteByBlog removes all comments of a blog; used when the blog
	// itself is deleted.
	DeleteByBlog(ctx context.Context, blogID string) (int64, error)

	ListRoots(ctx context.Context, blogID string, skip, limit int) ([]Comment, error)
	CountRoots(ctx context.Context, blogID string) (int64, error)
	ListReplies(ctx context.Context, rootID string, skip, limit int) ([]Comment, error)
	CountReplies(ctx context.Context, rootID string) (int64, error)
}
