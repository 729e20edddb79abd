package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/store"
)

type fixture struct {
	svc    *Service
	blogs  *store.InMemoryBlogStore
	users  *store.InMemoryUserStore
	blogID string
	author string
	reader string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	blogs := store.NewInMemoryBlogStore()
	users := store.NewInMemoryUserStore()

	author, err := users.Create(context.Background(), "alice", "alice@example.com", "x")
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	reader, err := users.Create(context.Background(), "bob", "bob@example.com", "x")
	if err != nil {
		t.Fatalf("create reader: %v", err)
	}
	blog, err := blogs.Create(context.Background(), store.Blog{
		Title: "Go concurrency", Content: "...", AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}

	return &fixture{
		svc: &Service{
			Comments: store.NewInMemoryCommentStore(),
			Blogs:    blogs,
			Names:    users,
			Timeout:  2 * time.Second,
			Log:      zap.NewNop(),
		},
		blogs:  blogs,
		users:  users,
		blogID: blog.ID,
		author: author.ID,
		reader: reader.ID,
	}
}

func TestCreateRootComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cv, err := f.svc.Create(ctx, f.blogID, f.reader, "great post", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !cv.IsRoot {
		t.Fatal("expected a root comment")
	}
	if cv.RootID != cv.ID {
		t.Fatalf("root comment must be its own root, got root_id=%s id=%s", cv.RootID, cv.ID)
	}
	if cv.ParentID != nil || cv.ReplyToUsername != nil {
		t.Fatal("root comment must not carry reply metadata")
	}
	if cv.AuthorUsername != "bob" {
		t.Fatalf("author_username = %q, want bob", cv.AuthorUsername)
	}

	blog, err := f.blogs.FindByID(ctx, f.blogID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if blog.CommentCount != 1 {
		t.Fatalf("comment_count = %d, want 1", blog.CommentCount)
	}
}

func TestCreateReplyFlattensToRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, f.blogID, f.author, "root", nil)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	reply, err := f.svc.Create(ctx, f.blogID, f.reader, "reply", &root.ID)
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	// Replying to a reply still lands in the root's thread.
	nested, err := f.svc.Create(ctx, f.blogID, f.author, "nested", &reply.ID)
	if err != nil {
		t.Fatalf("create nested: %v", err)
	}

	if nested.RootID != root.ID {
		t.Fatalf("nested root_id = %s, want %s", nested.RootID, root.ID)
	}
	if nested.ReplyToCommentID == nil || *nested.ReplyToCommentID != reply.ID {
		t.Fatal("nested reply must point at the comment it answered")
	}
	if nested.ReplyToUsername == nil || *nested.ReplyToUsername != "bob" {
		t.Fatalf("reply_to_username = %v, want bob", nested.ReplyToUsername)
	}
}

func TestReplyToUsernameIsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, err := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	reply, err := f.svc.Create(ctx, f.blogID, f.author, "reply", &root.ID)
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	f.users.Rename(f.reader, "robert")

	page, err := f.svc.ListReplies(ctx, root.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListReplies: %v", err)
	}
	got := page.Items[0]
	if got.ID != reply.ID {
		t.Fatalf("unexpected reply %s", got.ID)
	}
	// The addressee's name stays frozen at creation time while the live
	// author_username follows the rename.
	if *got.ReplyToUsername != "bob" {
		t.Fatalf("reply_to_username = %q, want snapshot bob", *got.ReplyToUsername)
	}
	if got.AuthorUsername != "alice" {
		t.Fatalf("author_username = %q, want alice", got.AuthorUsername)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.blogID, f.reader, "   ", nil); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("blank content: got %v, want ErrInvalidArgument", err)
	}
	long := strings.Repeat("a", store.MaxCommentLength+1)
	if _, err := f.svc.Create(ctx, f.blogID, f.reader, long, nil); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("oversized content: got %v, want ErrInvalidArgument", err)
	}
	if _, err := f.svc.Create(ctx, "missing", f.reader, "hi", nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing blog: got %v, want ErrNotFound", err)
	}
	bogus := "no-such-comment"
	if _, err := f.svc.Create(ctx, f.blogID, f.reader, "hi", &bogus); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("missing parent: got %v, want ErrInvalidArgument", err)
	}
}

func TestDeleteRootCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, _ := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)
	other, _ := f.svc.Create(ctx, f.blogID, f.reader, "other root", nil)
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Create(ctx, f.blogID, f.author, "reply", &root.ID); err != nil {
			t.Fatalf("create reply: %v", err)
		}
	}

	if err := f.svc.Delete(ctx, root.ID, f.blogID, f.reader); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	blog, _ := f.blogs.FindByID(ctx, f.blogID)
	if blog.CommentCount != 1 {
		t.Fatalf("comment_count = %d, want 1 (only the other root left)", blog.CommentCount)
	}
	page, err := f.svc.ListRoots(ctx, f.blogID, 1, 10, 1, 10)
	if err != nil {
		t.Fatalf("ListRoots: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != other.ID {
		t.Fatalf("surviving roots = %d, want only %s", len(page.Items), other.ID)
	}
}

func TestDeleteReplyLeavesSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, _ := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)
	r1, _ := f.svc.Create(ctx, f.blogID, f.author, "first", &root.ID)
	r2, _ := f.svc.Create(ctx, f.blogID, f.author, "second", &root.ID)

	if err := f.svc.Delete(ctx, r1.ID, f.blogID, f.author); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	page, err := f.svc.ListReplies(ctx, root.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListReplies: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != r2.ID {
		t.Fatalf("expected only %s to survive, got %d replies", r2.ID, len(page.Items))
	}
	blog, _ := f.blogs.FindByID(ctx, f.blogID)
	if blog.CommentCount != 2 {
		t.Fatalf("comment_count = %d, want 2", blog.CommentCount)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stranger, err := f.users.Create(ctx, "mallory", "mallory@example.com", "x")
	if err != nil {
		t.Fatalf("create stranger: %v", err)
	}
	c, _ := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)

	if err := f.svc.Delete(ctx, c.ID, f.blogID, stranger.ID); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("stranger delete: got %v, want ErrForbidden", err)
	}
	// Blog author may delete someone else's comment on their blog.
	if err := f.svc.Delete(ctx, c.ID, f.blogID, f.author); err != nil {
		t.Fatalf("blog author delete: %v", err)
	}
	if err := f.svc.Delete(ctx, c.ID, f.blogID, f.author); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteRejectsBlogMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otherBlog, err := f.blogs.Create(ctx, store.Blog{Title: "Other", Content: "...", AuthorID: f.author})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	c, _ := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)

	if err := f.svc.Delete(ctx, c.ID, otherBlog.ID, f.reader); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("cross-blog delete: got %v, want ErrInvalidArgument", err)
	}
}

func TestListRootsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var roots []CommentView
	for i := 0; i < 5; i++ {
		c, err := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)
		if err != nil {
			t.Fatalf("create root: %v", err)
		}
		roots = append(roots, c)
	}
	// Three replies under the first root so the sub-page has a second page.
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Create(ctx, f.blogID, f.author, "reply", &roots[0].ID); err != nil {
			t.Fatalf("create reply: %v", err)
		}
	}

	page, err := f.svc.ListRoots(ctx, f.blogID, 1, 2, 1, 2)
	if err != nil {
		t.Fatalf("ListRoots: %v", err)
	}
	if page.Total != 5 || len(page.Items) != 2 || !page.HasNext {
		t.Fatalf("page 1: total=%d items=%d has_next=%v", page.Total, len(page.Items), page.HasNext)
	}
	if page.Items[0].ID != roots[0].ID || page.Items[1].ID != roots[1].ID {
		t.Fatal("roots must come back oldest first")
	}

	first := page.Items[0]
	if first.RepliesTotal != 3 || len(first.Replies) != 2 || !first.RepliesHasNext {
		t.Fatalf("replies sub-page: total=%d items=%d has_next=%v",
			first.RepliesTotal, len(first.Replies), first.RepliesHasNext)
	}
	if first.Replies[0].AuthorUsername != "alice" {
		t.Fatalf("reply author = %q, want alice", first.Replies[0].AuthorUsername)
	}

	last, err := f.svc.ListRoots(ctx, f.blogID, 3, 2, 1, 2)
	if err != nil {
		t.Fatalf("ListRoots page 3: %v", err)
	}
	if len(last.Items) != 1 || last.HasNext {
		t.Fatalf("page 3: items=%d has_next=%v", len(last.Items), last.HasNext)
	}
}

func TestListRepliesPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, _ := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)
	var want []string
	for i := 0; i < 5; i++ {
		r, err := f.svc.Create(ctx, f.blogID, f.author, "reply", &root.ID)
		if err != nil {
			t.Fatalf("create reply: %v", err)
		}
		want = append(want, r.ID)
	}

	p2, err := f.svc.ListReplies(ctx, root.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListReplies: %v", err)
	}
	if p2.Total != 5 || len(p2.Items) != 2 || !p2.HasNext {
		t.Fatalf("page 2: total=%d items=%d has_next=%v", p2.Total, len(p2.Items), p2.HasNext)
	}
	if p2.Items[0].ID != want[2] || p2.Items[1].ID != want[3] {
		t.Fatal("replies must page oldest first without gaps")
	}
}

func TestListRepliesRejectsNonRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root, _ := f.svc.Create(ctx, f.blogID, f.reader, "root", nil)
	reply, _ := f.svc.Create(ctx, f.blogID, f.author, "reply", &root.ID)

	if _, err := f.svc.ListReplies(ctx, reply.ID, 1, 10); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("non-root: got %v, want ErrInvalidArgument", err)
	}
	if _, err := f.svc.ListReplies(ctx, "missing", 1, 10); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing root: got %v, want ErrNotFound", err)
	}
}
