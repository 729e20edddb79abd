package blogs

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/store"
)

func newService(t *testing.T) (*Service, *store.InMemoryBlogStore, *store.InMemoryCommentStore) {
	t.Helper()
	blogs := store.NewInMemoryBlogStore()
	comments := store.NewInMemoryCommentStore()
	svc := &Service{
		Blogs:    blogs,
		Comments: comments,
		Timeout:  2 * time.Second,
		Log:      zap.NewNop(),
	}
	return svc, blogs, comments
}

func TestCreateBlog(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	blog, err := svc.Create(ctx, "author-1", "Generics in Go", "A long enough body.",
		[]string{"go", "generics", "go", "", "generics"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if blog.ID == "" || blog.AuthorID != "author-1" {
		t.Fatalf("unexpected blog %+v", blog)
	}
	if len(blog.Tags) != 2 || blog.Tags[0] != "go" || blog.Tags[1] != "generics" {
		t.Fatalf("tags = %v, want deduplicated [go generics]", blog.Tags)
	}
	if blog.ViewCount != 0 || blog.LikeCount != 0 || blog.CommentCount != 0 {
		t.Fatal("new blog must start with zeroed counters")
	}
	if blog.UpdatedAt != nil {
		t.Fatal("new blog must not carry updated_at")
	}
}

func TestCreateBlogValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		title   string
		content string
	}{
		{"short title", "ab", "long enough content"},
		{"long title", "this title is far far too long to pass", "long enough content"},
		{"short content", "Valid title", "too short"},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, "author-1", tc.title, tc.content, nil); !errors.Is(err, store.ErrInvalidArgument) {
			t.Fatalf("%s: got %v, want ErrInvalidArgument", tc.name, err)
		}
	}
}

func TestEditBlog(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	blog, err := svc.Create(ctx, "author-1", "Original", "The original content.", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Renamed"
	updated, err := svc.Edit(ctx, blog.ID, "author-1", store.BlogPatch{Title: &title})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("title = %q, want Renamed", updated.Title)
	}
	if updated.Content != blog.Content {
		t.Fatal("untouched fields must survive a partial patch")
	}
	if updated.UpdatedAt == nil {
		t.Fatal("edit must stamp updated_at")
	}

	if _, err := svc.Edit(ctx, blog.ID, "intruder", store.BlogPatch{Title: &title}); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("non-author edit: got %v, want ErrForbidden", err)
	}
	if _, err := svc.Edit(ctx, blog.ID, "author-1", store.BlogPatch{}); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("empty patch: got %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.Edit(ctx, "missing", "author-1", store.BlogPatch{Title: &title}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing blog: got %v, want ErrNotFound", err)
	}
}

func TestRemoveBlogDropsComments(t *testing.T) {
	svc, blogs, comments := newService(t)
	ctx := context.Background()

	blog, err := svc.Create(ctx, "author-1", "Doomed post", "Content to be removed.", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := comments.Insert(ctx, store.Comment{
			BlogID: blog.ID, AuthorID: "reader", Content: "hi", IsRoot: true,
		}); err != nil {
			t.Fatalf("insert comment: %v", err)
		}
	}

	if err := svc.Remove(ctx, blog.ID, "intruder"); !errors.Is(err, store.ErrForbidden) {
		t.Fatalf("non-author remove: got %v, want ErrForbidden", err)
	}
	if err := svc.Remove(ctx, blog.ID, "author-1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := blogs.FindByID(ctx, blog.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("blog still present: %v", err)
	}
	left, err := comments.CountRoots(ctx, blog.ID)
	if err != nil {
		t.Fatalf("CountRoots: %v", err)
	}
	if left != 0 {
		t.Fatalf("comments left = %d, want 0", left)
	}
}

func TestPreviewOmitsContentAndView(t *testing.T) {
	svc, blogs, _ := newService(t)
	ctx := context.Background()

	blog, err := svc.Create(ctx, "author-1", "Preview me", "Content stays hidden.", []string{"go"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p, err := svc.Preview(ctx, blog.ID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if p.ID != blog.ID || p.Title != blog.Title || len(p.Tags) != 1 {
		t.Fatalf("unexpected preview %+v", p)
	}

	got, err := blogs.FindByID(ctx, blog.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.ViewCount != 0 {
		t.Fatalf("preview must not count a view, got %d", got.ViewCount)
	}

	if _, err := svc.Preview(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing blog: got %v, want ErrNotFound", err)
	}
}

func TestListByAuthor(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		b, err := svc.Create(ctx, "author-1", "Post title", "Content for the post.", nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, b.ID)
	}
	if _, err := svc.Create(ctx, "author-2", "Other author", "Content by someone else.", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := svc.ListByAuthor(ctx, "author-1", 1, 2, "")
	if err != nil {
		t.Fatalf("ListByAuthor: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || !page.HasNext {
		t.Fatalf("page 1: total=%d items=%d has_next=%v", page.Total, len(page.Items), page.HasNext)
	}
	if page.Items[0].ID != ids[2] {
		t.Fatal("listing must be newest first")
	}

	excluded, err := svc.ListByAuthor(ctx, "author-1", 1, 10, ids[2])
	if err != nil {
		t.Fatalf("ListByAuthor excluded: %v", err)
	}
	if excluded.Total != 2 {
		t.Fatalf("excluded total = %d, want 2", excluded.Total)
	}
	for _, it := range excluded.Items {
		if it.ID == ids[2] {
			t.Fatal("excluded blog leaked into the listing")
		}
	}
}

func TestSearch(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "author-1", "Go Patterns", "Content about patterns.", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "author-1", "go modules intro", "Content about modules.", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "author-1", "Rust notes", "Content about rust.", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	page, err := svc.Search(ctx, "GO", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("search hits = %d (total %d), want 2", len(page.Items), page.Total)
	}
	if page.Items[0].Title != "go modules intro" {
		t.Fatal("search must be newest first")
	}

	if _, err := svc.Search(ctx, "   ", 1, 10); !errors.Is(err, store.ErrInvalidArgument) {
		t.Fatalf("blank keyword: got %v, want ErrInvalidArgument", err)
	}
}

func TestTopByViews(t *testing.T) {
	svc, blogs, _ := newService(t)
	ctx := context.Background()

	low, _ := svc.Create(ctx, "author-1", "Low views", "Content with few views.", nil)
	high, _ := svc.Create(ctx, "author-1", "High views", "Content with many views.", nil)
	blogs.SeedMetrics(low.ID, 5, 0, low.CreatedAt)
	blogs.SeedMetrics(high.ID, 500, 0, high.CreatedAt)

	top, err := svc.TopByViews(ctx, 10)
	if err != nil {
		t.Fatalf("TopByViews: %v", err)
	}
	if len(top) != 2 || top[0].ID != high.ID {
		t.Fatalf("ranking = %+v, want high first", top)
	}
}
