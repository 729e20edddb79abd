package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlogStore persists blogs in Postgres. The like set lives in a
// companion blog_likes table; membership changes and the like_count column
// move together inside single statements, which gives the conditional
// add/remove semantics without an explicit transaction.
type PostgresBlogStore struct {
	pool *pgxpool.Pool
}

// NewPostgresBlogStore creates a store backed by Postgres.
func NewPostgresBlogStore(pool *pgxpool.Pool) *PostgresBlogStore {
	return &PostgresBlogStore{pool: pool}
}

const blogColumns = `id, title, content, author_id, tags, view_count, like_count, comment_count, created_at, updated_at`

func (s *PostgresBlogStore) scanBlog(row pgx.Row) (Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.Tags,
		&b.ViewCount, &b.LikeCount, &b.CommentCount, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Blog{}, ErrNotFound
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return b, err
}

func (s *PostgresBlogStore) Create(ctx context.Context, b Blog) (Blog, error) {
	const q = `INSERT INTO blogs (id, title, content, author_id, tags)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING ` + blogColumns
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return s.scanBlog(s.pool.QueryRow(ctx, q, uuid.NewString(), b.Title, b.Content, b.AuthorID, b.Tags))
}

func (s *PostgresBlogStore) Update(ctx context.Context, id string, patch BlogPatch) (Blog, error) {
	const q = `UPDATE blogs
	           SET title      = COALESCE($2, title),
	               content    = COALESCE($3, content),
	               tags       = COALESCE($4, tags),
	               updated_at = now()
	           WHERE id = $1
	           RETURNING ` + blogColumns
	return s.scanBlog(s.pool.QueryRow(ctx, q, id, patch.Title, patch.Content, patch.Tags))
}

func (s *PostgresBlogStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresBlogStore) FindByID(ctx context.Context, id string) (Blog, error) {
	return s.scanBlog(s.pool.QueryRow(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id))
}

func (s *PostgresBlogStore) FindByIDAndIncView(ctx context.Context, id string) (Blog, error) {
	const q = `UPDATE blogs SET view_count = view_count + 1
	           WHERE id = $1
	           RETURNING ` + blogColumns
	return s.scanBlog(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresBlogStore) AddLike(ctx context.Context, blogID, userID string) (bool, int64, error) {
	// The insert and the counter bump share one statement, so the counter
	// only moves when the membership insert actually happened.
	const q = `WITH ins AS (
	             INSERT INTO blog_likes (blog_id, user_id) VALUES ($1, $2)
	             ON CONFLICT DO NOTHING
	             RETURNING 1
	           )
	           UPDATE blogs SET like_count = like_count + (SELECT count(*) FROM ins)
	           WHERE id = $1
	           RETURNING like_count, (SELECT count(*) FROM ins)`
	var likeCount, inserted int64
	err := s.pool.QueryRow(ctx, q, blogID, userID).Scan(&likeCount, &inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, ErrNotFound
	}
	if err != nil {
		return false, 0, err
	}
	return inserted == 1, likeCount, nil
}

func (s *PostgresBlogStore) RemoveLike(ctx context.Context, blogID, userID string) (bool, int64, error) {
	const q = `WITH del AS (
	             DELETE FROM blog_likes WHERE blog_id = $1 AND user_id = $2
	             RETURNING 1
	           )
	           UPDATE blogs SET like_count = like_count - (SELECT count(*) FROM del)
	           WHERE id = $1
	           RETURNING like_count, (SELECT count(*) FROM del)`
	var likeCount, deleted int64
	err := s.pool.QueryRow(ctx, q, blogID, userID).Scan(&likeCount, &deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, 0, ErrNotFound
	}
	if err != nil {
		return false, 0, err
	}
	return deleted == 1, likeCount, nil
}

func (s *PostgresBlogStore) IsLiked(ctx context.Context, blogID, userID string) (bool, error) {
	var liked bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM blog_likes WHERE blog_id = $1 AND user_id = $2)`,
		blogID, userID).Scan(&liked)
	return liked, err
}

func (s *PostgresBlogStore) LikedSet(ctx context.Context, userID string, blogIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(blogIDs))
	if len(blogIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT blog_id FROM blog_likes WHERE user_id = $1 AND blog_id = ANY($2)`,
		userID, blogIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (s *PostgresBlogStore) AdjustCommentCount(ctx context.Context, blogID string, delta int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE blogs SET comment_count = GREATEST(comment_count + $2, 0) WHERE id = $1`,
		blogID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresBlogStore) ListByAuthor(ctx context.Context, authorID string, skip, limit int, excludeID string) ([]Blog, error) {
	const q = `SELECT ` + blogColumns + ` FROM blogs
	           WHERE author_id = $1 AND ($4 = '' OR id <> $4)
	           ORDER BY created_at DESC, id DESC
	           OFFSET $2 LIMIT $3`
	return s.scanBlogs(ctx, q, authorID, skip, limit, excludeID)
}

func (s *PostgresBlogStore) CountByAuthor(ctx context.Context, authorID string, excludeID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM blogs WHERE author_id = $1 AND ($2 = '' OR id <> $2)`,
		authorID, excludeID).Scan(&n)
	return n, err
}

func (s *PostgresBlogStore) SearchByTitle(ctx context.Context, keyword string, skip, limit int) ([]Blog, error) {
	const q = `SELECT ` + blogColumns + ` FROM blogs
	           WHERE title ILIKE '%' || $1 || '%'
	           ORDER BY created_at DESC, id DESC
	           OFFSET $2 LIMIT $3`
	return s.scanBlogs(ctx, q, keyword, skip, limit)
}

func (s *PostgresBlogStore) CountByTitle(ctx context.Context, keyword string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM blogs WHERE title ILIKE '%' || $1 || '%'`,
		keyword).Scan(&n)
	return n, err
}

func (s *PostgresBlogStore) ListCreatedSince(ctx context.Context, since time.Time) ([]Blog, error) {
	const q = `SELECT ` + blogColumns + ` FROM blogs
	           WHERE created_at >= $1
	           ORDER BY created_at DESC, id DESC`
	return s.scanBlogs(ctx, q, since)
}

func (s *PostgresBlogStore) TopByViews(ctx context.Context, limit int) ([]Blog, error) {
	const q = `SELECT ` + blogColumns + ` FROM blogs
	           ORDER BY view_count DESC, id ASC
	           LIMIT $1`
	return s.scanBlogs(ctx, q, limit)
}

func (s *PostgresBlogStore) TagCounts(ctx context.Context, limit int) ([]TagCount, error) {
	const q = `SELECT t.tag, count(*) AS blog_count
	           FROM blogs b, unnest(b.tags) AS t(tag)
	           GROUP BY t.tag
	           ORDER BY blog_count DESC, t.tag ASC
	           LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TagCount, 0, limit)
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.BlogCount); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func (s *PostgresBlogStore) scanBlogs(ctx context.Context, q string, args ...any) ([]Blog, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Blog, 0)
	for rows.Next() {
		var b Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.Tags,
			&b.ViewCount, &b.LikeCount, &b.CommentCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if b.Tags == nil {
			b.Tags = []string{}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
