package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCommentStore creates a store backed by Postgres.
func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

const commentColumns = `id, blog_id, author_id, content, is_root, root_id, parent_id, reply_to_comment_id, reply_to_username, created_at`

func (s *PostgresCommentStore) Insert(ctx context.Context, c Comment) (Comment, error) {
	c.ID = uuid.NewString()
	if c.IsRoot {
		c.RootID = c.ID
	}
	const q = `INSERT INTO comments
	             (id, blog_id, author_id, content, is_root, root_id, parent_id, reply_to_comment_id, reply_to_username)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           RETURNING ` + commentColumns
	row := s.pool.QueryRow(ctx, q, c.ID, c.BlogID, c.AuthorID, c.Content,
		c.IsRoot, c.RootID, c.ParentID, c.ReplyToCommentID, c.ReplyToUsername)
	return scanComment(row)
}

func (s *PostgresCommentStore) FindByID(ctx context.Context, id string) (Comment, error) {
	return scanComment(s.pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
}

func (s *PostgresCommentStore) DeleteThread(ctx context.Context, rootID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE root_id = $1`, rootID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresCommentStore) DeleteOne(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresCommentStore) DeleteByBlog(ctx context.Context, blogID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE blog_id = $1`, blogID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresCommentStore) ListRoots(ctx context.Context, blogID string, skip, limit int) ([]Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments
	           WHERE blog_id = $1 AND is_root
	           ORDER BY created_at ASC, id ASC
	           OFFSET $2 LIMIT $3`
	return s.scanComments(ctx, q, blogID, skip, limit)
}

func (s *PostgresCommentStore) CountRoots(ctx context.Context, blogID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM comments WHERE blog_id = $1 AND is_root`, blogID).Scan(&n)
	return n, err
}

func (s *PostgresCommentStore) ListReplies(ctx context.Context, rootID string, skip, limit int) ([]Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments
	           WHERE root_id = $1 AND NOT is_root
	           ORDER BY created_at ASC, id ASC
	           OFFSET $2 LIMIT $3`
	return s.scanComments(ctx, q, rootID, skip, limit)
}

func (s *PostgresCommentStore) CountReplies(ctx context.Context, rootID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM comments WHERE root_id = $1 AND NOT is_root`, rootID).Scan(&n)
	return n, err
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.IsRoot,
		&c.RootID, &c.ParentID, &c.ReplyToCommentID, &c.ReplyToUsername, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresCommentStore) scanComments(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.IsRoot,
			&c.RootID, &c.ParentID, &c.ReplyToCommentID, &c.ReplyToUsername, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
