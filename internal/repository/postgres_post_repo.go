package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmk-apps/blog/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// List は全記事を作成順で執筆者名付きで返す。
func (r *PostgresPostRepo) List(ctx context.Context) ([]*model.PostSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.title, p.subtitle, p.body, p.img_url, p.author_id,
		        p.published_on, p.created_at, p.updated_at, u.name
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at ASC, p.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.PostSummary
	for rows.Next() {
		s := &model.PostSummary{}
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Subtitle, &s.Body, &s.ImgURL, &s.AuthorID,
			&s.PublishedOn, &s.CreatedAt, &s.UpdatedAt, &s.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	p := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, subtitle, body, img_url, author_id, published_on, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Subtitle, &p.Body, &p.ImgURL, &p.AuthorID, &p.PublishedOn, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	return p, nil
}

// Create は記事を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, title, subtitle, body, img_url, author_id, published_on, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		post.ID, post.Title, post.Subtitle, post.Body, post.ImgURL, post.AuthorID,
		post.PublishedOn, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", translatePQError(err))
	}
	return nil
}

// Update は記事の可変フィールドを上書きする。author_idとpublished_onは変更しない。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET title = $1, subtitle = $2, body = $3, img_url = $4, updated_at = $5
		 WHERE id = $6`,
		post.Title, post.Subtitle, post.Body, post.ImgURL, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", translatePQError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("post %s: %w", post.ID, ErrNotFound)
	}
	return nil
}

// Delete は記事を削除し、CASCADE削除されたコメント数を返す。
// コメント数の取得と削除は同一トランザクションで行う。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var commentCount int64
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM comments WHERE post_id = $1`,
		id,
	).Scan(&commentCount); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	// commentsはON DELETE CASCADEで削除される
	result, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return 0, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return commentCount, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
