package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmk-apps/blog/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Create はコメントを作成する。
// 外部キー制約により、記事・投稿者が存在しない場合はErrReferenceMissingを返す。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, text, author_id, post_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.Text, comment.AuthorID, comment.PostID, comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", translatePQError(err))
	}
	return nil
}

// ListByPostID は記事のコメントを作成順で投稿者情報付きで返す。
func (r *PostgresCommentRepo) ListByPostID(ctx context.Context, postID string) ([]model.CommentView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.text, c.author_id, c.post_id, c.created_at, u.name, u.email
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.post_id = $1
		 ORDER BY c.created_at ASC, c.id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.CommentView
	for rows.Next() {
		var c model.CommentView
		if err := rows.Scan(&c.ID, &c.Text, &c.AuthorID, &c.PostID, &c.CreatedAt, &c.AuthorName, &c.AuthorEmail); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
