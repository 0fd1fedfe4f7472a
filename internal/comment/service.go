// Package comment は記事へのコメント投稿を提供する。
package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmk-apps/blog/internal/authz"
	"github.com/jmk-apps/blog/internal/metrics"
	"github.com/jmk-apps/blog/internal/model"
	"github.com/jmk-apps/blog/internal/repository"
	"github.com/jmk-apps/blog/internal/security"
)

// MessageEmptyAfterSanitize はサニタイズ後に本文が残らないコメントへのメッセージ。
const MessageEmptyAfterSanitize = "Comment must contain text after unsafe markup is removed."

// Service はコメント投稿のサービス層。
type Service struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	sanitizer   security.ContentSanitizerService
	metrics     metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		sanitizer:   sanitizer,
		metrics:     collector,
	}
}

// CreateComment は記事にコメントを投稿する。
// 匿名の主体は拒否し、記事が存在しない場合はPOST_NOT_FOUNDを返す。
func (s *Service) CreateComment(ctx context.Context, identity model.Identity, postID, text string) (*model.Comment, error) {
	if err := authz.Authorize(identity, authz.OpCreateComment, authz.NoResource); err != nil {
		return nil, err
	}

	sanitized := s.sanitizer.Sanitize(text)
	if strings.TrimSpace(sanitized) == "" {
		return nil, model.NewValidationError("comment_text", MessageEmptyAfterSanitize)
	}

	if _, err := uuid.Parse(postID); err != nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	c := &model.Comment{
		ID:        uuid.New().String(),
		Text:      sanitized,
		AuthorID:  identity.UserID,
		PostID:    post.ID,
		CreatedAt: time.Now(),
	}

	if err := s.commentRepo.Create(ctx, c); err != nil {
		// 存在確認の後に記事が削除された
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, model.NewPostNotFoundError(postID)
		}
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	s.metrics.RecordCommentCreated()
	slog.Info("comment created",
		slog.String("comment_id", c.ID),
		slog.String("post_id", c.PostID),
		slog.String("author_id", c.AuthorID),
	)
	return c, nil
}
