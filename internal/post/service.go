// Package post は記事の閲覧・作成・編集・削除のドメインロジックを提供する。
package post

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

// MessageEmptyBody はサニタイズ後に本文が残らない記事へのメッセージ。
const MessageEmptyBody = "Blog content must contain text after unsafe markup is removed."

// Service は記事管理のサービス層。
// 変更操作はすべて認可ゲートを通し、本文はサニタイズしてから保存する。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
		metrics:     collector,
		now:         time.Now,
	}
}

// ListPosts は全記事を作成順で返す。誰でも閲覧できる。
func (s *Service) ListPosts(ctx context.Context) ([]*model.PostSummary, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	return posts, nil
}

// GetPost は記事・執筆者名・コメント一覧を返す。
func (s *Service) GetPost(ctx context.Context, postID string) (*model.PostDetail, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.FindByID(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("執筆者の取得に失敗しました: %w", err)
	}

	comments, err := s.commentRepo.ListByPostID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}

	detail := &model.PostDetail{
		Post:     *post,
		Comments: comments,
	}
	if author != nil {
		detail.AuthorName = author.Name
	}
	return detail, nil
}

// PostForEdit は編集フォームの初期値として記事を返す。
// 編集権限のない主体にはフォームも見せない。
func (s *Service) PostForEdit(ctx context.Context, identity model.Identity, postID string) (*model.Post, error) {
	return s.loadAuthorized(ctx, identity, authz.OpEditPost, postID)
}

// CreatePost は記事を作成する。
// 公開日は作成日とし、以後変更しない。同名の記事がある場合はDUPLICATE_TITLEを返す。
func (s *Service) CreatePost(ctx context.Context, identity model.Identity, input model.PostInput) (*model.Post, error) {
	if err := authz.Authorize(identity, authz.OpCreatePost, authz.NoResource); err != nil {
		return nil, err
	}

	body, err := s.sanitizeBody(input.Body)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &model.Post{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(input.Title),
		Subtitle:    strings.TrimSpace(input.Subtitle),
		Body:        body,
		ImgURL:      strings.TrimSpace(input.ImgURL),
		AuthorID:    identity.UserID,
		PublishedOn: dateOf(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			return nil, model.NewDuplicateTitleError(post.Title)
		}
		if errors.Is(err, repository.ErrReferenceMissing) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("記事の作成に失敗しました: %w", err)
	}

	s.metrics.RecordPostCreated()
	slog.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", post.AuthorID),
	)
	return post, nil
}

// UpdatePost は記事のタイトル・サブタイトル・本文・画像URLを上書きする。
// 執筆者と公開日は変更しない。
func (s *Service) UpdatePost(ctx context.Context, identity model.Identity, postID string, input model.PostInput) (*model.Post, error) {
	post, err := s.loadAuthorized(ctx, identity, authz.OpEditPost, postID)
	if err != nil {
		return nil, err
	}

	body, err := s.sanitizeBody(input.Body)
	if err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(input.Title)
	post.Subtitle = strings.TrimSpace(input.Subtitle)
	post.Body = body
	post.ImgURL = strings.TrimSpace(input.ImgURL)
	post.UpdatedAt = s.now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTitle):
			return nil, model.NewDuplicateTitleError(post.Title)
		case errors.Is(err, repository.ErrNotFound):
			// ロード後に削除された
			return nil, model.NewPostNotFoundError(postID)
		}
		return nil, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}

	slog.Info("post updated",
		slog.String("post_id", post.ID),
		slog.String("editor_id", identity.UserID),
	)
	return post, nil
}

// sanitizeBody は本文をサニタイズする。
// 除去の結果なにも残らない本文は入力エラーとする。
func (s *Service) sanitizeBody(raw string) (string, error) {
	body := s.sanitizer.Sanitize(raw)
	if strings.TrimSpace(body) == "" {
		return "", model.NewValidationError("body", MessageEmptyBody)
	}
	return body, nil
}

// DeletePost は記事とそのコメントを削除する。
func (s *Service) DeletePost(ctx context.Context, identity model.Identity, postID string) error {
	post, err := s.loadAuthorized(ctx, identity, authz.OpDeletePost, postID)
	if err != nil {
		return err
	}

	removed, err := s.postRepo.Delete(ctx, post.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPostNotFoundError(postID)
		}
		return fmt.Errorf("記事の削除に失敗しました: %w", err)
	}

	s.metrics.RecordPostDeleted(removed)
	slog.Info("post deleted",
		slog.String("post_id", post.ID),
		slog.String("deleted_by", identity.UserID),
		slog.Int64("comments_removed", removed),
	)
	return nil
}

// loadAuthorized は記事の変更操作に共通する認可とロードを行う。
// ロール判定で拒否される主体はデータベースに到達させず、
// 記事の存在確認の後に所有者を判定する。
func (s *Service) loadAuthorized(ctx context.Context, identity model.Identity, op authz.Operation, postID string) (*model.Post, error) {
	if err := authz.AuthorizeRole(identity, op); err != nil {
		return nil, err
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(identity, op, authz.OwnedBy(post.AuthorID)); err != nil {
		slog.Warn("post mutation rejected",
			slog.String("post_id", post.ID),
			slog.String("user_id", identity.UserID),
			slog.String("operation", op.String()),
		)
		return nil, err
	}
	return post, nil
}

// findPost は記事を取得する。IDの形式が不正な場合も存在しないものとして扱う。
func (s *Service) findPost(ctx context.Context, postID string) (*model.Post, error) {
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
	return post, nil
}

// dateOf は時刻を同じロケーションの日付（0時）に切り詰める。
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
