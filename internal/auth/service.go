// Package auth はユーザー登録・ログイン・セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmk-apps/blog/internal/metrics"
	"github.com/jmk-apps/blog/internal/model"
	"github.com/jmk-apps/blog/internal/repository"
	"github.com/jmk-apps/blog/internal/security"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int      // セッション有効期間（秒）
	AdminEmails   []string // 登録時にadminとするメールアドレス
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      security.PasswordHasher
	metrics     metrics.MetricsCollector
	config      ServiceConfig
	adminEmails map[string]struct{}
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher security.PasswordHasher,
	collector metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	admins := make(map[string]struct{}, len(config.AdminEmails))
	for _, e := range config.AdminEmails {
		if e = NormalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		metrics:     collector,
		config:      config,
		adminEmails: admins,
	}
}

// NormalizeEmail はメールアドレスを比較用に正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register はユーザーを登録し、ログイン済みセッションを発行する。
// 登録済みのメールアドレスの場合はEMAIL_ALREADY_REGISTEREDを返し、既存ユーザーは変更しない。
// 最初のアカウントはリポジトリによりadminとして作成される。
func (s *Service) Register(ctx context.Context, email, password, name string) (*model.Session, error) {
	email = NormalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailAlreadyRegisteredError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := model.RoleReader
	if _, ok := s.adminEmails[email]; ok {
		role = model.RoleAdmin
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		CreatedAt:    time.Now(),
	}

	// 事前チェックとINSERTの間に同じメールアドレスで登録された場合は一意制約で検出する
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	s.metrics.RecordRegistration()

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// 未登録のメールアドレスはUNKNOWN_EMAIL、パスワード不一致はINCORRECT_PASSWORDを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		s.metrics.RecordLogin(metrics.LoginUnknownEmail)
		return nil, model.NewUnknownEmailError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLogin(metrics.LoginIncorrectPassword)
		slog.Warn("login rejected: incorrect password", slog.String("user_id", user.ID))
		return nil, model.NewIncorrectPasswordError()
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// ResolveIdentity はセッションIDからリクエストの主体を解決する。
// セッションが無い・期限切れ・ユーザーが削除済みの場合は匿名を返す。
// ストレージ障害はエラーとして返し、匿名扱いにはしない。
func (s *Service) ResolveIdentity(ctx context.Context, sessionID string) (model.Identity, error) {
	if sessionID == "" {
		return model.Anonymous(), nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return model.Anonymous(), fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return model.Anonymous(), nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return model.Anonymous(), fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.Anonymous(), nil
	}

	return model.IdentityOf(user), nil
}

// SetRole は指定メールアドレスのユーザーのロールを変更する。
// 変更後のロールは既存セッションの次のリクエストから反映される。
func (s *Service) SetRole(ctx context.Context, email string, role model.Role) error {
	if err := s.userRepo.UpdateRole(ctx, NormalizeEmail(email), role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	slog.Info("user role changed", slog.String("role", string(role)))
	return nil
}

// SessionMaxAge はセッション有効期間（秒）を返す。Cookieの有効期限に使用する。
func (s *Service) SessionMaxAge() int {
	return s.config.SessionMaxAge
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
