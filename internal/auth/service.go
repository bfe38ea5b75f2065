// Package auth はメールアドレスとパスワードによる認証と、サーバーサイドセッションの管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/planner/internal/metrics"
	"github.com/hitoshi/planner/internal/model"
	"github.com/hitoshi/planner/internal/repository"
)

// dummyPassword は存在しないメールアドレスでのログイン時に照合するダミーの平文。
const dummyPassword = "planner-timing-equalizer"

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）。作成時点から固定で延長しない
}

// CategoryProvisioner は新規ユーザーの初期カテゴリ作成を行う。
type CategoryProvisioner interface {
	ProvisionDefaults(ctx context.Context, userID string) (bool, error)
}

// EventRecorder は認証イベントを記録する。
type EventRecorder interface {
	RecordAuthEvent(event, result string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	categories  CategoryProvisioner
	hasher      PasswordHasher
	events      EventRecorder
	config      ServiceConfig
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService はServiceを生成する。categoriesはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	categories CategoryProvisioner,
	hasher PasswordHasher,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		categories:  categories,
		hasher:      hasher,
		config:      config,
		now:         time.Now,
	}
}

// SetEventRecorder は認証イベントの記録先を設定する。
func (s *Service) SetEventRecorder(r EventRecorder) {
	s.events = r
}

// SessionMaxAge はセッション有効期間（秒）を返す。
func (s *Service) SessionMaxAge() int {
	return s.config.SessionMaxAge
}

// Register はユーザーを登録する。
// メールアドレスが登録済みの場合はEMAIL_TAKENを返し、既存ユーザーには一切触れない。
// 初期カテゴリの作成は失敗しても登録自体は成功とする（カテゴリ一覧の取得時に再試行される）。
func (s *Service) Register(ctx context.Context, in model.RegisterInput) (*model.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			s.record(metrics.AuthEventRegister, metrics.AuthResultConflict)
			return nil, model.NewEmailTakenError()
		}
		s.record(metrics.AuthEventRegister, metrics.AuthResultFailure)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.categories != nil {
		if _, err := s.categories.ProvisionDefaults(ctx, user.ID); err != nil {
			slog.Warn("failed to provision default categories",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.record(metrics.AuthEventRegister, metrics.AuthResultSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login はメールアドレスとパスワードを照合し、セッションを発行する。
// ユーザーが存在しない場合もダミーハッシュとの照合を行い、応答時間と結果を区別できないようにする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		_ = s.hasher.Compare(s.dummy(), password)
		s.record(metrics.AuthEventLogin, metrics.AuthResultFailure)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.record(metrics.AuthEventLogin, metrics.AuthResultFailure)
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, nil, model.NewInvalidCredentialsError()
		}
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.record(metrics.AuthEventLogin, metrics.AuthResultSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		s.record(metrics.AuthEventLogout, metrics.AuthResultFailure)
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.record(metrics.AuthEventLogout, metrics.AuthResultSuccess)
	return nil
}

// FindSession は有効なセッションを取得する。存在しないか期限切れの場合はnilを返す。
func (s *Service) FindSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// CurrentUser はセッションのユーザーを取得する。
// ユーザーが削除済みの場合は未認証として扱う。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// UpdateProfile はプロフィール項目を部分更新する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) (*model.User, error) {
	if patch.IsEmpty() {
		return nil, model.NewValidationError("更新する項目がありません。", nil)
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now().UTC()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			slog.Error("failed to prepare dummy password hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) record(event, result string) {
	if s.events != nil {
		s.events.RecordAuthEvent(event, result)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
