// Package category はユーザー定義カテゴリのドメインロジックを提供する。
package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/planner/internal/model"
	"github.com/hitoshi/planner/internal/repository"
)

// Service はカテゴリ管理のサービス層。
type Service struct {
	repo repository.CategoryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.CategoryRepository) *Service {
	return &Service{repo: repo}
}

// List はユーザーのカテゴリを新しい順で返す。
// カテゴリが1件もなく初期カテゴリが未作成のユーザーには、ここで初期カテゴリを作成してから返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Category, error) {
	categories, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	if len(categories) > 0 {
		return categories, nil
	}

	created, err := s.repo.ProvisionDefaults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("初期カテゴリの作成に失敗しました: %w", err)
	}
	if !created {
		return []*model.Category{}, nil
	}

	slog.Info("default categories provisioned", slog.String("user_id", userID))

	categories, err = s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗しました: %w", err)
	}
	return categories, nil
}

// Create はカテゴリを作成する。
func (s *Service) Create(ctx context.Context, userID string, in model.CategoryInput) (*model.Category, error) {
	c, err := s.repo.Create(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの作成に失敗しました: %w", err)
	}
	return c, nil
}

// Update はカテゴリを部分更新する。
// 存在しない場合と他ユーザーの所有の場合はどちらもCATEGORY_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, userID, categoryID string, patch model.CategoryPatch) (*model.Category, error) {
	if patch.IsEmpty() {
		return nil, model.NewValidationError("更新する項目がありません。", nil)
	}

	c, err := s.repo.Update(ctx, categoryID, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの更新に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCategoryNotFoundError(categoryID)
	}
	return c, nil
}

// Delete はカテゴリを削除する。参照していたタスクは残り、カテゴリの参照だけが外れる。
func (s *Service) Delete(ctx context.Context, userID, categoryID string) error {
	deleted, err := s.repo.Delete(ctx, categoryID, userID)
	if err != nil {
		return fmt.Errorf("カテゴリの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewCategoryNotFoundError(categoryID)
	}
	return nil
}
