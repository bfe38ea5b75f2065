// Package task はカレンダー上のタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitoshi/planner/internal/model"
	"github.com/hitoshi/planner/internal/repository"
)

// Service はタスク管理のサービス層。
type Service struct {
	repo repository.TaskRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TaskRepository) *Service {
	return &Service{repo: repo}
}

// List はユーザーのタスクを新しい順で返す。dateがnilでなければその日付に絞り込む。
func (s *Service) List(ctx context.Context, userID string, date *string) ([]*model.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	return tasks, nil
}

// Create はタスクを作成する。
func (s *Service) Create(ctx context.Context, userID string, in model.TaskInput) (*model.Task, error) {
	t, err := s.repo.Create(ctx, userID, in)
	if err != nil {
		return nil, mapCategoryError(err, "タスクの作成に失敗しました")
	}
	return t, nil
}

// Update はタスクを部分更新する。
// 存在しない場合と他ユーザーの所有の場合はどちらもTASK_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, userID, taskID string, patch model.TaskPatch) (*model.Task, error) {
	if patch.IsEmpty() {
		return nil, model.NewValidationError("更新する項目がありません。", nil)
	}

	t, err := s.repo.Update(ctx, taskID, userID, patch)
	if err != nil {
		return nil, mapCategoryError(err, "タスクの更新に失敗しました")
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return t, nil
}

// Toggle は完了フラグを反転する。
func (s *Service) Toggle(ctx context.Context, userID, taskID string) (*model.Task, error) {
	t, err := s.repo.ToggleComplete(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("タスクの完了状態の更新に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return t, nil
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, userID, taskID string) error {
	deleted, err := s.repo.Delete(ctx, taskID, userID)
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(taskID)
	}
	return nil
}

// mapCategoryError は参照カテゴリの所有者違反をcategoryIdフィールドの検証エラーに変換する。
func mapCategoryError(err error, msg string) error {
	if errors.Is(err, repository.ErrCategoryNotOwned) {
		return model.NewValidationError("カテゴリが見つかりません。", []model.FieldError{
			{Field: "categoryId", Message: "category not found"},
		})
	}
	return fmt.Errorf("%s: %w", msg, err)
}
