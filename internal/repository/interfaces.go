// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/planner/internal/model"
)

var (
	// ErrEmailTaken はメールアドレスの一意制約違反を表す。
	ErrEmailTaken = errors.New("repository: email already registered")

	// ErrCategoryNotOwned はタスクが参照するカテゴリが存在しないか、別ユーザーの所有であることを表す。
	ErrCategoryNotOwned = errors.New("repository: category not owned by user")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はErrEmailTakenを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はプロフィール項目を部分更新する。見つからない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// ExpiredSessionPurger は期限切れセッションの一括削除を行う。
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CategoryRepository はカテゴリの永続化インターフェース。
// すべての操作は所有ユーザーIDで絞り込まれ、他ユーザーの行は「存在しない」と同じ扱いになる。
type CategoryRepository interface {
	// ListByUser はユーザーのカテゴリを作成日時の新しい順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Category, error)

	// Create はカテゴリを作成し、生成されたIDとタイムスタンプを含む行を返す。
	Create(ctx context.Context, userID string, in model.CategoryInput) (*model.Category, error)

	// Update はカテゴリを部分更新する。存在しないか所有者でない場合はnilを返す。
	Update(ctx context.Context, id, userID string, patch model.CategoryPatch) (*model.Category, error)

	// Delete はカテゴリを削除し、参照しているタスクのcategory_idを同一トランザクションでクリアする。
	// 行が削除された場合にtrueを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)

	// ProvisionDefaults は初期カテゴリを一度だけ作成する。
	// 今回の呼び出しで作成した場合にtrue、既に作成済みの場合はfalseを返す。
	ProvisionDefaults(ctx context.Context, userID string) (bool, error)
}

// TaskRepository はタスクの永続化インターフェース。
// すべての操作は所有ユーザーIDで絞り込まれる。
type TaskRepository interface {
	// ListByUser はユーザーのタスクを作成日時の新しい順で返す。
	// dateがnilでない場合はその日付のタスクのみを返す。
	ListByUser(ctx context.Context, userID string, date *string) ([]*model.Task, error)

	// Create はタスクを作成する。参照カテゴリが所有者のものでない場合はErrCategoryNotOwnedを返す。
	Create(ctx context.Context, userID string, in model.TaskInput) (*model.Task, error)

	// Update はタスクを部分更新する。存在しないか所有者でない場合はnilを返す。
	Update(ctx context.Context, id, userID string, patch model.TaskPatch) (*model.Task, error)

	// ToggleComplete は完了フラグを単一のUPDATE文で反転する。
	ToggleComplete(ctx context.Context, id, userID string) (*model.Task, error)

	// Delete はタスクを削除する。行が削除された場合にtrueを返す。
	Delete(ctx context.Context, id, userID string) (bool, error)
}
