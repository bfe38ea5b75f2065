package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/planner/internal/model"
)

var categoryTable = scopedTable[model.Category]{
	table:      "categories",
	projection: `t.id, t.user_id, t.name, t.emoji, t.color, t.created_at, t.updated_at`,
	scan:       scanCategory,
}

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// ListByUser はユーザーのカテゴリを新しい順で返す。
func (r *PostgresCategoryRepo) ListByUser(ctx context.Context, userID string) ([]*model.Category, error) {
	return categoryTable.list(ctx, r.db, userID)
}

// Create はカテゴリを作成する。
func (r *PostgresCategoryRepo) Create(ctx context.Context, userID string, in model.CategoryInput) (*model.Category, error) {
	return categoryTable.insert(ctx, r.db, categoryValues(userID, in))
}

// Update はカテゴリを部分更新する。
func (r *PostgresCategoryRepo) Update(ctx context.Context, id, userID string, patch model.CategoryPatch) (*model.Category, error) {
	var sets []assignment
	if patch.Name != nil {
		sets = append(sets, assignment{column: "name", value: *patch.Name})
	}
	if patch.Emoji != nil {
		sets = append(sets, assignment{column: "emoji", value: *patch.Emoji})
	}
	if patch.Color != nil {
		sets = append(sets, assignment{column: "color", value: *patch.Color})
	}
	return categoryTable.update(ctx, r.db, id, userID, sets)
}

// Delete はタスクからの参照をクリアした上でカテゴリを削除する。
// 両方の操作は同一トランザクションで行われ、所有者でない場合は何も変更しない。
func (r *PostgresCategoryRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET category_id = NULL, updated_at = now()
		 WHERE category_id = $1 AND user_id = $2`,
		id, userID,
	); err != nil {
		return false, fmt.Errorf("failed to clear task category references: %w", err)
	}

	deleted, err := categoryTable.delete(ctx, tx, id, userID)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ProvisionDefaults は初期カテゴリを一度だけ作成する。
// users.categories_provisioned_atを条件付きUPDATEで確保したトランザクションのみが挿入を行うため、
// 同一ユーザーへの同時呼び出しでも作成されるのは1セットだけになる。
func (r *PostgresCategoryRepo) ProvisionDefaults(ctx context.Context, userID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE users SET categories_provisioned_at = now()
		 WHERE id = $1 AND categories_provisioned_at IS NULL`,
		userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim category provisioning: %w", err)
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if claimed == 0 {
		return false, nil
	}

	// 一覧は新しい順のため、定義順に1マイクロ秒ずつずらして作成日時を付ける
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, in := range model.DefaultCategories {
		values := append(categoryValues(userID, in),
			assignment{column: "created_at", value: base.Add(time.Duration(i) * time.Microsecond)},
		)
		if _, err := categoryTable.insert(ctx, tx, values); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func categoryValues(userID string, in model.CategoryInput) []assignment {
	return []assignment{
		{column: "id", value: uuid.NewString()},
		{column: "user_id", value: userID},
		{column: "name", value: in.Name},
		{column: "emoji", value: in.Emoji},
		{column: "color", value: in.Color},
	}
}

func scanCategory(row rowScanner) (*model.Category, error) {
	c := &model.Category{}
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Emoji, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
