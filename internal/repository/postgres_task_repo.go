package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/planner/internal/model"
)

var taskTable = scopedTable[model.Task]{
	table: "tasks",
	projection: `t.id, t.user_id, to_char(t.date, 'YYYY-MM-DD'), t.text, t.completed,
		t.category_id, t.due_time, t.notes, t.created_at, t.updated_at,
		c.id, c.name, c.emoji, c.color`,
	joins: `LEFT JOIN categories c ON c.id = t.category_id`,
	scan:  scanTask,
}

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListByUser はユーザーのタスクをカテゴリの表示項目付きで返す。
func (r *PostgresTaskRepo) ListByUser(ctx context.Context, userID string, date *string) ([]*model.Task, error) {
	if date != nil {
		return taskTable.list(ctx, r.db, userID, filter{column: "date", value: *date})
	}
	return taskTable.list(ctx, r.db, userID)
}

// Create はタスクを作成する。
// カテゴリを参照する場合、書き込みと同じトランザクション内でカテゴリの所有者を確認する。
func (r *PostgresTaskRepo) Create(ctx context.Context, userID string, in model.TaskInput) (*model.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if in.CategoryID != nil {
		if err := lockOwnedCategory(ctx, tx, *in.CategoryID, userID); err != nil {
			return nil, err
		}
	}

	task, err := taskTable.insert(ctx, tx, []assignment{
		{column: "id", value: uuid.NewString()},
		{column: "user_id", value: userID},
		{column: "date", value: in.Date},
		{column: "text", value: in.Text},
		{column: "completed", value: in.Completed},
		{column: "category_id", value: in.CategoryID},
		{column: "due_time", value: in.DueTime},
		{column: "notes", value: in.Notes},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return task, nil
}

// Update はタスクを部分更新する。
func (r *PostgresTaskRepo) Update(ctx context.Context, id, userID string, patch model.TaskPatch) (*model.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// タスクの所有確認をカテゴリの確認より先に行い、他人のタスクは常に未検出として扱う
	found, err := lockOwnedTask(ctx, tx, id, userID)
	if err != nil || !found {
		return nil, err
	}
	if patch.CategoryID.Valid {
		if err := lockOwnedCategory(ctx, tx, patch.CategoryID.Value, userID); err != nil {
			return nil, err
		}
	}

	var sets []assignment
	if patch.Date != nil {
		sets = append(sets, assignment{column: "date", value: *patch.Date})
	}
	if patch.Text != nil {
		sets = append(sets, assignment{column: "text", value: *patch.Text})
	}
	if patch.Completed != nil {
		sets = append(sets, assignment{column: "completed", value: *patch.Completed})
	}
	if patch.CategoryID.Set {
		sets = append(sets, assignment{column: "category_id", value: patch.CategoryID.Ptr()})
	}
	if patch.DueTime.Set {
		sets = append(sets, assignment{column: "due_time", value: patch.DueTime.Ptr()})
	}
	if patch.Notes.Set {
		sets = append(sets, assignment{column: "notes", value: patch.Notes.Ptr()})
	}

	task, err := taskTable.update(ctx, tx, id, userID, sets)
	if err != nil || task == nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return task, nil
}

// ToggleComplete は完了フラグを反転する。
// 読み取りと書き込みを1文で行うため、同時に呼ばれても反転が失われない。
func (r *PostgresTaskRepo) ToggleComplete(ctx context.Context, id, userID string) (*model.Task, error) {
	return taskTable.update(ctx, r.db, id, userID, []assignment{
		{column: "completed", expr: "NOT completed"},
	})
}

// Delete はタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id, userID string) (bool, error) {
	return taskTable.delete(ctx, r.db, id, userID)
}

func lockOwnedTask(ctx context.Context, tx *sql.Tx, id, userID string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock task: %w", err)
	}
	return true, nil
}

// lockOwnedCategory はカテゴリがユーザーの所有であることを確認し、トランザクション終了まで削除を防ぐ。
func lockOwnedCategory(ctx context.Context, tx *sql.Tx, categoryID, userID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM categories WHERE id = $1 AND user_id = $2 FOR SHARE`,
		categoryID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCategoryNotOwned
	}
	if err != nil {
		return fmt.Errorf("failed to check category ownership: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*model.Task, error) {
	t := &model.Task{}
	var (
		categoryID, dueTime, notes         sql.NullString
		catID, catName, catEmoji, catColor sql.NullString
	)
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Date, &t.Text, &t.Completed,
		&categoryID, &dueTime, &notes, &t.CreatedAt, &t.UpdatedAt,
		&catID, &catName, &catEmoji, &catColor,
	); err != nil {
		return nil, err
	}
	t.CategoryID = nullStringPtr(categoryID)
	t.DueTime = nullStringPtr(dueTime)
	t.Notes = nullStringPtr(notes)
	if catID.Valid {
		t.Category = &model.CategorySummary{
			ID:    catID.String,
			Name:  catName.String,
			Emoji: catEmoji.String,
			Color: catColor.String,
		}
	}
	return t, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
