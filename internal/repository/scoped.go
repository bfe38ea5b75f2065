package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// queryer は *sql.DB と *sql.Tx の共通メソッド。
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner は *sql.Row と *sql.Rows の共通メソッド。
type rowScanner interface {
	Scan(dest ...any) error
}

// assignment はINSERT/UPDATEの1カラム分の値。
// exprが空でなければプレースホルダの代わりにそのSQL式を使う。
type assignment struct {
	column string
	value  any
	expr   string
}

// filter は一覧取得時の追加の等値条件。
type filter struct {
	column string
	value  any
}

// scopedTable はuser_idで所有者を持つテーブルへの共通CRUD。
// 全てのクエリがuser_idをWHERE句に含み、「存在しない」と「他ユーザーの所有」をどちらもnilとして返す。
//
// projectionはエイリアスtを前提としたSELECT句、joinsはtに対するJOIN句。
// 書き込み系はRETURNING *をCTE tとして受けるため、読み取りと同じprojectionで結果を返せる。
type scopedTable[T any] struct {
	table      string
	projection string
	joins      string
	scan       func(rowScanner) (*T, error)
}

func (s scopedTable[T]) selectFrom(source string) string {
	q := "SELECT " + s.projection + " FROM " + source
	if s.joins != "" {
		q += " " + s.joins
	}
	return q
}

// list はユーザーの行を作成日時の新しい順で返す。
func (s scopedTable[T]) list(ctx context.Context, q queryer, userID string, filters ...filter) ([]*T, error) {
	args := []any{userID}
	conds := []string{"t.user_id = $1"}
	for _, f := range filters {
		args = append(args, f.value)
		conds = append(conds, fmt.Sprintf("t.%s = $%d", f.column, len(args)))
	}

	query := s.selectFrom(s.table+" t") +
		" WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY t.created_at DESC, t.id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table, err)
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		item, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", s.table, err)
	}
	return result, nil
}

// insert は行を作成し、projection形式で返す。
func (s scopedTable[T]) insert(ctx context.Context, q queryer, values []assignment) (*T, error) {
	columns := make([]string, 0, len(values))
	placeholders := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, v := range values {
		columns = append(columns, v.column)
		if v.expr != "" {
			placeholders = append(placeholders, v.expr)
			continue
		}
		args = append(args, v.value)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf("WITH t AS (INSERT INTO %s (%s) VALUES (%s) RETURNING *) %s",
		s.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), s.selectFrom("t"))

	item, err := s.one(q.QueryRowContext(ctx, query, args...), "insert")
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("failed to insert %s: no row returned", s.table)
	}
	return item, nil
}

// update は所有者が一致する行を更新し、updated_atを進める。
// 対象がない場合はnilを返す。
func (s scopedTable[T]) update(ctx context.Context, q queryer, id, userID string, sets []assignment) (*T, error) {
	args := []any{id, userID}
	parts := make([]string, 0, len(sets)+1)
	for _, a := range sets {
		if a.expr != "" {
			parts = append(parts, a.column+" = "+a.expr)
			continue
		}
		args = append(args, a.value)
		parts = append(parts, fmt.Sprintf("%s = $%d", a.column, len(args)))
	}
	parts = append(parts, "updated_at = now()")

	query := fmt.Sprintf("WITH t AS (UPDATE %s SET %s WHERE id = $1 AND user_id = $2 RETURNING *) %s",
		s.table, strings.Join(parts, ", "), s.selectFrom("t"))

	return s.one(q.QueryRowContext(ctx, query, args...), "update")
}

// delete は所有者が一致する行を削除し、削除できたかを返す。
func (s scopedTable[T]) delete(ctx context.Context, q queryer, id, userID string) (bool, error) {
	result, err := q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND user_id = $2", s.table),
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", s.table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (s scopedTable[T]) one(row rowScanner, op string) (*T, error) {
	item, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s %s: %w", op, s.table, err)
	}
	return item, nil
}
