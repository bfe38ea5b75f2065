package model

import "time"

// 日付と時刻のワイヤフォーマット。
const (
	DateLayout    = "2006-01-02"
	DueTimeLayout = "15:04"
)

// Task はカレンダー上の1日に紐づくタスクを表す。
type Task struct {
	ID         string
	UserID     string
	Date       string // YYYY-MM-DD
	Text       string
	Completed  bool
	CategoryID *string
	DueTime    *string // HH:MM
	Notes      *string
	Category   *CategorySummary // LEFT JOINで取得。カテゴリ未設定ならnil
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CategorySummary はタスク一覧に添えるカテゴリの表示用フィールド。
type CategorySummary struct {
	ID    string
	Name  string
	Emoji string
	Color string
}

// TaskInput はタスク作成の検証済み入力。
type TaskInput struct {
	Date       string
	Text       string
	Completed  bool
	CategoryID *string
	DueTime    *string
	Notes      *string
}

// TaskPatch はタスクの部分更新内容。
// CategoryID、DueTime、Notesはnull指定でクリアできる。
type TaskPatch struct {
	Date       *string
	Text       *string
	Completed  *bool
	CategoryID Optional[string]
	DueTime    Optional[string]
	Notes      Optional[string]
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (p TaskPatch) IsEmpty() bool {
	return p.Date == nil && p.Text == nil && p.Completed == nil &&
		!p.CategoryID.Set && !p.DueTime.Set && !p.Notes.Set
}
