package model

import "time"

// Category はユーザーが定義するタスクの分類ラベル。
type Category struct {
	ID        string
	UserID    string
	Name      string
	Emoji     string
	Color     string // スタイル用のCSSクラス
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryInput はカテゴリ作成の検証済み入力。
type CategoryInput struct {
	Name  string
	Emoji string
	Color string
}

// CategoryPatch はカテゴリの部分更新内容。nilのフィールドは変更しない。
type CategoryPatch struct {
	Name  *string
	Emoji *string
	Color *string
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (p CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.Emoji == nil && p.Color == nil
}

// DefaultCategories は新規ユーザーに最初に用意するカテゴリ。
// 並び順は作成順で、一覧では新しいものが先頭になる。
var DefaultCategories = []CategoryInput{
	{Name: "work", Emoji: "💼", Color: "bg-blue-100 text-blue-700"},
	{Name: "personal", Emoji: "🏠", Color: "bg-green-100 text-green-700"},
	{Name: "health", Emoji: "💪", Color: "bg-purple-100 text-purple-700"},
	{Name: "urgent", Emoji: "🔥", Color: "bg-red-100 text-red-700"},
}
