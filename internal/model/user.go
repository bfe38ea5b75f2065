// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashは認証サービスの外に出さない。レスポンスへの変換時は必ず除外する。
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Session はユーザーのログインセッションを表す。
// 有効期限は作成時点から固定で、アクセスによって延長されない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired は指定時刻の時点でセッションが失効しているかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RegisterInput はユーザー登録の検証済み入力。
type RegisterInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// ProfilePatch はプロフィールの部分更新内容。
type ProfilePatch struct {
	FirstName       Optional[string]
	LastName        Optional[string]
	ProfileImageURL Optional[string]
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (p ProfilePatch) IsEmpty() bool {
	return !p.FirstName.Set && !p.LastName.Set && !p.ProfileImageURL.Set
}
