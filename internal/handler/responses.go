package handler

import (
	"time"

	"github.com/hitoshi/planner/internal/model"
)

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// authResponse は登録・ログインのAPIレスポンス。
type authResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// messageResponse はメッセージのみのAPIレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Emoji     string    `json:"emoji"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// taskCategoryResponse はタスクに添えるカテゴリの表示用フィールド。
type taskCategoryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID         string                `json:"id"`
	UserID     string                `json:"userId"`
	Date       string                `json:"date"`
	Text       string                `json:"text"`
	Completed  bool                  `json:"completed"`
	CategoryID *string               `json:"categoryId"`
	DueTime    *string               `json:"dueTime"`
	Notes      *string               `json:"notes"`
	Category   *taskCategoryResponse `json:"category"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func toCategoryResponse(c *model.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Emoji:     c.Emoji,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCategoryResponses(categories []*model.Category) []categoryResponse {
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

func toTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		ID:         t.ID,
		UserID:     t.UserID,
		Date:       t.Date,
		Text:       t.Text,
		Completed:  t.Completed,
		CategoryID: t.CategoryID,
		DueTime:    t.DueTime,
		Notes:      t.Notes,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.Category != nil {
		resp.Category = &taskCategoryResponse{
			ID:    t.Category.ID,
			Name:  t.Category.Name,
			Emoji: t.Category.Emoji,
			Color: t.Category.Color,
		}
	}
	return resp
}

func toTaskResponses(tasks []*model.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}
