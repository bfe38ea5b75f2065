package handler

import (
	"github.com/hitoshi/planner/internal/auth"
	"github.com/hitoshi/planner/internal/model"
	"github.com/hitoshi/planner/internal/security"
	"github.com/hitoshi/planner/internal/validate"
)

// 入力項目の上限。
const (
	minPasswordLength = 6
	maxNameLength     = 100
	maxImageURLLength = 2048

	maxCategoryNameLength  = 50
	maxCategoryEmojiLength = 16
	maxCategoryColorLength = 100

	maxTaskTextLength  = 2000
	maxTaskNotesLength = 5000
)

// validationMessage は検証エラー時のメッセージ。
const validationMessage = "入力内容に誤りがあります。"

// リクエストボディの各構造体は、自由記述テキストをサニタイズしてから検証し、
// 検証済みのドメイン入力をvalidate.Resultで返す。

type registerRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (req registerRequest) parse(s security.TextSanitizer) validate.Result[model.RegisterInput] {
	var c validate.Checker
	in := model.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: security.SanitizePtr(s, req.FirstName),
		LastName:  security.SanitizePtr(s, req.LastName),
	}

	if c.Required("email", in.Email) {
		c.Email("email", in.Email)
	}
	if c.MinLen("password", in.Password, minPasswordLength) {
		c.MaxBytes("password", in.Password, auth.MaxPasswordBytes)
	}
	checkOptionalName(&c, "firstName", in.FirstName)
	checkOptionalName(&c, "lastName", in.LastName)

	return validate.Finish(&c, in)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginCredentials はログインの検証済み入力。
type loginCredentials struct {
	Email    string
	Password string
}

func (req loginRequest) parse() validate.Result[loginCredentials] {
	var c validate.Checker
	if c.Required("email", req.Email) {
		c.Email("email", req.Email)
	}
	if req.Password == "" {
		c.Add("password", "required")
	}
	return validate.Finish(&c, loginCredentials{Email: req.Email, Password: req.Password})
}

type updateProfileRequest struct {
	FirstName       model.Optional[string] `json:"firstName"`
	LastName        model.Optional[string] `json:"lastName"`
	ProfileImageURL model.Optional[string] `json:"profileImageUrl"`
}

func (req updateProfileRequest) parse(s security.TextSanitizer) validate.Result[model.ProfilePatch] {
	var c validate.Checker
	patch := model.ProfilePatch{
		FirstName:       sanitizeOptional(s, req.FirstName),
		LastName:        sanitizeOptional(s, req.LastName),
		ProfileImageURL: req.ProfileImageURL,
	}

	checkOptionalName(&c, "firstName", patch.FirstName.Ptr())
	checkOptionalName(&c, "lastName", patch.LastName.Ptr())
	if url := patch.ProfileImageURL.Ptr(); url != nil {
		if c.MaxLen("profileImageUrl", *url, maxImageURLLength) {
			c.URL("profileImageUrl", *url)
		}
	}

	return validate.Finish(&c, patch)
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

func (req createCategoryRequest) parse(s security.TextSanitizer) validate.Result[model.CategoryInput] {
	var c validate.Checker
	in := model.CategoryInput{
		Name:  s.Sanitize(req.Name),
		Emoji: s.Sanitize(req.Emoji),
		Color: s.Sanitize(req.Color),
	}
	checkCategoryName(&c, in.Name)
	checkCategoryEmoji(&c, in.Emoji)
	checkCategoryColor(&c, in.Color)
	return validate.Finish(&c, in)
}

type updateCategoryRequest struct {
	Name  model.Optional[string] `json:"name"`
	Emoji model.Optional[string] `json:"emoji"`
	Color model.Optional[string] `json:"color"`
}

func (req updateCategoryRequest) parse(s security.TextSanitizer) validate.Result[model.CategoryPatch] {
	var c validate.Checker
	validate.NotNull(&c, "name", req.Name)
	validate.NotNull(&c, "emoji", req.Emoji)
	validate.NotNull(&c, "color", req.Color)

	patch := model.CategoryPatch{
		Name:  security.SanitizePtr(s, req.Name.Ptr()),
		Emoji: security.SanitizePtr(s, req.Emoji.Ptr()),
		Color: security.SanitizePtr(s, req.Color.Ptr()),
	}
	if patch.Name != nil {
		checkCategoryName(&c, *patch.Name)
	}
	if patch.Emoji != nil {
		checkCategoryEmoji(&c, *patch.Emoji)
	}
	if patch.Color != nil {
		checkCategoryColor(&c, *patch.Color)
	}
	return validate.Finish(&c, patch)
}

type createTaskRequest struct {
	Text       string  `json:"text"`
	Date       string  `json:"date"`
	Completed  *bool   `json:"completed"`
	CategoryID *string `json:"categoryId"`
	DueTime    *string `json:"dueTime"`
	Notes      *string `json:"notes"`
}

func (req createTaskRequest) parse(s security.TextSanitizer) validate.Result[model.TaskInput] {
	var c validate.Checker
	in := model.TaskInput{
		Date:       req.Date,
		Text:       s.Sanitize(req.Text),
		CategoryID: emptyToNil(req.CategoryID),
		DueTime:    emptyToNil(req.DueTime),
		Notes:      security.SanitizePtr(s, req.Notes),
	}
	if req.Completed != nil {
		in.Completed = *req.Completed
	}

	checkTaskText(&c, in.Text)
	if c.Required("date", in.Date) {
		c.Date("date", in.Date)
	}
	if in.DueTime != nil {
		c.DueTime("dueTime", *in.DueTime)
	}
	if in.Notes != nil {
		c.MaxLen("notes", *in.Notes, maxTaskNotesLength)
	}
	return validate.Finish(&c, in)
}

type updateTaskRequest struct {
	Text       model.Optional[string] `json:"text"`
	Date       model.Optional[string] `json:"date"`
	Completed  model.Optional[bool]   `json:"completed"`
	CategoryID model.Optional[string] `json:"categoryId"`
	DueTime    model.Optional[string] `json:"dueTime"`
	Notes      model.Optional[string] `json:"notes"`
}

func (req updateTaskRequest) parse(s security.TextSanitizer) validate.Result[model.TaskPatch] {
	var c validate.Checker
	validate.NotNull(&c, "text", req.Text)
	validate.NotNull(&c, "date", req.Date)
	validate.NotNull(&c, "completed", req.Completed)

	patch := model.TaskPatch{
		Text:       security.SanitizePtr(s, req.Text.Ptr()),
		Date:       req.Date.Ptr(),
		Completed:  req.Completed.Ptr(),
		CategoryID: emptyToNull(req.CategoryID),
		DueTime:    emptyToNull(req.DueTime),
		Notes:      sanitizeOptional(s, req.Notes),
	}

	if patch.Text != nil {
		checkTaskText(&c, *patch.Text)
	}
	if patch.Date != nil {
		c.Date("date", *patch.Date)
	}
	if patch.DueTime.Valid {
		c.DueTime("dueTime", patch.DueTime.Value)
	}
	if patch.Notes.Valid {
		c.MaxLen("notes", patch.Notes.Value, maxTaskNotesLength)
	}
	return validate.Finish(&c, patch)
}

// parseDateFilter は一覧の?date=クエリを検証する。空の場合は絞り込みなし。
func parseDateFilter(raw string) validate.Result[*string] {
	var c validate.Checker
	if raw == "" {
		return validate.Finish[*string](&c, nil)
	}
	c.Date("date", raw)
	return validate.Finish(&c, &raw)
}

func checkOptionalName(c *validate.Checker, field string, v *string) {
	if v == nil {
		return
	}
	if c.Required(field, *v) {
		c.MaxLen(field, *v, maxNameLength)
	}
}

func checkCategoryName(c *validate.Checker, v string) {
	if c.Required("name", v) {
		c.MaxLen("name", v, maxCategoryNameLength)
	}
}

func checkCategoryEmoji(c *validate.Checker, v string) {
	if c.Required("emoji", v) {
		c.MaxLen("emoji", v, maxCategoryEmojiLength)
	}
}

func checkCategoryColor(c *validate.Checker, v string) {
	if c.Required("color", v) {
		c.MaxLen("color", v, maxCategoryColorLength)
	}
}

func checkTaskText(c *validate.Checker, v string) {
	if c.Required("text", v) {
		c.MaxLen("text", v, maxTaskTextLength)
	}
}

// sanitizeOptional はnullと未指定を保ったままSanitizeを適用する。
func sanitizeOptional(s security.TextSanitizer, o model.Optional[string]) model.Optional[string] {
	if o.Valid {
		o.Value = s.Sanitize(o.Value)
	}
	return o
}

// emptyToNil は空文字列を未設定として扱う。フォームの未選択値は空文字列で届く。
func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// emptyToNull は空文字列をnull（クリア）として扱う。
func emptyToNull(o model.Optional[string]) model.Optional[string] {
	if o.Valid && o.Value == "" {
		return model.Null[string]()
	}
	return o
}
