// Package validate はリクエスト境界での入力検証を提供する。
// 検証結果は「解析済みの値」または「フィールド単位のエラー一覧」のどちらかを表すResultで返す。
package validate

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/planner/internal/model"
)

// engine はタグの解析結果をキャッシュする。並行利用してよい。
var engine = validator.New(validator.WithRequiredStructEnabled())

var dateTag = "len=10,datetime=" + model.DateLayout

// Result は検証結果を表す。Errorsが空の場合のみValueが有効。
type Result[T any] struct {
	Value  T
	Errors []model.FieldError
}

// OK は検証に成功したかを返す。
func (r Result[T]) OK() bool {
	return len(r.Errors) == 0
}

// Err は検証に失敗している場合にAPIErrorを返す。成功時はnil。
func (r Result[T]) Err(message string) *model.APIError {
	if r.OK() {
		return nil
	}
	return model.NewValidationError(message, r.Errors)
}

// Checker はフィールドの検証エラーを蓄積する。
type Checker struct {
	errs []model.FieldError
}

// Add はエラーを1件追加する。
func (c *Checker) Add(field, message string) {
	c.errs = append(c.errs, model.FieldError{Field: field, Message: message})
}

// Errors は蓄積されたエラーを返す。
func (c *Checker) Errors() []model.FieldError {
	return c.errs
}

// Required は空白除去後に空でないことを検証する。
func (c *Checker) Required(field, value string) bool {
	return c.check(field, strings.TrimSpace(value), "required", "")
}

// MaxLen は文字数（rune数）が上限以下であることを検証する。
func (c *Checker) MaxLen(field, value string, max int) bool {
	return c.check(field, value, "max="+strconv.Itoa(max), "")
}

// MinLen は文字数（rune数）が下限以上であることを検証する。
// UTF-16のコードユニット数ではないため、絵文字1文字は1文字として数える。
func (c *Checker) MinLen(field, value string, min int) bool {
	return c.check(field, value, "min="+strconv.Itoa(min), "")
}

// Email はメールアドレスとして解釈できることを検証する。
// 表示名付き（"Alice <a@example.com>"）は受け付けない。
func (c *Checker) Email(field, value string) bool {
	return c.check(field, value, "required,email", "invalid email address")
}

// Date はYYYY-MM-DD形式の実在する日付であることを検証する。
func (c *Checker) Date(field, value string) bool {
	return c.check(field, value, dateTag, "must be a date in YYYY-MM-DD format")
}

// DueTime はHH:MM（24時間制）形式であることを検証する。
// time.Parseは1桁の時を受け付けるので長さも固定する。
func (c *Checker) DueTime(field, value string) bool {
	return c.check(field, value, "len=5,datetime="+model.DueTimeLayout, "must be a time in HH:MM format")
}

// URL はhttpまたはhttpsの絶対URLであることを検証する。
func (c *Checker) URL(field, value string) bool {
	return c.check(field, value, "required,http_url", "must be an http or https URL")
}

// MaxBytes はバイト長が上限以下であることを検証する。
func (c *Checker) MaxBytes(field, value string, max int) bool {
	return c.check(field, []byte(value), "max="+strconv.Itoa(max), "must be at most "+strconv.Itoa(max)+" bytes")
}

// check はvalidatorのタグで値を検証し、失敗したらフィールドエラーを追加する。
// messageが空の場合は失敗したタグから文言を組み立てる。
func (c *Checker) check(field string, value any, tag, message string) bool {
	err := engine.Var(value, tag)
	if err == nil {
		return true
	}
	if message == "" {
		message = "invalid value"
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			message = describe(verrs[0])
		}
	}
	c.Add(field, message)
	return false
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "invalid email address"
	default:
		return "invalid value"
	}
}

// NotNull はOptionalにnullが指定されていないことを検証する。
func NotNull[T any](c *Checker, field string, o model.Optional[T]) bool {
	if o.Set && !o.Valid {
		c.Add(field, "must not be null")
		return false
	}
	return true
}

// Finish は蓄積されたエラーの有無に応じてResultを組み立てる。
func Finish[T any](c *Checker, value T) Result[T] {
	if len(c.errs) > 0 {
		var zero T
		return Result[T]{Value: zero, Errors: c.errs}
	}
	return Result[T]{Value: value}
}

// IsDate はYYYY-MM-DD形式の実在する日付かを返す。
func IsDate(value string) bool {
	return engine.Var(value, dateTag) == nil
}
