// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/planner/internal/auth"
	"github.com/hitoshi/planner/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey    = contextKey("user_id")
	sessionIDContextKey = contextKey("session_id")
	requestStateKey     = contextKey("request_state")
)

// requestState はロギングミドルウェアが外側で確保し、内側のミドルウェアが書き込む値。
// 内側で生成した子コンテキストは外側から参照できないため、ポインタで共有する。
type requestState struct {
	userID string
}

// SessionFinder はセッションの検索に必要なインターフェース。
// 未知・期限切れのセッションには (nil, nil) を返す。
type SessionFinder interface {
	FindSession(ctx context.Context, sessionID string) (*model.Session, error)
}

// CookieVerifier は署名付きCookie値からセッションIDを取り出す。
type CookieVerifier interface {
	Verify(value string) (string, bool)
}

// NewSessionMiddleware は署名付きセッションCookieを検証し、
// 認証済みユーザーIDとセッションIDをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401 UNAUTHORIZEDを返す。
func NewSessionMiddleware(finder SessionFinder, verifier CookieVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := SessionIDFromRequest(r, verifier)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := finder.FindSession(r.Context(), sessionID)
			if err != nil {
				slog.Error("failed to find session", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if state, ok := r.Context().Value(requestStateKey).(*requestState); ok {
				state.userID = session.UserID
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, session.UserID)
			ctx = context.WithValue(ctx, sessionIDContextKey, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromRequest はセッションCookieの署名を検証し、セッションIDを返す。
// Cookieがない、または署名が不正な場合はfalseを返す。
func SessionIDFromRequest(r *http.Request, verifier CookieVerifier) (string, bool) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return verifier.Verify(cookie.Value)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// SessionIDFromContext はリクエストコンテキストからセッションIDを取得する。
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok && id != ""
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
