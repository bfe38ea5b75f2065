package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/planner/internal/auth"
	"github.com/hitoshi/planner/internal/model"
)

// --- モック定義 ---

type mockSessionFinder struct {
	findSessionFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindSession(ctx context.Context, id string) (*model.Session, error) {
	if m.findSessionFn != nil {
		return m.findSessionFn(ctx, id)
	}
	return nil, nil
}

var testSigner = auth.NewCookieSigner([]byte("0123456789abcdef0123456789abcdef"))

func validSessionFinder() *mockSessionFinder {
	return &mockSessionFinder{
		findSessionFn: func(_ context.Context, id string) (*model.Session, error) {
			if id == "valid-session-id" {
				return &model.Session{
					ID:        "valid-session-id",
					UserID:    "user-123",
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			}
			return nil, nil
		},
	}
}

func withSessionCookie(req *http.Request, value string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: value})
	return req
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsIdentity(t *testing.T) {
	mw := NewSessionMiddleware(validSessionFinder(), testSigner)

	var gotUserID, gotSessionID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		if gotUserID, err = UserIDFromContext(r.Context()); err != nil {
			t.Errorf("UserIDFromContext: %v", err)
		}
		gotSessionID, _ = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), testSigner.Sign("valid-session-id"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != "user-123" {
		t.Errorf("user ID = %q, want user-123", gotUserID)
	}
	if gotSessionID != "valid-session-id" {
		t.Errorf("session ID = %q, want valid-session-id", gotSessionID)
	}
}

func TestSessionMiddleware_RejectsUnauthenticated(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
	}{
		{name: "no cookie"},
		{name: "unsigned session id", cookie: "valid-session-id"},
		{name: "forged signature", cookie: "valid-session-id.AAAA"},
		{name: "signed with other key", cookie: auth.NewCookieSigner([]byte("another-secret-another-secret-xx")).Sign("valid-session-id")},
		{name: "unknown session", cookie: testSigner.Sign("unknown")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSessionMiddleware(validSessionFinder(), testSigner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.cookie != "" {
				withSessionCookie(req, tt.cookie)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			if body := decodeErrorBody(t, w); body.Code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
		})
	}
}

func TestSessionMiddleware_StoreError_Returns500(t *testing.T) {
	finder := &mockSessionFinder{
		findSessionFn: func(context.Context, string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}
	handler := NewSessionMiddleware(finder, testSigner)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/api/tasks", nil), testSigner.Sign("valid-session-id"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSessionIDFromRequest(t *testing.T) {
	req := withSessionCookie(httptest.NewRequest(http.MethodPost, "/api/logout", nil), testSigner.Sign("abc"))
	id, ok := SessionIDFromRequest(req, testSigner)
	if !ok || id != "abc" {
		t.Errorf("SessionIDFromRequest = (%q, %v), want (abc, true)", id, ok)
	}

	if _, ok := SessionIDFromRequest(httptest.NewRequest(http.MethodPost, "/api/logout", nil), testSigner); ok {
		t.Error("expected false without cookie")
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
	if _, err := UserIDFromContext(ContextWithUserID(context.Background(), "")); err == nil {
		t.Error("expected error for empty user ID")
	}
	got, err := UserIDFromContext(ContextWithUserID(context.Background(), "u1"))
	if err != nil || got != "u1" {
		t.Errorf("UserIDFromContext = (%q, %v)", got, err)
	}
}
