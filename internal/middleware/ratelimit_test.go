package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/planner/internal/model"
)

func newTestRateLimiter(t *testing.T, r rate.Limit, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		Name:            "test",
		Rate:            r,
		Burst:           burst,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func userRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func ipRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = remoteAddr
	return req
}

// --- PerUserMiddleware ---

func TestPerUserMiddleware_AllowsRequestsWithinBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 5)
	calls := 0
	handler := rl.PerUserMiddleware()(okHandler(&calls))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, userRequest("user-1"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	if calls != 5 {
		t.Errorf("handler calls = %d, want 5", calls)
	}
}

func TestPerUserMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := newTestRateLimiter(t, rate.Limit(10.0/60.0), 2)
	calls := 0
	handler := rl.PerUserMiddleware()(okHandler(&calls))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), userRequest("user-1"))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-1"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter != 6 {
		t.Errorf("Retry-After = %q, want 6", w.Header().Get("Retry-After"))
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeRateLimitExceeded {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimitExceeded)
	}
}

func TestPerUserMiddleware_IsolatesUsers(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	calls := 0
	handler := rl.PerUserMiddleware()(okHandler(&calls))

	handler.ServeHTTP(httptest.NewRecorder(), userRequest("user-1"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, userRequest("user-2"))
	if w.Code != http.StatusOK {
		t.Errorf("user-2 must not be limited by user-1, status = %d", w.Code)
	}
	if rl.Count() != 2 {
		t.Errorf("Count = %d, want 2", rl.Count())
	}
}

func TestPerUserMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	handler := rl.PerUserMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// --- PerIPMiddleware ---

func TestPerIPMiddleware_LimitsByClientAddress(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 2)
	calls := 0
	handler := rl.PerIPMiddleware()(okHandler(&calls))

	// 同じIPでもポートが異なれば同一クライアントとして扱う
	handler.ServeHTTP(httptest.NewRecorder(), ipRequest("192.0.2.1:1111"))
	handler.ServeHTTP(httptest.NewRecorder(), ipRequest("192.0.2.1:2222"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, ipRequest("192.0.2.1:3333"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, ipRequest("198.51.100.7:1111"))
	if w.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

// --- 設定・クリーンアップ ---

func TestPerMinute(t *testing.T) {
	cfg := PerMinute("general", 120)
	if cfg.Rate != rate.Limit(2) || cfg.Burst != 120 || cfg.Name != "general" {
		t.Errorf("PerMinute(120) = %+v", cfg)
	}

	unlimited := NewRateLimiter(PerMinute("auth", 0))
	defer unlimited.Stop()
	for i := 0; i < 1000; i++ {
		if !unlimited.Allow("k") {
			t.Fatal("a zero limit disables rate limiting")
		}
	}
	if unlimited.Count() != 0 {
		t.Errorf("unlimited limiter should not track keys, Count = %d", unlimited.Count())
	}
}

func TestRateLimiter_CleanupRemovesIdleEntries(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 1)
	rl.Allow("idle")
	rl.Allow("active")

	rl.mu.Lock()
	rl.limiters["idle"].lastAccess = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanup(time.Now())

	if rl.Count() != 1 {
		t.Fatalf("Count = %d, want 1", rl.Count())
	}
	rl.mu.Lock()
	_, ok := rl.limiters["active"]
	rl.mu.Unlock()
	if !ok {
		t.Error("recently used entry should be kept")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(PerMinute("x", 1))
	rl.Stop()
	rl.Stop()
}
