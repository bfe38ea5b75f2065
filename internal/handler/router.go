package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/planner/internal/middleware"
	"github.com/hitoshi/planner/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPRecorder // nilの場合はリクエストメトリクスを記録しない
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	GeneralLimiter    *middleware.RateLimiter // 認証済みユーザー単位
	AuthLimiter       *middleware.RateLimiter // ログイン・登録のクライアントIP単位
	CSRFEnabled       bool

	// 運用エンドポイント
	DB             Pinger
	MetricsHandler http.Handler // nilの場合は/metricsを公開しない

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Cookies     CookieCodec

	// ドメイン
	CategoryService CategoryServiceInterface
	TaskService     TaskServiceInterface
	Quotes          QuotePicker
	Sanitizer       security.TextSanitizer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// 認証が必要なルートにはさらに Session → RateLimit(ユーザー単位) → CSRF（有効時）を適用する。
// ログイン・登録はクライアントIP単位のレート制限のみを適用する。
// ログアウトはセッション検証なしでCSRF（有効時）のみを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Cookies, sanitizer, deps.AuthConfig)
	categoryHandler := NewCategoryHandler(deps.CategoryService, sanitizer)
	taskHandler := NewTaskHandler(deps.TaskService, sanitizer)
	quoteHandler := NewQuoteHandler(deps.Quotes)
	csrfConfig := middleware.CSRFConfig{
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.CSRFEnabled {
		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig))
	}

	r.Group(func(r chi.Router) {
		if deps.AuthLimiter != nil {
			r.Use(deps.AuthLimiter.PerIPMiddleware())
		}
		r.Post("/api/register", authHandler.Register)
		r.Post("/api/login", authHandler.Login)
	})
	// 失効済みのセッションでもCookieを消せるよう、ログアウトはセッション検証の外に置く。
	// CSRF検証はセッションに依存しないので他の状態変更と同様に適用する。
	r.Group(func(r chi.Router) {
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		}
		r.Post("/api/logout", authHandler.Logout)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.Cookies))
		if deps.GeneralLimiter != nil {
			r.Use(deps.GeneralLimiter.PerUserMiddleware())
		}
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		}

		r.Route("/api/auth/user", func(r chi.Router) {
			r.Get("/", authHandler.CurrentUser)
			r.Patch("/", authHandler.UpdateProfile)
		})

		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
			r.Patch("/{id}", categoryHandler.UpdateCategory)
			r.Delete("/{id}", categoryHandler.DeleteCategory)
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Patch("/{id}", taskHandler.UpdateTask)
			r.Patch("/{id}/toggle", taskHandler.ToggleTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})

		r.Get("/api/quote", quoteHandler.RandomQuote)
	})

	return r
}
