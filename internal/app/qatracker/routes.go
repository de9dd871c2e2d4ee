// Package qatracker собирает HTTP API трекера QA-активностей.
package qatracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	activitycreate "github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/activity/create"
	activitylist "github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/activity/list"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/ai/summary"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/auth/changepassword"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/dashboard/stats"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/health"
	userscreate "github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/users/create"
	userslist "github.com/magabrotheeeer/qa-activity-tracker/internal/http/handlers/users/list"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// AuthService объединяет операции входа и проверки токена.
type AuthService interface {
	login.Service
	me.Service
	changepassword.Service
	middlewarectx.Authenticator
}

// ActivityService создает и перечисляет активности.
type ActivityService interface {
	activitycreate.Service
	activitylist.Service
}

// UserService создает и перечисляет пользователей.
type UserService interface {
	userscreate.Service
	userslist.Service
}

// Services — зависимости обработчиков.
type Services struct {
	Auth       AuthService
	Activities ActivityService
	Dashboard  stats.Service
	Summary    summary.Service
	Users      UserService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, summaryLimiter *middlewarectx.RateLimiter) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics,
	)

	healthHandler := health.New(logger)
	r.Get("/", healthHandler.ServeHTTP)
	r.Get("/healthz", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))

			r.Get("/auth/me", me.New(logger, svc.Auth).ServeHTTP)
			r.Post("/auth/change-password", changepassword.New(logger, svc.Auth).ServeHTTP)

			r.Post("/activities", activitycreate.New(logger, svc.Activities).ServeHTTP)
			r.Get("/activities", activitylist.New(logger, svc.Activities).ServeHTTP)

			r.Get("/dashboard/stats", stats.New(logger, svc.Dashboard).ServeHTTP)

			r.With(summaryLimiter.Middleware(logger)).
				Post("/ai/summary", summary.New(logger, svc.Summary).ServeHTTP)

			r.Get("/users", userslist.New(logger, svc.Users).ServeHTTP)
			r.With(middlewarectx.RequireRole(logger, models.RoleManager)).
				Post("/users", userscreate.New(logger, svc.Users).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
