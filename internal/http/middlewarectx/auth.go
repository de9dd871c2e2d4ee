// Package middlewarectx содержит HTTP middleware: проверку JWT, проверку ролей,
// ограничение частоты запросов и сбор метрик.
//
// JWTMiddleware проверяет токен в заголовке Authorization и кладёт автора запроса
// в контекст; обработчики получают его через RequesterFrom.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/response"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// RequesterKey — ключ автора запроса в контексте.
const RequesterKey Key = "requester"

// Authenticator проверяет токен и возвращает автора запроса.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Requester, error)
}

// WithRequester возвращает контекст с автором запроса.
func WithRequester(ctx context.Context, r models.Requester) context.Context {
	return context.WithValue(ctx, RequesterKey, r)
}

// RequesterFrom достаёт автора запроса из контекста.
func RequesterFrom(ctx context.Context) (models.Requester, bool) {
	r, ok := ctx.Value(RequesterKey).(models.Requester)
	return r, ok && r.ID != ""
}

// JWTMiddleware возвращает middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, автор запроса добавляется в контекст, иначе возвращается 401.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Info("authorization header missing")
				unauthorized(w, r, "Authorization header missing")
				return
			}
			scheme, tokenStr, _ := strings.Cut(authHeader, " ")
			tokenStr = strings.TrimSpace(tokenStr)
			if scheme != "Bearer" || tokenStr == "" {
				log.Info("token not provided")
				unauthorized(w, r, "Token not provided")
				return
			}

			requester, err := auth.Authenticate(r.Context(), tokenStr)
			if err != nil {
				log.Info("authentication failed", sl.Err(err))
				response.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
		})
	}
}

// RequireRole пропускает только авторов запроса с одной из ролей roles.
func RequireRole(log *slog.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester, ok := RequesterFrom(r.Context())
			if !ok {
				unauthorized(w, r, "Authorization header missing")
				return
			}
			for _, role := range roles {
				if requester.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Info("access denied",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("user_id", requester.ID),
				slog.String("role", string(requester.Role)),
			)
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("Access denied. Insufficient permissions.", models.CodeForbidden))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(msg, models.CodeAuth))
}
