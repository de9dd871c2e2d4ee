// Package summary реализует HTTP-обработчик генерации текстовой сводки по активностям.
package summary

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/response"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// Service генерирует сводку.
type Service interface {
	Generate(ctx context.Context, requester models.Requester, req models.SummaryRequest) (string, error)
}

// Handler обрабатывает POST /api/ai/summary.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка по активностям
// @Description Отправляет видимые активности за период и запрос во внешний сервис генерации текста.
// @Description Без дат используется текущая рабочая неделя. Фраза "for <Имя>" сужает выборку до пользователя.
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SummaryRequest true "Период и запрос"
// @Success 200 {object} models.SummaryResult
// @Failure 400 {object} response.ErrorResponse "Нет запроса или неверные даты"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Сервис сводок не настроен"
// @Failure 502 {object} response.ErrorResponse "Ошибка внешнего сервиса"
// @Router /api/ai/summary [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.summary"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requester, ok := middlewarectx.RequesterFrom(r.Context())
	if !ok {
		response.WriteError(w, r, models.ErrUnauthorized)
		return
	}

	var req models.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.InvalidBody(w, r)
		return
	}

	text, err := h.service.Generate(r.Context(), requester, req)
	if err != nil {
		log.Error("failed to generate summary", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, models.SummaryResult{Summary: text})
}
