package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/response"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// Service сохраняет новую активность.
type Service interface {
	Submit(ctx context.Context, requester models.Requester, req models.DummyActivity) (*models.Activity, error)
}

// Handler обрабатывает POST /api/activities.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать активность
// @Description Сохраняет QA-активность от имени текущего пользователя. Пустые текстовые поля сохраняются как null.
// @Tags Activities
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyActivity true "Данные активности"
// @Success 201 {object} models.Activity
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сохранения"
// @Router /api/activities [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requester, ok := middlewarectx.RequesterFrom(r.Context())
	if !ok {
		response.WriteError(w, r, models.ErrUnauthorized)
		return
	}

	var req models.DummyActivity
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.InvalidBody(w, r)
		return
	}
	if !response.Validate(w, r, h.validate, req) {
		return
	}

	activity, err := h.service.Submit(r.Context(), requester, req)
	if err != nil {
		log.Error("failed to create activity", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("activity created", slog.String("activity_id", activity.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, activity)
}
