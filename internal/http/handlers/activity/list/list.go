package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/http/response"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

type Service interface {
	List(ctx context.Context, requester models.Requester, filter models.ActivityFilter) ([]models.Activity, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список активностей
// @Description Возвращает видимые текущему пользователю активности, новые сначала.
// @Tags Activities
// @Produce  json
// @Security BearerAuth
// @Param type query string false "DAILY, WEEKLY, MONTHLY или ALL"
// @Param dateRange query string false "ALL, TODAY, WEEK или MONTH"
// @Success 200 {array} models.Activity
// @Failure 400 {object} response.ErrorResponse "Неизвестный фильтр"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Неизвестная роль"
// @Router /api/activities [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requester, ok := middlewarectx.RequesterFrom(r.Context())
	if !ok {
		response.WriteError(w, r, models.ErrUnauthorized)
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.service.List(r.Context(), requester, filter)
	if err != nil {
		log.Error("failed to list activities", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	if res == nil {
		res = []models.Activity{}
	}

	log.Debug("list activities", "count", len(res))
	render.JSON(w, r, res)
}

func parseFilter(r *http.Request) (models.ActivityFilter, error) {
	var filter models.ActivityFilter

	if t := r.URL.Query().Get("type"); t != "" && t != "ALL" {
		at, err := models.ParseActivityType(t)
		if err != nil {
			return filter, err
		}
		filter.ActivityType = &at
	}

	kind, err := models.ParseDateRangeKind(r.URL.Query().Get("dateRange"))
	if err != nil {
		return filter, err
	}
	filter.DateRange = kind
	return filter, nil
}
