package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// Response — тело ответа проверки работоспособности.
type Response struct {
	Status string `json:"status" example:"Server is running"`
}

type Handler struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Handler {
	return &Handler{
		log: log,
	}
}

// ServeHTTP godoc
// @Summary Проверка работоспособности
// @Tags Health
// @Produce json
// @Success 200 {object} health.Response
// @Router /healthz [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{Status: "Server is running"})
}
