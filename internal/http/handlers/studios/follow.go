package studios

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
)

// FollowHandler переключает подписку зрителя на студию.
type FollowHandler struct {
	log     *slog.Logger
	service Service
}

// NewFollow создает FollowHandler.
func NewFollow(log *slog.Logger, service Service) *FollowHandler {
	return &FollowHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписаться на студию или отписаться
// @Tags Studios
// @Produce json
// @Param id path string true "ID студии"
// @Success 200 {object} response.Response "Состояние подписки и число подписчиков по данным сервера"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /studios/{id}/follow [post]
// @Security BearerAuth
func (h *FollowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.studios.follow"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("studio_id", id),
	)

	res, err := h.service.ToggleFollow(r.Context(), middlewarectx.SessionFrom(r.Context()), id)
	if err != nil {
		log.Error("failed to toggle follow", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
