package posts

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

// LikeHandler ставит или снимает лайк публикации.
type LikeHandler struct {
	log     *slog.Logger
	service Service
}

// NewLike создает LikeHandler.
func NewLike(log *slog.Logger, service Service) *LikeHandler {
	return &LikeHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лайк публикации
// @Tags Posts
// @Produce json
// @Param id path string true "ID публикации"
// @Success 200 {object} response.Response "Отметка и число лайков по данным сервера"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /posts/{id}/like [post]
// @Security BearerAuth
func (h *LikeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.like"
	id := chi.URLParam(r, "id")

	res, err := h.service.ToggleLike(r.Context(), middlewarectx.SessionFrom(r.Context()), id)
	if err != nil {
		h.log.Error("failed to toggle like", slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("post_id", id), sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(res))
}
