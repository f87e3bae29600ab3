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

// ReadHandler отдает публикацию.
type ReadHandler struct {
	log     *slog.Logger
	service Service
}

// NewRead создает ReadHandler.
func NewRead(log *slog.Logger, service Service) *ReadHandler {
	return &ReadHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Публикация
// @Tags Posts
// @Produce json
// @Param id path string true "ID публикации"
// @Success 200 {object} response.Response "Публикация и отметка лайка"
// @Failure 404 {object} response.ErrorResponse "Публикация не найдена"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /posts/{id} [get]
func (h *ReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.read"
	id := chi.URLParam(r, "id")

	viewer := middlewarectx.SessionFrom(r.Context())
	post, found, err := h.service.Get(r.Context(), viewer, id)
	if err != nil {
		h.log.Error("failed to read post", slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("post_id", id), sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if !found {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(PostView{Post: post, Liked: h.service.Liked(viewer, id)}))
}
