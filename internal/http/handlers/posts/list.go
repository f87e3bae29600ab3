package posts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/listing"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// ListHandler отдает ленту публикаций, общую или одного типа.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создает ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лента публикаций
// @Tags Posts
// @Produce json
// @Param type query string false "Тип публикации" Enums(review, documentary, podcast, article)
// @Param page query int false "Номер страницы"
// @Param more query bool false "Догрузить следующую страницу"
// @Param refresh query bool false "Перезагрузить ленту"
// @Success 200 {object} response.Response "Публикации"
// @Failure 422 {object} response.ErrorResponse "Неизвестный тип или некорректная страница"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /posts [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.posts.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q, err := listing.Parse(r)
	if err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	viewer := middlewarectx.SessionFrom(r.Context())
	kind := models.PostKind(r.URL.Query().Get("type"))
	col, err := listing.Fetch(r.Context(), q, listing.Funcs[models.Post]{
		Page: func(ctx context.Context, page int) (models.Collection[models.Post], error) {
			return h.service.List(ctx, viewer, kind, page)
		},
		More: func(ctx context.Context) (models.Collection[models.Post], error) {
			return h.service.LoadMore(ctx, viewer, kind)
		},
		Refresh: func(ctx context.Context) (models.Collection[models.Post], error) {
			return h.service.Refresh(ctx, viewer, kind)
		},
	})
	if err != nil {
		log.Error("failed to list posts", slog.String("type", string(kind)), sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(col))
}
