package studios

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

// ListHandler отдает страницы каталога студий и результаты поиска.
// Непустой параметр q переключает обработчик в режим поиска.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создает ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список студий
// @Description Страница каталога студий. С параметром q выполняет поиск
// @Tags Studios
// @Produce json
// @Param q query string false "Строка поиска"
// @Param page query int false "Номер страницы"
// @Param more query bool false "Догрузить следующую страницу"
// @Param refresh query bool false "Перезагрузить список"
// @Success 200 {object} response.Response "Студии"
// @Failure 409 {object} response.ErrorResponse "Поиск вытеснен более новым"
// @Failure 422 {object} response.ErrorResponse "Некорректный номер страницы"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /studios [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.studios.list"
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
	var col models.Collection[models.Studio]
	if search := r.URL.Query().Get("q"); search != "" {
		col, err = h.service.Search(r.Context(), viewer, search, q.Page)
	} else {
		col, err = listing.Fetch(r.Context(), q, listing.Funcs[models.Studio]{
			Page: func(ctx context.Context, page int) (models.Collection[models.Studio], error) {
				return h.service.List(ctx, viewer, page)
			},
			More: func(ctx context.Context) (models.Collection[models.Studio], error) {
				return h.service.LoadMore(ctx, viewer)
			},
			Refresh: func(ctx context.Context) (models.Collection[models.Studio], error) {
				return h.service.Refresh(ctx, viewer)
			},
		})
	}
	if err != nil {
		log.Error("failed to list studios", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(col))
}
