package portfolios

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

// ListHandler отдает страницы каталога портфолио.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создает ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список портфолио
// @Description Возвращает страницу каталога. more=true догружает следующую страницу, refresh=true перезагружает список
// @Tags Portfolios
// @Produce json
// @Param page query int false "Номер страницы"
// @Param more query bool false "Догрузить следующую страницу"
// @Param refresh query bool false "Перезагрузить список"
// @Success 200 {object} response.Response "Публичные карточки портфолио"
// @Failure 422 {object} response.ErrorResponse "Некорректный номер страницы"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /portfolios [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.portfolios.list"
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
	col, err := listing.Fetch(r.Context(), q, listing.Funcs[models.Portfolio]{
		Page: func(ctx context.Context, page int) (models.Collection[models.Portfolio], error) {
			return h.service.List(ctx, viewer, page)
		},
		More: func(ctx context.Context) (models.Collection[models.Portfolio], error) {
			return h.service.LoadMore(ctx, viewer)
		},
		Refresh: func(ctx context.Context) (models.Collection[models.Portfolio], error) {
			return h.service.Refresh(ctx, viewer)
		},
	})
	if err != nil {
		log.Error("failed to list portfolios", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(summaries(col)))
}
