package portfolios

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/listing"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
)

// SearchHandler ищет портфолио по строке запроса.
type SearchHandler struct {
	log     *slog.Logger
	service Service
}

// NewSearch создает SearchHandler.
func NewSearch(log *slog.Logger, service Service) *SearchHandler {
	return &SearchHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Поиск портфолио
// @Description Слишком короткий запрос возвращает пустой результат без обращения к API. Вытесненный более новым поиском запрос получает 409
// @Tags Portfolios
// @Produce json
// @Param q query string true "Строка поиска"
// @Param page query int false "Номер страницы"
// @Success 200 {object} response.Response "Найденные портфолио"
// @Failure 409 {object} response.ErrorResponse "Запрос вытеснен более новым"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /portfolios/search [get]
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.portfolios.search"
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
	col, err := h.service.Search(r.Context(), viewer, r.URL.Query().Get("q"), q.Page)
	if err != nil {
		log.Warn("search failed", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(summaries(col)))
}
