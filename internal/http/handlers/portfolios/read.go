package portfolios

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

// ReadHandler отдает карточку портфолио с учетом уровня доступа зрителя.
type ReadHandler struct {
	log      *slog.Logger
	profiles Profiles
}

// NewRead создает ReadHandler.
func NewRead(log *slog.Logger, profiles Profiles) *ReadHandler {
	return &ReadHandler{log: log, profiles: profiles}
}

// ServeHTTP godoc
// @Summary Карточка портфолио
// @Description Закрытые поля, недоступные зрителю, не передаются и перечислены в locked
// @Tags Portfolios
// @Produce json
// @Param id path string true "ID портфолио"
// @Success 200 {object} response.Response "Карточка портфолио"
// @Failure 404 {object} response.ErrorResponse "Портфолио не найдено"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /portfolios/{id} [get]
func (h *ReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.portfolios.read"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("portfolio_id", id),
	)

	view, err := h.profiles.View(r.Context(), middlewarectx.SessionFrom(r.Context()), id)
	if err != nil {
		log.Error("failed to read portfolio", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}
