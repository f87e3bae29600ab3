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

// MyRatingHandler отдает оценку, которую зритель поставил портфолио.
type MyRatingHandler struct {
	log     *slog.Logger
	service Service
}

// NewMyRating создает MyRatingHandler.
func NewMyRating(log *slog.Logger, service Service) *MyRatingHandler {
	return &MyRatingHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Оценка зрителя
// @Description data равно null, если зритель еще не оценивал портфолио или не вошел в аккаунт
// @Tags Portfolios
// @Produce json
// @Param id path string true "ID портфолио"
// @Success 200 {object} response.Response "Оценка зрителя или null"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /portfolios/{id}/my-rating [get]
func (h *MyRatingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.portfolios.myrating"
	id := chi.URLParam(r, "id")

	rating, err := h.service.MyRating(r.Context(), middlewarectx.SessionFrom(r.Context()), id)
	if err != nil {
		h.log.Error("failed to read rating", slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.Response{Status: response.StatusOK, Data: rating})
}
