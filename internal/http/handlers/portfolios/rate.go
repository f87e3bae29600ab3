package portfolios

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
)

// RateRequest тело запроса оценки портфолио.
type RateRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// RateHandler выставляет оценку портфолио от имени зрителя.
type RateHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewRate создает RateHandler.
func NewRate(log *slog.Logger, service Service) *RateHandler {
	return &RateHandler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Оценить портфолио
// @Description Средняя оценка меняется сразу и сверяется с ответом сервера
// @Tags Portfolios
// @Accept json
// @Produce json
// @Param id path string true "ID портфолио"
// @Param request body RateRequest true "Оценка от 1 до 5"
// @Success 200 {object} response.Response "Новая средняя оценка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 422 {object} response.ErrorResponse "Оценка вне диапазона"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /portfolios/{id}/rate [post]
// @Security BearerAuth
func (h *RateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.portfolios.rate"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("portfolio_id", id),
	)

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Rate(r.Context(), middlewarectx.SessionFrom(r.Context()), id, req.Rating)
	if err != nil {
		log.Error("failed to rate portfolio", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("portfolio rated", slog.Int("rating", res.Rating))
	render.JSON(w, r, response.StatusOKWithData(res))
}
