package membership

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
)

// OrderHandler создает заказ на оплату для хостового чекаута.
type OrderHandler struct {
	log      *slog.Logger
	resolver Resolver
	validate *validator.Validate
}

// NewOrder создает OrderHandler.
func NewOrder(log *slog.Logger, resolver Resolver) *OrderHandler {
	return &OrderHandler{log: log, resolver: resolver, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Создать заказ на апгрейд
// @Description Первый шаг апгрейда. Клиент открывает чекаут по заказу и передает подтверждение в /access/upgrade
// @Tags Access
// @Accept json
// @Produce json
// @Param request body PlanRequest true "Тарифный план"
// @Success 200 {object} response.Response "Заказ"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 402 {object} response.ErrorResponse "Не удалось создать заказ"
// @Failure 422 {object} response.ErrorResponse "Неизвестный план"
// @Router /access/orders [post]
// @Security BearerAuth
func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.order"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req PlanRequest
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

	order, err := h.resolver.CreateOrder(r.Context(), middlewarectx.SessionFrom(r.Context()), req.Plan)
	if err != nil {
		log.Error("failed to create order", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}

	log.Info("order created", slog.String("order_id", order.ID), slog.String("plan", string(order.Plan)))
	render.JSON(w, r, response.StatusOKWithData(order))
}
