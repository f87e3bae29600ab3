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
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// UpgradeHandler завершает апгрейд по подтверждению чекаута.
type UpgradeHandler struct {
	log      *slog.Logger
	resolver Resolver
	validate *validator.Validate
}

// NewUpgrade создает UpgradeHandler.
func NewUpgrade(log *slog.Logger, resolver Resolver) *UpgradeHandler {
	return &UpgradeHandler{log: log, resolver: resolver, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Завершить апгрейд
// @Description Передает подтверждение чекаута на серверную проверку и возвращает обновленный статус подписки
// @Tags Access
// @Accept json
// @Produce json
// @Param request body UpgradeRequest true "Подтверждение чекаута"
// @Success 200 {object} response.Response "Статус подписки после апгрейда"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 402 {object} response.ErrorResponse "Оплата не подтверждена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /access/upgrade [post]
// @Security BearerAuth
func (h *UpgradeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.upgrade"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req UpgradeRequest
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

	status, err := h.resolver.CompleteUpgrade(r.Context(), middlewarectx.SessionFrom(r.Context()), models.Confirmation{
		Success:   true,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		log.Error("upgrade failed", slog.String("order_id", req.OrderID), sl.Err(err))
		code, body := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(status))
}
