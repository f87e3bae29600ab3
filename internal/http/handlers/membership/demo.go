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

// DemoHandler включает и выключает demo-доступ. Работает только в demo-режиме.
type DemoHandler struct {
	log      *slog.Logger
	resolver Resolver
	validate *validator.Validate
}

// NewDemo создает DemoHandler.
func NewDemo(log *slog.Logger, resolver Resolver) *DemoHandler {
	return &DemoHandler{log: log, resolver: resolver, validate: validator.New()}
}

// Enable godoc
// @Summary Включить demo-доступ
// @Tags Access
// @Accept json
// @Produce json
// @Param request body PlanRequest true "Тарифный план"
// @Success 200 {object} response.Response "Demo-статус подписки"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Failure 402 {object} response.ErrorResponse "Demo-режим выключен"
// @Failure 422 {object} response.ErrorResponse "Неизвестный план"
// @Router /access/demo [post]
// @Security BearerAuth
func (h *DemoHandler) Enable(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.demo.enable"
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
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	status, err := h.resolver.EnableDemo(r.Context(), middlewarectx.SessionFrom(r.Context()), req.Plan)
	if err != nil {
		log.Warn("failed to enable demo access", sl.Err(err))
		code, body := response.FromError(err)
		render.Status(r, code)
		render.JSON(w, r, body)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(status))
}

// Disable godoc
// @Summary Выключить demo-доступ
// @Tags Access
// @Produce json
// @Success 200 {object} response.Response "Demo-доступ выключен"
// @Failure 401 {object} response.ErrorResponse "Требуется вход"
// @Router /access/demo [delete]
// @Security BearerAuth
func (h *DemoHandler) Disable(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.demo.disable"

	viewer := middlewarectx.SessionFrom(r.Context())
	if !viewer.Authenticated {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("please log in to continue"))
		return
	}

	if err := h.resolver.DisableDemo(r.Context(), viewer.UserID); err != nil {
		h.log.Error("failed to disable demo access", slog.String("op", op), sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"demo": false}))
}
