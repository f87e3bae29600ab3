package studios

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

// ReadHandler отдает студию.
type ReadHandler struct {
	log     *slog.Logger
	service Service
}

// NewRead создает ReadHandler.
func NewRead(log *slog.Logger, service Service) *ReadHandler {
	return &ReadHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Студия
// @Tags Studios
// @Produce json
// @Param id path string true "ID студии"
// @Success 200 {object} response.Response "Студия и отметка подписки"
// @Failure 404 {object} response.ErrorResponse "Студия не найдена"
// @Failure 502 {object} response.ErrorResponse "Удаленный API недоступен"
// @Router /studios/{id} [get]
func (h *ReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.studios.read"
	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("studio_id", id),
	)

	viewer := middlewarectx.SessionFrom(r.Context())
	studio, found, err := h.service.Get(r.Context(), viewer, id)
	if err != nil {
		log.Error("failed to read studio", sl.Err(err))
		status, body := response.FromError(err)
		render.Status(r, status)
		render.JSON(w, r, body)
		return
	}
	if !found {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(StudioView{Studio: studio, Following: h.service.Following(viewer, id)}))
}
