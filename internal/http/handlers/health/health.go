// Package health отдает состояние сервиса для проверок живости.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gamefolio/internal/http/response"
)

// Handler обрабатывает проверку живости.
type Handler struct{}

// New создает Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
