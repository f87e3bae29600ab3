package membership

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/gamefolio/internal/access"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/http/response"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// MeResponse уровень доступа зрителя и видимость закрытых полей чужих профилей.
type MeResponse struct {
	access.Decision
	Authenticated bool                            `json:"authenticated"`
	Role          models.Role                     `json:"role"`
	Visibility    map[models.VisibilityField]bool `json:"visibility"`
}

// MeHandler отдает уровень доступа текущего зрителя.
type MeHandler struct {
	resolver Resolver
}

// NewMe создает MeHandler.
func NewMe(resolver Resolver) *MeHandler {
	return &MeHandler{resolver: resolver}
}

// ServeHTTP godoc
// @Summary Уровень доступа зрителя
// @Description Никогда не возвращает ошибку: если статус подписки недоступен, зритель получает уровень authenticated
// @Tags Access
// @Produce json
// @Success 200 {object} response.Response "Уровень доступа, статус подписки и видимость полей"
// @Router /access/me [get]
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	viewer := middlewarectx.SessionFrom(r.Context())
	decision := h.resolver.Tier(r.Context(), viewer)

	render.JSON(w, r, response.StatusOKWithData(MeResponse{
		Decision:      decision,
		Authenticated: viewer.Authenticated,
		Role:          viewer.Role,
		Visibility:    access.Visibility(decision.Tier, false),
	}))
}
