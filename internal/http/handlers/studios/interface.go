// Package studios обрабатывает запросы к каталогу студий и подпискам на них.
package studios

import (
	"context"

	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Service определяет интерфейс для работы со студиями.
type Service interface {
	List(ctx context.Context, viewer models.Session, page int) (models.Collection[models.Studio], error)
	LoadMore(ctx context.Context, viewer models.Session) (models.Collection[models.Studio], error)
	Refresh(ctx context.Context, viewer models.Session) (models.Collection[models.Studio], error)
	Search(ctx context.Context, viewer models.Session, query string, page int) (models.Collection[models.Studio], error)
	Get(ctx context.Context, viewer models.Session, id string) (models.Studio, bool, error)
	ToggleFollow(ctx context.Context, viewer models.Session, id string) (models.FollowResult, error)
	Following(viewer models.Session, id string) bool
}

// StudioView студия и отметка подписки зрителя.
type StudioView struct {
	models.Studio
	Following bool `json:"following"`
}
