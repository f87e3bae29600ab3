// Package posts обрабатывает запросы к ленте публикаций и лайкам.
package posts

import (
	"context"

	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Service определяет интерфейс для работы с публикациями.
type Service interface {
	List(ctx context.Context, viewer models.Session, kind models.PostKind, page int) (models.Collection[models.Post], error)
	LoadMore(ctx context.Context, viewer models.Session, kind models.PostKind) (models.Collection[models.Post], error)
	Refresh(ctx context.Context, viewer models.Session, kind models.PostKind) (models.Collection[models.Post], error)
	Get(ctx context.Context, viewer models.Session, id string) (models.Post, bool, error)
	ToggleLike(ctx context.Context, viewer models.Session, id string) (models.LikeResult, error)
	Liked(viewer models.Session, id string) bool
}

// PostView публикация и отметка лайка зрителя. Post сериализуется
// собственным MarshalJSON, поэтому лежит в отдельном поле.
type PostView struct {
	Post  models.Post `json:"post"`
	Liked bool        `json:"liked"`
}
