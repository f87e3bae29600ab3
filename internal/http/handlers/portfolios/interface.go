// Package portfolios обрабатывает запросы к каталогу портфолио:
// список, поиск, карточку, оценку и оценку зрителя.
package portfolios

import (
	"context"

	"github.com/magabrotheeeer/gamefolio/internal/models"
	"github.com/magabrotheeeer/gamefolio/internal/services/profile"
)

// Service определяет интерфейс для работы с портфолио.
type Service interface {
	List(ctx context.Context, viewer models.Session, page int) (models.Collection[models.Portfolio], error)
	LoadMore(ctx context.Context, viewer models.Session) (models.Collection[models.Portfolio], error)
	Refresh(ctx context.Context, viewer models.Session) (models.Collection[models.Portfolio], error)
	Search(ctx context.Context, viewer models.Session, query string, page int) (models.Collection[models.Portfolio], error)
	Rate(ctx context.Context, viewer models.Session, id string, rating int) (models.RatingResult, error)
	MyRating(ctx context.Context, viewer models.Session, id string) (*models.MyRating, error)
}

// Profiles строит карточку портфолио для зрителя.
type Profiles interface {
	View(ctx context.Context, viewer models.Session, id string) (profile.View, error)
}

func summaries(col models.Collection[models.Portfolio]) models.Collection[profile.Summary] {
	out := models.Collection[profile.Summary]{Items: make([]profile.Summary, 0, len(col.Items)), Meta: col.Meta}
	for _, p := range col.Items {
		out.Items = append(out.Items, profile.SummaryOf(p))
	}
	return out
}
