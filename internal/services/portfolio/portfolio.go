// Package portfolio содержит бизнес-логику каталога портфолио: списки,
// поиск, карточку портфолио и оценки зрителей.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/config"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
	"github.com/magabrotheeeer/gamefolio/internal/syncache"
)

const listKey = "portfolios"

// API методы удаленного API для портфолио.
type API interface {
	ListPortfolios(ctx context.Context, token string, page, size int) (models.Page[models.Portfolio], error)
	SearchPortfolios(ctx context.Context, token, query string, page, size int) (models.Page[models.Portfolio], error)
	GetPortfolio(ctx context.Context, token, id string) (models.Portfolio, error)
	RatePortfolio(ctx context.Context, token, id string, rating int) (models.RatingResult, error)
	MyRating(ctx context.Context, token, id string) (models.MyRating, error)
}

type rateRequest struct {
	Rating int `validate:"min=1,max=5"`
}

// Service работает с портфолио через общий кеш.
type Service struct {
	api       API
	cache     *syncache.Cache[models.Portfolio]
	ratings   *syncache.Cache[models.MyRating] // ключ userID:portfolioID
	searchers *syncache.SearcherPool[models.Portfolio]
	pageSize  int
	validate  *validator.Validate
	log       *slog.Logger
}

// New создает Service.
func New(api API, cfg config.Cache, log *slog.Logger) *Service {
	opts := []syncache.Option{syncache.WithLogger(log), syncache.WithPageSize(cfg.PageSize)}
	return &Service{
		api:       api,
		cache:     syncache.New("portfolios", func(p models.Portfolio) string { return p.ID }, opts...),
		ratings:   syncache.New("my_ratings", func(r models.MyRating) string { return r.PortfolioID }, opts...),
		searchers: syncache.NewSearcherPool[models.Portfolio](cfg.SearchMinChars, cfg.SearchDebounce, opts...),
		pageSize:  cfg.PageSize,
		validate:  validator.New(),
		log:       log,
	}
}

func (s *Service) loader(viewer models.Session) syncache.LoadFunc[models.Portfolio] {
	return func(ctx context.Context, page, size int) (models.Page[models.Portfolio], error) {
		return s.api.ListPortfolios(ctx, viewer.Token, page, size)
	}
}

// List возвращает страницу каталога.
func (s *Service) List(ctx context.Context, viewer models.Session, page int) (models.Collection[models.Portfolio], error) {
	return s.cache.FetchPage(ctx, listKey, page, s.pageSize, s.loader(viewer))
}

// LoadMore подгружает следующую страницу каталога.
func (s *Service) LoadMore(ctx context.Context, viewer models.Session) (models.Collection[models.Portfolio], error) {
	return s.cache.LoadMore(ctx, listKey, s.loader(viewer))
}

// Refresh перезагружает каталог с первой страницы.
func (s *Service) Refresh(ctx context.Context, viewer models.Session) (models.Collection[models.Portfolio], error) {
	return s.cache.Refresh(ctx, listKey, s.loader(viewer))
}

// Search ищет портфолио. Поиск одного зрителя не отменяет поиск другого.
func (s *Service) Search(ctx context.Context, viewer models.Session, query string, page int) (models.Collection[models.Portfolio], error) {
	return s.searchers.For(viewer.ViewerKey()).Search(ctx, query, page, s.pageSize,
		func(ctx context.Context, q string, page, size int) (models.Page[models.Portfolio], error) {
			return s.api.SearchPortfolios(ctx, viewer.Token, q, page, size)
		})
}

// Get возвращает портфолио по ID. found=false, если портфолио не существует.
func (s *Service) Get(ctx context.Context, viewer models.Session, id string) (models.Portfolio, bool, error) {
	return s.cache.Get(ctx, id, func(ctx context.Context) (models.Portfolio, error) {
		return s.api.GetPortfolio(ctx, viewer.Token, id)
	})
}

// Rate ставит оценку от 1 до 5. Средний рейтинг в кеше сразу пересчитывается
// по оценке зрителя, а после ответа заменяется значением сервера.
// При ошибке кеш возвращается к значению до оценки.
func (s *Service) Rate(ctx context.Context, viewer models.Session, id string, rating int) (models.RatingResult, error) {
	const op = "services.portfolio.Rate"

	if err := s.validate.Struct(rateRequest{Rating: rating}); err != nil {
		return models.RatingResult{}, fmt.Errorf("%s: %w", op, apperr.Validation("rating must be between 1 and 5, got %d", rating))
	}
	if !viewer.Authenticated {
		return models.RatingResult{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	key := models.ReactionKey(viewer.UserID, id)
	s.ensureRating(ctx, viewer, id, key)
	prev, _ := s.ratings.Peek(key)

	var result models.RatingResult
	call := func(ctx context.Context) (models.Portfolio, error) {
		res, err := s.api.RatePortfolio(ctx, viewer.Token, id, rating)
		if err != nil {
			return models.Portfolio{}, err
		}
		result = res
		current, ok := s.cache.Peek(id)
		if !ok {
			current, err = s.api.GetPortfolio(ctx, viewer.Token, id)
			if err != nil {
				return models.Portfolio{}, err
			}
		}
		current.AverageRating = res.NewAverageRating
		current.RatingCount = res.NewRatingCount
		return current, nil
	}

	// оценка зрителя и агрегат портфолио упорядочиваются одной мутацией
	_, err := s.ratings.Mutate(ctx, key, syncache.KindRating, func(r models.MyRating) models.MyRating {
		r.PortfolioID = id
		r.Rating = rating
		return r
	}, func(ctx context.Context) (models.MyRating, error) {
		if _, cached := s.cache.Peek(id); cached {
			if _, err := s.cache.Mutate(ctx, id, syncache.KindRating, func(p models.Portfolio) models.Portfolio {
				return withRating(p, prev.Rating, rating)
			}, call); err != nil {
				return models.MyRating{}, err
			}
		} else {
			res, err := s.api.RatePortfolio(ctx, viewer.Token, id, rating)
			if err != nil {
				return models.MyRating{}, err
			}
			result = res
		}
		if result.Rating == 0 {
			result.Rating = rating
		}
		return models.MyRating{PortfolioID: id, Rating: result.Rating}, nil
	})
	if err != nil {
		return models.RatingResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("portfolio rated", sl.Op(op), slog.String("portfolio_id", id), slog.Int("rating", result.Rating))
	return result, nil
}

// ensureRating загружает текущую оценку зрителя, чтобы оптимистичный пересчет
// знал прежний голос. Если зритель еще не оценивал портфолио, в кеш кладется
// пустая оценка. При сбое загрузки оценка не кешируется и мутация пройдет
// без оптимистичного шага.
func (s *Service) ensureRating(ctx context.Context, viewer models.Session, id, key string) {
	_, found, err := s.ratings.Get(ctx, key, func(ctx context.Context) (models.MyRating, error) {
		return s.api.MyRating(ctx, viewer.Token, id)
	})
	if err != nil {
		s.log.Warn("failed to load viewer rating", slog.String("portfolio_id", id), sl.Err(err))
		return
	}
	if !found {
		s.ratings.Ensure(key, models.MyRating{PortfolioID: id})
	}
}

// withRating оптимистично пересчитывает средний рейтинг.
// prev == 0 означает, что зритель еще не оценивал портфолио.
func withRating(p models.Portfolio, prev, rating int) models.Portfolio {
	total := p.AverageRating * float64(p.RatingCount)
	if prev == 0 {
		p.RatingCount++
		p.AverageRating = (total + float64(rating)) / float64(p.RatingCount)
		return p
	}
	if p.RatingCount > 0 {
		p.AverageRating = (total - float64(prev) + float64(rating)) / float64(p.RatingCount)
	}
	return p
}

// MyRating возвращает оценку зрителя или nil, если он еще не оценивал портфолио.
func (s *Service) MyRating(ctx context.Context, viewer models.Session, id string) (*models.MyRating, error) {
	const op = "services.portfolio.MyRating"

	if !viewer.Authenticated {
		return nil, nil
	}
	r, found, err := s.ratings.Get(ctx, models.ReactionKey(viewer.UserID, id), func(ctx context.Context) (models.MyRating, error) {
		return s.api.MyRating(ctx, viewer.Token, id)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found || r.Rating == 0 {
		return nil, nil
	}
	return &r, nil
}

// ForgetViewer удаляет оценки зрителя из кеша.
func (s *Service) ForgetViewer(userID string) int {
	return s.ratings.InvalidatePrefix(userID + ":")
}

// Caches кеши сервиса для периодической очистки.
func (s *Service) Caches() []syncache.Sweepable {
	return []syncache.Sweepable{s.cache, s.ratings, s.searchers}
}
