// Package studio содержит бизнес-логику каталога студий и подписок на них.
package studio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/config"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
	"github.com/magabrotheeeer/gamefolio/internal/syncache"
)

const listKey = "studios"

// API методы удаленного API для студий.
type API interface {
	ListStudios(ctx context.Context, token string, page, size int) (models.Page[models.Studio], error)
	SearchStudios(ctx context.Context, token, query string, page, size int) (models.Page[models.Studio], error)
	GetStudio(ctx context.Context, token, id string) (models.Studio, error)
	FollowStudio(ctx context.Context, token, id string) (models.FollowResult, error)
}

// Service работает со студиями через общий кеш.
type Service struct {
	api       API
	cache     *syncache.Cache[models.Studio]
	follows   *syncache.Cache[models.Reaction]
	searchers *syncache.SearcherPool[models.Studio]
	pageSize  int
	log       *slog.Logger
}

// New создает Service.
func New(api API, cfg config.Cache, log *slog.Logger) *Service {
	opts := []syncache.Option{syncache.WithLogger(log), syncache.WithPageSize(cfg.PageSize)}
	return &Service{
		api:       api,
		cache:     syncache.New("studios", func(s models.Studio) string { return s.ID }, opts...),
		follows:   syncache.New("studio_follows", func(r models.Reaction) string { return r.Key }, opts...),
		searchers: syncache.NewSearcherPool[models.Studio](cfg.SearchMinChars, cfg.SearchDebounce, opts...),
		pageSize:  cfg.PageSize,
		log:       log,
	}
}

func (s *Service) loader(viewer models.Session) syncache.LoadFunc[models.Studio] {
	return func(ctx context.Context, page, size int) (models.Page[models.Studio], error) {
		return s.api.ListStudios(ctx, viewer.Token, page, size)
	}
}

func (s *Service) List(ctx context.Context, viewer models.Session, page int) (models.Collection[models.Studio], error) {
	return s.cache.FetchPage(ctx, listKey, page, s.pageSize, s.loader(viewer))
}

func (s *Service) LoadMore(ctx context.Context, viewer models.Session) (models.Collection[models.Studio], error) {
	return s.cache.LoadMore(ctx, listKey, s.loader(viewer))
}

func (s *Service) Refresh(ctx context.Context, viewer models.Session) (models.Collection[models.Studio], error) {
	return s.cache.Refresh(ctx, listKey, s.loader(viewer))
}

func (s *Service) Search(ctx context.Context, viewer models.Session, query string, page int) (models.Collection[models.Studio], error) {
	return s.searchers.For(viewer.ViewerKey()).Search(ctx, query, page, s.pageSize,
		func(ctx context.Context, q string, page, size int) (models.Page[models.Studio], error) {
			return s.api.SearchStudios(ctx, viewer.Token, q, page, size)
		})
}

func (s *Service) Get(ctx context.Context, viewer models.Session, id string) (models.Studio, bool, error) {
	return s.cache.Get(ctx, id, func(ctx context.Context) (models.Studio, error) {
		return s.api.GetStudio(ctx, viewer.Token, id)
	})
}

// ToggleFollow подписывает зрителя на студию или отписывает от нее.
// Счетчик подписчиков меняется сразу, а после ответа сервера заменяется его значением.
func (s *Service) ToggleFollow(ctx context.Context, viewer models.Session, id string) (models.FollowResult, error) {
	const op = "services.studio.ToggleFollow"

	if !viewer.Authenticated {
		return models.FollowResult{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	key := models.ReactionKey(viewer.UserID, id)
	s.follows.Ensure(key, models.Reaction{Key: key})
	following, _ := s.follows.Peek(key)
	delta := 1
	if following.Active {
		delta = -1
	}

	var result models.FollowResult
	call := func(ctx context.Context) (models.Studio, error) {
		res, err := s.api.FollowStudio(ctx, viewer.Token, id)
		if err != nil {
			return models.Studio{}, err
		}
		result = res
		current, ok := s.cache.Peek(id)
		if !ok {
			if current, err = s.api.GetStudio(ctx, viewer.Token, id); err != nil {
				return models.Studio{}, err
			}
		}
		current.Followers = res.Followers
		return current, nil
	}

	_, err := s.follows.Mutate(ctx, key, syncache.KindFollow, func(r models.Reaction) models.Reaction {
		r.Active = !r.Active
		return r
	}, func(ctx context.Context) (models.Reaction, error) {
		if _, cached := s.cache.Peek(id); cached {
			if _, err := s.cache.Mutate(ctx, id, syncache.KindFollow, func(st models.Studio) models.Studio {
				st.Followers = max(0, st.Followers+delta)
				return st
			}, call); err != nil {
				return models.Reaction{}, err
			}
		} else {
			res, err := s.api.FollowStudio(ctx, viewer.Token, id)
			if err != nil {
				return models.Reaction{}, err
			}
			result = res
		}
		return models.Reaction{Key: key, Active: result.Following}, nil
	})
	if err != nil {
		return models.FollowResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("studio follow toggled", sl.Op(op), slog.String("studio_id", id), slog.Bool("following", result.Following))
	return result, nil
}

// Following сообщает, подписан ли зритель на студию, по данным кеша.
func (s *Service) Following(viewer models.Session, id string) bool {
	if !viewer.Authenticated {
		return false
	}
	r, _ := s.follows.Peek(models.ReactionKey(viewer.UserID, id))
	return r.Active
}

// ForgetViewer удаляет подписки зрителя из кеша.
func (s *Service) ForgetViewer(userID string) int {
	return s.follows.InvalidatePrefix(userID + ":")
}

// Caches кеши сервиса для периодической очистки.
func (s *Service) Caches() []syncache.Sweepable {
	return []syncache.Sweepable{s.cache, s.follows, s.searchers}
}
