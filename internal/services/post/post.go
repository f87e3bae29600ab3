// Package post содержит бизнес-логику ленты публикаций (обзоры, документалки,
// подкасты, статьи) и лайков.
package post

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

// API методы удаленного API для публикаций.
type API interface {
	ListPosts(ctx context.Context, token string, kind models.PostKind, page, size int) (models.Page[models.Post], error)
	GetPost(ctx context.Context, token, id string) (models.Post, error)
	LikePost(ctx context.Context, token, id string) (models.LikeResult, error)
}

// Service работает с лентой через общий кеш. Лента каждого типа хранится
// под своим ключом, а сама публикация одна на все ленты.
type Service struct {
	api       API
	cache     *syncache.Cache[models.Post]
	reactions *syncache.Cache[models.Reaction]
	pageSize  int
	log       *slog.Logger
}

// New создает Service.
func New(api API, cfg config.Cache, log *slog.Logger) *Service {
	opts := []syncache.Option{syncache.WithLogger(log), syncache.WithPageSize(cfg.PageSize)}
	return &Service{
		api:       api,
		cache:     syncache.New("posts", func(p models.Post) string { return p.ID }, opts...),
		reactions: syncache.New("post_likes", func(r models.Reaction) string { return r.Key }, opts...),
		pageSize:  cfg.PageSize,
		log:       log,
	}
}

// feedKey ключ ленты. Пустой kind означает общую ленту.
func feedKey(kind models.PostKind) string {
	if kind == "" {
		return "posts:all"
	}
	return "posts:" + string(kind)
}

func validKind(kind models.PostKind) bool {
	switch kind {
	case "", models.KindReview, models.KindDocumentary, models.KindPodcast, models.KindArticle:
		return true
	}
	return false
}

func (s *Service) loader(viewer models.Session, kind models.PostKind) syncache.LoadFunc[models.Post] {
	return func(ctx context.Context, page, size int) (models.Page[models.Post], error) {
		return s.api.ListPosts(ctx, viewer.Token, kind, page, size)
	}
}

// List возвращает страницу ленты заданного типа.
func (s *Service) List(ctx context.Context, viewer models.Session, kind models.PostKind, page int) (models.Collection[models.Post], error) {
	const op = "services.post.List"
	if !validKind(kind) {
		return models.Collection[models.Post]{}, fmt.Errorf("%s: %w", op, apperr.Validation("unknown post type %q", kind))
	}
	return s.cache.FetchPage(ctx, feedKey(kind), page, s.pageSize, s.loader(viewer, kind))
}

// LoadMore подгружает следующую страницу ленты.
func (s *Service) LoadMore(ctx context.Context, viewer models.Session, kind models.PostKind) (models.Collection[models.Post], error) {
	const op = "services.post.LoadMore"
	if !validKind(kind) {
		return models.Collection[models.Post]{}, fmt.Errorf("%s: %w", op, apperr.Validation("unknown post type %q", kind))
	}
	return s.cache.LoadMore(ctx, feedKey(kind), s.loader(viewer, kind))
}

// Refresh перезагружает ленту.
func (s *Service) Refresh(ctx context.Context, viewer models.Session, kind models.PostKind) (models.Collection[models.Post], error) {
	const op = "services.post.Refresh"
	if !validKind(kind) {
		return models.Collection[models.Post]{}, fmt.Errorf("%s: %w", op, apperr.Validation("unknown post type %q", kind))
	}
	return s.cache.Refresh(ctx, feedKey(kind), s.loader(viewer, kind))
}

func (s *Service) Get(ctx context.Context, viewer models.Session, id string) (models.Post, bool, error) {
	return s.cache.Get(ctx, id, func(ctx context.Context) (models.Post, error) {
		return s.api.GetPost(ctx, viewer.Token, id)
	})
}

// ToggleLike ставит или снимает лайк. Счетчик и отметка зрителя меняются
// сразу и сверяются с ответом сервера, при ошибке возвращаются назад.
func (s *Service) ToggleLike(ctx context.Context, viewer models.Session, id string) (models.LikeResult, error) {
	const op = "services.post.ToggleLike"

	if !viewer.Authenticated {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, apperr.ErrUnauthorized)
	}

	key := models.ReactionKey(viewer.UserID, id)
	s.reactions.Ensure(key, models.Reaction{Key: key})
	liked, _ := s.reactions.Peek(key)
	delta := 1
	if liked.Active {
		delta = -1
	}

	var result models.LikeResult
	like := func(ctx context.Context) (models.Post, error) {
		res, err := s.api.LikePost(ctx, viewer.Token, id)
		if err != nil {
			return models.Post{}, err
		}
		result = res
		current, ok := s.cache.Peek(id)
		if !ok {
			if current, err = s.api.GetPost(ctx, viewer.Token, id); err != nil {
				return models.Post{}, err
			}
		}
		current.Likes = res.Likes
		return current, nil
	}

	_, err := s.reactions.Mutate(ctx, key, syncache.KindLike, func(r models.Reaction) models.Reaction {
		r.Active = !r.Active
		return r
	}, func(ctx context.Context) (models.Reaction, error) {
		if _, cached := s.cache.Peek(id); cached {
			if _, err := s.cache.Mutate(ctx, id, syncache.KindLike, func(p models.Post) models.Post {
				p.Likes = max(0, p.Likes+delta)
				return p
			}, like); err != nil {
				return models.Reaction{}, err
			}
		} else {
			res, err := s.api.LikePost(ctx, viewer.Token, id)
			if err != nil {
				return models.Reaction{}, err
			}
			result = res
		}
		return models.Reaction{Key: key, Active: result.Liked}, nil
	})
	if err != nil {
		return models.LikeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("post like toggled", sl.Op(op), slog.String("post_id", id), slog.Bool("liked", result.Liked))
	return result, nil
}

// Liked сообщает, лайкнул ли зритель публикацию, по данным кеша.
func (s *Service) Liked(viewer models.Session, id string) bool {
	if !viewer.Authenticated {
		return false
	}
	r, _ := s.reactions.Peek(models.ReactionKey(viewer.UserID, id))
	return r.Active
}

// ForgetViewer удаляет лайки зрителя из кеша.
func (s *Service) ForgetViewer(userID string) int {
	return s.reactions.InvalidatePrefix(userID + ":")
}

// Caches кеши сервиса для периодической очистки.
func (s *Service) Caches() []syncache.Sweepable {
	return []syncache.Sweepable{s.cache, s.reactions}
}
