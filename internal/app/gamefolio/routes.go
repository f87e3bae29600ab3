// Package gamefolio собирает BFF: сервисы, кеши, маршруты и фоновые задачи.
package gamefolio

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/health"
	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/membership"
	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/portfolios"
	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/posts"
	"github.com/magabrotheeeer/gamefolio/internal/http/handlers/studios"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
)

// Deps зависимости обработчиков.
type Deps struct {
	Tokens     middlewarectx.TokenParser
	Limiter    *middlewarectx.Limiter
	Resolver   membership.Resolver
	Portfolios portfolios.Service
	Profiles   portfolios.Profiles
	Studios    studios.Service
	Posts      posts.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New().ServeHTTP)

		// Гость допускается, невалидный токен отклоняется
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Session(d.Tokens, logger))
			r.Use(middlewarectx.RateLimit(d.Limiter, logger))

			r.Get("/access/me", membership.NewMe(d.Resolver).ServeHTTP)
			r.Post("/access/orders", membership.NewOrder(logger, d.Resolver).ServeHTTP)
			r.Post("/access/upgrade", membership.NewUpgrade(logger, d.Resolver).ServeHTTP)
			demo := membership.NewDemo(logger, d.Resolver)
			r.Post("/access/demo", demo.Enable)
			r.Delete("/access/demo", demo.Disable)

			r.Get("/portfolios", portfolios.NewList(logger, d.Portfolios).ServeHTTP)
			r.Get("/portfolios/search", portfolios.NewSearch(logger, d.Portfolios).ServeHTTP)
			r.Get("/portfolios/{id}", portfolios.NewRead(logger, d.Profiles).ServeHTTP)
			r.Post("/portfolios/{id}/rate", portfolios.NewRate(logger, d.Portfolios).ServeHTTP)
			r.Get("/portfolios/{id}/my-rating", portfolios.NewMyRating(logger, d.Portfolios).ServeHTTP)

			r.Get("/studios", studios.NewList(logger, d.Studios).ServeHTTP)
			r.Get("/studios/{id}", studios.NewRead(logger, d.Studios).ServeHTTP)
			r.Post("/studios/{id}/follow", studios.NewFollow(logger, d.Studios).ServeHTTP)

			r.Get("/posts", posts.NewList(logger, d.Posts).ServeHTTP)
			r.Get("/posts/{id}", posts.NewRead(logger, d.Posts).ServeHTTP)
			r.Post("/posts/{id}/like", posts.NewLike(logger, d.Posts).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
