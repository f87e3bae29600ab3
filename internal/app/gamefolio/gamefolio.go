package gamefolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/gamefolio/internal/access"
	"github.com/magabrotheeeer/gamefolio/internal/config"
	"github.com/magabrotheeeer/gamefolio/internal/flagstore"
	"github.com/magabrotheeeer/gamefolio/internal/http/middlewarectx"
	"github.com/magabrotheeeer/gamefolio/internal/lib/jwt"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/rabbitmq"
	"github.com/magabrotheeeer/gamefolio/internal/remoteapi"
	"github.com/magabrotheeeer/gamefolio/internal/services/portfolio"
	"github.com/magabrotheeeer/gamefolio/internal/services/post"
	"github.com/magabrotheeeer/gamefolio/internal/services/profile"
	"github.com/magabrotheeeer/gamefolio/internal/services/sessionevents"
	"github.com/magabrotheeeer/gamefolio/internal/services/studio"
	"github.com/magabrotheeeer/gamefolio/internal/services/sweeper"
)

// App HTTP-сервер BFF и его фоновые задачи.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	sweeper  *sweeper.Sweeper
	events   *sessionevents.Handler
	consumer *rabbitmq.Consumer
	cfg      *config.Config
	closers  []func() error
}

// New собирает приложение по конфигу.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.gamefolio.New"
	a := &App{logger: logger, cfg: cfg}

	var flags access.FlagStore = flagstore.NewMemory()
	if cfg.AddressRedis != "" {
		redisFlags, err := flagstore.NewRedis(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, redisFlags.Close)
		flags = redisFlags
	} else {
		logger.Warn("redis is not configured, demo flags are kept in memory")
	}

	var events access.EventPublisher
	var conn *amqp.Connection
	if cfg.RabbitMQ.URL != "" {
		var err error
		conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQ)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, conn.Close)

		pubCh, err := conn.Channel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = rabbitmq.NewSessionPublisher(pubCh, cfg.Exchange)
	} else {
		logger.Warn("rabbitmq is not configured, session events are disabled")
	}

	remote := remoteapi.NewClient(cfg.BaseURL, cfg.RemoteAPI.Timeout)
	resolver := access.NewResolver(remote, flags, events, cfg.Access, logger)
	portfolioService := portfolio.New(remote, cfg.Cache, logger)
	studioService := studio.New(remote, cfg.Cache, logger)
	postService := post.New(remote, cfg.Cache, logger)
	profileService := profile.New(portfolioService, resolver, logger)

	a.events = sessionevents.New(resolver, logger, portfolioService, studioService, postService)
	if conn != nil {
		queues := rabbitmq.SessionQueues(cfg.SessionQueue, uuid.NewString())
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ, queues)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.consumer = rabbitmq.NewConsumer(ch, queues[0].QueueName, cfg.Workers, a.events.Handle, logger)
		if err := a.consumer.Start(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	caches := resolver.Caches()
	caches = append(caches, portfolioService.Caches()...)
	caches = append(caches, studioService.Caches()...)
	caches = append(caches, postService.Caches()...)
	a.sweeper = sweeper.New(cfg.SweepSchedule, cfg.StaleAfter, logger, caches...)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Tokens:     jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Limiter:    middlewarectx.NewLimiter(cfg.RateLimit),
		Resolver:   resolver,
		Portfolios: portfolioService,
		Profiles:   profileService,
		Studios:    studioService,
		Posts:      postService,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run запускает сервер и очистку кешей, останавливает их по отмене ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.sweeper.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
		a.sweeper.Stop(timeoutCtx)
		if a.consumer != nil {
			a.consumer.Wait()
		}
	}
	a.Close()
	return err
}

// Close освобождает подключения к Redis и RabbitMQ.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
