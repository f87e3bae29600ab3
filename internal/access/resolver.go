package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/config"
	"github.com/magabrotheeeer/gamefolio/internal/lib/metrics"
	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
	"github.com/magabrotheeeer/gamefolio/internal/syncache"
)

const demoTTL = 30 * 24 * time.Hour

// Remote методы удаленного API, нужные резолверу.
type Remote interface {
	EliteStatus(ctx context.Context, token string) (models.EliteStatus, error)
	CreateOrder(ctx context.Context, token string, plan models.Plan, receipt string) (models.Order, error)
	VerifyPayment(ctx context.Context, token string, confirmation models.Confirmation) error
}

// FlagStore хранилище demo-флагов.
type FlagStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Checkout открывает хостовый чекаут платежного провайдера и возвращает результат оплаты.
type Checkout interface {
	Open(ctx context.Context, order models.Order) (models.Confirmation, error)
}

// EventPublisher публикует события сессий для других инстансов.
type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

// Decision результат проверки доступа для зрителя.
type Decision struct {
	Tier   models.AccessTier  `json:"tier"`
	Status models.EliteStatus `json:"eliteStatus"`
	Demo   bool               `json:"demo"`
}

type demoFlag struct {
	Enabled          bool                    `json:"enabled"`
	SubscriptionType models.SubscriptionType `json:"subscriptionType"`
	ExpiresAt        time.Time               `json:"expiresAt"`
}

// Resolver вычисляет уровень доступа с учетом статуса подписки из удаленного API.
type Resolver struct {
	remote   Remote
	flags    FlagStore
	statuses *syncache.Cache[models.EliteStatus]
	events   EventPublisher
	demoMode bool
	log      *slog.Logger
	now      func() time.Time
}

// NewResolver создает Resolver. events может быть nil.
func NewResolver(remote Remote, flags FlagStore, events EventPublisher, cfg config.Access, log *slog.Logger) *Resolver {
	r := &Resolver{
		remote:   remote,
		flags:    flags,
		events:   events,
		demoMode: cfg.DemoMode,
		log:      log,
		now:      time.Now,
	}
	// статусы кешируются по UserID, ID из значения не выводится
	r.statuses = syncache.New[models.EliteStatus]("elite_status", func(models.EliteStatus) string { return "" },
		syncache.WithLogger(log),
		syncache.WithMaxAge(cfg.StatusTTL),
		syncache.WithClock(func() time.Time { return r.now() }),
	)
	return r
}

func demoKey(userID string) string {
	return "demo-elite:" + userID
}

// EliteStatus возвращает статус подписки зрителя. Для гостя возвращается
// нулевой статус без запроса. При сбое удаленного API в demo-режиме
// используется локальный флаг.
func (r *Resolver) EliteStatus(ctx context.Context, session models.Session) (models.EliteStatus, error) {
	status, _, err := r.resolveStatus(ctx, session)
	return status, err
}

// resolveStatus дополнительно сообщает, получен ли статус из demo-флага.
// Флаг читается только когда удаленный статус получить не удалось.
func (r *Resolver) resolveStatus(ctx context.Context, session models.Session) (models.EliteStatus, bool, error) {
	const op = "access.Resolver.EliteStatus"

	if !session.Authenticated || session.UserID == "" {
		return models.EliteStatus{}, false, nil
	}

	status, found, err := r.statuses.Get(ctx, session.UserID, func(ctx context.Context) (models.EliteStatus, error) {
		return r.remote.EliteStatus(ctx, session.Token)
	})
	if err != nil {
		if r.demoMode {
			if demo, ok := r.demoStatus(ctx, session.UserID); ok {
				r.log.Warn("elite status unavailable, using demo flag", sl.Op(op), slog.String("user_id", session.UserID), sl.Err(err))
				return demo, true, nil
			}
		}
		return models.EliteStatus{}, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return models.EliteStatus{}, false, nil
	}
	return status, false, nil
}

func (r *Resolver) demoStatus(ctx context.Context, userID string) (models.EliteStatus, bool) {
	var flag demoFlag
	found, err := r.flags.Get(ctx, demoKey(userID), &flag)
	if err != nil {
		r.log.Warn("failed to read demo flag", slog.String("user_id", userID), sl.Err(err))
		return models.EliteStatus{}, false
	}
	if !found || !flag.Enabled || !r.now().Before(flag.ExpiresAt) {
		return models.EliteStatus{}, false
	}
	days := int(flag.ExpiresAt.Sub(r.now()).Hours() / 24)
	return models.EliteStatus{
		HasEliteAccess:   true,
		SubscriptionType: flag.SubscriptionType,
		DaysRemaining:    days,
		IsExpiringSoon:   days <= 7,
	}, true
}

// Tier вычисляет решение о доступе. Никогда не возвращает ошибку: если
// статус подписки получить не удалось, зритель считается без подписки.
func (r *Resolver) Tier(ctx context.Context, session models.Session) Decision {
	status, demo, err := r.resolveStatus(ctx, session)
	if err != nil {
		r.log.Warn("resolving tier without elite status", slog.String("user_id", session.UserID), sl.Err(err))
		status = models.EliteStatus{}
	}

	tier := ComputeTier(session, status, demo)
	metrics.TierResolutions.WithLabelValues(string(tier)).Inc()
	return Decision{Tier: tier, Status: status, Demo: demo}
}

// Upgrade повышает подписку зрителя: создает заказ, открывает чекаут,
// передает подтверждение на проверку и перечитывает статус.
// Любой сбой возвращается как apperr.ErrUpgrade, успех не предполагается.
func (r *Resolver) Upgrade(ctx context.Context, session models.Session, plan models.Plan, checkout Checkout) (models.EliteStatus, error) {
	const op = "access.Resolver.Upgrade"

	order, err := r.CreateOrder(ctx, session, plan)
	if err != nil {
		return models.EliteStatus{}, err
	}

	confirmation, err := checkout.Open(ctx, order)
	if err != nil {
		r.log.Error("checkout failed", sl.Op(op), slog.String("user_id", session.UserID), sl.Err(err))
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(err))
	}
	if confirmation.OrderID == "" {
		confirmation.OrderID = order.ID
	}

	return r.CompleteUpgrade(ctx, session, confirmation)
}

// CreateOrder первый шаг апгрейда: проверяет план и создает заказ для чекаута.
func (r *Resolver) CreateOrder(ctx context.Context, session models.Session, plan models.Plan) (models.Order, error) {
	const op = "access.Resolver.CreateOrder"

	if !plan.Valid() {
		return models.Order{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(apperr.Validation("unknown plan %q", plan)))
	}
	if !session.Authenticated || session.UserID == "" {
		return models.Order{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(apperr.ErrUnauthorized))
	}

	order, err := r.remote.CreateOrder(ctx, session.Token, plan, uuid.NewString())
	if err != nil {
		r.log.Error("failed to create order", sl.Op(op), slog.String("user_id", session.UserID), sl.Err(err))
		return models.Order{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(err))
	}
	if order.Plan == "" {
		order.Plan = plan
	}
	return order, nil
}

// CompleteUpgrade второй шаг апгрейда: передает подтверждение чекаута на
// проверку, сбрасывает закешированный статус и перечитывает его.
// Апгрейд считается неудачным, если после проверки элитный доступ не активен.
func (r *Resolver) CompleteUpgrade(ctx context.Context, session models.Session, confirmation models.Confirmation) (models.EliteStatus, error) {
	const op = "access.Resolver.CompleteUpgrade"
	log := r.log.With(sl.Op(op), slog.String("user_id", session.UserID), slog.String("order_id", confirmation.OrderID))

	if !session.Authenticated || session.UserID == "" {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(apperr.ErrUnauthorized))
	}
	if !confirmation.Success {
		log.Warn("checkout was not completed")
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(errors.New("payment was not completed")))
	}
	if confirmation.OrderID == "" {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(apperr.Validation("order id is required")))
	}

	if err := r.remote.VerifyPayment(ctx, session.Token, confirmation); err != nil {
		log.Error("payment verification failed", sl.Err(err))
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(err))
	}

	r.statuses.Forget(session.UserID)
	status, err := r.EliteStatus(ctx, session)
	if err != nil {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(err))
	}
	if !status.HasEliteAccess {
		return status, fmt.Errorf("%s: %w", op, apperr.Upgrade(errors.New("payment verified but elite access is not active")))
	}

	log.Info("subscription upgraded")
	r.publish(ctx, session.UserID, models.EventSubscriptionChanged)
	return status, nil
}

// EnableDemo включает demo-доступ зрителю. Работает только в demo-режиме.
func (r *Resolver) EnableDemo(ctx context.Context, session models.Session, plan models.Plan) (models.EliteStatus, error) {
	const op = "access.Resolver.EnableDemo"

	if !r.demoMode {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(errors.New("demo mode is disabled")))
	}
	if !plan.Valid() {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(apperr.Validation("unknown plan %q", plan)))
	}
	if !session.Authenticated || session.UserID == "" {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(apperr.ErrUnauthorized))
	}

	subType := models.SubscriptionViewer
	if plan == models.PlanCreator {
		subType = models.SubscriptionCreator
	}
	flag := demoFlag{Enabled: true, SubscriptionType: subType, ExpiresAt: r.now().Add(demoTTL)}
	if err := r.flags.Set(ctx, demoKey(session.UserID), flag, demoTTL); err != nil {
		return models.EliteStatus{}, fmt.Errorf("%s: %w", op, apperr.Upgrade(err))
	}
	r.statuses.Forget(session.UserID)

	status, _ := r.demoStatus(ctx, session.UserID)
	r.log.Info("demo elite access enabled", sl.Op(op), slog.String("user_id", session.UserID))
	return status, nil
}

// DisableDemo снимает demo-флаг зрителя.
func (r *Resolver) DisableDemo(ctx context.Context, userID string) error {
	r.statuses.Forget(userID)
	return r.flags.Delete(ctx, demoKey(userID))
}

// Caches кеш статусов для периодической очистки.
func (r *Resolver) Caches() []syncache.Sweepable {
	return []syncache.Sweepable{r.statuses}
}

// Forget сбрасывает закешированный статус подписки пользователя.
func (r *Resolver) Forget(userID string) {
	r.statuses.Forget(userID)
}

func (r *Resolver) publish(ctx context.Context, userID string, kind models.SessionEventKind) {
	if r.events == nil {
		return
	}
	event := models.SessionEvent{UserID: userID, Kind: kind, At: r.now()}
	if err := r.events.Publish(ctx, event); err != nil {
		r.log.Warn("failed to publish session event", slog.String("user_id", userID), sl.Err(err))
	}
}
