// Package membership обрабатывает запросы об уровне доступа зрителя и апгрейде подписки.
package membership

import (
	"context"

	"github.com/magabrotheeeer/gamefolio/internal/access"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Resolver определяет интерфейс вычисления уровня доступа и апгрейда.
type Resolver interface {
	Tier(ctx context.Context, session models.Session) access.Decision
	CreateOrder(ctx context.Context, session models.Session, plan models.Plan) (models.Order, error)
	CompleteUpgrade(ctx context.Context, session models.Session, confirmation models.Confirmation) (models.EliteStatus, error)
	EnableDemo(ctx context.Context, session models.Session, plan models.Plan) (models.EliteStatus, error)
	DisableDemo(ctx context.Context, userID string) error
}

// PlanRequest тело запроса с тарифным планом.
type PlanRequest struct {
	Plan models.Plan `json:"plan" validate:"required,oneof=viewer creator"`
}

// UpgradeRequest подтверждение хостового чекаута.
type UpgradeRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}
