package models

import "strings"

// AccessTier уровень доступа зрителя. Вычисляется заново при каждой проверке.
type AccessTier string

const (
	TierGuest         AccessTier = "guest"
	TierAuthenticated AccessTier = "authenticated"
	TierElite         AccessTier = "elite"
)

// VisibilityField поле профиля, видимость которого зависит от уровня доступа.
type VisibilityField string

const (
	FieldSkills  VisibilityField = "skills"
	FieldBio     VisibilityField = "bio"
	FieldStats   VisibilityField = "stats"
	FieldContact VisibilityField = "contact"
	FieldResume  VisibilityField = "resume"
)

// GatedFields все закрываемые поля в порядке отображения.
var GatedFields = []VisibilityField{FieldSkills, FieldBio, FieldStats, FieldContact, FieldResume}

// EliteStatus кешируемые факты о подписке зрителя.
type EliteStatus struct {
	HasEliteAccess   bool             `json:"hasEliteAccess"`
	SubscriptionType SubscriptionType `json:"subscriptionType"`
	DaysRemaining    int              `json:"daysRemaining"`
	IsExpiringSoon   bool             `json:"isExpiringSoon"`
}

// Normalize приводит статус к инвариантам: дни не отрицательны, тип в верхнем регистре.
func (e EliteStatus) Normalize() EliteStatus {
	if e.DaysRemaining < 0 {
		e.DaysRemaining = 0
	}
	e.SubscriptionType = SubscriptionType(strings.ToUpper(string(e.SubscriptionType)))
	return e
}

// Plan тарифный план апгрейда.
type Plan string

const (
	PlanViewer  Plan = "viewer"
	PlanCreator Plan = "creator"
)

// Valid сообщает, входит ли план в список поддерживаемых.
func (p Plan) Valid() bool {
	return p == PlanViewer || p == PlanCreator
}

// Order заказ на оплату, созданный удаленным API для хостового чекаута.
type Order struct {
	ID       string `json:"orderId"`
	Plan     Plan   `json:"plan"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Confirmation результат чекаута, который передается на серверную проверку.
type Confirmation struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}
