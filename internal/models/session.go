// Package models содержит доменные структуры BFF: сессию зрителя,
// статус элитного доступа, уровни доступа, контент портфолио и страницы списков.
package models

import "time"

// Role роль пользователя, выданная внешним провайдером авторизации.
type Role string

const (
	RoleGuest   Role = "GUEST"
	RoleUser    Role = "USER"
	RolePremium Role = "PREMIUM"
	RoleAdmin   Role = "ADMIN"
)

// SubscriptionType тип платной подписки. Пустое значение: подписки нет.
type SubscriptionType string

const (
	SubscriptionNone    SubscriptionType = ""
	SubscriptionViewer  SubscriptionType = "VIEWER"
	SubscriptionCreator SubscriptionType = "CREATOR"
)

// Session представляет текущего зрителя запроса.
// Сессией владеет внешний провайдер авторизации, ядро ее только читает.
type Session struct {
	UserID           string           `json:"user_id,omitempty"`
	Authenticated    bool             `json:"authenticated"`
	Role             Role             `json:"role"`
	SubscriptionType SubscriptionType `json:"subscription_type,omitempty"`
	OwnedProfileID   string           `json:"owned_profile_id,omitempty"` // пусто, если у зрителя нет профиля
	Token            string           `json:"-"`                          // исходный bearer-токен для удаленного API
	ClientID         string           `json:"-"`                          // идентификатор клиента гостя
}

// GuestSession возвращает сессию неавторизованного зрителя.
func GuestSession() Session {
	return Session{Role: RoleGuest}
}

// Owns сообщает, является ли зритель владельцем профиля.
func (s Session) Owns(profileID string) bool {
	return s.Authenticated && s.OwnedProfileID != "" && s.OwnedProfileID == profileID
}

// ViewerKey ключ зрителя для состояния, которое нельзя делить между зрителями.
// Гости различаются по ClientID.
func (s Session) ViewerKey() string {
	if s.Authenticated && s.UserID != "" {
		return "user:" + s.UserID
	}
	return "guest:" + s.ClientID
}

// SessionEventKind вид изменения сессии, о котором сообщает провайдер авторизации.
type SessionEventKind string

const (
	EventLogin               SessionEventKind = "login"
	EventLogout              SessionEventKind = "logout"
	EventRoleRefresh         SessionEventKind = "role_refresh"
	EventSubscriptionChanged SessionEventKind = "subscription_changed"
)

// SessionEvent уведомление об изменении сессии пользователя.
type SessionEvent struct {
	UserID string           `json:"user_id"`
	Kind   SessionEventKind `json:"kind"`
	At     time.Time        `json:"at"`
}
