// Package sessionevents сбрасывает закешированное состояние зрителя, когда
// провайдер авторизации сообщает об изменении его сессии.
package sessionevents

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/magabrotheeeer/gamefolio/internal/lib/sl"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// StatusForgetter сбрасывает закешированный статус элитного доступа.
type StatusForgetter interface {
	Forget(userID string)
}

// ViewerCache кеш, хранящий состояние конкретного зрителя.
type ViewerCache interface {
	ForgetViewer(userID string) int
}

// Handler обрабатывает события изменения сессии.
type Handler struct {
	statuses StatusForgetter
	caches   []ViewerCache
	log      *slog.Logger
}

// New создает Handler.
func New(statuses StatusForgetter, log *slog.Logger, caches ...ViewerCache) *Handler {
	return &Handler{statuses: statuses, caches: caches, log: log}
}

// Handle разбирает тело сообщения и применяет событие. Сообщения, которые
// нельзя разобрать, пропускаются: повторная доставка их не исправит.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	const op = "services.sessionevents.Handle"

	var event models.SessionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Warn("malformed session event dropped", sl.Op(op), sl.Err(err))
		return nil
	}
	h.Apply(ctx, event)
	return nil
}

// Apply сбрасывает состояние пользователя из события.
func (h *Handler) Apply(_ context.Context, event models.SessionEvent) {
	const op = "services.sessionevents.Apply"

	if event.UserID == "" {
		h.log.Warn("session event without user id", sl.Op(op), slog.String("kind", string(event.Kind)))
		return
	}

	switch event.Kind {
	case models.EventLogin, models.EventLogout, models.EventRoleRefresh, models.EventSubscriptionChanged:
	default:
		h.log.Debug("unknown session event kind ignored", sl.Op(op), slog.String("kind", string(event.Kind)))
		return
	}

	if h.statuses != nil {
		h.statuses.Forget(event.UserID)
	}
	dropped := 0
	for _, c := range h.caches {
		dropped += c.ForgetViewer(event.UserID)
	}
	h.log.Info("viewer state dropped", sl.Op(op),
		slog.String("user_id", event.UserID),
		slog.String("kind", string(event.Kind)),
		slog.Int("entries", dropped),
	)
}
