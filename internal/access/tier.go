// Package access решает, что может видеть зритель: вычисляет уровень доступа
// (guest, authenticated, elite) и видимость закрытых полей профиля.
//
// Уровень доступа нигде не хранится и вычисляется заново из свежих Session и
// EliteStatus при каждой проверке, поэтому он не может устареть относительно входных данных.
package access

import "github.com/magabrotheeeer/gamefolio/internal/models"

// ComputeTier вычисляет уровень доступа. Функция тотальна.
//   - неавторизованный зритель всегда guest, независимо от статуса подписки;
//   - роль PREMIUM или ADMIN, активный элитный статус или demo-флаг дают elite;
//   - иначе authenticated.
func ComputeTier(session models.Session, status models.EliteStatus, demo bool) models.AccessTier {
	if !session.Authenticated {
		return models.TierGuest
	}
	if session.Role == models.RolePremium || session.Role == models.RoleAdmin || status.HasEliteAccess || demo {
		return models.TierElite
	}
	return models.TierAuthenticated
}

// CanViewField строгий allow-list: elite видит все, владелец видит свой профиль,
// остальным закрыты все поля из models.GatedFields. Размытие и прочие
// частичные представления в интерфейсе косметические и правил не меняют.
func CanViewField(field models.VisibilityField, tier models.AccessTier, isOwnProfile bool) bool {
	if tier == models.TierElite {
		return true
	}
	if isOwnProfile {
		return true
	}
	// authenticated без elite по поведению совпадает с guest
	return false
}

// Visibility возвращает решение по каждому закрытому полю.
func Visibility(tier models.AccessTier, isOwnProfile bool) map[models.VisibilityField]bool {
	out := make(map[models.VisibilityField]bool, len(models.GatedFields))
	for _, f := range models.GatedFields {
		out[f] = CanViewField(f, tier, isOwnProfile)
	}
	return out
}
