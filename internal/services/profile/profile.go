// Package profile собирает карточку портфолио для конкретного зрителя:
// публичная часть видна всем, закрытые поля отдаются только если
// их разрешает уровень доступа.
package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/gamefolio/internal/access"
	"github.com/magabrotheeeer/gamefolio/internal/apperr"
	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Portfolios источник портфолио.
type Portfolios interface {
	Get(ctx context.Context, viewer models.Session, id string) (models.Portfolio, bool, error)
}

// TierResolver вычисляет уровень доступа зрителя.
type TierResolver interface {
	Tier(ctx context.Context, session models.Session) access.Decision
}

// Summary публичная часть портфолио.
type Summary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	AvatarURL     string  `json:"avatarUrl"`
	Role          string  `json:"role"`
	Location      string  `json:"location"`
	IsPremium     bool    `json:"isPremium"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}

// View карточка портфолио для зрителя. Закрытые поля, которые зрителю не
// положены, не заполняются и перечисляются в Locked.
type View struct {
	Summary
	Skills    []string                 `json:"skills,omitempty"`
	Bio       string                   `json:"bio,omitempty"`
	Stats     *models.Stats            `json:"stats,omitempty"`
	Contact   *models.Contact          `json:"contact,omitempty"`
	ResumeURL string                   `json:"resumeUrl,omitempty"`
	Locked    []models.VisibilityField `json:"locked"`
	Tier      models.AccessTier        `json:"tier"`
	Own       bool                     `json:"own"`
}

// Service строит карточки портфолио.
type Service struct {
	portfolios Portfolios
	resolver   TierResolver
	log        *slog.Logger
}

// New создает Service.
func New(portfolios Portfolios, resolver TierResolver, log *slog.Logger) *Service {
	return &Service{portfolios: portfolios, resolver: resolver, log: log}
}

// View возвращает карточку портфолио id для зрителя.
func (s *Service) View(ctx context.Context, viewer models.Session, id string) (View, error) {
	const op = "services.profile.View"

	p, found, err := s.portfolios.Get(ctx, viewer, id)
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return View{}, fmt.Errorf("%s: portfolio %s: %w", op, id, apperr.ErrNotFound)
	}

	decision := s.resolver.Tier(ctx, viewer)
	own := viewer.Owns(p.ID) || (viewer.Authenticated && p.OwnerID != "" && p.OwnerID == viewer.UserID)
	return Project(p, decision.Tier, own), nil
}

// SummaryOf публичная часть портфолио, которую видит любой зритель.
func SummaryOf(p models.Portfolio) Summary {
	return Summary{
		ID:            p.ID,
		Name:          p.Name,
		AvatarURL:     p.AvatarURL,
		Role:          p.Role,
		Location:      p.Location,
		IsPremium:     p.IsPremium,
		AverageRating: p.AverageRating,
		RatingCount:   p.RatingCount,
	}
}

// Project проецирует портфолио на уровень доступа.
func Project(p models.Portfolio, tier models.AccessTier, own bool) View {
	v := View{
		Summary: SummaryOf(p),
		Locked:  []models.VisibilityField{},
		Tier:    tier,
		Own:     own,
	}

	for _, field := range models.GatedFields {
		if !access.CanViewField(field, tier, own) {
			v.Locked = append(v.Locked, field)
			continue
		}
		switch field {
		case models.FieldSkills:
			v.Skills = p.Skills
		case models.FieldBio:
			v.Bio = p.Bio
		case models.FieldStats:
			v.Stats = p.Stats
		case models.FieldContact:
			v.Contact = p.Contact
		case models.FieldResume:
			v.ResumeURL = p.ResumeURL
		}
	}
	return v
}
