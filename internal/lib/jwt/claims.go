package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/gamefolio/internal/models"
)

// Identity данные пользователя, которые провайдер кладет в токен.
type Identity struct {
	UserID           string
	Role             models.Role
	SubscriptionType models.SubscriptionType
	ProfileID        string
}

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
// ID пользователя передается в стандартном поле sub.
type CustomClaims struct {
	Role                 string `json:"role"`
	SubscriptionType     string `json:"subscription_type,omitempty"`
	ProfileID            string `json:"profile_id,omitempty"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, Subject
}

// GenerateToken создает JWT токен для identity, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(identity Identity) (string, error) {
	const op = "jwt.GenerateToken"
	if identity.UserID == "" {
		return "", fmt.Errorf("%s: user id is required", op)
	}
	now := time.Now()
	claims := CustomClaims{
		Role:             string(identity.Role),
		SubscriptionType: string(identity.SubscriptionType),
		ProfileID:        identity.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("token has no subject"))
	}
	return claims, nil
}

// Session собирает сессию зрителя из claims. Неизвестная роль считается USER.
func (c *CustomClaims) Session(raw string) models.Session {
	role := models.Role(c.Role)
	switch role {
	case models.RoleUser, models.RolePremium, models.RoleAdmin:
	default:
		role = models.RoleUser
	}
	return models.Session{
		UserID:           c.Subject,
		Authenticated:    true,
		Role:             role,
		SubscriptionType: models.SubscriptionType(c.SubscriptionType),
		OwnedProfileID:   c.ProfileID,
		Token:            raw,
	}
}
